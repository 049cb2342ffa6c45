/*
Package session coordinates concurrent editing of persisted flows.

A Manager keeps recently used editors (store.Store values) in an LRU cache keyed
by flow name, serializes every operation on a flow with a per-flow lock
(optionally backed by a distributed lock) and writes the document back to the
DocumentStore after each change.
*/
package session
