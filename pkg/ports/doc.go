/*
Package ports defines the driven ports (interfaces) of the flow editor.

These interfaces decouple the editing core from external implementations, so a
flow can be kept in memory, on disk or in Redis without the store or the
servers knowing which.

# Key Interfaces

  - DocumentStore: persists named flow documents.
  - DistributedLocker: coordinates edits of the same flow across replicas.
*/
package ports
