/*
Package store holds the editable state of a prompt flow.

A Store owns the graph, a bounded undo/redo history, the editor UI flags and
the issues of the last validation pass. Every tracked edit follows the same
sequence: push a snapshot of the current graph, apply the edit, re-validate,
notify subscribers.

	s := store.New()
	a := s.AddNode()
	b := s.AddNode()
	s.AddEdge(domain.Connection{Source: a.ID, Target: b.ID})
	s.SetStartNode(a.ID)
	out, _ := s.ExportJSON()

A Store is not safe for concurrent use. Share it through session.Manager.
*/
package store
