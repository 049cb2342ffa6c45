package domain

import "time"

// ChangeType defines the category of a store change.
type ChangeType string

const (
	// ChangeMutation is a tracked edit (it pushed an undo snapshot).
	ChangeMutation ChangeType = "mutation"
	// ChangeTransient is an untracked edit such as dragging a node.
	ChangeTransient ChangeType = "transient"
	ChangeUndo      ChangeType = "undo"
	ChangeRedo      ChangeType = "redo"
	ChangeImport    ChangeType = "import"
	ChangeReset     ChangeType = "reset"
	// ChangeUI covers selection and panel toggles; the graph is untouched.
	ChangeUI ChangeType = "ui"
)

// ChangeEvent is published by a store after a change commits.
type ChangeEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Type      ChangeType `json:"type"`
	// Op names the store operation, e.g. "add_node".
	Op       string     `json:"op"`
	Revision uint64     `json:"revision"`
	Diff     *GraphDiff `json:"diff,omitempty"`
	Valid    bool       `json:"is_valid"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
}
