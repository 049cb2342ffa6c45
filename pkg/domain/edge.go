package domain

import "maps"

// Edge is a directed transition between two nodes.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	// Condition is the free text shown on the transition.
	Condition string `json:"condition" yaml:"condition"`

	// Parameters are optional string pairs attached to the transition.
	Parameters map[string]string `json:"parameters" yaml:"parameters"`

	// Handles identify the connection points on the canvas, if any.
	SourceHandle string `json:"source_handle,omitempty" yaml:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty" yaml:"target_handle,omitempty"`

	Selected bool `json:"selected,omitempty" yaml:"-"`
}

// Connection is a request to link two nodes, as emitted by the canvas.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// EdgePatch is a partial update of the data fields of an edge.
type EdgePatch struct {
	Condition  *string           `json:"condition,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// IsEmpty reports whether the patch sets no field.
func (p EdgePatch) IsEmpty() bool {
	return p.Condition == nil && p.Parameters == nil
}

// Apply returns a copy of e with the patch merged in. Parameters of the
// result are never nil.
func (p EdgePatch) Apply(e Edge) Edge {
	e.Parameters = CloneParameters(e.Parameters)
	if p.Condition != nil {
		e.Condition = *p.Condition
	}
	if p.Parameters != nil {
		e.Parameters = CloneParameters(p.Parameters)
	}
	return e
}

// CloneParameters copies a parameter map. The result is never nil.
func CloneParameters(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	maps.Copy(out, params)
	return out
}
