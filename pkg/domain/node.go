package domain

// Position is a point on the editor canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Node is a single prompt step of the flow.
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Position    Position `json:"position" yaml:"position"`

	// Width and Height are the measured box size reported by the canvas.
	// Zero means unknown; layout then assumes DefaultNodeWidth x DefaultNodeHeight.
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`

	// Selected mirrors the canvas selection.
	Selected bool `json:"selected,omitempty" yaml:"-"`
}

// Size returns the box size used for layout.
func (n Node) Size() (width, height float64) {
	width, height = n.Width, n.Height
	if width <= 0 {
		width = DefaultNodeWidth
	}
	if height <= 0 {
		height = DefaultNodeHeight
	}
	return width, height
}

// NodePatch is a partial update of the data fields of a node.
// Nil fields are left untouched.
type NodePatch struct {
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	Prompt      *string `json:"prompt,omitempty"`
}

// IsEmpty reports whether the patch sets no field.
func (p NodePatch) IsEmpty() bool {
	return p.Label == nil && p.Description == nil && p.Prompt == nil
}

// Apply returns a copy of n with the patch merged in.
func (p NodePatch) Apply(n Node) Node {
	if p.Label != nil {
		n.Label = *p.Label
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Prompt != nil {
		n.Prompt = *p.Prompt
	}
	return n
}
