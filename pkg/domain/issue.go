package domain

// Severity separates blocking problems from suspicious but usable graphs.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueCode discriminates the kind of an Issue.
type IssueCode string

const (
	// Structural codes, produced by the schema validator.
	CodeInvalidShape      IssueCode = "invalid_shape"
	CodeInvalidType       IssueCode = "invalid_type"
	CodeEmptyField        IssueCode = "empty_field"
	CodeDuplicateNodeID   IssueCode = "duplicate_node_id"
	CodeUnknownStartNode  IssueCode = "unknown_start_node"
	CodeUnknownEdgeTarget IssueCode = "unknown_edge_target"

	// Graph codes, produced by the analyzer.
	CodeStartNotFound IssueCode = "start_not_found"
	CodeSelfLoop      IssueCode = "self_loop"
	CodeDisconnected  IssueCode = "disconnected"
)

// Issue is a single validation finding.
type Issue struct {
	Severity Severity  `json:"type"`
	Code     IssueCode `json:"code"`
	Message  string    `json:"message"`
	NodeID   string    `json:"node_id,omitempty"`
	EdgeID   string    `json:"edge_id,omitempty"`
	Field    string    `json:"field,omitempty"`

	// Path holds the raw location segments (string keys and int indexes) of a
	// structural issue. Field is the dotted rendering of Path.
	Path []any `json:"-"`
}

// Result groups the issues of a validation pass.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Valid    bool    `json:"is_valid"`
}

// NewResult builds a Result, deriving Valid from the error count.
func NewResult(errs, warnings []Issue) Result {
	if errs == nil {
		errs = []Issue{}
	}
	if warnings == nil {
		warnings = []Issue{}
	}
	return Result{Errors: errs, Warnings: warnings, Valid: len(errs) == 0}
}

// Merge concatenates results in order.
func Merge(results ...Result) Result {
	var errs, warnings []Issue
	for _, r := range results {
		errs = append(errs, r.Errors...)
		warnings = append(warnings, r.Warnings...)
	}
	return NewResult(errs, warnings)
}

// Issues returns errors followed by warnings.
func (r Result) Issues() []Issue {
	out := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// ForNode returns the errors and warnings tagged with the given node id.
func (r Result) ForNode(id string) []Issue {
	if id == "" {
		return nil
	}
	var out []Issue
	for _, i := range r.Issues() {
		if i.NodeID == id {
			out = append(out, i)
		}
	}
	return out
}

// ForEdge returns the errors and warnings tagged with the given edge id.
func (r Result) ForEdge(id string) []Issue {
	if id == "" {
		return nil
	}
	var out []Issue
	for _, i := range r.Issues() {
		if i.EdgeID == id {
			out = append(out, i)
		}
	}
	return out
}
