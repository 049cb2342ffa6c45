package store

import (
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/pkg/analysis"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/ids"
	"github.com/aretw0/promptflow/pkg/layout"
	"github.com/aretw0/promptflow/pkg/observability"
	"github.com/aretw0/promptflow/pkg/serialize"
)

// UIState holds the editor flags that live next to the graph.
type UIState struct {
	SelectedNodeID string `json:"selected_node_id,omitempty"`
	SidebarOpen    bool   `json:"sidebar_open"`
	JSONPanelOpen  bool   `json:"json_panel_open"`
}

// Snapshot is a read-only view of the whole store.
type Snapshot struct {
	Graph    domain.Graph   `json:"graph"`
	UI       UIState        `json:"ui"`
	Errors   []domain.Issue `json:"errors"`
	Warnings []domain.Issue `json:"warnings"`
	CanUndo  bool           `json:"can_undo"`
	CanRedo  bool           `json:"can_redo"`
	Revision uint64         `json:"revision"`
}

type subscriber struct {
	id int
	fn func(domain.ChangeEvent)
}

// Store is the single source of truth of a flow being edited.
type Store struct {
	graph  domain.Graph
	past   []domain.Graph
	future []domain.Graph
	ui     UIState
	result domain.Result

	revision    uint64
	subscribers []subscriber
	nextSubID   int

	logger      *slog.Logger
	ids         ids.Generator
	layout      layout.Engine
	historySize int
	metrics     *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDGenerator sets the generator of node and edge ids.
func WithIDGenerator(gen ids.Generator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// WithLayout sets the engine used to position imported nodes that carry no position.
func WithLayout(engine layout.Engine) Option {
	return func(s *Store) {
		s.layout = engine
	}
}

// WithHistorySize bounds the undo stack. Non-positive values are ignored.
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithMetrics instruments the store.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		logger:      logging.NewNop(),
		ids:         ids.Default,
		layout:      layout.Layered{},
		historySize: domain.DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetState()
	return s
}

func (s *Store) resetState() {
	s.graph = domain.Graph{Nodes: []domain.Node{}, Edges: []domain.Edge{}}
	s.past = nil
	s.future = nil
	s.ui = UIState{}
	s.result = domain.NewResult(nil, nil)
}

// Graph returns the current graph. The value must not be modified.
func (s *Store) Graph() domain.Graph {
	return s.graph
}

// UI returns the editor flags.
func (s *Store) UI() UIState {
	return s.ui
}

// Errors returns the errors of the last validation pass.
func (s *Store) Errors() []domain.Issue {
	return s.result.Errors
}

// Warnings returns the warnings of the last validation pass.
func (s *Store) Warnings() []domain.Issue {
	return s.result.Warnings
}

// Result returns the last validation result.
func (s *Store) Result() domain.Result {
	return s.result
}

// NodeIssues returns the errors then warnings tagged with a node id.
func (s *Store) NodeIssues(id string) []domain.Issue {
	return s.result.ForNode(id)
}

// EdgeIssues returns the errors then warnings tagged with an edge id.
func (s *Store) EdgeIssues(id string) []domain.Issue {
	return s.result.ForEdge(id)
}

// Revision counts the changes published since the store was created.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Snapshot returns a view of the whole state.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Graph:    s.graph,
		UI:       s.ui,
		Errors:   slices.Clone(s.result.Errors),
		Warnings: slices.Clone(s.result.Warnings),
		CanUndo:  s.CanUndo(),
		CanRedo:  s.CanRedo(),
		Revision: s.revision,
	}
}

// Validate recomputes the issues of the current graph.
func (s *Store) Validate() {
	start := time.Now()
	s.result = analysis.ValidateAll(serialize.ToSchema(s.graph))
	s.metrics.ObserveValidation(time.Since(start), s.result)
}

// mutate runs a tracked edit: snapshot, apply, validate, publish.
func (s *Store) mutate(op string, apply func(g domain.Graph) domain.Graph) {
	prev := s.graph
	s.pushSnapshot()
	s.graph = apply(prev)
	s.Validate()
	s.publish(domain.ChangeMutation, op, prev)
}

// publish notifies subscribers of a committed change.
func (s *Store) publish(typ domain.ChangeType, op string, prev domain.Graph) {
	s.revision++
	ev := domain.ChangeEvent{
		Timestamp: time.Now(),
		Type:      typ,
		Op:        op,
		Revision:  s.revision,
		Diff:      domain.DiffGraphs(prev, s.graph),
		Valid:     s.result.Valid,
		Errors:    len(s.result.Errors),
		Warnings:  len(s.result.Warnings),
	}
	s.metrics.ObserveChange(ev)
	s.logger.Debug("Store changed",
		"type", typ,
		"op", op,
		"revision", ev.Revision,
		"errors", ev.Errors,
		"warnings", ev.Warnings,
	)
	for _, sub := range slices.Clone(s.subscribers) {
		sub.fn(ev)
	}
}

// Subscribe registers fn to be called after every committed change.
// Callbacks run synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(domain.ChangeEvent)) (unsubscribe func()) {
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}
