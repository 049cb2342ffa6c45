package domain

// Defaults applied by the graph store when it creates entities.
const (
	// DefaultNodeLabel is the label of a node created by AddNode.
	DefaultNodeLabel = "New Node"
	// DefaultCondition is the condition text of an edge created by AddEdge.
	DefaultCondition = "New condition"

	// DefaultHistorySize bounds the undo stack.
	DefaultHistorySize = 50

	// DefaultNodeWidth and DefaultNodeHeight are the box size assumed by auto layout
	// when a node carries no measured dimensions.
	DefaultNodeWidth  = 200.0
	DefaultNodeHeight = 80.0
)

var (
	// FirstNodePosition is where the first node of an empty graph is placed.
	FirstNodePosition = Position{X: 200, Y: 120}
	// NewNodeOffset is added to the last node position to place a new node.
	NewNodeOffset = Position{X: 40, Y: 40}
)
