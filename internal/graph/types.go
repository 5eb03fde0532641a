package graph

// ============================================================================
// Graph Types
// ============================================================================

// Node represents a typed entity in the graph. ID is the stable external
// identifier from the source dataset; Index is the dense internal position
// assigned at insertion and used as the primary key everywhere else
type Node struct {
	ID         int64             `json:"id"`
	Index      int               `json:"index"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Source     string            `json:"source"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Edge represents a directed, relation-typed connection between two nodes.
// Parallel edges between the same pair are legal as long as the relation
// differs; (source, target, relation) is the full identity
type Edge struct {
	SourceIndex     int    `json:"source_index"`
	TargetIndex     int    `json:"target_index"`
	Relation        string `json:"relation"`
	DisplayRelation string `json:"display_relation"`
}

// Direction selects which adjacency a neighbor listing walks
type Direction int

const (
	// DirectionOut follows edges leaving the node
	DirectionOut Direction = iota
	// DirectionIn follows edges arriving at the node
	DirectionIn
	// DirectionBoth follows outgoing edges first, then incoming
	DirectionBoth
)

// String returns the direction name for logging
func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	case DirectionBoth:
		return "both"
	}
	return "unknown"
}

// ParseDirection maps the wire form ("out", "in", "both") to a Direction.
// An empty or unrecognized value defaults to DirectionBoth
func ParseDirection(s string) Direction {
	switch s {
	case "out":
		return DirectionOut
	case "in":
		return DirectionIn
	}
	return DirectionBoth
}

// ============================================================================
// Query Result Types
// ============================================================================

// PathResult is one minimum-hop path between two named entities
type PathResult struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Path   []int    `json:"path"`
	Names  []string `json:"names"`
	Length int      `json:"length"` // edge count
}

// SubgraphResult is the induced subgraph over a set of resolved names
type SubgraphResult struct {
	Nodes      []*Node  `json:"nodes"`
	Edges      []*Edge  `json:"edges"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// NeighborRecord is one edge of an entity's immediate neighborhood,
// flattened for export
type NeighborRecord struct {
	SourceIndex     int    `json:"source_index"`
	SourceName      string `json:"source_name"`
	SourceType      string `json:"source_type"`
	TargetIndex     int    `json:"target_index"`
	TargetName      string `json:"target_name"`
	TargetType      string `json:"target_type"`
	Relation        string `json:"relation"`
	DisplayRelation string `json:"display_relation"`
}

// ============================================================================
// Health Types
// ============================================================================

// Stats summarizes the store's size and composition
type Stats struct {
	Nodes           int            `json:"nodes"`
	Edges           int            `json:"edges"`
	NodesByType     map[string]int `json:"nodes_by_type"`
	EdgesByRelation map[string]int `json:"edges_by_relation"`
}

// HealthReport extends Stats with connectivity and degree diagnostics
type HealthReport struct {
	Stats            *Stats  `json:"stats"`
	WeakComponents   int     `json:"weak_components"`
	LargestComponent int     `json:"largest_component"`
	IsolatedNodes    int     `json:"isolated_nodes"`
	MinDegree        int     `json:"min_degree"`
	MaxDegree        int     `json:"max_degree"`
	MeanDegree       float64 `json:"mean_degree"`
}
