package tabular

// ============================================================================
// Table Row Records
// ============================================================================

// NodeRow is one parsed row of the node table
type NodeRow struct {
	ID     int64  // stable external identifier (node_index column)
	NodeID string // source-vocabulary identifier (node_id column)
	Type   string // entity type (node_type column)
	Name   string // human-readable label (node_name column)
	Source string // provenance tag (node_source column)
}

// EdgeRow is one parsed row of the relationship table
type EdgeRow struct {
	SourceID        int64 // external id of the source node (x_index column)
	TargetID        int64 // external id of the target node (y_index column)
	Relation        string
	DisplayRelation string
}

// FeatureRow is one parsed row of a per-type feature table. The first
// column names the node; every other non-empty cell becomes an attribute
type FeatureRow struct {
	ID     int64
	Values map[string]string
}

// ClusterRow is one parsed row of the similarity-cluster table. GroupKey
// holds the raw underscore-joined co-member id list; the linker splits it
type ClusterRow struct {
	EntityID  int64  // node_id column
	GroupKey  string // group_id_bert column
	GroupName string // group_name_bert column
}
