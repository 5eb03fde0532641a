package ingest

import (
	"path/filepath"

	"go.uber.org/zap"

	"primekg/internal/graph"
	"primekg/internal/tabular"
	apperrors "primekg/pkg/errors"
)

// Canonical file names of the dataset tables inside the data directory
const (
	NodesFile           = "nodes.csv"
	EdgesFile           = "kg.csv"
	DrugFeaturesFile    = "drug_features.csv"
	DiseaseFeaturesFile = "disease_features.csv"
	ClustersFile        = "kg_grouped_diseases_bert_map.csv"
)

// Pipeline populates a graph store from the dataset's tables. Loads are
// not transactional across tables: every stage leaves the store valid and
// usable, and per-row problems become counters rather than failures. Only
// a structurally broken table (unreadable, missing a required column)
// aborts a load
type Pipeline struct {
	store  *graph.Store
	reader *tabular.Reader
	log    *zap.Logger
}

// New creates an ingestion pipeline writing into the given store
func New(store *graph.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		reader: tabular.NewReader(log),
		log:    log,
	}
}

// NodesReport summarizes a node table load
type NodesReport struct {
	Rows       int `json:"rows"`
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// EdgesReport summarizes an edge table load
type EdgesReport struct {
	Rows       int `json:"rows"`
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
}

// FeaturesReport summarizes a feature table merge
type FeaturesReport struct {
	Rows           int `json:"rows"`
	NodesUpdated   int `json:"nodes_updated"`
	AttributesSet  int `json:"attributes_set"`
	Unresolved     int `json:"unresolved"`
	TypeMismatches int `json:"type_mismatches"`
	Skipped        int `json:"skipped"`
}

// LoadNodes inserts one node per table row. Rows without a usable id or
// type were already dropped by the reader and appear in Skipped; repeated
// (type, id) pairs are first-insertion-wins no-ops counted as Duplicates.
// The file's string node_id column is kept as an attribute
func (p *Pipeline) LoadNodes(path string) (*NodesReport, error) {
	rows, skipped, err := p.reader.ReadNodeTable(path)
	if err != nil {
		return nil, err
	}

	report := &NodesReport{Rows: len(rows) + skipped, Skipped: skipped}
	for _, row := range rows {
		index, created := p.store.AddNode(row.ID, row.Type, row.Name, row.Source)
		if !created {
			report.Duplicates++
			p.log.Debug("Duplicate node row",
				zap.Error(apperrors.NewDuplicateNode(row.Type, row.ID, index)),
			)
			continue
		}
		report.Added++
		if row.NodeID != "" {
			if err := p.store.SetAttribute(index, "node_id", row.NodeID); err != nil {
				return nil, err
			}
		}
	}

	p.log.Info("Node table loaded",
		zap.String("file", filepath.Base(path)),
		zap.Int("rows", report.Rows),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// LoadEdges inserts one edge per table row, resolving external endpoint
// ids through the lookup built during the node load. Rows referencing
// unknown ids are counted as Unresolved and skipped; exact repeats of an
// existing (source, target, relation) triple are counted as Duplicates
func (p *Pipeline) LoadEdges(path string) (*EdgesReport, error) {
	rows, skipped, err := p.reader.ReadEdgeTable(path)
	if err != nil {
		return nil, err
	}

	report := &EdgesReport{Rows: len(rows) + skipped, Skipped: skipped}
	for _, row := range rows {
		source, okSource := p.store.IndexForID(row.SourceID)
		target, okTarget := p.store.IndexForID(row.TargetID)
		if !okSource || !okTarget {
			report.Unresolved++
			continue
		}
		added, err := p.store.AddEdge(source, target, row.Relation, row.DisplayRelation)
		if err != nil {
			report.Unresolved++
			continue
		}
		if added {
			report.Added++
		} else {
			report.Duplicates++
		}
	}

	p.log.Info("Edge table loaded",
		zap.String("file", filepath.Base(path)),
		zap.Int("rows", report.Rows),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// LoadFeatures merges a per-type feature table onto matching nodes. A row
// only applies when its id resolves and the node's recorded type equals
// nodeType; the merge is additive and never touches core node fields
func (p *Pipeline) LoadFeatures(path, nodeType string) (*FeaturesReport, error) {
	rows, skipped, err := p.reader.ReadFeatureTable(path)
	if err != nil {
		return nil, err
	}

	report := &FeaturesReport{Rows: len(rows) + skipped, Skipped: skipped}
	for _, row := range rows {
		index, ok := p.store.IndexForID(row.ID)
		if !ok {
			report.Unresolved++
			continue
		}
		node, err := p.store.Node(index)
		if err != nil {
			report.Unresolved++
			continue
		}
		if node.Type != nodeType {
			report.TypeMismatches++
			continue
		}
		for key, value := range row.Values {
			if err := p.store.SetAttribute(index, key, value); err != nil {
				return nil, err
			}
			report.AttributesSet++
		}
		report.NodesUpdated++
	}

	p.log.Info("Feature table merged",
		zap.String("file", filepath.Base(path)),
		zap.String("type", nodeType),
		zap.Int("rows", report.Rows),
		zap.Int("nodes_updated", report.NodesUpdated),
		zap.Int("attributes_set", report.AttributesSet),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("type_mismatches", report.TypeMismatches),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}
