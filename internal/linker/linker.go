package linker

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"primekg/internal/graph"
	"primekg/internal/tabular"
)

// Relation tags for synthesized edges, matching the upstream cluster
// pipeline's vocabulary
const (
	// RelationSimilarity tags edges derived from bulk cluster assignments
	RelationSimilarity        = "bert_group"
	DisplayRelationSimilarity = "BERT similarity"

	// RelationGroupMatch tags edges added by the narrow group-label mode
	RelationGroupMatch        = "bert_related"
	DisplayRelationGroupMatch = "BERT cluster approx"
)

// Linker synthesizes similarity edges between nodes already present in
// the store from externally computed cluster assignments. Both modes are
// idempotent: the store suppresses duplicate triples, so re-running a
// link pass adds zero edges
type Linker struct {
	store *graph.Store
	log   *zap.Logger
}

// New creates a linker writing into the given store
func New(store *graph.Store, log *zap.Logger) *Linker {
	return &Linker{store: store, log: log}
}

// Report summarizes a linking pass
type Report struct {
	Rows        int `json:"rows"`
	EdgesAdded  int `json:"edges_added"`
	Duplicates  int `json:"duplicates"`
	SelfSkipped int `json:"self_skipped"`
	Unresolved  int `json:"unresolved"`
	BadMembers  int `json:"bad_members"`
}

// LinkClusters walks every cluster row and adds a similarity edge from
// the row's entity to each listed co-member present in the store.
// Self-references are skipped, unresolvable ids are skipped and counted,
// and nothing here is fatal
func (l *Linker) LinkClusters(rows []tabular.ClusterRow) *Report {
	report := &Report{Rows: len(rows)}

	for _, row := range rows {
		source, ok := l.store.IndexForID(row.EntityID)
		if !ok {
			report.Unresolved++
			continue
		}

		for _, token := range strings.Split(row.GroupKey, "_") {
			member, err := strconv.ParseInt(strings.TrimSpace(token), 10, 64)
			if err != nil {
				report.BadMembers++
				continue
			}
			if member == row.EntityID {
				report.SelfSkipped++
				continue
			}
			target, ok := l.store.IndexForID(member)
			if !ok {
				report.Unresolved++
				continue
			}
			if target == source {
				report.SelfSkipped++
				continue
			}
			added, err := l.store.AddEdge(source, target, RelationSimilarity, DisplayRelationSimilarity)
			if err != nil {
				report.Unresolved++
				continue
			}
			if added {
				report.EdgesAdded++
			} else {
				report.Duplicates++
			}
		}
	}

	l.log.Info("Cluster linking complete",
		zap.Int("rows", report.Rows),
		zap.Int("edges_added", report.EdgesAdded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("self_skipped", report.SelfSkipped),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("bad_members", report.BadMembers),
	)
	return report
}

// LinkGroupMatches is the narrow, entity-specific mode: it resolves the
// entity by name, filters cluster rows whose group label contains the
// substring case-insensitively, and links the entity to each matching
// row's entity. Report.Rows counts the matching rows only
func (l *Linker) LinkGroupMatches(entityName, labelSubstring string, rows []tabular.ClusterRow) (*Report, error) {
	source, err := l.store.ResolveName(entityName)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(labelSubstring)
	report := &Report{}

	for _, row := range rows {
		if !strings.Contains(strings.ToLower(row.GroupName), needle) {
			continue
		}
		report.Rows++

		target, ok := l.store.IndexForID(row.EntityID)
		if !ok {
			report.Unresolved++
			continue
		}
		if target == source {
			report.SelfSkipped++
			continue
		}
		added, err := l.store.AddEdge(source, target, RelationGroupMatch, DisplayRelationGroupMatch)
		if err != nil {
			report.Unresolved++
			continue
		}
		if added {
			report.EdgesAdded++
		} else {
			report.Duplicates++
		}
	}

	l.log.Info("Group match linking complete",
		zap.String("entity", entityName),
		zap.String("label_substring", labelSubstring),
		zap.Int("rows", report.Rows),
		zap.Int("edges_added", report.EdgesAdded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("self_skipped", report.SelfSkipped),
		zap.Int("unresolved", report.Unresolved),
	)
	return report, nil
}
