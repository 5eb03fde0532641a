package graph

import (
	"fmt"
	"strings"

	apperrors "primekg/pkg/errors"
)

// nodeKey identifies a node by its external identity for duplicate checks
type nodeKey struct {
	nodeType string
	id       int64
}

// edgeKey is the full identity of an edge in the multigraph
type edgeKey struct {
	source   int
	target   int
	relation string
}

// Store is the in-memory typed attributed directed multigraph. It is
// built single-writer (ingestion, then linking) and is safe for any
// number of concurrent readers once building is done; there is no
// internal locking.
//
// Adjacency is kept as per-node lists of edge positions in insertion
// order, so neighbor listings cost O(1) per neighbor and traversal
// tie-breaks are deterministic across runs and snapshot round-trips.
type Store struct {
	nodes []*Node
	edges []*Edge

	// outgoing[i] and incoming[i] hold positions into edges
	outgoing [][]int
	incoming [][]int

	byTypeID map[nodeKey]int
	byID     map[int64]int
	byName   map[string][]int
	edgeSet  map[edgeKey]struct{}
}

// NewStore creates an empty graph store
func NewStore() *Store {
	return &Store{
		byTypeID: make(map[nodeKey]int),
		byID:     make(map[int64]int),
		byName:   make(map[string][]int),
		edgeSet:  make(map[edgeKey]struct{}),
	}
}

// AddNode inserts a node and returns its assigned index. Re-inserting an
// existing (type, id) pair is a no-op that returns the original index
// with created=false; the first insertion wins and is never overwritten
func (s *Store) AddNode(id int64, nodeType, name, source string) (int, bool) {
	key := nodeKey{nodeType: nodeType, id: id}
	if index, ok := s.byTypeID[key]; ok {
		return index, false
	}

	index := len(s.nodes)
	s.nodes = append(s.nodes, &Node{
		ID:     id,
		Index:  index,
		Type:   nodeType,
		Name:   name,
		Source: source,
	})
	s.outgoing = append(s.outgoing, nil)
	s.incoming = append(s.incoming, nil)

	s.byTypeID[key] = index
	if _, ok := s.byID[id]; !ok {
		s.byID[id] = index
	}
	lower := strings.ToLower(name)
	s.byName[lower] = append(s.byName[lower], index)

	return index, true
}

// AddEdge inserts a directed edge. Returns false without storing anything
// when the exact (source, target, relation) triple already exists. Fails
// with ErrUnknownNode when either endpoint index was never assigned, and
// in that case the store is left untouched
func (s *Store) AddEdge(source, target int, relation, displayRelation string) (bool, error) {
	if !s.valid(source) {
		return false, apperrors.NewUnknownNode(source)
	}
	if !s.valid(target) {
		return false, apperrors.NewUnknownNode(target)
	}

	key := edgeKey{source: source, target: target, relation: relation}
	if _, ok := s.edgeSet[key]; ok {
		return false, nil
	}

	pos := len(s.edges)
	s.edges = append(s.edges, &Edge{
		SourceIndex:     source,
		TargetIndex:     target,
		Relation:        relation,
		DisplayRelation: displayRelation,
	})
	s.outgoing[source] = append(s.outgoing[source], pos)
	s.incoming[target] = append(s.incoming[target], pos)
	s.edgeSet[key] = struct{}{}

	return true, nil
}

// SetAttribute attaches a feature value to a node, overwriting any prior
// value under the same key. Core fields (type, name, source) are not
// reachable this way
func (s *Store) SetAttribute(index int, key, value string) error {
	if !s.valid(index) {
		return apperrors.NewUnknownNode(index)
	}
	node := s.nodes[index]
	if node.Attributes == nil {
		node.Attributes = make(map[string]string)
	}
	node.Attributes[key] = value
	return nil
}

// Node returns the node at the given index. The returned value is shared
// with the store and must not be mutated by callers
func (s *Store) Node(index int) (*Node, error) {
	if !s.valid(index) {
		return nil, apperrors.NewUnknownNode(index)
	}
	return s.nodes[index], nil
}

// Neighbors lists neighbor indices in edge-insertion order. The listing
// is not deduplicated: parallel edges contribute one entry each, so
// relation-aware callers keep multiplicity information
func (s *Store) Neighbors(index int, dir Direction) ([]int, error) {
	if !s.valid(index) {
		return nil, apperrors.NewUnknownNode(index)
	}

	var out []int
	switch dir {
	case DirectionOut:
		out = make([]int, 0, len(s.outgoing[index]))
	case DirectionIn:
		out = make([]int, 0, len(s.incoming[index]))
	default:
		out = make([]int, 0, len(s.outgoing[index])+len(s.incoming[index]))
	}

	if dir == DirectionOut || dir == DirectionBoth {
		for _, pos := range s.outgoing[index] {
			out = append(out, s.edges[pos].TargetIndex)
		}
	}
	if dir == DirectionIn || dir == DirectionBoth {
		for _, pos := range s.incoming[index] {
			out = append(out, s.edges[pos].SourceIndex)
		}
	}
	return out, nil
}

// Degree returns the node's total edge count, outgoing plus incoming
func (s *Store) Degree(index int) (int, error) {
	if !s.valid(index) {
		return 0, apperrors.NewUnknownNode(index)
	}
	return len(s.outgoing[index]) + len(s.incoming[index]), nil
}

// OutEdges returns the node's outgoing edges in insertion order
func (s *Store) OutEdges(index int) ([]*Edge, error) {
	if !s.valid(index) {
		return nil, apperrors.NewUnknownNode(index)
	}
	edges := make([]*Edge, 0, len(s.outgoing[index]))
	for _, pos := range s.outgoing[index] {
		edges = append(edges, s.edges[pos])
	}
	return edges, nil
}

// InEdges returns the node's incoming edges in insertion order
func (s *Store) InEdges(index int) ([]*Edge, error) {
	if !s.valid(index) {
		return nil, apperrors.NewUnknownNode(index)
	}
	edges := make([]*Edge, 0, len(s.incoming[index]))
	for _, pos := range s.incoming[index] {
		edges = append(edges, s.edges[pos])
	}
	return edges, nil
}

// IndexForID resolves an external node id to its internal index. When two
// types share an id the earliest inserted node wins, matching the lookup
// the ingestion pipeline builds
func (s *Store) IndexForID(id int64) (int, bool) {
	index, ok := s.byID[id]
	return index, ok
}

// NodeCount returns the number of nodes in the store
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges in the store
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// Nodes returns the node table in index order. Shared with the store;
// read-only for callers
func (s *Store) Nodes() []*Node {
	return s.nodes
}

// Edges returns the edge table in insertion order. Shared with the
// store; read-only for callers
func (s *Store) Edges() []*Edge {
	return s.edges
}

// Validate checks internal consistency: every edge references assigned
// nodes and the adjacency lists cover every edge exactly once per side
func (s *Store) Validate() error {
	for pos, edge := range s.edges {
		if !s.valid(edge.SourceIndex) {
			return fmt.Errorf("edge %d references unassigned source %d", pos, edge.SourceIndex)
		}
		if !s.valid(edge.TargetIndex) {
			return fmt.Errorf("edge %d references unassigned target %d", pos, edge.TargetIndex)
		}
	}

	var outTotal, inTotal int
	for i := range s.nodes {
		outTotal += len(s.outgoing[i])
		inTotal += len(s.incoming[i])
	}
	if outTotal != len(s.edges) || inTotal != len(s.edges) {
		return fmt.Errorf("adjacency covers %d outgoing and %d incoming positions for %d edges", outTotal, inTotal, len(s.edges))
	}
	if len(s.edgeSet) != len(s.edges) {
		return fmt.Errorf("edge identity set has %d entries for %d edges", len(s.edgeSet), len(s.edges))
	}

	return nil
}

func (s *Store) valid(index int) bool {
	return index >= 0 && index < len(s.nodes)
}
