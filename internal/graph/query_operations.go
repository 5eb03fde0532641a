package graph

import (
	"sort"
	"strings"

	apperrors "primekg/pkg/errors"
)

// ============================================================================
// Read-Only Query Operations
// ============================================================================

// ResolveName finds the node whose name matches exactly, ignoring case.
// When several nodes share a name the earliest inserted one wins; this is
// a stable, documented tie-break, not an error
func (s *Store) ResolveName(name string) (int, error) {
	indices := s.byName[strings.ToLower(name)]
	if len(indices) == 0 {
		return 0, apperrors.NewNameNotFound(name)
	}
	return indices[0], nil
}

// TypedNeighbors resolves an entity by name and lists the names of its
// neighbors of the given type, walking both edge directions. Parallel
// edges contribute one entry each; callers wanting unique names dedupe
func (s *Store) TypedNeighbors(entityName, nodeType string) ([]string, error) {
	index, err := s.ResolveName(entityName)
	if err != nil {
		return nil, err
	}

	neighbors, err := s.Neighbors(index, DirectionBoth)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		if s.nodes[n].Type == nodeType {
			names = append(names, s.nodes[n].Name)
		}
	}
	return names, nil
}

// ShortestPath runs an unweighted breadth-first search between two named
// entities over the undirected view of the graph (edges are traversed in
// either direction, reachability being the question rather than
// directionality). Among equally short paths the one discovered first in
// adjacency-insertion order is returned, which keeps results stable
// across runs and snapshot round-trips. Unresolved names fail with
// ErrNameNotFound and disconnected pairs with ErrNoPath
func (s *Store) ShortestPath(nameA, nameB string) (*PathResult, error) {
	from, err := s.ResolveName(nameA)
	if err != nil {
		return nil, err
	}
	to, err := s.ResolveName(nameB)
	if err != nil {
		return nil, err
	}

	indices := s.shortestPathIndices(from, to)
	if indices == nil {
		return nil, apperrors.NewNoPath(nameA, nameB)
	}

	names := make([]string, len(indices))
	for i, index := range indices {
		names[i] = s.nodes[index].Name
	}

	return &PathResult{
		From:   nameA,
		To:     nameB,
		Path:   indices,
		Names:  names,
		Length: len(indices) - 1,
	}, nil
}

// Subgraph resolves each name and returns the induced subgraph: every
// stored edge whose endpoints both resolved, parallel edges included.
// Names that do not resolve are skipped and reported, never fatal
func (s *Store) Subgraph(names []string) *SubgraphResult {
	memberSet := make(map[int]struct{}, len(names))
	members := make([]int, 0, len(names))
	var unresolved []string

	for _, name := range names {
		index, err := s.ResolveName(name)
		if err != nil {
			unresolved = append(unresolved, name)
			continue
		}
		if _, ok := memberSet[index]; ok {
			continue
		}
		memberSet[index] = struct{}{}
		members = append(members, index)
	}

	nodes := make([]*Node, 0, len(members))
	for _, index := range members {
		nodes = append(nodes, s.nodes[index])
	}

	positions := s.inducedPositions(memberSet, members)
	edges := make([]*Edge, 0, len(positions))
	for _, pos := range positions {
		edges = append(edges, s.edges[pos])
	}

	return &SubgraphResult{Nodes: nodes, Edges: edges, Unresolved: unresolved}
}

// SharedSecondOrder answers two-hop questions like "which drugs share a
// side effect with this one": it collects the entity's neighbors of
// bridgeType, then each bridge's neighbors of targetType, excluding the
// entity itself. The union is deduplicated by name and returned in
// discovery order
func (s *Store) SharedSecondOrder(entityName, bridgeType, targetType string) ([]string, error) {
	origin, err := s.ResolveName(entityName)
	if err != nil {
		return nil, err
	}

	bridges, err := s.Neighbors(origin, DirectionBoth)
	if err != nil {
		return nil, err
	}

	seenBridges := make(map[int]struct{})
	seenNames := make(map[string]struct{})
	var result []string

	for _, bridge := range bridges {
		if s.nodes[bridge].Type != bridgeType {
			continue
		}
		if _, ok := seenBridges[bridge]; ok {
			continue
		}
		seenBridges[bridge] = struct{}{}

		targets, err := s.Neighbors(bridge, DirectionBoth)
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			if target == origin || s.nodes[target].Type != targetType {
				continue
			}
			name := s.nodes[target].Name
			if _, ok := seenNames[name]; ok {
				continue
			}
			seenNames[name] = struct{}{}
			result = append(result, name)
		}
	}

	return result, nil
}

// NeighborhoodRecords flattens an entity's one-hop neighborhood into
// per-edge records for export: the induced edges over the entity and all
// of its neighbors in either direction
func (s *Store) NeighborhoodRecords(entityName string) ([]NeighborRecord, error) {
	origin, err := s.ResolveName(entityName)
	if err != nil {
		return nil, err
	}

	neighbors, err := s.Neighbors(origin, DirectionBoth)
	if err != nil {
		return nil, err
	}

	memberSet := map[int]struct{}{origin: {}}
	members := []int{origin}
	for _, n := range neighbors {
		if _, ok := memberSet[n]; ok {
			continue
		}
		memberSet[n] = struct{}{}
		members = append(members, n)
	}

	positions := s.inducedPositions(memberSet, members)
	records := make([]NeighborRecord, 0, len(positions))
	for _, pos := range positions {
		edge := s.edges[pos]
		src := s.nodes[edge.SourceIndex]
		tgt := s.nodes[edge.TargetIndex]
		records = append(records, NeighborRecord{
			SourceIndex:     src.Index,
			SourceName:      src.Name,
			SourceType:      src.Type,
			TargetIndex:     tgt.Index,
			TargetName:      tgt.Name,
			TargetType:      tgt.Type,
			Relation:        edge.Relation,
			DisplayRelation: edge.DisplayRelation,
		})
	}

	return records, nil
}

// inducedPositions collects the edge positions whose endpoints both lie
// in the member set, restored to global insertion order
func (s *Store) inducedPositions(memberSet map[int]struct{}, members []int) []int {
	var positions []int
	for _, index := range members {
		for _, pos := range s.outgoing[index] {
			if _, ok := memberSet[s.edges[pos].TargetIndex]; ok {
				positions = append(positions, pos)
			}
		}
	}
	sort.Ints(positions)
	return positions
}

// shortestPathIndices is the index-level BFS shared by name queries and
// the health probe. Returns nil when no path exists
func (s *Store) shortestPathIndices(from, to int) []int {
	if from == to {
		return []int{from}
	}

	visited := make([]bool, len(s.nodes))
	parent := make([]int, len(s.nodes))
	for i := range parent {
		parent[i] = -1
	}

	visited[from] = true
	queue := []int{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, pos := range s.outgoing[cur] {
			next := s.edges[pos].TargetIndex
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == to {
				return reconstructPath(parent, to)
			}
			queue = append(queue, next)
		}
		for _, pos := range s.incoming[cur] {
			next := s.edges[pos].SourceIndex
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == to {
				return reconstructPath(parent, to)
			}
			queue = append(queue, next)
		}
	}

	return nil
}

// reconstructPath walks the BFS parent chain back from the target and
// reverses it into source-to-target order
func reconstructPath(parent []int, to int) []int {
	path := []int{to}
	for cur := parent[to]; cur != -1; cur = parent[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
