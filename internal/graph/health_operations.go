package graph

import (
	"fmt"
	"math/rand"

	apperrors "primekg/pkg/errors"
)

// ============================================================================
// Health and Diagnostics Operations
// ============================================================================

// Stats counts nodes and edges by type and relation
func (s *Store) Stats() *Stats {
	stats := &Stats{
		Nodes:           len(s.nodes),
		Edges:           len(s.edges),
		NodesByType:     make(map[string]int),
		EdgesByRelation: make(map[string]int),
	}
	for _, node := range s.nodes {
		stats.NodesByType[node.Type]++
	}
	for _, edge := range s.edges {
		stats.EdgesByRelation[edge.Relation]++
	}
	return stats
}

// HealthCheck surveys the built graph: component structure over the
// undirected view, isolated nodes, and the degree distribution. Intended
// to run once after a build, it walks every node
func (s *Store) HealthCheck() *HealthReport {
	report := &HealthReport{Stats: s.Stats()}
	if len(s.nodes) == 0 {
		return report
	}

	visited := make([]bool, len(s.nodes))
	for i := range s.nodes {
		if visited[i] {
			continue
		}
		size := s.componentSize(i, visited)
		report.WeakComponents++
		if size > report.LargestComponent {
			report.LargestComponent = size
		}
	}

	minDegree := -1
	total := 0
	for i := range s.nodes {
		degree := len(s.outgoing[i]) + len(s.incoming[i])
		total += degree
		if degree == 0 {
			report.IsolatedNodes++
		}
		if minDegree < 0 || degree < minDegree {
			minDegree = degree
		}
		if degree > report.MaxDegree {
			report.MaxDegree = degree
		}
	}
	report.MinDegree = minDegree
	report.MeanDegree = float64(total) / float64(len(s.nodes))

	return report
}

// RandomPath picks one random node of each given type and reports a
// shortest path between them. A smoke probe for freshly built graphs,
// not part of the query contract
func (s *Store) RandomPath(fromType, toType string) (*PathResult, error) {
	fromCandidates := s.indicesOfType(fromType)
	if len(fromCandidates) == 0 {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeQuery, fmt.Sprintf("no nodes of type %q", fromType), nil)
	}
	toCandidates := s.indicesOfType(toType)
	if len(toCandidates) == 0 {
		return nil, apperrors.NewBaseError(apperrors.ErrorTypeQuery, fmt.Sprintf("no nodes of type %q", toType), nil)
	}

	from := fromCandidates[rand.Intn(len(fromCandidates))]
	to := toCandidates[rand.Intn(len(toCandidates))]

	indices := s.shortestPathIndices(from, to)
	if indices == nil {
		return nil, apperrors.NewNoPath(s.nodes[from].Name, s.nodes[to].Name)
	}

	names := make([]string, len(indices))
	for i, index := range indices {
		names[i] = s.nodes[index].Name
	}

	return &PathResult{
		From:   s.nodes[from].Name,
		To:     s.nodes[to].Name,
		Path:   indices,
		Names:  names,
		Length: len(indices) - 1,
	}, nil
}

// componentSize flood-fills one weakly connected component and returns
// its node count
func (s *Store) componentSize(start int, visited []bool) int {
	visited[start] = true
	size := 1
	queue := []int{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, pos := range s.outgoing[cur] {
			next := s.edges[pos].TargetIndex
			if !visited[next] {
				visited[next] = true
				size++
				queue = append(queue, next)
			}
		}
		for _, pos := range s.incoming[cur] {
			next := s.edges[pos].SourceIndex
			if !visited[next] {
				visited[next] = true
				size++
				queue = append(queue, next)
			}
		}
	}

	return size
}

func (s *Store) indicesOfType(nodeType string) []int {
	var indices []int
	for i, node := range s.nodes {
		if node.Type == nodeType {
			indices = append(indices, i)
		}
	}
	return indices
}
