package graph

import (
	"errors"
	"testing"

	apperrors "primekg/pkg/errors"
)

// diamondStore builds the two-route square A-B-C / A-D-C used by the
// path tests. B's edges are inserted before D's, so breadth-first search
// must discover C through B
func diamondStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.AddNode(1, "gene/protein", "A", "test") // 0
	s.AddNode(2, "drug", "B", "test")         // 1
	s.AddNode(3, "disease", "C", "test")      // 2
	s.AddNode(4, "drug", "D", "test")         // 3
	mustAddEdge(t, s, 0, 1, "associated")
	mustAddEdge(t, s, 0, 3, "associated")
	mustAddEdge(t, s, 1, 2, "associated")
	mustAddEdge(t, s, 3, 2, "associated")
	return s
}

// sideEffectStore wires three drugs to their shared side effects, with a
// parallel severe-effect edge and an unrelated protein neighbor
func sideEffectStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.AddNode(1, "drug", "Aspirin", "test")              // 0
	s.AddNode(2, "drug", "Ibuprofen", "test")            // 1
	s.AddNode(3, "drug", "Warfarin", "test")             // 2
	s.AddNode(4, "effect/phenotype", "Headache", "test") // 3
	s.AddNode(5, "effect/phenotype", "Nausea", "test")   // 4
	s.AddNode(6, "gene/protein", "TP53", "test")         // 5
	mustAddEdge(t, s, 0, 3, "drug_effect")
	mustAddEdge(t, s, 1, 3, "drug_effect")
	mustAddEdge(t, s, 1, 4, "drug_effect")
	mustAddEdge(t, s, 2, 4, "drug_effect")
	mustAddEdge(t, s, 0, 5, "drug_protein")
	mustAddEdge(t, s, 0, 4, "drug_effect")
	mustAddEdge(t, s, 0, 3, "drug_effect_severe")
	return s
}

func TestStore_ResolveName(t *testing.T) {
	s := NewStore()
	first, _ := s.AddNode(10, "drug", "Panadol", "test")
	s.AddNode(11, "effect/phenotype", "Panadol", "test")

	index, err := s.ResolveName("Panadol")
	if err != nil {
		t.Fatalf("ResolveName failed: %v", err)
	}
	if index != first {
		t.Errorf("Expected the earliest inserted node %d, got %d", first, index)
	}

	// Matching ignores case
	index, err = s.ResolveName("pAnAdOl")
	if err != nil {
		t.Fatalf("ResolveName (mixed case) failed: %v", err)
	}
	if index != first {
		t.Errorf("Expected case-insensitive match on %d, got %d", first, index)
	}

	_, err = s.ResolveName("no such entity")
	if err == nil {
		t.Fatalf("Expected ResolveName on an unknown name to fail")
	}
	var notFound *apperrors.ErrNameNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ErrNameNotFound, got %v", err)
	}
	if notFound.Name != "no such entity" {
		t.Errorf("Expected the queried name in the error, got %q", notFound.Name)
	}
}

func TestStore_TypedNeighbors(t *testing.T) {
	s := sideEffectStore(t)

	names, err := s.TypedNeighbors("Aspirin", "effect/phenotype")
	if err != nil {
		t.Fatalf("TypedNeighbors failed: %v", err)
	}
	// The parallel severe edge keeps Headache twice
	want := []string{"Headache", "Nausea", "Headache"}
	assertNames(t, names, want)

	// Incoming edges count too
	names, err = s.TypedNeighbors("Headache", "drug")
	if err != nil {
		t.Fatalf("TypedNeighbors failed: %v", err)
	}
	assertNames(t, names, []string{"Aspirin", "Ibuprofen", "Aspirin"})

	if _, err := s.TypedNeighbors("no such entity", "drug"); err == nil {
		t.Errorf("Expected an unresolved entity to fail")
	}
}

func TestStore_ShortestPath_Diamond(t *testing.T) {
	s := diamondStore(t)

	result, err := s.ShortestPath("A", "C")
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if result.Length != 2 {
		t.Errorf("Expected length 2, got %d", result.Length)
	}
	assertNames(t, result.Names, []string{"A", "B", "C"})
	assertIndices(t, "path", result.Path, []int{0, 1, 2})
}

func TestStore_ShortestPath_SameNode(t *testing.T) {
	s := diamondStore(t)

	result, err := s.ShortestPath("A", "A")
	if err != nil {
		t.Fatalf("ShortestPath failed: %v", err)
	}
	if result.Length != 0 {
		t.Errorf("Expected length 0, got %d", result.Length)
	}
	assertNames(t, result.Names, []string{"A"})
}

func TestStore_ShortestPath_IgnoresEdgeDirection(t *testing.T) {
	s := NewStore()
	s.AddNode(1, "drug", "A", "test")    // 0
	s.AddNode(2, "disease", "B", "test") // 1
	mustAddEdge(t, s, 1, 0, "associated")

	result, err := s.ShortestPath("A", "B")
	if err != nil {
		t.Fatalf("ShortestPath against the edge direction failed: %v", err)
	}
	if result.Length != 1 {
		t.Errorf("Expected length 1, got %d", result.Length)
	}
	assertNames(t, result.Names, []string{"A", "B"})
}

func TestStore_ShortestPath_NoPath(t *testing.T) {
	s := diamondStore(t)
	s.AddNode(99, "disease", "isolated", "test")

	_, err := s.ShortestPath("A", "isolated")
	if err == nil {
		t.Fatalf("Expected ShortestPath to a disconnected node to fail")
	}
	var noPath *apperrors.ErrNoPath
	if !errors.As(err, &noPath) {
		t.Fatalf("Expected ErrNoPath, got %v", err)
	}
	if noPath.From != "A" || noPath.To != "isolated" {
		t.Errorf("Expected endpoints in the error, got %q -> %q", noPath.From, noPath.To)
	}

	_, err = s.ShortestPath("A", "no such entity")
	var notFound *apperrors.ErrNameNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("Expected ErrNameNotFound for an unresolved endpoint, got %v", err)
	}
}

func TestStore_Subgraph(t *testing.T) {
	s := sideEffectStore(t)

	result := s.Subgraph([]string{"Aspirin", "Headache", "Ibuprofen", "unknown thing", "Aspirin"})

	if len(result.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(result.Nodes))
	}
	assertNames(t, []string{result.Nodes[0].Name, result.Nodes[1].Name, result.Nodes[2].Name},
		[]string{"Aspirin", "Headache", "Ibuprofen"})

	// Induced edges in global insertion order, parallel edges included
	if len(result.Edges) != 3 {
		t.Fatalf("Expected 3 induced edges, got %d", len(result.Edges))
	}
	if result.Edges[0].SourceIndex != 0 || result.Edges[0].Relation != "drug_effect" {
		t.Errorf("Unexpected first induced edge: %+v", result.Edges[0])
	}
	if result.Edges[1].SourceIndex != 1 {
		t.Errorf("Unexpected second induced edge: %+v", result.Edges[1])
	}
	if result.Edges[2].Relation != "drug_effect_severe" {
		t.Errorf("Expected the parallel edge last, got %+v", result.Edges[2])
	}

	assertNames(t, result.Unresolved, []string{"unknown thing"})
}

func TestStore_Subgraph_AllUnresolved(t *testing.T) {
	s := sideEffectStore(t)

	result := s.Subgraph([]string{"nope", "also nope"})
	if len(result.Nodes) != 0 || len(result.Edges) != 0 {
		t.Errorf("Expected an empty subgraph, got %d nodes and %d edges", len(result.Nodes), len(result.Edges))
	}
	if len(result.Unresolved) != 2 {
		t.Errorf("Expected 2 unresolved names, got %v", result.Unresolved)
	}
}

func TestStore_SharedSecondOrder(t *testing.T) {
	s := sideEffectStore(t)

	names, err := s.SharedSecondOrder("Aspirin", "effect/phenotype", "drug")
	if err != nil {
		t.Fatalf("SharedSecondOrder failed: %v", err)
	}
	assertNames(t, names, []string{"Ibuprofen", "Warfarin"})

	// The origin itself must never appear
	for _, name := range names {
		if name == "Aspirin" {
			t.Errorf("Origin entity leaked into the result: %v", names)
		}
	}

	if _, err := s.SharedSecondOrder("no such entity", "effect/phenotype", "drug"); err == nil {
		t.Errorf("Expected an unresolved entity to fail")
	}
}

func TestStore_NeighborhoodRecords(t *testing.T) {
	s := sideEffectStore(t)

	records, err := s.NeighborhoodRecords("Aspirin")
	if err != nil {
		t.Fatalf("NeighborhoodRecords failed: %v", err)
	}

	// Only edges whose both endpoints touch the one-hop neighborhood:
	// Ibuprofen-Headache stays out because Ibuprofen is two hops away
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	first := records[0]
	if first.SourceName != "Aspirin" || first.TargetName != "Headache" || first.Relation != "drug_effect" {
		t.Errorf("Unexpected first record: %+v", first)
	}
	for _, rec := range records {
		if rec.SourceName == "Ibuprofen" || rec.TargetName == "Ibuprofen" {
			t.Errorf("Two-hop edge leaked into the neighborhood: %+v", rec)
		}
	}
}

func assertNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected names %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected names %v, got %v", want, got)
		}
	}
}
