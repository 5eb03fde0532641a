package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	apperrors "primekg/pkg/errors"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

func TestReader_ReadNodeTable(t *testing.T) {
	path := writeTable(t, t.TempDir(), "nodes.csv",
		`node_index,node_id,node_type,node_name,node_source
0,7157,gene/protein,TP53,NCBI
1,DB00945,drug,Aspirin,DrugBank
16649.0,MONDO:1,disease,celiac disease,MONDO
,X,drug,NoID,SRC
4,Y,,NoType,SRC
5,short
`)

	rows, skipped, err := NewReader(zap.NewNop()).ReadNodeTable(path)
	if err != nil {
		t.Fatalf("ReadNodeTable failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if skipped != 3 {
		t.Errorf("Expected 3 skipped rows, got %d", skipped)
	}

	first := rows[0]
	if first.ID != 0 || first.Type != "gene/protein" || first.Name != "TP53" || first.Source != "NCBI" {
		t.Errorf("Unexpected first row: %+v", first)
	}
	if rows[1].NodeID != "DB00945" {
		t.Errorf("Expected the string node_id to be kept, got %q", rows[1].NodeID)
	}
	// Ids that round-tripped through floating point upstream still parse
	if rows[2].ID != 16649 {
		t.Errorf("Expected float-formatted id 16649, got %d", rows[2].ID)
	}
}

func TestReader_ReadNodeTable_AltIDHeader(t *testing.T) {
	path := writeTable(t, t.TempDir(), "nodes.csv",
		`id,node_id,node_type,node_name,node_source
7,X1,drug,Aspirin,DrugBank
`)

	rows, _, err := NewReader(zap.NewNop()).ReadNodeTable(path)
	if err != nil {
		t.Fatalf("ReadNodeTable failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != 7 {
		t.Errorf("Expected one row with id 7, got %+v", rows)
	}
}

func TestReader_ReadNodeTable_MissingColumn(t *testing.T) {
	path := writeTable(t, t.TempDir(), "nodes.csv",
		`node_index,node_id,node_type,node_name
0,X,drug,Aspirin
`)

	_, _, err := NewReader(zap.NewNop()).ReadNodeTable(path)
	if err == nil {
		t.Fatalf("Expected a missing required column to fail the load")
	}
	var missing *apperrors.ErrColumnMissing
	if !errors.As(err, &missing) {
		t.Fatalf("Expected ErrColumnMissing, got %v", err)
	}
	if missing.Column != "node_source" {
		t.Errorf("Expected the missing column to be named, got %q", missing.Column)
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeParse) {
		t.Errorf("Expected a parse error, got %v", err)
	}
}

func TestReader_ReadEdgeTable(t *testing.T) {
	path := writeTable(t, t.TempDir(), "kg.csv",
		`relation,display_relation,x_index,y_index
protein_protein,ppi,0,1
indication,indication,2.0,5
drug_effect,side effect,bad,5
`)

	rows, skipped, err := NewReader(zap.NewNop()).ReadEdgeTable(path)
	if err != nil {
		t.Fatalf("ReadEdgeTable failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped row, got %d", skipped)
	}
	if rows[0].SourceID != 0 || rows[0].TargetID != 1 || rows[0].Relation != "protein_protein" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[0].DisplayRelation != "ppi" {
		t.Errorf("Expected display relation ppi, got %q", rows[0].DisplayRelation)
	}
	if rows[1].SourceID != 2 {
		t.Errorf("Expected float-formatted endpoint 2, got %d", rows[1].SourceID)
	}
}

func TestReader_ReadEdgeTable_AltEndpointHeaders(t *testing.T) {
	path := writeTable(t, t.TempDir(), "edges.csv",
		`source,target,relation,display_relation
3,4,indication,indication
`)

	rows, _, err := NewReader(zap.NewNop()).ReadEdgeTable(path)
	if err != nil {
		t.Fatalf("ReadEdgeTable failed: %v", err)
	}
	if len(rows) != 1 || rows[0].SourceID != 3 || rows[0].TargetID != 4 {
		t.Errorf("Expected one row 3 -> 4, got %+v", rows)
	}
}

func TestReader_ReadFeatureTable(t *testing.T) {
	path := writeTable(t, t.TempDir(), "drug_features.csv",
		`node_index,description,half_life
2,Salicylate,3 hours
3,,2 hours
bad,X,Y
`)

	rows, skipped, err := NewReader(zap.NewNop()).ReadFeatureTable(path)
	if err != nil {
		t.Fatalf("ReadFeatureTable failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped row, got %d", skipped)
	}

	if rows[0].ID != 2 || rows[0].Values["description"] != "Salicylate" || rows[0].Values["half_life"] != "3 hours" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	// Empty cells stay absent instead of becoming empty attributes
	if _, ok := rows[1].Values["description"]; ok {
		t.Errorf("Expected the empty cell to be dropped, got %+v", rows[1].Values)
	}
	if rows[1].Values["half_life"] != "2 hours" {
		t.Errorf("Expected half_life kept, got %+v", rows[1].Values)
	}
}

func TestReader_ReadFeatureTable_NoAttributeColumns(t *testing.T) {
	path := writeTable(t, t.TempDir(), "features.csv",
		`node_index
2
`)

	_, _, err := NewReader(zap.NewNop()).ReadFeatureTable(path)
	if err == nil {
		t.Fatalf("Expected an id-only feature table to fail")
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeParse) {
		t.Errorf("Expected a parse error, got %v", err)
	}
}

func TestReader_ReadClusterTable(t *testing.T) {
	path := writeTable(t, t.TempDir(), "bert_map.csv",
		`node_id,group_id_bert,group_name_bert
16649.0,16649_16650,microscopic colitis group
,x,y
10,10_11,colitis group
`)

	rows, skipped, err := NewReader(zap.NewNop()).ReadClusterTable(path)
	if err != nil {
		t.Fatalf("ReadClusterTable failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped row, got %d", skipped)
	}
	if rows[0].EntityID != 16649 || rows[0].GroupKey != "16649_16650" {
		t.Errorf("Unexpected first row: %+v", rows[0])
	}
	if rows[1].GroupName != "colitis group" {
		t.Errorf("Unexpected group name: %q", rows[1].GroupName)
	}
}

func TestReader_UnreadableFile(t *testing.T) {
	_, _, err := NewReader(zap.NewNop()).ReadNodeTable(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatalf("Expected a missing file to fail the load")
	}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"16649", 16649, true},
		{"16649.0", 16649, true},
		{" 7 ", 7, true},
		{"-3", -3, true},
		{"", 0, false},
		{"16649.5", 0, false},
		{"DB00945", 0, false},
	}
	for _, c := range cases {
		got, ok := parseID(c.raw)
		if ok != c.ok || got != c.want {
			t.Errorf("parseID(%q) = (%d, %v), expected (%d, %v)", c.raw, got, ok, c.want, c.ok)
		}
	}
}
