package fetch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "primekg/pkg/errors"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	required := map[string]bool{}
	for _, f := range m.Files {
		if f.Required {
			required[f.Name] = true
		}
	}
	for _, name := range []string{"nodes.csv", "kg.csv", "drug_features.csv", "disease_features.csv", "kg_grouped_diseases_bert_map.csv"} {
		if !required[name] {
			t.Errorf("Expected %s to be required", name)
		}
	}
}

func TestManifest_Wanted(t *testing.T) {
	m, err := LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	cases := []struct {
		label string
		want  bool
	}{
		{"nodes.csv", true},
		{"nodes.tab", true}, // catalog serves the tab variant
		{"kg.giant.csv", true},
		{"README.md", false},
		{"", false},
	}
	for _, c := range cases {
		if got := m.Wanted(c.label); got != c.want {
			t.Errorf("Wanted(%q) = %v, expected %v", c.label, got, c.want)
		}
	}
}

func TestManifest_Verify(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Files: []ManifestFile{
		{Name: "nodes.csv", Required: true},
		{Name: "optional.csv"},
	}}

	if err := m.Verify(dir); err == nil {
		t.Fatalf("Expected Verify to fail with the required file absent")
	}

	if err := os.WriteFile(filepath.Join(dir, "nodes.csv"), []byte("node_index\n"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	// Optional files may stay missing
	if err := m.Verify(dir); err != nil {
		t.Errorf("Verify failed with all required files present: %v", err)
	}
}

func TestManifest_Verify_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Files: []ManifestFile{
		{Name: "pinned.csv", Size: 100, Required: true},
	}}
	if err := os.WriteFile(filepath.Join(dir, "pinned.csv"), []byte("abc"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	err := m.Verify(dir)
	if err == nil {
		t.Fatalf("Expected a pinned size mismatch to fail")
	}
	var mismatch *apperrors.ErrFetchSizeMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected ErrFetchSizeMismatch, got %v", err)
	}
	if mismatch.Expected != 100 || mismatch.Actual != 3 {
		t.Errorf("Unexpected sizes in the error: %+v", mismatch)
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"nodes.tab", "nodes.csv"},
		{"nodes.csv", "nodes.csv"},
		{"kg.giant.tab", "kg.giant.csv"},
		{"readme", "readme"},
	}
	for _, c := range cases {
		if got := NormalizeLabel(c.label); got != c.want {
			t.Errorf("NormalizeLabel(%q) = %q, expected %q", c.label, got, c.want)
		}
	}
}
