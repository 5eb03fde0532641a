package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestConvertTabFiles(t *testing.T) {
	dir := t.TempDir()
	tabPath := filepath.Join(dir, "nodes.tab")
	content := "node_index\tnode_name\n0\tTP53\n1\t\"colitis, microscopic\"\n"
	if err := os.WriteFile(tabPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if err := ConvertTabFiles(dir, zap.NewNop()); err != nil {
		t.Fatalf("ConvertTabFiles failed: %v", err)
	}

	if _, err := os.Stat(tabPath); !os.IsNotExist(err) {
		t.Errorf("Expected the tab original to be removed")
	}

	out, err := os.ReadFile(filepath.Join(dir, "nodes.csv"))
	if err != nil {
		t.Fatalf("Converted file missing: %v", err)
	}
	// The embedded comma forces re-quoting in the comma-separated output
	want := "node_index,node_name\n0,TP53\n1,\"colitis, microscopic\"\n"
	if string(out) != want {
		t.Errorf("Unexpected converted content:\n%q\nexpected:\n%q", out, want)
	}
}

func TestConvertTabFiles_NoTabFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nodes.csv"), []byte("a,b\n"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if err := ConvertTabFiles(dir, zap.NewNop()); err != nil {
		t.Fatalf("ConvertTabFiles failed on a tab-free directory: %v", err)
	}
	// The existing csv is left alone
	if _, err := os.Stat(filepath.Join(dir, "nodes.csv")); err != nil {
		t.Errorf("Existing csv was touched: %v", err)
	}
}
