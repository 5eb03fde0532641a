package fetch

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "primekg/pkg/errors"
)

//go:embed manifest.yaml
var manifestYAML []byte

// ManifestFile is one dataset file the pipeline knows about
type ManifestFile struct {
	Name     string `yaml:"name"`
	Size     int64  `yaml:"size,omitempty"` // expected bytes, 0 when unknown
	Required bool   `yaml:"required,omitempty"`
}

// Manifest lists the dataset files worth downloading and the subset the
// graph build cannot run without
type Manifest struct {
	Files []ManifestFile `yaml:"files"`
}

// LoadManifest parses the embedded manifest
func LoadManifest() (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(manifestYAML, &m); err != nil {
		return nil, fmt.Errorf("parse embedded manifest: %w", err)
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("embedded manifest lists no files")
	}
	return &m, nil
}

// Wanted reports whether a catalog label belongs to the manifest, after
// normalizing the catalog's .tab variants
func (m *Manifest) Wanted(label string) bool {
	name := NormalizeLabel(label)
	for _, f := range m.Files {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Verify checks that every required manifest file exists under dir and
// matches its pinned size where one is set
func (m *Manifest) Verify(dir string) error {
	for _, f := range m.Files {
		if !f.Required {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, f.Name))
		if err != nil {
			return fmt.Errorf("required dataset file %s: %w", f.Name, err)
		}
		if f.Size > 0 && info.Size() != f.Size {
			return apperrors.NewFetchSizeMismatch(f.Name, f.Size, info.Size())
		}
	}
	return nil
}

// NormalizeLabel maps a catalog file label to its local name; .tab files
// become .csv after conversion
func NormalizeLabel(label string) string {
	if strings.HasSuffix(label, ".tab") {
		return strings.TrimSuffix(label, ".tab") + ".csv"
	}
	return label
}
