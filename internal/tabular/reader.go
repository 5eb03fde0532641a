package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apperrors "primekg/pkg/errors"
)

// Reader parses the dataset's row/column text files into typed records.
// Malformed rows are skipped and counted; a missing required column or an
// unreadable file fails the whole table.
type Reader struct {
	log *zap.Logger
}

// NewReader creates a new table reader
func NewReader(log *zap.Logger) *Reader {
	return &Reader{log: log}
}

// ReadNodeTable parses the node table. Returns the parsed rows and the
// number of rows skipped for a missing id or type
func (r *Reader) ReadNodeTable(path string) ([]NodeRow, int, error) {
	file := filepath.Base(path)

	records, header, err := readAll(path)
	if err != nil {
		return nil, 0, err
	}

	idCol := headerIndex(header, "node_index", "id")
	if idCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_index")
	}
	nodeIDCol := headerIndex(header, "node_id")
	if nodeIDCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_id")
	}
	typeCol := headerIndex(header, "node_type")
	if typeCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_type")
	}
	nameCol := headerIndex(header, "node_name")
	if nameCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_name")
	}
	sourceCol := headerIndex(header, "node_source")
	if sourceCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_source")
	}

	rows := make([]NodeRow, 0, len(records))
	skipped := 0
	for i, rec := range records {
		if rec == nil {
			skipped++
			continue
		}
		id, ok := parseID(rec[idCol])
		if !ok {
			r.logSkip(file, i, "missing or malformed id")
			skipped++
			continue
		}
		nodeType := strings.TrimSpace(rec[typeCol])
		if nodeType == "" {
			r.logSkip(file, i, "missing type")
			skipped++
			continue
		}
		rows = append(rows, NodeRow{
			ID:     id,
			NodeID: rec[nodeIDCol],
			Type:   nodeType,
			Name:   rec[nameCol],
			Source: rec[sourceCol],
		})
	}

	return rows, skipped, nil
}

// ReadEdgeTable parses the relationship table. Returns the parsed rows and
// the number of rows skipped for malformed endpoint ids
func (r *Reader) ReadEdgeTable(path string) ([]EdgeRow, int, error) {
	file := filepath.Base(path)

	records, header, err := readAll(path)
	if err != nil {
		return nil, 0, err
	}

	srcCol := headerIndex(header, "x_index", "source")
	if srcCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "x_index")
	}
	tgtCol := headerIndex(header, "y_index", "target")
	if tgtCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "y_index")
	}
	relCol := headerIndex(header, "relation")
	if relCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "relation")
	}
	displayCol := headerIndex(header, "display_relation")
	if displayCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "display_relation")
	}

	rows := make([]EdgeRow, 0, len(records))
	skipped := 0
	for i, rec := range records {
		if rec == nil {
			skipped++
			continue
		}
		src, okSrc := parseID(rec[srcCol])
		tgt, okTgt := parseID(rec[tgtCol])
		if !okSrc || !okTgt {
			r.logSkip(file, i, "malformed endpoint id")
			skipped++
			continue
		}
		rows = append(rows, EdgeRow{
			SourceID:        src,
			TargetID:        tgt,
			Relation:        rec[relCol],
			DisplayRelation: rec[displayCol],
		})
	}

	return rows, skipped, nil
}

// ReadFeatureTable parses a per-type feature table. The first column is
// the node id; every remaining non-empty cell becomes an attribute value
func (r *Reader) ReadFeatureTable(path string) ([]FeatureRow, int, error) {
	file := filepath.Base(path)

	records, header, err := readAll(path)
	if err != nil {
		return nil, 0, err
	}
	if len(header) < 2 {
		return nil, 0, apperrors.NewColumnMissing(file, "at least one attribute column")
	}

	rows := make([]FeatureRow, 0, len(records))
	skipped := 0
	for i, rec := range records {
		if rec == nil {
			skipped++
			continue
		}
		id, ok := parseID(rec[0])
		if !ok {
			r.logSkip(file, i, "missing or malformed id")
			skipped++
			continue
		}
		values := make(map[string]string, len(header)-1)
		for col := 1; col < len(header) && col < len(rec); col++ {
			if rec[col] != "" {
				values[header[col]] = rec[col]
			}
		}
		rows = append(rows, FeatureRow{ID: id, Values: values})
	}

	return rows, skipped, nil
}

// ReadClusterTable parses the similarity-cluster assignment table
func (r *Reader) ReadClusterTable(path string) ([]ClusterRow, int, error) {
	file := filepath.Base(path)

	records, header, err := readAll(path)
	if err != nil {
		return nil, 0, err
	}

	idCol := headerIndex(header, "node_id")
	if idCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "node_id")
	}
	groupCol := headerIndex(header, "group_id_bert")
	if groupCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "group_id_bert")
	}
	nameCol := headerIndex(header, "group_name_bert")
	if nameCol < 0 {
		return nil, 0, apperrors.NewColumnMissing(file, "group_name_bert")
	}

	rows := make([]ClusterRow, 0, len(records))
	skipped := 0
	for i, rec := range records {
		if rec == nil {
			skipped++
			continue
		}
		id, ok := parseID(rec[idCol])
		if !ok {
			r.logSkip(file, i, "missing or malformed entity id")
			skipped++
			continue
		}
		rows = append(rows, ClusterRow{
			EntityID:  id,
			GroupKey:  rec[groupCol],
			GroupName: rec[nameCol],
		})
	}

	return rows, skipped, nil
}

func (r *Reader) logSkip(file string, row int, reason string) {
	if r.log != nil {
		// row+2: 1-based, after the header line
		r.log.Debug("Skipping malformed row",
			zap.Error(apperrors.NewRowParseFailed(file, row+2, reason)),
		)
	}
}

// readAll loads a CSV file into memory. The header row is returned
// separately; unparseable data rows come back as nil entries so callers
// can count them against the right table
func readAll(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("table %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				records = append(records, nil)
				continue
			}
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) < len(header) {
			records = append(records, nil)
			continue
		}
		records = append(records, rec)
	}

	return records, header, nil
}

// headerIndex returns the position of the first header cell matching any
// of the given names, or -1
func headerIndex(header []string, names ...string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// parseID parses an external node identifier. Some tables round-trip
// through floating point upstream, leaving ids like "16649.0"
func parseID(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f), true
	}
	return 0, false
}
