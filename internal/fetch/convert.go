package fetch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ConvertTabFiles rewrites every .tab file in dir as a comma-separated
// .csv and removes the original. The catalog serves ingest-processed
// tables as tab-separated even when the archived name says csv, so the
// readers only ever see comma-separated input. Per-file failures are
// logged and skipped
func ConvertTabFiles(dir string, log *zap.Logger) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.tab"))
	if err != nil {
		return err
	}
	for _, src := range matches {
		dest := strings.TrimSuffix(src, ".tab") + ".csv"
		if err := convertFile(src, dest); err != nil {
			log.Warn("Tab file conversion failed",
				zap.String("file", filepath.Base(src)),
				zap.Error(err),
			)
			continue
		}
		if err := os.Remove(src); err != nil {
			log.Warn("Could not remove converted tab file",
				zap.String("file", filepath.Base(src)),
				zap.Error(err),
			)
		}
		log.Info("Converted tab file to csv", zap.String("file", filepath.Base(dest)))
	}
	return nil
}

func convertFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	reader := csv.NewReader(in)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	writer := csv.NewWriter(out)
	records, err := reader.ReadAll()
	if err == nil {
		err = writer.WriteAll(records)
	}
	if err == nil {
		writer.Flush()
		err = writer.Error()
	}
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
