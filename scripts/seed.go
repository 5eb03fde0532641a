package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"primekg/internal/ingest"
	"primekg/pkg/config"
	"primekg/pkg/logger"
)

// Writes a small, self-consistent sample dataset into the data directory
// so build and server can run without downloading the real tables. The
// sample keeps the real column layout: genes, drugs, diseases and
// phenotypes, base relations, per-type feature tables and a BERT cluster
// map whose groups overlap the disease nodes.
func main() {
	dir := flag.String("dir", "", "Target directory (defaults to DATA_DIR)")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development", ""); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Seeding sample dataset...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *dir == "" {
		*dir = cfg.DataDir
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal("Failed to create data directory", zap.Error(err))
	}

	tables := map[string][][]string{
		ingest.NodesFile: {
			{"node_index", "node_id", "node_type", "node_name", "node_source"},
			{"0", "7157", "gene/protein", "TP53", "NCBI"},
			{"1", "1956", "gene/protein", "EGFR", "NCBI"},
			{"2", "DB00945", "drug", "Aspirin", "DrugBank"},
			{"3", "DB01050", "drug", "Ibuprofen", "DrugBank"},
			{"4", "DB00682", "drug", "Warfarin", "DrugBank"},
			{"5", "MONDO:0004995", "disease", "cardiovascular disease", "MONDO"},
			{"6", "MONDO:0005265", "disease", "inflammatory bowel disease", "MONDO"},
			{"7", "MONDO:0005130", "disease", "celiac disease", "MONDO"},
			{"8", "HP:0002315", "effect/phenotype", "Headache", "HPO"},
			{"9", "HP:0002018", "effect/phenotype", "Nausea", "HPO"},
			{"10", "MONDO:0006606", "disease", "lymphocytic colitis", "MONDO"},
			{"11", "MONDO:0006605", "disease", "collagenous colitis", "MONDO"},
		},
		ingest.EdgesFile: {
			{"relation", "display_relation", "x_index", "y_index"},
			{"protein_protein", "ppi", "0", "1"},
			{"drug_protein", "target", "2", "0"},
			{"indication", "indication", "2", "5"},
			{"indication", "indication", "3", "6"},
			{"drug_effect", "side effect", "2", "8"},
			{"drug_effect", "side effect", "3", "8"},
			{"drug_effect", "side effect", "3", "9"},
			{"drug_effect", "side effect", "4", "9"},
			{"disease_disease", "parent-child", "6", "10"},
			{"disease_disease", "parent-child", "6", "11"},
			{"disease_phenotype_positive", "phenotype present", "5", "8"},
		},
		ingest.DrugFeaturesFile: {
			{"node_index", "description", "half_life", "indication"},
			{"2", "Salicylate used to treat pain and reduce clot risk", "3 hours", "pain; cardiovascular prophylaxis"},
			{"3", "Nonsteroidal anti-inflammatory drug", "2 hours", "pain; inflammation"},
			{"4", "Vitamin K antagonist anticoagulant", "40 hours", "thrombosis prophylaxis"},
		},
		ingest.DiseaseFeaturesFile: {
			{"node_index", "mondo_definition", "mayo_symptoms"},
			{"5", "Disease of the heart or blood vessels", "chest pain; shortness of breath"},
			{"6", "Chronic inflammation of the digestive tract", "diarrhea; abdominal pain"},
			{"7", "Immune reaction to eating gluten", "bloating; fatigue"},
			{"10", "Microscopic colitis with lymphocyte accumulation", "watery diarrhea"},
			{"11", "Microscopic colitis with collagen band thickening", "watery diarrhea"},
		},
		ingest.ClustersFile: {
			{"node_id", "group_id_bert", "group_name_bert"},
			{"10", "10_11", "microscopic colitis group"},
			{"11", "10_11", "microscopic colitis group"},
			{"7", "7_6", "autoimmune bowel disease group"},
		},
	}

	for name, records := range tables {
		path := filepath.Join(*dir, name)
		if err := writeCSV(path, records); err != nil {
			log.Fatal("Failed to write table", zap.String("file", name), zap.Error(err))
		}
		log.Info("Table written",
			zap.String("file", name),
			zap.Int("rows", len(records)-1),
		)
	}

	log.Info("Sample dataset ready", zap.String("dir", *dir))
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	err = w.WriteAll(records)
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
