package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"primekg/internal/graph"
	apperrors "primekg/pkg/errors"
)

// magic identifies a graph snapshot; the final byte is the format
// version. The format is owned by this package and only guarantees
// round-trip within one build, not cross-version compatibility
var magic = [8]byte{'P', 'K', 'G', 'S', 'N', 'A', 'P', 1}

// Meta describes one saved snapshot
type Meta struct {
	BuildID string    `json:"build_id"`
	SavedAt time.Time `json:"saved_at"`
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
}

// payload is the gob-encoded snapshot body. Adjacency is not stored:
// replaying the edge table in order reproduces it exactly, insertion
// order included
type payload struct {
	Meta  Meta
	Nodes []*graph.Node
	Edges []*graph.Edge
}

// Encode serializes the store to w: magic, CRC32 and length of the body,
// then the gob body. Every save gets a fresh build id
func Encode(store *graph.Store, w io.Writer) (*Meta, error) {
	meta := Meta{
		BuildID: uuid.NewString(),
		SavedAt: time.Now().UTC(),
		Nodes:   store.NodeCount(),
		Edges:   store.EdgeCount(),
	}

	var body bytes.Buffer
	enc := gob.NewEncoder(&body)
	if err := enc.Encode(payload{Meta: meta, Nodes: store.Nodes(), Edges: store.Edges()}); err != nil {
		return nil, fmt.Errorf("encode snapshot body: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return nil, fmt.Errorf("write snapshot header: %w", err)
	}
	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:4], crc32.ChecksumIEEE(body.Bytes()))
	binary.BigEndian.PutUint64(header[4:12], uint64(body.Len()))
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return nil, fmt.Errorf("write snapshot body: %w", err)
	}

	return &meta, nil
}

// Decode reads a snapshot from r and rebuilds the store through its
// public insertion API, which reproduces node indices, attribute values,
// and edge insertion order exactly. The source string only labels error
// diagnostics. Any validation failure is reported as a corrupt snapshot;
// nothing partial is ever returned
func Decode(r io.Reader, source string) (*graph.Store, *Meta, error) {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "missing header", err)
	}
	if !bytes.Equal(gotMagic[:7], magic[:7]) {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "not a graph snapshot", nil)
	}
	if gotMagic[7] != magic[7] {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, fmt.Sprintf("unsupported version %d", gotMagic[7]), nil)
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "truncated header", err)
	}
	wantCRC := binary.BigEndian.Uint32(header[0:4])
	wantLen := binary.BigEndian.Uint64(header[4:12])

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "unreadable body", err)
	}
	if uint64(len(body)) != wantLen {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, fmt.Sprintf("body is %d bytes, header says %d", len(body), wantLen), nil)
	}
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "checksum mismatch", nil)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&p); err != nil {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "undecodable body", err)
	}
	if len(p.Nodes) != p.Meta.Nodes || len(p.Edges) != p.Meta.Edges {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "table sizes disagree with metadata", nil)
	}

	store := graph.NewStore()
	for _, node := range p.Nodes {
		index, created := store.AddNode(node.ID, node.Type, node.Name, node.Source)
		if !created || index != node.Index {
			return nil, nil, apperrors.NewSnapshotCorrupted(source, fmt.Sprintf("node table out of order at index %d", node.Index), nil)
		}
		for key, value := range node.Attributes {
			if err := store.SetAttribute(index, key, value); err != nil {
				return nil, nil, apperrors.NewSnapshotCorrupted(source, "attribute on unknown node", err)
			}
		}
	}
	for i, edge := range p.Edges {
		added, err := store.AddEdge(edge.SourceIndex, edge.TargetIndex, edge.Relation, edge.DisplayRelation)
		if err != nil {
			return nil, nil, apperrors.NewSnapshotCorrupted(source, fmt.Sprintf("edge %d references an unknown node", i), err)
		}
		if !added {
			return nil, nil, apperrors.NewSnapshotCorrupted(source, fmt.Sprintf("edge %d repeats an earlier triple", i), nil)
		}
	}

	if err := store.Validate(); err != nil {
		return nil, nil, apperrors.NewSnapshotCorrupted(source, "rebuilt store failed validation", err)
	}

	return store, &p.Meta, nil
}

// Save writes the store to path through a temporary file and rename, so
// a crash mid-write never leaves a half-written snapshot behind
func Save(store *graph.Store, path string, log *zap.Logger) (*Meta, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create snapshot file: %w", err)
	}

	meta, err := Encode(store, f)
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("finalize snapshot file: %w", err)
	}

	log.Info("Snapshot saved",
		zap.String("path", path),
		zap.String("build_id", meta.BuildID),
		zap.Int("nodes", meta.Nodes),
		zap.Int("edges", meta.Edges),
	)
	return meta, nil
}

// Load reads the snapshot at path and rebuilds the store
func Load(path string, log *zap.Logger) (*graph.Store, *Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	store, meta, err := Decode(f, path)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Snapshot loaded",
		zap.String("path", path),
		zap.String("build_id", meta.BuildID),
		zap.Int("nodes", meta.Nodes),
		zap.Int("edges", meta.Edges),
	)
	return store, meta, nil
}
