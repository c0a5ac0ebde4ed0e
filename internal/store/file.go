package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

// FileAssetStore serves an asset inventory from a JSON file holding either
// one document or an array of documents.
type FileAssetStore struct {
	path string
	log  *zap.Logger
}

// NewFileAssetStore returns a store reading path on every call.
func NewFileAssetStore(path string, logger *zap.Logger) *FileAssetStore {
	return &FileAssetStore{path: path, log: logger.Named("file_store")}
}

// ListAssetDocuments returns the documents owned by ownerID. Documents
// without an owner belong to everyone, and an empty ownerID matches all.
func (s *FileAssetStore) ListAssetDocuments(ctx context.Context, ownerID string) ([]schemas.AssetDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset file %s: %w", s.path, err)
	}

	all, err := decodeDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset file %s: %w", s.path, err)
	}

	docs := make([]schemas.AssetDocument, 0, len(all))
	for i, doc := range all {
		if ownerID != "" && doc.OwnerID != "" && doc.OwnerID != ownerID {
			continue
		}
		if doc.ID == "" {
			doc.ID = filepath.Base(s.path) + "#" + strconv.Itoa(i)
		}
		if doc.Filename == "" {
			doc.Filename = filepath.Base(s.path)
		}
		docs = append(docs, doc)
		if len(docs) == MaxAssetDocuments {
			break
		}
	}
	s.log.Debug("Loaded asset documents from file.",
		zap.String("path", s.path), zap.Int("documents", len(docs)))
	return docs, nil
}

func decodeDocuments(data []byte) ([]schemas.AssetDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []schemas.AssetDocument
		err := json.Unmarshal(trimmed, &docs)
		return docs, err
	}
	var doc schemas.AssetDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return []schemas.AssetDocument{doc}, nil
}
