// Package ingest turns raw uploaded bytes into stored, indexed documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/config"
	"github.com/Brunobgr08/chat-rag-ia/internal/extract"
	"github.com/Brunobgr08/chat-rag-ia/internal/keyword"
	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
)

// Validation errors surfaced to the upload boundary as client errors.
var (
	ErrDisallowedType = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file exceeds maximum size")
	ErrEmptyContent   = errors.New("could not extract content from file")
)

// chunkCharSize is the nominal chunk size used for the derived chunk-count
// metadata field.
const chunkCharSize = 1000

// Ingestor validates, extracts, persists, and indexes documents. Uploads and
// drop-directory files go through the same path, so the SQLite row and the
// Bleve entry are always created (and deleted) together.
type Ingestor struct {
	store     storage.DocumentStore
	index     keyword.Index
	extractor *extract.Extractor
	cfg       *config.UploadConfig
	logger    *zap.Logger
}

// NewIngestor creates an ingestor with the given dependencies.
func NewIngestor(
	store storage.DocumentStore,
	index keyword.Index,
	extractor *extract.Extractor,
	cfg *config.UploadConfig,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		store:     store,
		index:     index,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest validates data against the allow-list and size limit, extracts its
// text, and persists and indexes the resulting document. Empty extraction is
// rejected before anything is persisted.
func (ing *Ingestor) Ingest(ctx context.Context, name, mimeType string, data []byte) (*models.Document, error) {
	if !ing.cfg.Allows(mimeType) {
		return nil, fmt.Errorf("%w: %s (use: %s)", ErrDisallowedType, mimeType,
			strings.Join(ing.cfg.AllowedTypes, ", "))
	}
	if int64(len(data)) > ing.cfg.MaxFileSize {
		return nil, ErrTooLarge
	}

	content, err := ing.extractor.ExtractBytes(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	doc := &models.Document{
		ID:       uuid.New().String(),
		Name:     name,
		MimeType: mimeType,
		Content:  content,
		Metadata: map[string]interface{}{
			"size":           len(data),
			"extracted":      true,
			"content_length": len(content),
			"chunks":         (len(content) + chunkCharSize - 1) / chunkCharSize,
		},
	}

	if err := ing.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := ing.index.Index(ctx, doc); err != nil {
		// Keep storage and index in sync: roll the row back so the document
		// is not retrievable without being searchable.
		if delErr := ing.store.DeleteDocument(ctx, doc.ID); delErr != nil {
			ing.logger.Error("rollback after index failure failed",
				zap.String("id", doc.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("index document: %w", err)
	}

	ing.logger.Info("document ingested",
		zap.String("id", doc.ID),
		zap.String("name", name),
		zap.String("type", mimeType),
		zap.Int("content_length", len(content)))
	return doc, nil
}

// Delete removes a document from storage and the full-text index.
// Returns storage.ErrNotFound for unknown IDs.
func (ing *Ingestor) Delete(ctx context.Context, id string) error {
	if err := ing.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := ing.index.Delete(ctx, id); err != nil {
		ing.logger.Warn("index delete failed", zap.String("id", id), zap.Error(err))
	}
	return nil
}
