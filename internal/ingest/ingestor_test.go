package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/config"
	"github.com/Brunobgr08/chat-rag-ia/internal/extract"
	"github.com/Brunobgr08/chat-rag-ia/internal/keyword"
	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
)

type recordingIndex struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
	err     error
}

func (r *recordingIndex) Index(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.indexed = append(r.indexed, doc.ID)
	return nil
}

func (r *recordingIndex) Search(ctx context.Context, query string, limit int) ([]*keyword.Hit, error) {
	return nil, nil
}

func (r *recordingIndex) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingIndex) DocCount() (uint64, error) { return uint64(len(r.indexed)), nil }
func (r *recordingIndex) Close() error              { return nil }

func newTestIngestor(t *testing.T) (*Ingestor, *storage.SQLiteStorage, *recordingIndex) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	index := &recordingIndex{}
	cfg := &config.UploadConfig{
		MaxFileSize:  1024,
		AllowedTypes: []string{"text/plain", "text/markdown"},
	}
	ing := NewIngestor(store, index, extract.NewExtractor(), cfg, zap.NewNop())
	return ing, store, index
}

func TestIngest_Success(t *testing.T) {
	ing, store, index := newTestIngestor(t)
	ctx := context.Background()

	data := []byte(strings.Repeat("conteúdo ", 10))
	doc, err := ing.Ingest(ctx, "notas.txt", "text/plain", data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID == "" {
		t.Error("expected generated ID")
	}
	if doc.Metadata["size"] != len(data) {
		t.Errorf("unexpected size metadata: %v", doc.Metadata["size"])
	}
	if doc.Metadata["extracted"] != true {
		t.Errorf("unexpected extracted metadata: %v", doc.Metadata["extracted"])
	}
	if doc.Metadata["content_length"] != len(doc.Content) {
		t.Errorf("unexpected content_length: %v", doc.Metadata["content_length"])
	}
	if doc.Metadata["chunks"] != 1 {
		t.Errorf("expected 1 chunk, got %v", doc.Metadata["chunks"])
	}

	stored, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Content != doc.Content {
		t.Error("stored content mismatch")
	}
	if len(index.indexed) != 1 || index.indexed[0] != doc.ID {
		t.Errorf("document not indexed: %+v", index.indexed)
	}
}

func TestIngest_ChunkCount(t *testing.T) {
	ing, _, _ := newTestIngestor(t)
	// 1500 ASCII bytes extract to 1500 chars -> two 1000-char chunks.
	data := []byte(strings.Repeat("a", 1500))

	// Raise the limit for this case.
	ing.cfg.MaxFileSize = 4096
	doc, err := ing.Ingest(context.Background(), "grande.txt", "text/plain", data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata["chunks"] != 2 {
		t.Errorf("expected 2 chunks, got %v", doc.Metadata["chunks"])
	}
}

func TestIngest_DisallowedType(t *testing.T) {
	ing, store, _ := newTestIngestor(t)
	ctx := context.Background()

	_, err := ing.Ingest(ctx, "image.png", "image/png", []byte("bytes"))
	if !errors.Is(err, ErrDisallowedType) {
		t.Fatalf("expected ErrDisallowedType, got %v", err)
	}
	count, _ := store.CountDocuments(ctx)
	if count != 0 {
		t.Errorf("nothing should be persisted, got %d", count)
	}
}

func TestIngest_TooLarge(t *testing.T) {
	ing, _, _ := newTestIngestor(t)

	_, err := ing.Ingest(context.Background(), "big.txt", "text/plain", make([]byte, 2048))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestIngest_EmptyContent(t *testing.T) {
	ing, store, _ := newTestIngestor(t)
	ctx := context.Background()

	for _, data := range [][]byte{nil, []byte("   \n\t  ")} {
		if _, err := ing.Ingest(ctx, "vazio.txt", "text/plain", data); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("expected ErrEmptyContent for %q, got %v", data, err)
		}
	}
	count, _ := store.CountDocuments(ctx)
	if count != 0 {
		t.Errorf("empty extraction should persist nothing, got %d", count)
	}
}

func TestIngest_IndexFailureRollsBack(t *testing.T) {
	ing, store, index := newTestIngestor(t)
	index.err = errors.New("index full")
	ctx := context.Background()

	if _, err := ing.Ingest(ctx, "notas.txt", "text/plain", []byte("conteúdo")); err == nil {
		t.Fatal("expected error")
	}
	count, _ := store.CountDocuments(ctx)
	if count != 0 {
		t.Errorf("row should be rolled back after index failure, got %d", count)
	}
}

func TestDelete(t *testing.T) {
	ing, store, index := newTestIngestor(t)
	ctx := context.Background()

	doc, err := ing.Ingest(ctx, "notas.txt", "text/plain", []byte("conteúdo"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ing.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, doc.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != doc.ID {
		t.Errorf("index delete not called: %+v", index.deleted)
	}

	if err := ing.Delete(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown ID, got %v", err)
	}
}
