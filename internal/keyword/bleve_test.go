package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Brunobgr08/chat-rag-ia/internal/models"
)

func newTestIndex(t *testing.T) (*BleveIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bleve")
	index, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { index.Close() })
	return index, path
}

func TestBleveIndex_IndexAndSearch(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	docs := []*models.Document{
		{ID: "ferias", Name: "ferias.txt", Content: "Política de férias: todo funcionário tem direito a trinta dias de férias."},
		{ID: "reembolso", Name: "reembolso.txt", Content: "Política de reembolso de despesas de viagem."},
	}
	for _, d := range docs {
		if err := index.Index(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	count, err := index.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 indexed docs, got %d", count)
	}

	hits, err := index.Search(ctx, "férias", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ID != "ferias" {
		t.Errorf("expected ferias first, got %s", hits[0].ID)
	}
	if hits[0].Score <= 0 {
		t.Errorf("expected positive score, got %v", hits[0].Score)
	}
}

func TestBleveIndex_SearchLimit(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		doc := &models.Document{ID: id, Name: id + ".txt", Content: "mesmo conteúdo repetido"}
		if err := index.Index(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := index.Search(ctx, "conteúdo", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits with limit 2, got %d", len(hits))
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	index, _ := newTestIndex(t)
	ctx := context.Background()

	doc := &models.Document{ID: "doc1", Name: "doc1.txt", Content: "conteúdo para remover"}
	if err := index.Index(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := index.Delete(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}

	hits, err := index.Search(ctx, "remover", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits after delete, got %d", len(hits))
	}
}

func TestBleveIndex_ReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	index, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	doc := &models.Document{ID: "doc1", Name: "doc1.txt", Content: "persistente entre aberturas"}
	if err := index.Index(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := index.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	hits, err := reopened.Search(ctx, "persistente", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "doc1" {
		t.Errorf("expected doc1 after reopen, got %+v", hits)
	}
}
