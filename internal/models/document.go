// Package models defines core data structures for documents, conversations, and chat.
package models

import "time"

// Document represents an uploaded document with its extracted text.
// Content is set once at upload time and never mutated afterward; the upload
// path guarantees it is non-empty for any persisted document.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Name      string                 `json:"name" db:"name"`
	MimeType  string                 `json:"type" db:"mime_type"`
	Content   string                 `json:"content,omitempty" db:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// DocumentSummary is a Document without its content, for listings.
type DocumentSummary struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	MimeType  string                 `json:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Summary returns the document's summary view.
func (d *Document) Summary() *DocumentSummary {
	return &DocumentSummary{
		ID:        d.ID,
		Name:      d.Name,
		MimeType:  d.MimeType,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
}

// RankedDocument is a document paired with a relevance rank in [0,1].
// The rank is produced by whichever retrieval tier matched the document and is
// not comparable across tiers.
type RankedDocument struct {
	Document *Document `json:"document"`
	Rank     float64   `json:"rank"`
}

// DocumentStats summarizes the stored corpus.
type DocumentStats struct {
	Total      int64            `json:"total"`
	ByType     map[string]int64 `json:"byType"`
	TotalChars int64            `json:"totalChars"`
}
