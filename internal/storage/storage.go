// Package storage defines the persistence interface for documents,
// conversations, and the app_config singleton.
package storage

import (
	"context"
	"errors"

	"github.com/Brunobgr08/chat-rag-ia/internal/models"
)

// ErrNotFound is returned for lookups and deletes of unknown IDs. Handlers map
// it to a client-facing 404, distinct from server errors.
var ErrNotFound = errors.New("not found")

// DocumentStore defines document persistence operations.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	// ListDocuments returns summaries (no content) ordered by created_at desc.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.DocumentSummary, error)
	CountDocuments(ctx context.Context) (int64, error)
	DocumentStats(ctx context.Context) (*models.DocumentStats, error)
	// SearchContentSubstring returns documents whose content contains any of
	// the keywords as a case-insensitive substring, ordered by created_at desc.
	SearchContentSubstring(ctx context.Context, keywords []string, limit int) ([]*models.Document, error)
	// ListRecentDocuments returns the limit most-recently-created documents
	// with content, ordered by created_at desc.
	ListRecentDocuments(ctx context.Context, limit int) ([]*models.Document, error)
}

// ConversationStore defines conversation persistence operations.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// ReplaceMessages rewrites the full message sequence and refreshes updated_at.
	ReplaceMessages(ctx context.Context, id string, messages []models.Message) error
	// ListConversations returns summaries ordered by updated_at desc.
	ListConversations(ctx context.Context, offset, limit int) ([]*models.ConversationSummary, error)
	CountConversations(ctx context.Context) (int64, error)
	DeleteConversation(ctx context.Context, id string) error
}

// ConfigStore defines app_config singleton operations.
type ConfigStore interface {
	// GetAppConfig returns the singleton row, or ErrNotFound when it has never
	// been saved.
	GetAppConfig(ctx context.Context) (*models.AppConfig, error)
	// SaveAppConfig upserts the singleton row wholesale.
	SaveAppConfig(ctx context.Context, cfg *models.AppConfig) error
}

// Storage is the full persistence surface backed by one database.
type Storage interface {
	DocumentStore
	ConversationStore
	ConfigStore
	Close() error
}
