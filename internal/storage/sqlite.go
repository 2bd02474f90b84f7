// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Brunobgr08/chat-rag-ia/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT,
		messages TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at);

	CREATE TABLE IF NOT EXISTS app_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		open_router_api_key TEXT,
		selected_model TEXT,
		system_prompt TEXT,
		evolution_api_url TEXT,
		evolution_api_key TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, mime_type, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.MimeType, doc.Content, string(metadataJSON), doc.CreatedAt,
	)
	return err
}

// GetDocument returns a document by ID, including its content.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var metadataJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, mime_type, content, metadata, created_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Name, &doc.MimeType, &doc.Content, &metadataJSON, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &doc, nil
}

// DeleteDocument removes a document by ID. Returns ErrNotFound for unknown IDs.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocuments returns document summaries ordered by created_at desc.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mime_type, metadata, created_at
		 FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.DocumentSummary
	for rows.Next() {
		var doc models.DocumentSummary
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.MimeType, &metadataJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &doc.Metadata)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// DocumentStats returns corpus totals: document count, count per MIME type,
// and total extracted characters.
func (s *SQLiteStorage) DocumentStats(ctx context.Context) (*models.DocumentStats, error) {
	stats := &models.DocumentStats{ByType: make(map[string]int64)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM documents`,
	).Scan(&stats.Total, &stats.TotalChars); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT mime_type, COUNT(*) FROM documents GROUP BY mime_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mimeType string
		var count int64
		if err := rows.Scan(&mimeType, &count); err != nil {
			return nil, err
		}
		stats.ByType[mimeType] = count
	}
	return stats, rows.Err()
}

// SearchContentSubstring returns documents whose content contains any keyword
// as a case-insensitive substring, most recent first. An empty keyword list
// yields no results.
//
// The containment check runs in Go: SQLite's LOWER folds ASCII only, so a
// LIKE filter would miss accented uppercase content (e.g. "POLÍTICA" for the
// keyword "política").
func (s *SQLiteStorage) SearchContentSubstring(ctx context.Context, keywords []string, limit int) ([]*models.Document, error) {
	if len(keywords) == 0 || limit <= 0 {
		return nil, nil
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mime_type, content, metadata, created_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.MimeType, &doc.Content, &metadataJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}
		content := strings.ToLower(doc.Content)
		matched := false
		for _, kw := range lowered {
			if strings.Contains(content, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &doc.Metadata)
		}
		docs = append(docs, &doc)
		if len(docs) == limit {
			break
		}
	}
	return docs, rows.Err()
}

// ListRecentDocuments returns the limit most-recently-created documents with content.
func (s *SQLiteStorage) ListRecentDocuments(ctx context.Context, limit int) ([]*models.Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mime_type, content, metadata, created_at
		 FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.MimeType, &doc.Content, &metadataJSON, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &doc.Metadata)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CreateConversation inserts a conversation with its initial messages.
func (s *SQLiteStorage) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, string(messagesJSON), conv.CreatedAt, conv.UpdatedAt,
	)
	return err
}

// GetConversation returns a conversation by ID with its full message log.
func (s *SQLiteStorage) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	var messagesJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, messages, created_at, updated_at
		 FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Title, &messagesJSON, &conv.CreatedAt, &conv.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return &conv, nil
}

// ReplaceMessages rewrites the full message sequence and refreshes updated_at.
// Returns ErrNotFound for unknown IDs.
func (s *SQLiteStorage) ReplaceMessages(ctx context.Context, id string, messages []models.Message) error {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET messages = ?, updated_at = ? WHERE id = ?`,
		string(messagesJSON), time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListConversations returns conversation summaries ordered by updated_at desc.
func (s *SQLiteStorage) ListConversations(ctx context.Context, offset, limit int) ([]*models.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at
		 FROM conversations ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*models.ConversationSummary
	for rows.Next() {
		var conv models.ConversationSummary
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}

// CountConversations returns the total number of conversations.
func (s *SQLiteStorage) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

// DeleteConversation removes a conversation by ID. Returns ErrNotFound for unknown IDs.
func (s *SQLiteStorage) DeleteConversation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAppConfig returns the app_config singleton, or ErrNotFound when it has
// never been saved.
func (s *SQLiteStorage) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	var cfg models.AppConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT open_router_api_key, selected_model, system_prompt,
		        evolution_api_url, evolution_api_key, created_at, updated_at
		 FROM app_config WHERE id = 1`,
	).Scan(&cfg.OpenRouterAPIKey, &cfg.SelectedModel, &cfg.SystemPrompt,
		&cfg.EvolutionAPIURL, &cfg.EvolutionAPIKey, &cfg.CreatedAt, &cfg.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveAppConfig upserts the app_config singleton wholesale.
func (s *SQLiteStorage) SaveAppConfig(ctx context.Context, cfg *models.AppConfig) error {
	now := time.Now()
	cfg.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_config (id, open_router_api_key, selected_model, system_prompt,
		                         evolution_api_url, evolution_api_key, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   open_router_api_key = excluded.open_router_api_key,
		   selected_model = excluded.selected_model,
		   system_prompt = excluded.system_prompt,
		   evolution_api_url = excluded.evolution_api_url,
		   evolution_api_key = excluded.evolution_api_key,
		   updated_at = excluded.updated_at`,
		cfg.OpenRouterAPIKey, cfg.SelectedModel, cfg.SystemPrompt,
		cfg.EvolutionAPIURL, cfg.EvolutionAPIKey, now, now,
	)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
