package models

import "time"

// Message roles. A conversation only ever holds these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation log.
// From carries the WhatsApp sender JID for inbound webhook messages.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
}

// Conversation is an append-only message log. Each completed turn appends a
// user message immediately followed by an assistant message, so Messages has
// even length after every successful turn.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is a Conversation without its messages, for listings.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the conversation's summary view.
func (c *Conversation) Summary() *ConversationSummary {
	return &ConversationSummary{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
