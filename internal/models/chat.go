package models

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Source identifies a document that contributed context to an answer.
type Source struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Relevance float64 `json:"relevance"`
}

// ChatResponse is the payload returned for a completed chat turn.
type ChatResponse struct {
	Response       string   `json:"response"`
	ConversationID string   `json:"conversationId"`
	Sources        []Source `json:"sources"`
}
