package models

import "time"

// AppConfig is the singleton runtime configuration row. It is mutated
// wholesale via upsert; there is no partial-field history.
type AppConfig struct {
	OpenRouterAPIKey string    `json:"open_router_api_key"`
	SelectedModel    string    `json:"selected_model"`
	SystemPrompt     string    `json:"system_prompt"`
	EvolutionAPIURL  string    `json:"evolution_api_url"`
	EvolutionAPIKey  string    `json:"evolution_api_key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ModelInfo describes one entry of the selectable model catalog.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	ContextLength int    `json:"contextLength"`
}

// AvailableModels is the model catalog offered by the settings endpoint.
var AvailableModels = []ModelInfo{
	{ID: "openai/gpt-4", Name: "GPT-4", Provider: "OpenAI", ContextLength: 8192},
	{ID: "openai/gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: "OpenAI", ContextLength: 4096},
	{ID: "anthropic/claude-2", Name: "Claude 2", Provider: "Anthropic", ContextLength: 100000},
	{ID: "meta-llama/llama-2-70b-chat", Name: "Llama 2 70B", Provider: "Meta", ContextLength: 4096},
	{ID: "google/palm-2-chat-bison", Name: "PaLM 2 Chat", Provider: "Google", ContextLength: 4096},
}
