package config

// DefaultSystemPrompt is used when the app_config row has no system prompt yet.
const DefaultSystemPrompt = "Você é um assistente útil que responde perguntas com base no contexto fornecido."

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/chat-rag-ia/data/db/chat.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/chat-rag-ia/data/indices/bleve"
	}
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.Upload.AllowedTypes == nil {
		cfg.Upload.AllowedTypes = []string{"application/pdf", "text/plain", "text/markdown"}
	}
	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if cfg.LLM.ValidateURL == "" {
		cfg.LLM.ValidateURL = "https://openrouter.ai/api/v1/auth/key"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 3
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 20
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf"}
	}
	if cfg.Defaults.Model == "" {
		cfg.Defaults.Model = "openai/gpt-3.5-turbo"
	}
	if cfg.Defaults.SystemPrompt == "" {
		cfg.Defaults.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Defaults.EvolutionAPIURL == "" {
		cfg.Defaults.EvolutionAPIURL = "https://evodevs.cordex.ai"
	}
}
