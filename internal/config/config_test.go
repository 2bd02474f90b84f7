package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: 0.0.0.0
  port: 8080
storage:
  database_path: ./data/chat.db
  bleve_index_path: ./data/bleve
upload:
  max_file_size: 5242880
llm:
  max_tokens: 1000
watch:
  directories:
    - ./drop
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Upload.MaxFileSize != 5242880 {
		t.Errorf("expected 5MB limit, got %d", cfg.Upload.MaxFileSize)
	}
	if cfg.LLM.MaxTokens != 1000 {
		t.Errorf("expected 1000 max tokens, got %d", cfg.LLM.MaxTokens)
	}

	// Paths starting with ./ resolve relative to the config directory.
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/chat.db") {
		t.Errorf("unexpected database path: %s", cfg.Storage.DatabasePath)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "drop") {
		t.Errorf("unexpected watch directories: %+v", cfg.Watch.Directories)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Port != 3001 {
		t.Errorf("expected default port 3001, got %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize != 10*1024*1024 {
		t.Errorf("expected 10MB default, got %d", cfg.Upload.MaxFileSize)
	}
	if cfg.LLM.MaxTokens != 2000 || cfg.LLM.Temperature != 0.7 {
		t.Errorf("unexpected LLM defaults: %+v", cfg.LLM)
	}
	if cfg.Search.DefaultLimit != 3 || cfg.Search.MaxLimit != 20 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Defaults.Model != "openai/gpt-3.5-turbo" {
		t.Errorf("unexpected default model: %s", cfg.Defaults.Model)
	}
	if cfg.Defaults.SystemPrompt == "" {
		t.Error("default system prompt should be set")
	}
}

func TestUploadConfigAllows(t *testing.T) {
	cfg := UploadConfig{AllowedTypes: []string{"application/pdf", "text/plain"}}

	if !cfg.Allows("application/pdf") {
		t.Error("pdf should be allowed")
	}
	if cfg.Allows("image/png") {
		t.Error("png should not be allowed")
	}
	if cfg.Allows("") {
		t.Error("empty type should not be allowed")
	}
}
