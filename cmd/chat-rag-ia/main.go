// Package main is the chat-rag-ia server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Brunobgr08/chat-rag-ia/internal/chat"
	"github.com/Brunobgr08/chat-rag-ia/internal/config"
	"github.com/Brunobgr08/chat-rag-ia/internal/extract"
	"github.com/Brunobgr08/chat-rag-ia/internal/ingest"
	"github.com/Brunobgr08/chat-rag-ia/internal/keyword"
	"github.com/Brunobgr08/chat-rag-ia/internal/llm"
	"github.com/Brunobgr08/chat-rag-ia/internal/search"
	"github.com/Brunobgr08/chat-rag-ia/internal/server"
	"github.com/Brunobgr08/chat-rag-ia/internal/storage"
	"github.com/Brunobgr08/chat-rag-ia/internal/whatsapp"
	"github.com/Brunobgr08/chat-rag-ia/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/chat-rag-ia/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// uses the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "config file path")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chat-rag-ia version %s\n", version)
		return
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		logger.Fatal("Failed to initialize full-text index", zap.Error(err))
	}
	defer index.Close()

	retriever := search.NewRetriever(store, index, logger)
	ingestor := ingest.NewIngestor(store, index, extract.NewExtractor(), &cfg.Upload, logger)
	llmClient := llm.NewOpenRouter(&cfg.LLM, logger)

	// The chat service supplies Evolution credentials from the app_config row,
	// so the gateway picks up settings changes without a restart.
	chatSvc := chat.NewService(store, retriever, llmClient, nil, cfg, logger)
	gateway := whatsapp.NewClient(chatSvc, logger)
	chatSvc.SetGateway(gateway)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watcher *ingest.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watcher = ingest.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions, ingestor, logger)
		if err := watcher.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watcher.SyncExistingFiles(watchCtx)
	}

	srv := server.NewServer(store, ingestor, chatSvc, llmClient, gateway, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watcher != nil {
		watcher.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}
