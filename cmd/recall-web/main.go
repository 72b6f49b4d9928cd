// cmd/recall-web serves the HTTP API for the Recall memory system: a chat
// endpoint, memory and conversation inspectors, and a WebSocket stream of
// store events. It also watches the shared events directory so memories
// stored by the chat CLI show up live in connected clients.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/engine"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/notify"
	"github.com/scrypster/recall/internal/server"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: environment only)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFromFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	provider, gateway := buildLLM(cfg)

	engineCfg := engine.Config{
		TopK:                 cfg.Memory.TopK,
		DuplicateThreshold:   cfg.Memory.DuplicateThreshold,
		CompressionThreshold: cfg.Memory.CompressionThreshold,
		CompressionBatch:     cfg.Memory.CompressionBatch,
		RefineQueries:        cfg.Memory.RefineQueries,
	}
	manager, err := engine.NewManager(store, gateway, provider, engineCfg)
	if err != nil {
		log.Fatalf("Failed to initialize memory manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewServer(cfg, manager, store)

	// Relay events written by other processes (the chat CLI) into the hub.
	watcher := notify.NewEventWatcher(cfg.Server.EventsPath, func(eventType, recordID string) {
		lookupCtx, lookupCancel := context.WithTimeout(ctx, 5*time.Second)
		defer lookupCancel()
		srv.NotifyExternal(lookupCtx, eventType, recordID)
	})
	if err := watcher.Start(); err != nil {
		log.Printf("notify: watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	addr, err := srv.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Recall API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // give open connections time to close
}

// openStore selects the storage backend from configuration.
func openStore(cfg *config.Config) (storage.RecordStore, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.NewRecordStore(cfg.DatabaseDSN())
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		return nil, err
	}
	return sqlite.NewRecordStore(cfg.DatabaseDSN())
}

// buildLLM constructs the text provider and embedding gateway for the
// configured backend. A missing API key yields a nil provider; the manager
// then degrades to rule-based extraction and a canned reply.
func buildLLM(cfg *config.Config) (llm.Provider, *embedding.Gateway) {
	llmCfg := llmConfig(cfg)

	var provider llm.Provider
	if hasCredentials(cfg) {
		p, err := llm.NewProvider(llmCfg)
		if err != nil {
			log.Printf("llm: %v, continuing with local fallback", err)
		} else {
			provider = p
		}
	}

	generator, err := llm.NewEmbeddingGenerator(llmCfg)
	if err != nil {
		log.Printf("llm: embeddings unavailable: %v", err)
	}
	return provider, embedding.NewGateway(generator)
}

func llmConfig(cfg *config.Config) llm.Config {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.Config{
			Provider:       "openai",
			APIKey:         cfg.LLM.OpenAIAPIKey,
			Model:          cfg.LLM.OpenAIModel,
			EmbeddingModel: cfg.LLM.OpenAIEmbeddingModel,
		}
	case "anthropic":
		return llm.Config{
			Provider: "anthropic",
			APIKey:   cfg.LLM.AnthropicAPIKey,
			Model:    cfg.LLM.AnthropicModel,
		}
	default:
		return llm.Config{
			Provider:       "ollama",
			BaseURL:        cfg.LLM.OllamaURL,
			Model:          cfg.LLM.OllamaModel,
			EmbeddingModel: cfg.LLM.OllamaEmbeddingModel,
		}
	}
}

// hasCredentials reports whether the configured provider can be reached at
// all. Ollama is local and needs no key.
func hasCredentials(cfg *config.Config) bool {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIAPIKey != ""
	case "anthropic":
		return cfg.LLM.AnthropicAPIKey != ""
	default:
		return true
	}
}
