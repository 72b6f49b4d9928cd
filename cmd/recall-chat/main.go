// cmd/recall-chat is the interactive terminal client for the Recall memory
// system. Each user message flows through the full memory pipeline: fact
// extraction, dedup, storage, compaction when due, and retrieval-augmented
// reply generation.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/embedding"
	"github.com/scrypster/recall/internal/engine"
	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/notify"
	"github.com/scrypster/recall/internal/session"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
)

const cliHelp = `
Commands:
  /memories [category]  List stored memories
  /stats                Show memory statistics
  /export [file]        Export memories to JSON
  /clear                Delete all memories
  /help                 Show this help
  quit / exit / q       Exit
`

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: environment only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
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

	// Notify the web UI process (if running) about store activity.
	writer := notify.NewEventWriter(cfg.Server.EventsPath)
	manager.SetOnRecordStored(func(record types.MemoryRecord) {
		if err := writer.Notify(notify.EventMemoryStored, record.ID); err != nil {
			log.Printf("notify: %v", err)
		}
	})
	manager.SetOnCompaction(func() {
		if err := writer.Notify(notify.EventCompaction, ""); err != nil {
			log.Printf("notify: %v", err)
		}
	})

	sess := session.New(cfg.Memory.ShortTermWindow)
	runREPL(cfg, store, manager, sess, provider != nil)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFromFile(path)
	}
	return config.LoadConfig()
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

func runREPL(cfg *config.Config, store storage.RecordStore, manager *engine.Manager, sess *session.Session, llmAvailable bool) {
	ctx := context.Background()

	fmt.Println("=== Recall: Memory-Enabled Conversational AI ===")
	fmt.Printf("(Storage: %s)\n", cfg.Storage.StorageEngine)
	if llmAvailable {
		fmt.Printf("(LLM: %s)\n", cfg.LLM.Provider)
	} else {
		fmt.Println("(LLM unavailable, local fallback active)")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(ctx, store, scanner, input) {
				continue
			}
		}

		result, err := manager.Chat(ctx, sess, input)
		if err != nil {
			log.Printf("chat: %v", err)
			continue
		}

		for _, record := range result.Stored {
			fmt.Printf("[Stored] [%s] %s\n", record.Category, record.Content)
		}
		if result.Compacted {
			fmt.Println("[Compressed older memories]")
		}
		fmt.Printf("\nAssistant: %s\n\n", result.Reply)
	}
}

// handleCommand dispatches slash commands. Returns false for unknown
// commands, which then flow to the chat pipeline as regular input.
func handleCommand(ctx context.Context, store storage.RecordStore, scanner *bufio.Scanner, input string) bool {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch {
	case cmd == "/help":
		fmt.Print(cliHelp)
		return true

	case cmd == "/stats":
		records, err := store.All(ctx)
		if err != nil {
			log.Printf("stats: %v", err)
			return true
		}
		fmt.Printf("\nMemories: %d total\n", len(records))
		for _, category := range types.Categories {
			n := 0
			for i := range records {
				if records[i].Category == category {
					n++
				}
			}
			fmt.Printf("  %s: %d\n", category, n)
		}
		fmt.Println()
		return true

	case strings.HasPrefix(cmd, "/memories"):
		records, err := store.All(ctx)
		if err != nil {
			log.Printf("memories: %v", err)
			return true
		}
		if parts := strings.Fields(cmd); len(parts) > 1 {
			category := types.Category(parts[1])
			if category.IsValid() {
				filtered := records[:0]
				for i := range records {
					if records[i].Category == category {
						filtered = append(filtered, records[i])
					}
				}
				records = filtered
			}
		}
		if len(records) == 0 {
			fmt.Println("\nNo memories stored.")
			fmt.Println()
			return true
		}
		for i := range records {
			fmt.Printf("[%s] %s\n", records[i].Category, records[i].Content)
		}
		fmt.Println()
		return true

	case strings.HasPrefix(cmd, "/export"):
		path := "memories.json"
		if parts := strings.Fields(input); len(parts) > 1 {
			path = parts[1]
		}
		if err := exportMemories(ctx, store, path); err != nil {
			log.Printf("export: %v", err)
			return true
		}
		fmt.Printf("Exported memories to %s\n\n", path)
		return true

	case cmd == "/clear":
		fmt.Print("Delete all memories? (yes/no): ")
		if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "yes" {
			return true
		}
		records, err := store.All(ctx)
		if err != nil {
			log.Printf("clear: %v", err)
			return true
		}
		ids := make([]string, 0, len(records))
		for i := range records {
			ids = append(ids, records[i].ID)
		}
		if err := store.DeleteByIDs(ctx, ids); err != nil {
			log.Printf("clear: %v", err)
			return true
		}
		fmt.Println("All memories cleared.")
		fmt.Println()
		return true
	}

	return false
}

func exportMemories(ctx context.Context, store storage.RecordStore, path string) error {
	records, err := store.All(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
