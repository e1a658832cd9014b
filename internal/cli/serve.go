package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sentinelops/sentineld/internal/config"
	"github.com/sentinelops/sentineld/internal/logger"
	"github.com/sentinelops/sentineld/internal/maintenance"
	"github.com/sentinelops/sentineld/pkg/gateway"
	"github.com/sentinelops/sentineld/pkg/llm"
	"github.com/sentinelops/sentineld/pkg/memory"
	"github.com/sentinelops/sentineld/pkg/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sentineld gateway in the foreground",
	Long: `Run the sentineld gateway in the foreground.
The gateway serves the workspace memory API over WebSocket and HTTP
until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer lg.Close()

	log := lg.Zerolog()
	log.Info().Str("version", version).Msg("Starting sentineld")

	// Embedding provider is optional; without it the store still serves
	// keyword search and plain CRUD.
	var provider memory.EmbeddingProvider
	if cfg.LLM.APIKey != "" {
		provider = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)
	} else {
		log.Warn().Msg("No LLM API key configured, semantic search disabled")
	}

	// Extraction prefers Anthropic when a key is present, otherwise the
	// OpenAI-compatible chat endpoint.
	var chat memory.ChatCompleter
	switch {
	case cfg.LLM.AnthropicAPIKey != "":
		chat = llm.NewAnthropicClient(cfg.LLM.AnthropicAPIKey)
	case cfg.LLM.APIKey != "":
		chat = llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)
	}

	factory := func(workspacePath string) (*memory.Service, error) {
		store, err := memory.OpenStore(memory.StoreConfig{
			WorkspacePath: workspacePath,
			Logger:        lg.With("memory"),
		})
		if err != nil {
			return nil, err
		}
		return memory.NewService(memory.ServiceConfig{
			Store:    store,
			Provider: provider,
			Logger:   lg.With("memory"),
		})
	}

	workspaces, err := workspace.NewManager(factory, lg.With("workspace"))
	if err != nil {
		return err
	}
	defer workspaces.Close()

	if cfg.WorkspacePath != "" {
		if err := workspaces.Set(cfg.WorkspacePath); err != nil {
			log.Warn().Err(err).Str("path", cfg.WorkspacePath).Msg("Failed to open configured workspace")
		}
	}

	router := gateway.NewRouter()
	methods, err := gateway.NewMethods(gateway.MethodsConfig{
		Workspaces: workspaces,
		Chat:       chat,
		Logger:     lg.With("gateway"),
	})
	if err != nil {
		return err
	}
	methods.RegisterAll(router)

	server, err := gateway.NewServer(gateway.ServerConfig{
		Port:         cfg.Gateway.Port,
		SharedSecret: cfg.Gateway.SharedSecret,
		Router:       router,
		Logger:       lg.With("gateway"),
	})
	if err != nil {
		return err
	}

	workspaces.OnChange(func(path string) {
		server.Broadcast("workspace.changed", map[string]interface{}{
			"path":        path,
			"workspaceId": memory.WorkspaceID(path),
		})
	})

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	var scheduler *maintenance.Scheduler
	if cfg.Maintenance.Schedule != "" {
		scheduler, err = maintenance.NewScheduler(maintenance.SchedulerConfig{
			Workspaces: workspaces,
			Schedule:   cfg.Maintenance.Schedule,
			Logger:     lg.With("maintenance"),
		})
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	watcher, err := config.NewWatcher(config.WatcherConfig{
		Loader: loader,
		Logger: lg.With("config"),
		OnReload: func(next *config.Config) {
			if next.WorkspacePath != "" && next.WorkspacePath != workspaces.Path() {
				if err := workspaces.Set(next.WorkspacePath); err != nil {
					log.Warn().Err(err).Str("path", next.WorkspacePath).Msg("Failed to switch workspace from config")
				}
			}
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Config watcher unavailable")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
	} else {
		defer watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Gateway shutdown error")
	}

	return nil
}
