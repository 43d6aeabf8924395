package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctrelay/internal/archive"
	"ctrelay/internal/bus"
	"ctrelay/internal/channel"
	"ctrelay/internal/config"
	"ctrelay/internal/dedup"
	"ctrelay/internal/domain"
	"ctrelay/internal/filter"
	"ctrelay/internal/metrics"
	"ctrelay/internal/pipeline"
	"ctrelay/internal/translator"

	"github.com/spf13/cobra"
)

var (
	version    = "0.3.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "ctrelay",
		Short:   "ctrelay: multilingual channel digest relay",
		Long:    "ctrelay watches Telegram channels, translates their posts through a chain of backends, and republishes a multilingual digest.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to the configuration file")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(historyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("refusing to overwrite existing %s", configPath)
			}
			cfg := config.Defaults()
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", configPath)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the relay (watch, translate, republish)",
		RunE:  runRelay,
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setLogLevel(cfg.General.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phrases := filter.LoadPhrases(cfg.Files.CommonPhrases, logger)
	cache := dedup.New(time.Duration(cfg.General.RetentionMinutes)*time.Minute, nil)

	backends, err := buildBackends(cfg)
	if err != nil {
		return fmt.Errorf("translators: %w", err)
	}
	orch := translator.NewOrchestrator(translator.OrchestratorConfig{
		Backends:     backends,
		Timeout:      time.Duration(cfg.Translators.TimeoutSeconds) * time.Second,
		ShowFailures: cfg.Translators.ShowFailures,
		Logger:       logger,
	})

	telegram := channel.NewTelegram(channel.TelegramConfig{
		Token:           cfg.Telegram.Token,
		Channels:        cfg.Channels,
		RecipientChatID: cfg.Telegram.RecipientChatID,
		Logger:          logger,
	})
	if err := telegram.Connect(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	sinks := []domain.Sink{telegram}
	sinks = append(sinks, connectMirrors(cfg)...)

	var store *archive.Store
	if cfg.Archive.Enabled {
		store, err = archive.NewStore(cfg.Archive.DBPath, logger)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		defer store.Close()
		go pruneLoop(ctx, store, time.Duration(cfg.Archive.RetentionDays)*24*time.Hour)
	}

	if cfg.Metrics.Enabled {
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.Metrics.Listen)
			if err := metrics.Serve(cfg.Metrics.Listen, metrics.Collector); err != nil {
				logger.Error("metrics server error", "err", err)
			}
		}()
	}

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	ctrl := pipeline.NewController(pipeline.ControllerConfig{
		Cache:        cache,
		Phrases:      phrases,
		Orchestrator: orch,
		Sinks:        sinks,
		Store:        store,
		Bus:          messageBus,
		Logger:       logger,
		Concurrency:  cfg.General.MaxConcurrentMessages,
		CaptionMax:   cfg.General.CaptionMaxLength,
	})
	go ctrl.Run(ctx)

	logger.Info("relay started", "channels", len(cfg.Channels), "backends", len(backends))
	return telegram.Start(ctx, messageBus)
}

// buildBackends instantiates the enabled backends in the configured order.
func buildBackends(cfg *config.Config) ([]domain.Backend, error) {
	timeout := time.Duration(cfg.Translators.TimeoutSeconds) * time.Second
	client, err := translator.NewHTTPClient(timeout, "")
	if err != nil {
		return nil, err
	}

	var backends []domain.Backend
	for _, name := range cfg.Translators.Order {
		switch name {
		case "openai":
			if !cfg.Translators.OpenAI.Enabled {
				continue
			}
			providers := make([]translator.OpenAIProvider, 0, len(cfg.Translators.OpenAI.Providers))
			for _, p := range cfg.Translators.OpenAI.Providers {
				providers = append(providers, translator.OpenAIProvider{
					APIBase: p.APIBase, Model: p.Model, Key: p.Key,
				})
			}
			backends = append(backends, translator.NewOpenAI(translator.OpenAIConfig{
				Providers:     providers,
				SystemMessage: cfg.Messages.SystemMessage,
				UserTemplate:  cfg.Messages.UserMessage,
				Client:        client,
				Logger:        logger,
			}))
		case "google":
			if !cfg.Translators.Google.Enabled {
				continue
			}
			backends = append(backends, translator.NewGoogle(translator.GoogleConfig{
				Client: client,
				Logger: logger,
			}))
		case "deepl":
			if !cfg.Translators.DeepL.Enabled {
				continue
			}
			backends = append(backends, translator.NewDeepL(translator.DeepLConfig{
				Key:    cfg.Translators.DeepL.Key,
				Client: client,
				Logger: logger,
			}))
		case "duckduckgo":
			if !cfg.Translators.DuckDuckGo.Enabled {
				continue
			}
			ddgClient := client
			if cfg.Translators.DuckDuckGo.Proxy != "" {
				ddgClient, err = translator.NewHTTPClient(timeout, cfg.Translators.DuckDuckGo.Proxy)
				if err != nil {
					return nil, fmt.Errorf("duckduckgo proxy: %w", err)
				}
			}
			backends = append(backends, translator.NewDuckDuckGo(translator.DuckDuckGoConfig{
				Model:         cfg.Translators.DuckDuckGo.Model,
				SystemMessage: cfg.Messages.SystemMessage,
				UserTemplate:  cfg.Messages.UserMessage,
				Client:        ddgClient,
				Logger:        logger,
			}))
		}
	}
	return backends, nil
}

// connectMirrors brings up the optional text-only mirror sinks. A mirror
// that fails to connect is logged and excluded; mirrors are never fatal.
func connectMirrors(cfg *config.Config) []domain.Sink {
	var sinks []domain.Sink

	if cfg.Mirrors.Discord.Enabled {
		d := channel.NewDiscord(channel.DiscordConfig{
			Token:     cfg.Mirrors.Discord.Token,
			ChannelID: cfg.Mirrors.Discord.ChannelID,
			Logger:    logger,
		})
		if err := d.Connect(); err != nil {
			logger.Error("discord mirror disabled", "err", err)
		} else {
			sinks = append(sinks, d)
			logger.Info("discord mirror enabled")
		}
	}

	if cfg.Mirrors.Slack.Enabled {
		s := channel.NewSlack(channel.SlackConfig{
			BotToken:  cfg.Mirrors.Slack.BotToken,
			ChannelID: cfg.Mirrors.Slack.ChannelID,
			Logger:    logger,
		})
		if err := s.Connect(); err != nil {
			logger.Error("slack mirror disabled", "err", err)
		} else {
			sinks = append(sinks, s)
			logger.Info("slack mirror enabled")
		}
	}

	return sinks
}

// pruneLoop trims the archive once at startup and then daily.
func pruneLoop(ctx context.Context, store *archive.Store, retention time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if n, err := store.Prune(ctx, retention); err != nil {
			logger.Error("archive prune failed", "err", err)
		} else if n > 0 {
			logger.Info("archive pruned", "removed", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setLogLevel(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			backends, err := buildBackends(cfg)
			if err != nil {
				return err
			}
			logger.Info("config", "path", configPath, "channels", len(cfg.Channels))
			for i, b := range backends {
				logger.Info("backend", "order", i+1, "name", b.Name(), "authoritative", b.Authoritative())
			}
			logger.Info("mirrors",
				"discord", cfg.Mirrors.Discord.Enabled,
				"slack", cfg.Mirrors.Slack.Enabled,
			)
			logger.Info("archive", "enabled", cfg.Archive.Enabled, "path", cfg.Archive.DBPath)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently dispatched digests from the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.Archive.Enabled {
				return fmt.Errorf("archive is disabled in %s", configPath)
			}
			store, err := archive.NewStore(cfg.Archive.DBPath, logger)
			if err != nil {
				return fmt.Errorf("archive: %w", err)
			}
			defer store.Close()

			recs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("--- %s  @%s  %s\n%s\n\n",
					r.CreatedAt.Format(time.RFC3339), r.Channel, r.ID, r.Composed)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of digests to show")
	return cmd
}
