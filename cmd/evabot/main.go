package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"evabot/internal/bus"
	"evabot/internal/channel"
	"evabot/internal/config"
	"evabot/internal/corpus"
	"evabot/internal/domain"
	"evabot/internal/engage"
	"evabot/internal/engine"
	"evabot/internal/intent"
	"evabot/internal/match"
	"evabot/internal/metrics"
	"evabot/internal/respond"
	"evabot/internal/store"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "evabot",
		Short: "Evabot: Namibia knowledge and community bot",
		Long:  "Evabot answers Namibia travel, culture, and property questions on Telegram and Discord, with an interactive CLI for local use.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.evabot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger rebuilds the process logger from config: level, and an
// optional log file in addition to stderr.
func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		if f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		} else {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		}
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and a sample corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := writeSampleCorpus(cfg.Corpus.Dir); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "corpus", cfg.Corpus.Dir)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot (all enabled channels + scheduler)",
		Long:  "Starts the enabled channels, the engine loop, the engagement scheduler, and the metrics endpoint. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat (CLI)",
		RunE:  runChat,
	}
}

// core bundles everything built from config that both serve and chat
// need. cleanup closes the store.
type core struct {
	loop     *engine.Loop
	states   *engage.StateStore
	store    domain.QueryStore
	composer *respond.Composer
	cleanup  func()
}

func buildCore(cfg *config.Config, messageBus domain.MessageBus) (*core, error) {
	knowledge, err := corpus.Load(cfg.Corpus.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	var queryStore domain.QueryStore
	cleanup := func() {}
	if cfg.Store.Enabled {
		s, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("query store: %w", err)
		}
		queryStore = s
		cleanup = func() { s.Close() }
	}

	states := engage.NewStateStore()
	if queryStore != nil {
		if snapshots, err := queryStore.LoadEngagement(context.Background()); err != nil {
			logger.Warn("cannot restore engagement snapshots", "err", err)
		} else {
			states.Restore(snapshots)
		}
	}

	classifier := intent.NewClassifier(intent.Config{
		MentionTokens:    cfg.Engine.MentionTokens,
		GreetingWords:    cfg.Engine.GreetingWords,
		QuestionMarkers:  cfg.Engine.QuestionMarkers,
		PropertyKeywords: cfg.Engine.PropertyKeywords,
		DomainKeywords:   cfg.Engine.DomainKeywords,
		Logger:           logger,
	})
	composer := respond.New(cfg.General.BotName, knowledge, cfg.Engine.SeeAlsoCount)

	loop := engine.NewLoop(engine.LoopConfig{
		Corpus:     knowledge,
		Classifier: classifier,
		Matcher:    match.New(cfg.Engine.FuzzyThreshold),
		Composer:   composer,
		States:     states,
		Store:      queryStore,
		Bus:        messageBus,
		Logger:     logger,
	})
	return &core{
		loop:     loop,
		states:   states,
		store:    queryStore,
		composer: composer,
		cleanup:  cleanup,
	}, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		logger.Warn("config not found, using defaults", "err", err)
		cfg = config.Defaults()
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	c, err := buildCore(cfg, messageBus)
	if err != nil {
		return err
	}
	defer c.cleanup()

	go c.loop.Run(ctx)

	cliCh := channel.NewCLI(channel.CLIConfig{Logger: logger})
	return cliCh.Start(ctx, messageBus)
}

// buildChannels constructs every transport the config enables. Nothing
// is started here; serve runs each channel on its own goroutine.
// Transports that need a token are skipped when it is missing.
func buildChannels(cfg *config.Config) []domain.Channel {
	var channels []domain.Channel
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		channels = append(channels, channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			ParseMode: cfg.Channels.Telegram.ParseMode,
			Logger:    logger,
		}))
	}
	if cfg.Channels.Discord.Enabled && cfg.Channels.Discord.Token != "" {
		channels = append(channels, channel.NewDiscord(channel.DiscordConfig{
			Token:   cfg.Channels.Discord.Token,
			GuildID: cfg.Channels.Discord.GuildID,
			Logger:  logger,
		}))
	}
	if cfg.Channels.CLI.Enabled {
		channels = append(channels, channel.NewCLI(channel.CLIConfig{Logger: logger}))
	}
	return channels
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	c, err := buildCore(cfg, messageBus)
	if err != nil {
		return err
	}
	defer c.cleanup()

	go c.loop.Run(ctx)

	var scheduler *engage.Scheduler
	if cfg.Engage.Enabled {
		scheduler = engage.NewScheduler(engage.Config{
			States:                c.states,
			Bus:                   messageBus,
			Composer:              c.composer,
			Store:                 c.store,
			Logger:                logger,
			TickSeconds:           cfg.Engage.TickSeconds,
			DailyPostHour:         cfg.Engage.DailyPostHour,
			GreetingIntervalHours: cfg.Engage.GreetingIntervalHours,
		})
		go scheduler.Start(ctx)
	} else {
		logger.Info("engagement scheduler disabled")
	}

	channels := buildChannels(cfg)
	if len(channels) == 0 {
		logger.Warn("no channels enabled, serving scheduler and metrics only")
	}
	for _, ch := range channels {
		go func() {
			if err := ch.Start(ctx, messageBus); err != nil {
				logger.Error("channel error", "channel", ch.Name(), "err", err)
			}
		}()
		logger.Info("channel enabled", "channel", ch.Name())
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc(cfg.Metrics.Endpoint, metrics.Collector.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics endpoint listening", "addr", metricsSrv.Addr, "endpoint", cfg.Metrics.Endpoint)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "err", err)
			}
		}()
	}

	logger.Info("evabot started. Press Ctrl+C to stop.", "version", version)

	<-ctx.Done()
	logger.Info("shutting down...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		if scheduler != nil {
			scheduler.Stop()
		}
		for _, ch := range channels {
			if err := ch.Stop(); err != nil {
				logger.Warn("channel stop failed", "channel", ch.Name(), "err", err)
			}
		}
		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		shutdownErr = fmt.Errorf("shutdown timed out")
	}

	return shutdownErr
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. engine.fuzzyThreshold)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. engage.dailyPostHour 10)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(resolveConfigPath(), cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (tokens masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("evabot v%s (%s/%s, Go %s)\n", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}
