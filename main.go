package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/migrations"
	"github.com/Effectys/rmrp-army-bot/pkg/discord"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagDivisions string
	flagDebug     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rmrp-army-bot",
		Short: "Personnel management bot for the army roleplay community",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config yaml")
	rootCmd.PersistentFlags().StringVar(&flagDivisions, "divisions", "divisions.yaml", "path to division seed yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Backfill service records from live guild roles and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncOnce()
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	opts := &slog.HandlerOptions{Level: level}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

// setup loads config, opens the store, migrates the schema, seeds the
// division table and warms the registry.
func setup(logger *slog.Logger) (*global.Config, *store.Store, *division.Registry, error) {
	cfg, err := global.LoadConfig(flagConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Token == "" {
		return nil, nil, nil, fmt.Errorf("bot token is not configured")
	}
	st, err := store.New(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	if err := migrations.Migrate(st.DB()); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if err := migrations.SeedDivisions(st, flagDivisions); err != nil {
		return nil, nil, nil, fmt.Errorf("seed divisions: %w", err)
	}
	registry := division.NewRegistry(st)
	if err := registry.Reload(); err != nil {
		return nil, nil, nil, err
	}
	return cfg, st, registry, nil
}

func serve() error {
	logger := setupLogger(flagDebug)
	cfg, st, registry, err := setup(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	promRegistry := prometheus.NewRegistry()
	bot, err := discord.New(cfg, st, registry, promRegistry, logger)
	if err != nil {
		return err
	}
	if err := bot.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	logger.Info("bot is running, press ctrl-c to exit")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	if err := bot.Close(); err != nil {
		logger.Error("gateway close failed", "error", err)
	}
	return nil
}

func syncOnce() error {
	logger := setupLogger(flagDebug)
	cfg, st, registry, err := setup(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	bot, err := discord.New(cfg, st, registry, prometheus.NewRegistry(), logger)
	if err != nil {
		return err
	}
	if err := bot.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer bot.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	return migrations.SyncMembers(ctx, bot.Session(), st, registry, cfg, logger)
}
