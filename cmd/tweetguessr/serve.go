package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/susu3304/tweetguessr/internal/api"
	"github.com/susu3304/tweetguessr/internal/bot"
	"github.com/susu3304/tweetguessr/internal/config"
	"github.com/susu3304/tweetguessr/internal/db"
	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/logging"
	"github.com/susu3304/tweetguessr/internal/tweets"
)

func newServeCmd(mapsFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server and, when DISCORD_TOKEN is set, the Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *mapsFile)
		},
	}
}

func serve(ctx context.Context, mapsFile string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	if mapsFile == "" {
		mapsFile = cfg.MapsFile
	}
	registry, err := loadRegistry(mapsFile)
	if err != nil {
		return err
	}
	catalog, err := tweets.Load(cfg.TweetsFile)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"maps":   len(registry.List()),
		"tweets": catalog.Len(),
	}).Info("Game data loaded")

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open image store: %w", err)
	}

	var store game.Store = game.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		// Connect to database
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store = db.NewStore(database)
	} else {
		log.Warn("DATABASE_URL is not set, rounds are kept in memory")
	}

	svc := game.NewService(store, registry, catalog, game.WithLogger(log))

	apiServer, err := api.New(cfg, svc, registry, images, log)
	if err != nil {
		return err
	}

	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(cfg.DiscordToken, svc, registry, cfg.RoundTTL, log)
		if err != nil {
			return err
		}
		if err := discordBot.Start(); err != nil {
			return err
		}
		defer discordBot.Stop()
	} else {
		log.Info("DISCORD_TOKEN is not set, Discord bot disabled")
		go bot.RunExpiry(ctx, svc, cfg.RoundTTL, log)
	}

	err = apiServer.Start(ctx)
	log.Info("Shutting down...")
	return err
}
