// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"discord-user-manager/internal/config"
	"discord-user-manager/internal/discord"
	"discord-user-manager/internal/httpapi"
	"discord-user-manager/internal/logging"
	"discord-user-manager/internal/storage"
)

const appName = "discord-user-manager"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(logging.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	log.Info().Str("app", appName).Str("token", logging.MaskToken(cfg.DiscordToken)).Msg("starting bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StoreDriver,
		Path:        cfg.StoragePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer store.Close()

	bot, err := discord.New(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	errCh := make(chan error, 2)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	if cfg.HTTPAddr != "" {
		api := httpapi.NewServer(httpapi.Options{
			GuildID:  cfg.GuildID,
			AdminKey: cfg.AdminAPIKey,
			Users:    store,
			History:  store,
			Guild:    bot,
			Log:      log,
		})
		go func() {
			if err := api.Run(ctx, cfg.HTTPAddr); err != nil {
				errCh <- err
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("service error")
	}
	cancel()
	<-botDone

	log.Info().Msg("discord bot exited cleanly")
}
