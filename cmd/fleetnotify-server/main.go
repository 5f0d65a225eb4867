package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/nhle/fleet-notify/internal/credential"
	"github.com/nhle/fleet-notify/internal/logging"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/server"
	"github.com/nhle/fleet-notify/internal/store"
)

func main() {
	logg := logging.New(logging.Options{Service: "fleetnotify-server"})

	if err := godotenv.Load(); err != nil {
		logg.Debug().Msg(".env file not found, relying on environment")
	}

	configPath := pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	seed := pflag.Bool("seed", false, "insert demo notifications into an empty store")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		logg.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	logg = logging.New(logging.Options{
		Service: "fleetnotify-server",
		Level:   logging.ParseLevel(cfg.Log.Level),
	})

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		logg.Error().Err(err).Msg("failed to create store directory")
		os.Exit(1)
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logg.Error().Err(err).Str("path", cfg.Store.Path).Msg("failed to open store")
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logg.Error().Err(err).Msg("error closing store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		if err := seedDemo(ctx, st, logg); err != nil {
			logg.Error().Err(err).Msg("failed to seed store")
			os.Exit(1)
		}
	}

	token, err := credential.APIToken()
	if err != nil {
		logg.Warn().Err(err).Msg("keyring unavailable")
	}
	if token == "" {
		logg.Warn().Msg("no API token configured, requests are not authenticated")
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(st, token, server.WithLogger(logg)).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logg.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Path).Msg("starting notification server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error().Err(err).Msg("server stopped unexpectedly")
		os.Exit(1)
	}
	logg.Info().Msg("server stopped")
}

// seedDemo fills an empty store with a few notifications spread over
// the display date forms.
func seedDemo(ctx context.Context, st store.NotificationStore, logg zerolog.Logger) error {
	existing, err := st.ListNotifications(ctx, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logg.Info().Msg("store not empty, skipping seed")
		return nil
	}

	now := time.Now()
	demo := []store.Record{
		{Title: "Brake pads worn", Description: "Front pads below 3mm.", RelatedTo: "Truck 12", Type: model.TypeAlert, CreatedAt: now.Add(-30 * time.Minute)},
		{Title: "Tyre pressure low", Description: "Rear left at 1.8 bar.", RelatedTo: "Van 4", Type: model.TypeWarning, CreatedAt: now.Add(-2 * time.Hour)},
		{Title: "Oil change scheduled", Description: "Booked at the north depot.", RelatedTo: "Truck 7", Type: model.TypeInfo, Read: true, CreatedAt: now.AddDate(0, 0, -1)},
		{Title: "Inspection passed", Description: "Annual inspection completed.", RelatedTo: "Van 2", Type: model.TypeSuccess, Read: true, CreatedAt: now.AddDate(0, 0, -20)},
	}
	for _, r := range demo {
		if _, err := st.CreateNotification(ctx, r); err != nil {
			return err
		}
	}
	logg.Info().Int("count", len(demo)).Msg("seeded demo notifications")
	return nil
}
