package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Zachkp/portfolio-api/internal/config"
	"github.com/Zachkp/portfolio-api/internal/logging"
	"github.com/Zachkp/portfolio-api/internal/server"
	"github.com/Zachkp/portfolio-api/internal/spotify"
	"github.com/Zachkp/portfolio-api/internal/visits"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
)

const appName = "portfolio api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Mode)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println()

	store, err := visits.Open(cfg.Visits.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Clean up old visitor data in the background
	go func() {
		if _, err := store.Cleanup(context.Background(), cfg.Visits.Retention); err != nil {
			logger.Warn().Err(err).Msg("visitor cleanup failed")
		}
	}()

	if cfg.Spotify.RefreshToken == "" {
		logger.Warn().
			Str("callback", server.RouteSpotifyCallback).
			Msg("SPOTIFY_REFRESH_TOKEN not set, top tracks unavailable until the authorize flow completes")
	}

	client := spotify.NewClient(spotify.Options{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
		RefreshToken: cfg.Spotify.RefreshToken,
		TokenURL:     cfg.Spotify.TokenURL,
		APIBaseURL:   cfg.Spotify.APIBaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.Spotify.Timeout},
		Logger:       logger,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(
			server.Options{Mode: cfg.Mode, AdminToken: cfg.AdminToken, VisitRetention: cfg.Visits.Retention},
			server.Deps{Spotify: client, Visits: store, Logger: logger},
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server.ListenAndServe: %w", err)
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
