package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/nocparse/backend/internal/ai"
	"github.com/nocparse/backend/internal/config"
	"github.com/nocparse/backend/internal/db"
	httpapi "github.com/nocparse/backend/internal/http"
	"github.com/nocparse/backend/internal/rank"
	"github.com/nocparse/backend/internal/service"
	"github.com/nocparse/backend/internal/temporal"
	"github.com/nocparse/backend/internal/tz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "nocparse-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var adapter ai.Adapter
	if cfg.AIURL == "" {
		adapter = ai.MockAdapter{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock narrative adapter")
	} else {
		adapter = ai.HTTPAdapter{BaseURL: cfg.AIURL}
	}

	cityResolver, err := tz.NewCityResolver()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load city dictionary")
	}
	airportResolver := &tz.AirportResolver{
		BaseURL: cfg.AirportAPIURL,
		APIKey:  cfg.AirportAPIKey,
		Limiter: rate.NewLimiter(rate.Limit(cfg.AirportRate), cfg.AirportBurst),
		Cache:   store,
	}

	policy := rank.DefaultPolicy()
	policy.TopN = cfg.TopFindings

	svc := &service.ProcessingService{
		Store:    store,
		AI:       adapter,
		Resolver: tz.Chain{airportResolver, cityResolver},
		Policy:   policy,
		Hours:    temporal.Window{Start: cfg.BusinessStart, End: cfg.BusinessEnd},
		Logger:   logger,
	}

	router := httpapi.Router(cfg, store, svc, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
