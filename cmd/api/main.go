package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hazardwatch/internal/adapter/classifier"
	"hazardwatch/internal/adapter/events"
	"hazardwatch/internal/adapter/geocode"
	"hazardwatch/internal/adapter/news"
	"hazardwatch/internal/adapter/seismic"
	"hazardwatch/internal/adapter/weather"
	"hazardwatch/internal/cache"
	"hazardwatch/internal/config"
	httphandler "hazardwatch/internal/http"
	"hazardwatch/internal/notify"
	"hazardwatch/internal/observability"
	"hazardwatch/internal/services/aggregator"
	"hazardwatch/internal/services/assist"
	"hazardwatch/internal/services/llm"
	"hazardwatch/internal/services/snapshot"
)

func main() {
	var (
		port   = flag.String("port", "", "Port to run the server on (overrides PORT)")
		pretty = flag.Bool("pretty", false, "Human-readable log output")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it the service runs uncached.
	var redisCache *cache.RedisCache
	if cfg.Cache.Enabled {
		redisCache, err = cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	metrics := observability.NewMetrics()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	weatherClient := weather.NewClient(cfg.Adapters.OpenWeatherAPIKey, httpClient)
	seismicClient := seismic.NewClient(httpClient)
	eventsClient := events.NewClient(httpClient)
	newsClient := news.NewClient(cfg.Adapters.NewsAPIKey, httpClient)
	geocoder := geocode.NewCachedGeocoder(
		geocode.NewClient(cfg.Adapters.GeocodeUserAgent, httpClient),
		redisCache,
	)

	agg := aggregator.New(
		geocoder,
		weatherClient,
		seismicClient,
		eventsClient,
		newsClient,
		aggregator.Timeouts{
			Geocode: cfg.Adapters.GeocodeTimeout,
			Weather: cfg.Adapters.WeatherTimeout,
			Seismic: cfg.Adapters.SeismicTimeout,
			Events:  cfg.Adapters.EventsTimeout,
			News:    cfg.Adapters.NewsTimeout,
		},
		metrics,
	)

	generator, err := llm.New(cfg.LLM, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	assistService := assist.NewService(agg, generator)

	var refresher *snapshot.Refresher
	if cfg.Snapshot.Enabled && redisCache != nil {
		refresher = snapshot.NewRefresher(agg, redisCache, metrics)
		refresher.Start(ctx, cfg.Snapshot.Interval)
		defer refresher.Stop()
	}

	var smsClient *notify.TwilioClient
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		smsClient = notify.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, httpClient)
	}
	classifierClient := classifier.NewClient(cfg.Classifier.InferenceURL, &http.Client{Timeout: cfg.Classifier.Timeout})

	router := httphandler.NewRouter()
	handler := httphandler.NewAdvisoryHandler(
		assistService,
		weatherClient,
		seismicClient,
		eventsClient,
		newsClient,
		refresher,
		classifierClient,
		smsClient,
		redisCache,
	)
	router.RegisterAdvisoryRoutes(handler, cfg.Auth.APIKey)
	router.RegisterHealthRoutes()
	router.RegisterMetricsRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("provider", generator.Provider()).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
