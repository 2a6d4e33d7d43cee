package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/datastore"
	"adscout/internal/errorwrapper"
	"adscout/internal/httpclient"
	"adscout/internal/logger"
	"adscout/internal/merchant"
	"adscout/internal/prober"
	"adscout/internal/safety"
	"adscout/internal/server"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const shutdownGracePeriod = 10 * time.Second

func main() {
	// Optional .env for local development; env vars are read during config
	// construction.
	_ = godotenv.Load()

	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load global config using path '%s': %v", flags.GlobalConfigFile, err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}
	zLogger.Info().Msg("Logger initialized successfully.")

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}
	zLogger.Info().Msg("Configuration validated successfully.")

	// Redis-backed domain cache, only when enabled.
	var redisClient *redis.Client
	if gCfg.CacheConfig.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     gCfg.CacheConfig.RedisAddress,
			Password: gCfg.CacheConfig.RedisPassword,
			DB:       gCfg.CacheConfig.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zLogger.Warn().Err(err).Msg("Redis unreachable, continuing without domain cache")
			redisClient = nil
		}
		cancel()
	}

	var merchantClient *merchant.Client
	if gCfg.MerchantConfig.Enabled {
		cacheTTL := time.Duration(gCfg.MerchantConfig.CacheTTLSecs) * time.Second
		domainCache := merchant.NewDomainCache(redisClient, cacheTTL, zLogger)
		merchantClient = merchant.NewClient(gCfg.MerchantConfig, domainCache, zLogger)
	}

	var probeService classifier.ProbeService
	if gCfg.ProberConfig.Enabled {
		probeClient := httpclient.NewClientBuilder(zLogger).
			WithTimeout(time.Duration(gCfg.ProberConfig.TimeoutSecs) * time.Second).
			WithUserAgent(gCfg.ProberConfig.UserAgent).
			WithMaxBodyBytes(int64(gCfg.ProberConfig.MaxBodyBytes)).
			WithDialControl(safety.DialControl).
			WithRedirectCheck(redirectGuard).
			Build()
		probeService = prober.NewProber(gCfg.ProberConfig, probeClient, zLogger)
	}

	var merchantService classifier.MerchantService
	if merchantClient != nil {
		merchantService = merchantClient
	}
	svc := classifier.NewClassifier(gCfg.ClassifierConfig, probeService, merchantService, zLogger)

	var auditStore *datastore.AuditStore
	if gCfg.AuditConfig.Enabled {
		auditStore, err = datastore.NewAuditStore(gCfg.AuditConfig, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Msg("Failed to open audit store")
		}
		defer func() { _ = auditStore.Close() }()
	}

	sessions := server.NewSessionReader(
		gCfg.ServerConfig.SessionCookieName,
		gCfg.ServerConfig.SessionJWTSecret,
		zLogger,
	)
	if gCfg.ServerConfig.SessionJWTSecret == "" {
		zLogger.Warn().Msg("ADSCOUT_SESSION_SECRET not set, Merchant Center matching disabled")
	}

	srv := server.NewServer(gCfg.ServerConfig, svc, sessions, auditStore, zLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-sigCh:
		zLogger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zLogger.Error().Err(err).Msg("Server shutdown failed")
		}
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
	zLogger.Info().Msg("Shutdown complete.")
}

// redirectGuard re-runs the safety gate on every redirect hop so a safe
// public URL cannot bounce the prober into internal address space.
func redirectGuard(req *http.Request) error {
	if verdict := safety.CheckURL(req.URL.String()); !verdict.Safe {
		return errorwrapper.NewError("redirect target rejected: %s", verdict.Reason)
	}
	return nil
}
