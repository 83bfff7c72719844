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

	"github.com/joho/godotenv"

	"sarasavi/internal/config"
	"sarasavi/internal/notify"
	"sarasavi/internal/server"
	"sarasavi/internal/server/store"
	"sarasavi/internal/usertoken"
	"sarasavi/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadOrEnv(os.Getenv("SARASAVI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.Server.LogLevel)
	if err := config.ValidateServer(cfg.Server); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.Server.DatabaseURL != "" {
		st, err = store.NewGormStore(cfg.Server.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "err", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DATABASE_URL not set, records will not survive restarts")
		st = store.NewMemoryStore()
	}

	tokens, err := usertoken.NewManager(usertoken.Config{Secret: cfg.Server.JWTSecret})
	if err != nil {
		logger.Error("failed to init token manager", "err", err)
		os.Exit(1)
	}

	var publisher notify.Publisher
	if cfg.Server.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.Server.AMQPURL, "")
		if err != nil {
			logger.Error("failed to connect to broker", "err", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		logger.Warn("AMQP_URL not set, notifications will only be logged")
		publisher = notify.LogPublisher{}
	}

	outbox, err := notify.NewRedisOutbox(notify.RedisOutboxConfig{
		Addr:     cfg.Server.RedisAddr,
		Password: cfg.Server.RedisPassword,
	})
	if err != nil {
		logger.Error("failed to init notification outbox", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	outbox.Start(ctx, 2, publisher)

	httpServer, err := server.New(server.Config{
		Store:                      st,
		Tokens:                     tokens,
		Outbox:                     outbox,
		CookieSecret:               cfg.Server.CookieSecret,
		RedisAddr:                  cfg.Server.RedisAddr,
		RedisPassword:              cfg.Server.RedisPassword,
		TrustedProxies:             cfg.Server.TrustedProxies,
		SignupRateLimitPerMinute:   cfg.Server.SignupRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.Server.LoginRateLimitPerMinute,
		PasswordRateLimitPerMinute: cfg.Server.PasswordRateLimitPerMinute,
	})
	if err != nil {
		logger.Error("failed to init server", "err", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
