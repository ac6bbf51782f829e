package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/auth"
	"github.com/cloudxplorer/StockDash/internal/config"
	"github.com/cloudxplorer/StockDash/internal/db"
	"github.com/cloudxplorer/StockDash/internal/events"
	httpserver "github.com/cloudxplorer/StockDash/internal/http"
	"github.com/cloudxplorer/StockDash/internal/marketdata"
	"github.com/cloudxplorer/StockDash/internal/store"
	"github.com/cloudxplorer/StockDash/internal/trading"
	"github.com/cloudxplorer/StockDash/internal/watchlist"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initialBalance, err := decimal.NewFromString(cfg.InitialBalance)
	if err != nil {
		logger.Fatal("initial balance", zap.Error(err))
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		st = store.NewPostgres(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	}

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kp.Close()
		pub = kp
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.New(st, tokens, cfg.AdminEmail, cfg.AdminPassword, initialBalance, logger)
	tradingSvc := trading.New(st, pub, logger)
	watchSvc := watchlist.New(st)

	av := marketdata.NewAlphaVantage(cfg.StockAPIURL, cfg.StockAPIKey, logger)
	market, err := marketdata.NewCached(av, cfg.CacheTTL)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}

	s := httpserver.NewServer(authSvc, tradingSvc, watchSvc, market, st, logger, cfg.CORSOrigin)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}
