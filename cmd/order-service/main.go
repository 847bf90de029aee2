package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quickcart/quickcart/internal/catalog"
	"github.com/quickcart/quickcart/internal/messaging/kafka"
	"github.com/quickcart/quickcart/internal/metrics"
	"github.com/quickcart/quickcart/internal/order"
	"github.com/quickcart/quickcart/internal/store"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	// --- Store ---
	var orders store.OrderStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := store.Open(dsn)
		if err != nil {
			slog.Error("Failed to init database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		orders = store.NewPostgresOrderStore(db)
	} else {
		slog.Info("DATABASE_URL not set, using in-memory store")
		orders = store.NewMemoryOrderStore()
	}

	// --- Catalog client ---
	catalogBase := getEnv("CATALOG_BASE_URL", "http://localhost:8081")
	timeoutMS, _ := strconv.Atoi(getEnv("CATALOG_TIMEOUT_MS", "2500"))
	catalogClient := catalog.NewClient(catalogBase, time.Duration(timeoutMS)*time.Millisecond)

	// --- Kafka ---
	publisher := kafka.NewPublisher(os.Getenv("KAFKA_BROKERS"))

	m := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	svc := order.NewService(catalogClient, orders, publisher, m)

	// --- HTTP API ---
	mux := http.NewServeMux()
	order.NewHandler(svc).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{
		Addr:              ":" + getEnv("PORT", "8080"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("Order service starting", "addr", httpServer.Addr, "catalog", catalogBase)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
