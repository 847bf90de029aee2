package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quickcart/quickcart/internal/catalog"
	"github.com/quickcart/quickcart/internal/metrics"
	"github.com/quickcart/quickcart/internal/store"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	// --- Store ---
	var products store.ProductStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := store.Open(dsn)
		if err != nil {
			slog.Error("Failed to init database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		products = store.NewPostgresProductStore(db)
	} else {
		slog.Info("DATABASE_URL not set, using in-memory store")
		products = store.NewMemoryProductStore()
	}

	m := metrics.NewCatalogMetrics(prometheus.DefaultRegisterer)
	svc := catalog.NewService(products, m)

	if err := catalog.Seed(context.Background(), products); err != nil {
		slog.Error("Failed to seed products", "err", err)
		os.Exit(1)
	}

	// --- HTTP API ---
	mux := http.NewServeMux()
	catalog.NewHandler(svc).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{
		Addr:              ":" + getEnv("PORT", "8081"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("Catalog service starting", "addr", httpServer.Addr)
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
