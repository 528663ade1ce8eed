package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"locktrack/internal/api"
	"locktrack/internal/loader"
	"locktrack/internal/model"
	"locktrack/internal/obs"
	"locktrack/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Cancel context on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := getenv("LOCKTRACK_ADDR", ":8080")
	// Journal and seed records are both optional.
	dbPath := os.Getenv("LOCKTRACK_DB")
	recordsPath := os.Getenv("LOCKTRACK_RECORDS")

	logger := obs.NewLogger()
	metrics := obs.NewMetrics()

	reg := model.NewRegistry(logger, metrics)

	var journal api.Journal
	if dbPath != "" {
		db, err := storage.Open(ctx, storage.Config{
			Path:         dbPath,
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
		})
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer db.Close()

		// Replay the journal through the same batch path as any load.
		records, err := db.LoadAll(ctx)
		if err != nil {
			log.Fatalf("journal replay: %v", err)
		}
		rep := reg.LoadRecords(records)
		log.Printf("journal replayed loaded=%d skipped=%d", rep.Loaded, rep.Skipped)

		journal = db
	}

	// Seed records, if configured. A bad file means an empty batch,
	// not a failed boot.
	if recordsPath != "" {
		records, shapeSkipped, err := loader.ReadFile(recordsPath)
		if err != nil {
			log.Printf("seed records unreadable, starting empty: %v", err)
		} else {
			rep := reg.LoadRecords(records)
			log.Printf("seed records loaded=%d skipped=%d", rep.Loaded, rep.Skipped+shapeSkipped)
		}
	}

	apiServer := api.NewServer(reg, journal, logger)

	// Stats monitor
	mon := model.NewStatsMonitor(apiServer, logger, metrics, 5*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup

	// Start stats monitor
	wg.Add(1)
	go func() {
		defer wg.Done()
		mon.Run(ctx) // exits when ctx is cancelled
	}()

	// Start HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("locktrack up addr=%s db=%s", addr, dbPath)
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
			// If server fails unexpectedly, trigger shutdown.
			stop()
		}
	}()

	// Wait for signal
	<-ctx.Done()
	log.Printf("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	// Wait for goroutines to finish
	wg.Wait()
	log.Printf("locktrack stopped")
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
