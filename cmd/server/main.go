/*
main.go - Ledger engine server entry point

STARTUP SEQUENCE:
  1. Load .env (best effort) and parse flags, env overriding defaults
  2. Open the audit log, the in-memory store, and the SQLite archive
  3. Load the persisted ledger from the record file (missing = start empty)
  4. Attach the Kafka publisher when brokers are configured
  5. Serve HTTP until SIGINT/SIGTERM, then save the ledger and shut down

CONFIGURATION:
  -port / PORT                  HTTP port (default 8080)
  -data / LEDGER_DATA_DIR       data directory (default ./data)
  KAFKA_BROKERS                 comma-separated broker list, optional

The record file lives at <data>/transactions.log, the audit trail at
<data>/audit.log, the archive at <data>/archive.db.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/ledger-engine/api"
	archive "github.com/warp/ledger-engine/archive/sqlite"
	"github.com/warp/ledger-engine/events/kafka"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/persist"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dataDir := flag.String("data", envStr("LEDGER_DATA_DIR", "data"), "data directory")
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	audit := ledger.NewFileAuditLog(filepath.Join(*dataDir, "audit.log"))
	store := ledger.NewStore(ledger.SystemClock{}, audit)
	engine := ledger.NewLedger(store)
	adapter := persist.NewAdapter(filepath.Join(*dataDir, "transactions.log"), store)

	if err := adapter.Load(); err != nil {
		log.Fatalf("Failed to load ledger: %v", err)
	}
	log.Printf("Loaded %d entries, next sequence %d", store.Count(), store.NextSequence())

	archiveStore, err := archive.New(filepath.Join(*dataDir, "archive.db"))
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer archiveStore.Close()

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher := kafka.NewPublisher(strings.Split(brokers, ","))
		defer publisher.Close()
		engine.SetPublisher(publisher)
		log.Printf("Publishing ledger events to %s", brokers)
	}

	handler := api.NewHandler(engine, adapter, archiveStore)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Ledger engine listening on :%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	// Persist on the way out so a restart resumes where we left off.
	if err := adapter.Save(); err != nil {
		log.Printf("Failed to save ledger on shutdown: %v", err)
	} else {
		log.Printf("Saved %d entries", store.Count())
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
