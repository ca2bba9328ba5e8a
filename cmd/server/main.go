package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WesselKoorn/ask-youtube-anything/internal/api"
	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
	"github.com/WesselKoorn/ask-youtube-anything/internal/core"
	"github.com/WesselKoorn/ask-youtube-anything/internal/llm"
	"github.com/WesselKoorn/ask-youtube-anything/internal/store"
	"github.com/WesselKoorn/ask-youtube-anything/internal/youtube"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// One-shot ingestion mode: resolve the channel URL, ingest, and exit.
	ingestURL := flag.String("ingest", "", "Ingest a channel URL's recent videos and exit")
	flag.Parse()

	ctx := context.Background()

	index, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}
	defer index.Close()

	llmClient, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s client: %v", cfg.Provider, err)
	}
	defer llmClient.Close()

	ytClient, err := youtube.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize YouTube client: %v", err)
	}
	transcripts := youtube.NewTranscriptClient(nil)

	ingestService := core.NewIngestService(ytClient, transcripts, llmClient, index, cfg)
	answerService := core.NewAnswerService(llmClient, llmClient, index, cfg)

	if *ingestURL != "" {
		log.Printf("Starting channel ingestion for %s...", *ingestURL)
		channelID, err := ingestService.ResolveChannel(ctx, *ingestURL)
		if err != nil {
			log.Fatalf("Channel resolution failed: %v", err)
		}
		stats, err := ingestService.IngestChannel(ctx, channelID)
		if err != nil {
			log.Fatalf("Channel ingestion failed: %v", err)
		}
		log.Printf("Ingestion complete: %d videos, %d transcribed, %d new chunks. Exiting.",
			stats.Videos, stats.Transcribed, stats.NewChunks)
		os.Exit(0)
	}

	apiHandler := api.NewAPIHandler(ingestService, answerService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Ingestion and LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
