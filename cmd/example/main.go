package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autocomplete-extractor/extractor"
	"autocomplete-extractor/extractor/domain"
	"autocomplete-extractor/extractor/infra"
)

func main() {
	// Exemplo: usando o extractor como biblioteca (sem o binário principal).
	// Suba antes o teste-validacao/servidor-autocomplete na porta 8082.
	baseURL := "http://localhost:8082"
	if v := os.Getenv("BASE_URL"); v != "" {
		baseURL = v
	}

	stats := infra.NewMemoryStats(infra.WithTrackPrefixes(true))

	e, err := extractor.New(extractor.Options{
		Specs:     domain.DefaultSpecs(),
		Transport: infra.NewClient(baseURL),
		Admitter:  infra.NewSlidingWindow(100, time.Minute),
		Workers:   5,
		Stats:     stats,
	})
	if err != nil {
		log.Fatalf("setup error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, err := e.Run(ctx, []domain.Version{domain.V1})
	if err != nil {
		log.Fatalf("run error: %v", err)
	}

	total := stats.Total()
	log.Printf("requests: success=%d rate-limited=%d transient=%d fatal=%d", total.Success, total.RateLimited, total.Transient, total.Fatal)
	log.Printf("found %d names in %s:", summary.Found[domain.V1], summary.Elapsed.Round(time.Millisecond))
	for _, name := range e.Names().Names(domain.V1) {
		log.Printf("  %s", name)
	}
}
