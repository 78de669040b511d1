package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"autocomplete-extractor/extractor"
	"autocomplete-extractor/extractor/domain"
	"autocomplete-extractor/extractor/infra"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	specs := domain.DefaultSpecs()
	if cfg.specsFile != "" {
		specs, err = infra.LoadSpecs(cfg.specsFile)
		if err != nil {
			log.Fatalf("specs file error: %v", err)
		}
	}

	versions, err := parseVersions(cfg.versions, specs)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var admitter domain.Admitter
	switch cfg.rateMode {
	case "window":
		admitter = infra.NewSlidingWindow(cfg.rateLimit, cfg.rateWindow)
	case "bucket":
		rps := float64(cfg.rateLimit) / cfg.rateWindow.Seconds()
		admitter = infra.NewTokenBucket(rps, cfg.rateBurst)
	case "off":
		// sem limite local; só o backoff e o Retry-After do servidor seguram
	default:
		log.Fatalf("config error: unknown RATE_MODE %q (window|bucket|off)", cfg.rateMode)
	}

	var statsStore domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		statsStore = infra.NewRedisStats(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackPrefixes(cfg.statsTrackPrefixes),
		)
	}

	var (
		checkpoint domain.CheckpointStore
		resume     *domain.Snapshot
	)
	if cfg.checkpointDB != "" {
		store, err := infra.NewSQLiteCheckpoint(cfg.checkpointDB)
		if err != nil {
			log.Fatalf("checkpoint open error: %v", err)
		}
		defer func() { _ = store.Close() }()
		checkpoint = store

		if cfg.resume {
			snap, ok, err := store.Load(context.Background())
			if err != nil {
				log.Fatalf("checkpoint load error: %v", err)
			}
			if ok {
				resume = &snap
				log.Printf("resuming run %s: %d frontier entries, snapshot from %s",
					store.RunID(), len(snap.Frontier), snap.TakenAt.Format(time.RFC3339))
			} else {
				log.Printf("RESUME=true but checkpoint db is empty, starting fresh")
			}
		}
	}

	e, err := extractor.New(extractor.Options{
		Specs:     specs,
		Transport: infra.NewClient(cfg.baseURL),
		Admitter:  admitter,
		Workers:   cfg.workers,
		Backoff: domain.BackoffPolicy{
			Base:        cfg.retryBase,
			Max:         cfg.retryMax,
			MaxAttempts: cfg.retryAttempts,
			Jitter:      cfg.retryJitter,
		},
		Stats:           statsStore,
		Checkpoint:      checkpoint,
		CheckpointEvery: cfg.checkpointEvery,
		Resume:          resume,
	})
	if err != nil {
		log.Fatalf("setup error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("extracting from %s versions=%s workers=%d", cfg.baseURL, cfg.versions, cfg.workers)
	log.Printf("rate: mode=%s limit=%d window=%s", cfg.rateMode, cfg.rateLimit, cfg.rateWindow)
	log.Printf("retry: base=%s max=%s attempts=%d jitter=%.2f", cfg.retryBase, cfg.retryMax, cfg.retryAttempts, cfg.retryJitter)

	summary, runErr := e.Run(ctx, versions)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("run error: %v", runErr)
	}

	if summary != nil {
		log.Printf("done in %s: requests per version: %s", summary.Elapsed.Round(time.Millisecond), formatRequests(summary.Requests))
		log.Printf("names found per version: %s", formatFound(summary.Found))
		if summary.Abandoned > 0 {
			log.Printf("WARNING: %d prefixes abandoned after repeated failures", summary.Abandoned)
		}
		if summary.DepthCapped > 0 {
			log.Printf("WARNING: %d branches still truncated at the depth cap (results may be incomplete)", summary.DepthCapped)
		}
	}

	if err := writeNames(cfg.outputFile, e.Names().Export()); err != nil {
		log.Fatalf("write output error: %v", err)
	}
	log.Printf("vocabulary written to %s", cfg.outputFile)

	if runErr != nil {
		// interrompido por sinal: o checkpoint final já foi gravado
		log.Printf("interrupted; rerun with RESUME=true to continue")
		os.Exit(1)
	}
}

func parseVersions(raw string, specs map[domain.Version]domain.Spec) ([]domain.Version, error) {
	var out []domain.Version
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v := domain.Version(part)
		if _, ok := specs[v]; !ok {
			return nil, errors.New("VERSIONS: unknown version " + part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("VERSIONS must name at least one version")
	}
	return out, nil
}

func writeNames(path string, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := w.WriteString(name + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatRequests(m map[domain.Version]int64) string {
	parts := make([]string, 0, len(m))
	for _, v := range []domain.Version{domain.V1, domain.V2, domain.V3} {
		if n, ok := m[v]; ok {
			parts = append(parts, string(v)+"="+strconv.FormatInt(n, 10))
		}
	}
	return strings.Join(parts, " ")
}

func formatFound(m map[domain.Version]int) string {
	parts := make([]string, 0, len(m))
	for _, v := range []domain.Version{domain.V1, domain.V2, domain.V3} {
		if n, ok := m[v]; ok {
			parts = append(parts, string(v)+"="+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, " ")
}

type config struct {
	baseURL  string
	versions string
	workers  int

	rateMode   string
	rateLimit  int
	rateWindow time.Duration
	rateBurst  int

	retryBase     time.Duration
	retryMax      time.Duration
	retryAttempts int
	retryJitter   float64

	specsFile  string
	outputFile string

	checkpointDB    string
	checkpointEvery time.Duration
	resume          bool

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackPrefixes bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.baseURL = os.Getenv("BASE_URL")
	cfg.versions = getenvDefault("VERSIONS", "v1,v2,v3")
	cfg.workers = getenvIntDefault("WORKERS", 10)

	cfg.rateMode = getenvDefault("RATE_MODE", "window")
	cfg.rateLimit = getenvIntDefault("RATE_LIMIT", 100)
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", time.Minute)
	// IMPORTANTE: burst só vale no modo bucket. O padrão 1 evita a rajada
	// inicial que estouraria o limite por minuto do endpoint logo na largada.
	cfg.rateBurst = getenvIntDefault("RATE_BURST", 1)

	cfg.retryBase = getenvDurationDefault("RETRY_BASE", 500*time.Millisecond)
	cfg.retryMax = getenvDurationDefault("RETRY_MAX", 30*time.Second)
	cfg.retryAttempts = getenvIntDefault("RETRY_ATTEMPTS", 5)
	cfg.retryJitter = getenvFloatDefault("RETRY_JITTER", 0.3)

	cfg.specsFile = os.Getenv("SPECS_FILE")
	cfg.outputFile = getenvDefault("OUTPUT_FILE", "names.txt")

	cfg.checkpointDB = os.Getenv("CHECKPOINT_DB")
	cfg.checkpointEvery = getenvDurationDefault("CHECKPOINT_EVERY", 30*time.Second)
	cfg.resume = getenvBoolDefault("RESUME", false)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "extractor:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackPrefixes = getenvBoolDefault("STATS_TRACK_PREFIXES", false)

	if cfg.baseURL == "" {
		return config{}, errors.New("BASE_URL is required")
	}
	if cfg.workers <= 0 {
		return config{}, errors.New("WORKERS must be > 0")
	}
	if cfg.rateLimit <= 0 {
		return config{}, errors.New("RATE_LIMIT must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.rateBurst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0")
	}
	if cfg.retryAttempts <= 0 {
		return config{}, errors.New("RETRY_ATTEMPTS must be > 0")
	}
	if cfg.resume && cfg.checkpointDB == "" {
		return config{}, errors.New("CHECKPOINT_DB is required when RESUME=true")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
