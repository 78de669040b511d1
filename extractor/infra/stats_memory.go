package infra

import (
	"context"
	"sync"

	"autocomplete-extractor/extractor/domain"
)

type Counters struct {
	Success     int64
	RateLimited int64
	Transient   int64
	Fatal       int64
	NewNames    int64
}

func (c *Counters) apply(ev domain.FetchEvent) {
	switch ev.Kind {
	case domain.OutcomeSuccess:
		c.Success++
	case domain.OutcomeRateLimited:
		c.RateLimited++
	case domain.OutcomeTransient:
		c.Transient++
	case domain.OutcomeFatal:
		c.Fatal++
	}
	c.NewNames += int64(ev.NewNames)
}

// MemoryStats é uma implementação simples em memória.
// Útil para testes, desenvolvimento e para o resumo de fim de execução.
type MemoryStats struct {
	mu        sync.Mutex
	total     Counters
	byVersion map[domain.Version]Counters
	byPrefix  map[string]Counters

	trackPrefixes bool
}

type MemoryStatsOption func(*MemoryStats)

// WithTrackPrefixes liga contadores por prefixo (cardinalidade alta; só para
// depuração).
func WithTrackPrefixes(track bool) MemoryStatsOption {
	return func(s *MemoryStats) { s.trackPrefixes = track }
}

func NewMemoryStats(opts ...MemoryStatsOption) *MemoryStats {
	s := &MemoryStats{
		byVersion: make(map[domain.Version]Counters),
		byPrefix:  make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record implementa domain.StatsStore.
func (s *MemoryStats) Record(_ context.Context, ev domain.FetchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.apply(ev)

	c := s.byVersion[ev.Version]
	c.apply(ev)
	s.byVersion[ev.Version] = c

	if s.trackPrefixes && ev.Prefix != "" {
		key := string(ev.Version) + " " + ev.Prefix
		p := s.byPrefix[key]
		p.apply(ev)
		s.byPrefix[key] = p
	}
	return nil
}

func (s *MemoryStats) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStats) ByVersion() map[domain.Version]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Version]Counters, len(s.byVersion))
	for k, v := range s.byVersion {
		out[k] = v
	}
	return out
}

func (s *MemoryStats) ByPrefix() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byPrefix))
	for k, v := range s.byPrefix {
		out[k] = v
	}
	return out
}
