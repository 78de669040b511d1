package infra

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket é um admitter alternativo baseado em token-bucket (x/time/rate),
// com a mesma sobreposição de cooldown de servidor do SlidingWindow.
//
// Útil quando o teto observado se comporta mais como vazão média com rajada
// do que como janela estrita.
type TokenBucket struct {
	lim *rate.Limiter

	mu           sync.Mutex
	blockedUntil time.Time
	now          func() time.Time
}

func NewTokenBucket(rps float64, burst int) *TokenBucket {
	return &TokenBucket{
		lim: rate.NewLimiter(rate.Limit(rps), burst),
		now: time.Now,
	}
}

// Admit implementa domain.Admitter.
func (b *TokenBucket) Admit() time.Duration {
	d := b.lim.Reserve().Delay()

	b.mu.Lock()
	defer b.mu.Unlock()
	if until := b.blockedUntil; until.After(b.now()) {
		if c := until.Sub(b.now()); c > d {
			d = c
		}
	}
	return d
}

// Penalize implementa domain.Admitter.
func (b *TokenBucket) Penalize(d time.Duration) {
	if d <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	until := b.now().Add(d)
	if until.After(b.blockedUntil) {
		b.blockedUntil = until
	}
}
