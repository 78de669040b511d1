package domain

import (
	"math/rand"
	"time"
)

// BackoffPolicy calcula atrasos de retentativa: exponencial com jitter e teto.
//
// Delay é função pura da tentativa (fora o jitter aleatório): não guarda
// estado compartilhado, então entries em backoff não bloqueiam umas às outras.
type BackoffPolicy struct {
	Base        time.Duration // atraso da primeira retentativa
	Max         time.Duration // teto do atraso
	MaxAttempts int           // tentativas antes de abandonar o prefixo
	Jitter      float64       // fração de variação aleatória (0 a 1)
}

// DefaultBackoff são os valores usados contra o endpoint real.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:        500 * time.Millisecond,
		Max:         30 * time.Second,
		MaxAttempts: 5,
		Jitter:      0.3,
	}
}

// Delay retorna o atraso para a tentativa de número attempt (1 = primeira
// retentativa). O jitter espalha retentativas de workers distintos para não
// sincronizar rajadas.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			d = p.Max
			break
		}
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}

	if p.Jitter > 0 {
		// varia em ±Jitter/2 ao redor do valor nominal
		f := 1 + p.Jitter*(rand.Float64()-0.5)
		d = time.Duration(float64(d) * f)
	}
	return d
}

// Exhausted informa se o prefixo deve ser abandonado após attempts tentativas.
func (p BackoffPolicy) Exhausted(attempts int) bool {
	max := p.MaxAttempts
	if max <= 0 {
		max = 5
	}
	return attempts >= max
}
