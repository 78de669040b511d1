package domain

import (
	"context"
	"time"
)

// OutcomeKind classifica o resultado de uma tentativa de consulta.
type OutcomeKind int

const (
	// OutcomeSuccess: resposta 2xx com corpo válido.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRateLimited: o servidor rejeitou explicitamente por taxa (429).
	OutcomeRateLimited
	// OutcomeTransient: erro de rede, timeout, 5xx ou corpo malformado. Retentável.
	OutcomeTransient
	// OutcomeFatal: erro de cliente irrecuperável (query inválida, 4xx). Não retenta.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "ratelimited"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome é o resultado classificado de exatamente uma consulta a um prefixo.
type Outcome struct {
	Kind OutcomeKind

	// Preenchidos em OutcomeSuccess.
	Names     []string
	Count     int  // count declarado pelo servidor ou inferido de len(Names)
	Truncated bool // Count atingiu o PageSize da versão: há mais nomes abaixo do prefixo

	// Preenchido em OutcomeRateLimited quando o servidor manda Retry-After.
	RetryAfter time.Duration

	// Preenchido em falhas.
	Err error
}

// Transport executa uma consulta contra o endpoint externo e classifica o
// resultado bruto (status HTTP, corpo). Não decide truncamento nem retentativa.
type Transport interface {
	Do(ctx context.Context, v Version, prefix string) Outcome
}
