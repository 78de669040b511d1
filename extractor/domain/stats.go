package domain

import (
	"context"
	"time"
)

// FetchEvent representa o resultado de uma consulta, para fins de estatística.
//
// Observação: cuidado com cardinalidade ao persistir Prefix sem controle em
// uma base como Redis; as implementações só o gravam quando configuradas.
type FetchEvent struct {
	Version  Version
	Prefix   string
	Kind     OutcomeKind
	NewNames int // nomes inéditos que esta consulta revelou

	At time.Time
}

// StatsStore é a estratégia de persistência de estatísticas da extração.
//
// Implementações podem armazenar em Redis, memória, etc.
// O orquestrador trata erro como best-effort (não derruba a exploração).
type StatsStore interface {
	Record(ctx context.Context, ev FetchEvent) error
}
