package domain

import (
	"context"
	"time"
)

// NameStore acumula os nomes descobertos, deduplicados por versão.
// O conjunto final é o sinal de término e a saída de todo o sistema.
type NameStore interface {
	// Add registra um nome. Retorna true se ele era inédito naquela versão.
	// Idempotente e seguro para inserção concorrente: a unicidade do
	// conjunto final é o invariante duro, não o valor de retorno.
	Add(v Version, name string) bool

	// Size conta os nomes únicos de uma versão.
	Size(v Version) int

	// Names devolve os nomes de uma versão, ordenados.
	Names(v Version) []string

	// Export devolve a união de todas as versões, deduplicada e ordenada.
	Export() []string

	// Restore insere nomes em lote (retomada de checkpoint).
	Restore(v Version, names []string)
}

// Snapshot é o estado suficiente para retomar uma exploração sem reconsultar
// prefixos já esgotados.
type Snapshot struct {
	TakenAt  time.Time
	Frontier []Entry
	Names    map[Version][]string
	Requests map[Version]int64
}

// CheckpointStore persiste snapshots periódicos da exploração.
type CheckpointStore interface {
	Save(ctx context.Context, snap Snapshot) error

	// Load devolve o snapshot mais recente. ok=false quando não há nenhum.
	Load(ctx context.Context) (snap Snapshot, ok bool, err error)

	Close() error
}
