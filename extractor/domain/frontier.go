package domain

import (
	"context"
	"time"
)

// Entry é uma unidade de trabalho da fronteira: um prefixo aguardando consulta.
type Entry struct {
	Version   Version
	Prefix    string
	Attempts  int       // tentativas já feitas (0 = nunca consultado)
	NotBefore time.Time // não elegível antes deste instante (backoff)
}

// Frontier guarda os prefixos pendentes de uma exploração.
//
// Contrato de entrega: um mesmo prefixo nunca é entregue a dois workers ao
// mesmo tempo. Cada Pop bem-sucedido marca a entry como in-flight e deve ser
// seguido de exatamente um Done (consulta resolvida, com ou sem sucesso) ou
// um Requeue (reinserção para nova tentativa).
type Frontier interface {
	// Push enfileira um prefixo novo. Retorna false se ele já foi visto
	// nesta exploração (dedup por versão+prefixo).
	Push(e Entry) bool

	// Pop bloqueia até haver uma entry elegível. Retorna ok=false quando a
	// fronteira esgotou (vazia e sem in-flight) ou o contexto encerrou.
	Pop(ctx context.Context) (Entry, bool)

	// Requeue devolve uma entry in-flight à fila (não passa pelo dedup).
	Requeue(e Entry)

	// Done libera a marca de in-flight de uma entry entregue por Pop.
	Done(e Entry)

	// Len conta as entries enfileiradas (exclui in-flight).
	Len() int

	// Pending devolve um snapshot de tudo que ainda não foi resolvido
	// (enfileiradas + in-flight), para checkpoint.
	Pending() []Entry
}
