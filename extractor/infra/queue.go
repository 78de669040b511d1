package infra

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"autocomplete-extractor/extractor/domain"
)

// Queue é a fronteira concorrente de prefixos: um min-heap por NotBefore com
// dedup por versão+prefixo e rastreio de entries in-flight.
//
// Pop bloqueia enquanto a fila está momentaneamente vazia mas ainda existem
// entries in-flight que podem produzir filhos; só retorna ok=false quando
// heap e in-flight esgotam juntos (condição estrita de término) ou quando o
// contexto encerra.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	entries  entryHeap
	seen     map[string]struct{}
	inflight map[string]domain.Entry
	closed   bool
	seq      uint64
}

func NewQueue() *Queue {
	q := &Queue{
		seen:     make(map[string]struct{}),
		inflight: make(map[string]domain.Entry),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func entryKey(e domain.Entry) string {
	return string(e.Version) + "\x00" + e.Prefix
}

// Push implementa domain.Frontier. Um prefixo visto não entra duas vezes.
func (q *Queue) Push(e domain.Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := entryKey(e)
	if _, ok := q.seen[key]; ok {
		return false
	}
	q.seen[key] = struct{}{}

	q.seq++
	heap.Push(&q.entries, queued{Entry: e, seq: q.seq})
	q.cond.Broadcast()
	return true
}

// Requeue devolve uma entry in-flight à fila para nova tentativa.
// Não passa pelo dedup: o prefixo continua marcado como visto.
func (q *Queue) Requeue(e domain.Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inflight, entryKey(e))
	q.seq++
	heap.Push(&q.entries, queued{Entry: e, seq: q.seq})
	q.cond.Broadcast()
}

// Done libera a marca de in-flight de uma entry entregue por Pop.
func (q *Queue) Done(e domain.Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inflight, entryKey(e))
	q.cond.Broadcast()
}

// Pop implementa domain.Frontier.
func (q *Queue) Pop(ctx context.Context) (domain.Entry, bool) {
	// acorda os waiters quando o contexto encerrar
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed || ctx.Err() != nil {
			return domain.Entry{}, false
		}
		if q.entries.Len() == 0 {
			if len(q.inflight) == 0 {
				// fronteira esgotada: nada enfileirado, nada em voo
				return domain.Entry{}, false
			}
			q.cond.Wait()
			continue
		}

		next := q.entries[0]
		if d := time.Until(next.NotBefore); d > 0 {
			// a entry mais próxima ainda está em backoff
			t := time.AfterFunc(d, func() {
				q.mu.Lock()
				q.cond.Broadcast()
				q.mu.Unlock()
			})
			q.cond.Wait()
			t.Stop()
			continue
		}

		e := heap.Pop(&q.entries).(queued).Entry
		q.inflight[entryKey(e)] = e
		return e, true
	}
}

// Len implementa domain.Frontier (só as enfileiradas).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

// Pending devolve enfileiradas + in-flight, para checkpoint.
func (q *Queue) Pending() []domain.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Entry, 0, q.entries.Len()+len(q.inflight))
	for _, qe := range q.entries {
		out = append(out, qe.Entry)
	}
	for _, e := range q.inflight {
		out = append(out, e)
	}
	return out
}

// Close acorda todos os Pop pendentes com ok=false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// heap por NotBefore, com FIFO entre iguais via seq.
type queued struct {
	domain.Entry
	seq uint64
}

type entryHeap []queued

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].NotBefore.Equal(h[j].NotBefore) {
		return h[i].seq < h[j].seq
	}
	return h[i].NotBefore.Before(h[j].NotBefore)
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(queued)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
