package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"autocomplete-extractor/extractor/domain"
)

func TestQueue_PushDeduplicatesByVersionAndPrefix(t *testing.T) {
	q := NewQueue()

	if !q.Push(domain.Entry{Version: domain.V1, Prefix: "a"}) {
		t.Fatalf("expected first push to enter")
	}
	if q.Push(domain.Entry{Version: domain.V1, Prefix: "a"}) {
		t.Fatalf("expected duplicate push to be rejected")
	}
	// mesma string sob outra versão é outra entry
	if !q.Push(domain.Entry{Version: domain.V2, Prefix: "a"}) {
		t.Fatalf("expected same prefix under another version to enter")
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 queued, got %d", q.Len())
	}
}

func TestQueue_PopReturnsFalseWhenExhausted(t *testing.T) {
	q := NewQueue()

	if _, ok := q.Pop(context.Background()); ok {
		t.Fatalf("expected empty queue with no inflight to report exhaustion")
	}
}

func TestQueue_PopWaitsForInflightToFinish(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a"})

	e, ok := q.Pop(context.Background())
	if !ok {
		t.Fatalf("expected entry")
	}

	// segundo Pop deve bloquear: fila vazia mas "a" está em voo e pode
	// produzir filhos
	got := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(context.Background())
		got <- ok
	}()

	select {
	case <-got:
		t.Fatalf("expected second Pop to block while entry is inflight")
	case <-time.After(50 * time.Millisecond):
	}

	// o in-flight produz um filho e termina
	q.Push(domain.Entry{Version: domain.V1, Prefix: "aa"})
	q.Done(e)

	select {
	case ok := <-got:
		if !ok {
			t.Fatalf("expected second Pop to receive the child")
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting second Pop")
	}
}

func TestQueue_PopReportsExhaustionAfterLastDone(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a"})

	e, _ := q.Pop(context.Background())

	got := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(context.Background())
		got <- ok
	}()

	q.Done(e) // sem filhos: fronteira esgota

	select {
	case ok := <-got:
		if ok {
			t.Fatalf("expected exhaustion after last Done")
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting exhaustion")
	}
}

func TestQueue_PopHonorsContext(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a"})
	q.Pop(context.Background()) // deixa um in-flight segurando a fila

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, ok := q.Pop(ctx); ok {
		t.Fatalf("expected ok=false on context timeout")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("expected Pop to wake up promptly on context end")
	}
}

func TestQueue_PopWaitsBackoffDelay(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a", NotBefore: time.Now().Add(60 * time.Millisecond)})

	start := time.Now()
	_, ok := q.Pop(context.Background())
	if !ok {
		t.Fatalf("expected entry after backoff")
	}
	if waited := time.Since(start); waited < 50*time.Millisecond {
		t.Fatalf("expected Pop to honor NotBefore, waited only %s", waited)
	}
}

func TestQueue_BackoffEntryDoesNotBlockEligibleOnes(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a", NotBefore: time.Now().Add(time.Hour)})
	q.Push(domain.Entry{Version: domain.V1, Prefix: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	e, ok := q.Pop(ctx)
	if !ok || e.Prefix != "b" {
		t.Fatalf("expected eligible entry b, got %+v ok=%v", e, ok)
	}
}

// Invariante do spec: nenhum prefixo é entregue a dois workers ao mesmo tempo,
// e cada entry sai exatamente uma vez.
func TestQueue_ConcurrentPopsDeliverEachEntryOnce(t *testing.T) {
	q := NewQueue()

	const n = 200
	prefixes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := "p" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+i%7))
		prefixes = append(prefixes, p)
	}
	pushed := 0
	for _, p := range prefixes {
		if q.Push(domain.Entry{Version: domain.V1, Prefix: p}) {
			pushed++
		}
	}

	var mu sync.Mutex
	delivered := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				e, ok := q.Pop(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				delivered[e.Prefix]++
				mu.Unlock()
				q.Done(e)
			}
		}()
	}
	wg.Wait()

	if len(delivered) != pushed {
		t.Fatalf("expected %d distinct deliveries, got %d", pushed, len(delivered))
	}
	for p, c := range delivered {
		if c != 1 {
			t.Fatalf("expected prefix %q delivered once, got %d", p, c)
		}
	}
}

func TestQueue_PendingIncludesInflight(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a"})
	q.Push(domain.Entry{Version: domain.V1, Prefix: "b"})

	q.Pop(context.Background())

	pend := q.Pending()
	if len(pend) != 2 {
		t.Fatalf("expected pending to include inflight, got %d entries", len(pend))
	}
}

func TestQueue_CloseWakesWaiters(t *testing.T) {
	q := NewQueue()
	q.Push(domain.Entry{Version: domain.V1, Prefix: "a"})
	q.Pop(context.Background()) // segura in-flight

	got := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(context.Background())
		got <- ok
	}()

	q.Close()

	select {
	case ok := <-got:
		if ok {
			t.Fatalf("expected ok=false after Close")
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting Close to wake waiter")
	}
}
