package infra

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// relógio determinístico controlado pelo teste
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSlidingWindow_AllowsUpToLimitWithoutWait(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(5, time.Second, WithClock(clk.Now))

	for i := 0; i < 5; i++ {
		if wait := w.Admit(); wait != 0 {
			t.Fatalf("expected admission %d without wait, got %s", i+1, wait)
		}
	}
}

func TestSlidingWindow_SixthWaitsFullWindow(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(5, time.Second, WithClock(clk.Now))

	for i := 0; i < 5; i++ {
		w.Admit()
	}
	if wait := w.Admit(); wait != time.Second {
		t.Fatalf("expected sixth admission to wait 1s, got %s", wait)
	}
}

// Propriedade do spec: com teto C=5 e janela W=1s, nenhum sexto carimbo
// admitido cai dentro de uma janela deslizante de 1s com outros cinco.
func TestSlidingWindow_NoSixStampsInsideAnyWindow(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(5, time.Second, WithClock(clk.Now))

	start := clk.Now()
	var stamps []time.Time
	for i := 0; i < 40; i++ {
		wait := w.Admit()
		stamps = append(stamps, clk.Now().Add(wait))
		// o chamador honra a espera; avança o relógio de forma irregular
		clk.Advance(wait + time.Duration(i%3)*50*time.Millisecond)
	}
	_ = start

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	for i := 5; i < len(stamps); i++ {
		if stamps[i].Sub(stamps[i-5]) < time.Second {
			t.Fatalf("six stamps inside one window: %s .. %s", stamps[i-5], stamps[i])
		}
	}
}

func TestSlidingWindow_ConcurrentAdmitsRespectCeiling(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(5, time.Second, WithClock(clk.Now))

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wait := w.Admit()
			mu.Lock()
			stamps = append(stamps, clk.Now().Add(wait))
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	for i := 5; i < len(stamps); i++ {
		if stamps[i].Sub(stamps[i-5]) < time.Second {
			t.Fatalf("concurrent admits broke the ceiling at %d", i)
		}
	}
}

func TestSlidingWindow_PenalizeOverridesCapacity(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(100, time.Minute, WithClock(clk.Now))

	// janela local tem capacidade de sobra, mas o servidor mandou esperar
	w.Penalize(10 * time.Second)

	if wait := w.Admit(); wait < 10*time.Second {
		t.Fatalf("expected at least the cooldown wait, got %s", wait)
	}
}

func TestSlidingWindow_PenalizeKeepsLongestCooldown(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(100, time.Minute, WithClock(clk.Now))

	w.Penalize(10 * time.Second)
	w.Penalize(2 * time.Second) // não encurta o cooldown vigente

	if wait := w.Admit(); wait < 10*time.Second {
		t.Fatalf("expected the longer cooldown to win, got %s", wait)
	}
}

func TestSlidingWindow_WindowFreesAfterTimePasses(t *testing.T) {
	clk := newFakeClock()
	w := NewSlidingWindow(2, time.Second, WithClock(clk.Now))

	w.Admit()
	w.Admit()
	clk.Advance(2 * time.Second)

	if wait := w.Admit(); wait != 0 {
		t.Fatalf("expected free window after it slid, got %s", wait)
	}
}
