package infra

import (
	"sync"
	"time"
)

// SlidingWindow é um admitter de janela deslizante: mantém os carimbos das
// últimas admissões e garante que nunca existam mais que limit dentro de
// qualquer janela de duração window.
//
// Admit reserva e registra no mesmo passo, sob o mesmo mutex: chamadores
// concorrentes recebem esperas que, honradas, respeitam o teto em qualquer
// instante. Os carimbos podem estar no futuro (reservas).
type SlidingWindow struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	stamps       []time.Time // ordenado; inclui reservas futuras
	blockedUntil time.Time   // cooldown imposto pelo servidor (429)
	now          func() time.Time
}

type WindowOption func(*SlidingWindow)

// WithClock injeta um relógio determinístico (testes).
func WithClock(fn func() time.Time) WindowOption {
	return func(w *SlidingWindow) { w.now = fn }
}

func NewSlidingWindow(limit int, window time.Duration, opts ...WindowOption) *SlidingWindow {
	w := &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *SlidingWindow) Limit() int            { return w.limit }
func (w *SlidingWindow) Window() time.Duration { return w.window }

// Admit implementa domain.Admitter.
func (w *SlidingWindow) Admit() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if w.limit <= 0 {
		return 0
	}

	// poda carimbos que já não caem em nenhuma janela futura
	cut := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cut) {
		i++
	}
	w.stamps = append(w.stamps[:0], w.stamps[i:]...)

	// avança at até o primeiro instante cuja janela (at-W, at] ainda
	// comporta esta admissão
	at := now
	if w.blockedUntil.After(at) {
		at = w.blockedUntil
	}
	for {
		lo := at.Add(-w.window)
		count := 0
		var oldest time.Time
		for _, s := range w.stamps {
			if s.After(lo) && !s.After(at) {
				if count == 0 {
					oldest = s
				}
				count++
			}
		}
		if count < w.limit {
			break
		}
		at = oldest.Add(w.window)
	}

	// insere mantendo a ordenação (reservas futuras podem estar à frente)
	idx := len(w.stamps)
	for idx > 0 && w.stamps[idx-1].After(at) {
		idx--
	}
	w.stamps = append(w.stamps, time.Time{})
	copy(w.stamps[idx+1:], w.stamps[idx:])
	w.stamps[idx] = at

	return at.Sub(now)
}

// Penalize implementa domain.Admitter: trata os próximos d como janela cheia.
func (w *SlidingWindow) Penalize(d time.Duration) {
	if d <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	until := w.now().Add(d)
	if until.After(w.blockedUntil) {
		w.blockedUntil = until
	}
}
