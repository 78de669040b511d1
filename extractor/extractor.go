package extractor

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"autocomplete-extractor/extractor/application"
	"autocomplete-extractor/extractor/domain"
	"autocomplete-extractor/extractor/infra"
)

const (
	defaultWorkers         = 10
	defaultCheckpointEvery = 30 * time.Second
)

// Options configura um Extractor. Só Transport e Specs são obrigatórios;
// o resto tem padrão razoável ou é opcional (Admitter, Stats, Checkpoint).
type Options struct {
	// Specs descreve cada versão do endpoint (alfabeto, tamanho de página,
	// profundidade máxima). Normalmente domain.DefaultSpecs, com overrides
	// de infra.LoadSpecs.
	Specs map[domain.Version]domain.Spec

	// Transport consulta o endpoint. Obrigatório.
	Transport domain.Transport

	// Admitter limita a taxa global de consultas. nil desliga o limite
	// (útil em testes contra servidor local).
	Admitter domain.Admitter

	// Workers é o tamanho do pool por versão. <= 0 usa o padrão.
	Workers int

	// Backoff controla as retentativas. Zero usa domain.DefaultBackoff.
	Backoff domain.BackoffPolicy

	// Names acumula o vocabulário. nil usa o store em memória.
	Names domain.NameStore

	// Stats recebe um evento por consulta, best-effort. nil desliga.
	Stats domain.StatsStore

	// Checkpoint persiste snapshots periódicos. nil desliga.
	Checkpoint      domain.CheckpointStore
	CheckpointEvery time.Duration

	// Resume retoma uma exploração de um snapshot carregado do checkpoint:
	// nomes e contadores voltam, e versões com fronteira gravada continuam
	// de onde pararam em vez de semear do zero.
	Resume *domain.Snapshot

	Logger *log.Logger
}

// Summary é o resultado agregado de um Run.
type Summary struct {
	Requests    map[domain.Version]int64
	Found       map[domain.Version]int
	Abandoned   int
	DepthCapped int
	Elapsed     time.Duration
}

// Extractor coordena a enumeração: um pool de workers por versão consumindo a
// fronteira de prefixos até a condição estrita de término (fila vazia e nada
// em voo).
type Extractor struct {
	opts  Options
	fetch application.FetchService

	mu       sync.Mutex
	requests map[domain.Version]int64

	// fronteiras e contadores gravados no snapshot de retomada, por versão
	resumeFrontier map[domain.Version][]domain.Entry
	resumed        map[domain.Version]bool
}

func New(opts Options) (*Extractor, error) {
	if opts.Transport == nil {
		return nil, errors.New("extractor: Transport is required")
	}
	if len(opts.Specs) == 0 {
		return nil, errors.New("extractor: at least one version Spec is required")
	}
	for _, spec := range opts.Specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Backoff == (domain.BackoffPolicy{}) {
		opts.Backoff = domain.DefaultBackoff()
	}
	if opts.Names == nil {
		opts.Names = infra.NewMemoryNames()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = defaultCheckpointEvery
	}

	e := &Extractor{
		opts:           opts,
		requests:       make(map[domain.Version]int64),
		resumeFrontier: make(map[domain.Version][]domain.Entry),
		resumed:        make(map[domain.Version]bool),
	}
	e.fetch = application.FetchService{
		Transport: opts.Transport,
		Admitter:  opts.Admitter,
		Specs:     opts.Specs,
	}

	if snap := opts.Resume; snap != nil {
		for v, names := range snap.Names {
			opts.Names.Restore(v, names)
		}
		for v, n := range snap.Requests {
			e.requests[v] = n
			// contador gravado significa que a versão já rodou; sem
			// fronteira gravada, ela terminou e não deve ressemear
			e.resumed[v] = true
		}
		for _, fe := range snap.Frontier {
			e.resumeFrontier[fe.Version] = append(e.resumeFrontier[fe.Version], fe)
		}
	}
	return e, nil
}

// Run explora as versões pedidas, uma por vez, compartilhando o limitador e o
// acumulador de nomes. versions vazio explora todas as Specs configuradas, em
// ordem de nome.
//
// Cancelamento do contexto interrompe a exploração preservando o estado: as
// entries em voo voltam à fronteira sem consumir tentativa e o snapshot final
// é gravado antes de retornar, junto com ctx.Err().
func (e *Extractor) Run(ctx context.Context, versions []domain.Version) (*Summary, error) {
	start := time.Now()

	if len(versions) == 0 {
		for v := range e.opts.Specs {
			versions = append(versions, v)
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	}

	summary := &Summary{
		Requests: make(map[domain.Version]int64),
		Found:    make(map[domain.Version]int),
	}

	for _, v := range versions {
		spec, ok := e.opts.Specs[v]
		if !ok {
			return nil, errors.New("extractor: no Spec configured for version " + string(v))
		}
		if err := e.runVersion(ctx, spec, summary); err != nil {
			summary.Elapsed = time.Since(start)
			e.fillSummary(summary)
			return summary, err
		}
	}

	summary.Elapsed = time.Since(start)
	e.fillSummary(summary)
	return summary, nil
}

func (e *Extractor) runVersion(ctx context.Context, spec domain.Spec, summary *Summary) error {
	frontier := infra.NewQueue()
	defer frontier.Close()

	sched := &application.Scheduler{
		Spec:     spec,
		Frontier: frontier,
		Names:    e.opts.Names,
		Backoff:  e.opts.Backoff,
		Logger:   e.opts.Logger,
	}

	if saved := e.resumeFrontier[spec.Version]; len(saved) > 0 {
		n := sched.Restore(saved)
		e.opts.Logger.Printf("resuming version %s: %d frontier entries restored", spec.Version, n)
	} else if e.resumed[spec.Version] {
		e.opts.Logger.Printf("version %s already complete in checkpoint, skipping", spec.Version)
		return ctx.Err()
	} else {
		sched.Seed()
	}

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, frontier, sched)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()

	ticker := time.NewTicker(e.opts.CheckpointEvery)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-done:
			break loop
		case <-ticker.C:
			e.opts.Logger.Printf("progress: version=%s queued=%d found=%s requests=%s",
				spec.Version, frontier.Len(), formatSizes(e.sizes()), formatCounts(e.snapshotRequests()))
			e.saveCheckpoint(ctx, frontier)
		}
	}

	// snapshot final da versão: fronteira vazia quando ela terminou, ou as
	// entries restantes quando o contexto foi cancelado
	e.finalCheckpoint(frontier)

	summary.Abandoned += sched.Abandoned()
	summary.DepthCapped += sched.DepthCapped()
	return ctx.Err()
}

func (e *Extractor) worker(ctx context.Context, frontier *infra.Queue, sched *application.Scheduler) {
	for {
		entry, ok := frontier.Pop(ctx)
		if !ok {
			return
		}

		out := e.fetch.Fetch(ctx, entry)
		if ctx.Err() != nil {
			// desligamento: devolve a entry sem consumir tentativa, para o
			// snapshot final encontrá-la na fronteira
			frontier.Requeue(entry)
			return
		}

		e.countRequest(entry.Version)

		added := 0
		switch out.Kind {
		case domain.OutcomeSuccess:
			added = sched.OnSuccess(entry, out)
		case domain.OutcomeRateLimited:
			e.opts.Logger.Printf("rate limited by server: version=%s prefix=%q retry-after=%s",
				entry.Version, entry.Prefix, out.RetryAfter)
			sched.OnFailure(entry, true)
		case domain.OutcomeTransient:
			sched.OnFailure(entry, true)
		case domain.OutcomeFatal:
			e.opts.Logger.Printf("FATAL response for version=%s prefix=%q: %v", entry.Version, entry.Prefix, out.Err)
			sched.OnFailure(entry, false)
		}

		if e.opts.Stats != nil {
			if err := e.opts.Stats.Record(ctx, domain.FetchEvent{
				Version:  entry.Version,
				Prefix:   entry.Prefix,
				Kind:     out.Kind,
				NewNames: added,
				At:       time.Now(),
			}); err != nil {
				e.opts.Logger.Printf("stats record failed (ignored): %v", err)
			}
		}
	}
}

func (e *Extractor) countRequest(v domain.Version) {
	e.mu.Lock()
	e.requests[v]++
	e.mu.Unlock()
}

func (e *Extractor) snapshotRequests() map[domain.Version]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[domain.Version]int64, len(e.requests))
	for k, v := range e.requests {
		out[k] = v
	}
	return out
}

func (e *Extractor) sizes() map[domain.Version]int {
	out := make(map[domain.Version]int, len(e.opts.Specs))
	for v := range e.opts.Specs {
		out[v] = e.opts.Names.Size(v)
	}
	return out
}

func (e *Extractor) saveCheckpoint(ctx context.Context, frontier *infra.Queue) {
	if e.opts.Checkpoint == nil {
		return
	}
	snap := domain.Snapshot{
		TakenAt:  time.Now(),
		Frontier: frontier.Pending(),
		Names:    make(map[domain.Version][]string, len(e.opts.Specs)),
		Requests: e.snapshotRequests(),
	}
	for v := range e.opts.Specs {
		snap.Names[v] = e.opts.Names.Names(v)
	}
	if err := e.opts.Checkpoint.Save(ctx, snap); err != nil {
		e.opts.Logger.Printf("checkpoint save failed (ignored): %v", err)
	}
}

// finalCheckpoint grava com contexto próprio: o contexto do Run pode já estar
// cancelado e o snapshot de desligamento é justamente o mais importante.
func (e *Extractor) finalCheckpoint(frontier *infra.Queue) {
	if e.opts.Checkpoint == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.saveCheckpoint(ctx, frontier)
}

func (e *Extractor) fillSummary(s *Summary) {
	for v, n := range e.snapshotRequests() {
		s.Requests[v] = n
	}
	for v, n := range e.sizes() {
		s.Found[v] = n
	}
}

// Names expõe o acumulador, para o binário exportar o vocabulário no fim.
func (e *Extractor) Names() domain.NameStore {
	return e.opts.Names
}
