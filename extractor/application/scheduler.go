package application

import (
	"log"
	"sync"
	"time"

	"autocomplete-extractor/extractor/domain"
)

// Scheduler aplica a política de expansão de uma versão: semeia a fronteira,
// decide quando um resultado expande em prefixos mais longos e quando uma
// falha reenfileira ou abandona a entry.
type Scheduler struct {
	Spec     domain.Spec
	Frontier domain.Frontier
	Names    domain.NameStore
	Backoff  domain.BackoffPolicy
	Logger   *log.Logger

	// Now permite relógio determinístico em testes. nil usa time.Now.
	Now func() time.Time

	mu          sync.Mutex
	abandoned   int
	depthCapped int
}

// Seed enfileira todos os prefixos de tamanho 1 do alfabeto.
// Retorna quantos entraram (seeds repetidos não entram duas vezes).
func (s *Scheduler) Seed() int {
	n := 0
	for _, p := range s.Spec.Seeds() {
		if s.Frontier.Push(domain.Entry{Version: s.Spec.Version, Prefix: p}) {
			n++
		}
	}
	return n
}

// Restore reenfileira entries de um checkpoint, ignorando o backoff antigo
// (o processo acabou de subir; a janela de taxa está vazia).
func (s *Scheduler) Restore(entries []domain.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Version != s.Spec.Version {
			continue
		}
		e.NotBefore = time.Time{}
		if s.Frontier.Push(e) {
			n++
		}
	}
	return n
}

// OnSuccess registra os nomes e, se a resposta veio truncada, expande o
// prefixo nos filhos de tamanho+1. Resposta não truncada resolve a subárvore
// inteira: todo nome com esse prefixo apareceu no resultado.
//
// Retorna quantos nomes eram inéditos.
func (s *Scheduler) OnSuccess(e domain.Entry, out domain.Outcome) int {
	added := 0
	for _, name := range out.Names {
		if s.Names.Add(e.Version, name) {
			added++
		}
	}

	if out.Truncated {
		if domain.Depth(e.Prefix) >= s.Spec.MaxDepth {
			// truncamento no teto de profundidade: a busca pode ficar
			// incompleta neste ramo
			s.mu.Lock()
			s.depthCapped++
			s.mu.Unlock()
			s.logf("depth cap hit with truncation still reported: version=%s prefix=%q", e.Version, e.Prefix)
		} else {
			for _, child := range s.Spec.Children(e.Prefix) {
				s.Frontier.Push(domain.Entry{Version: e.Version, Prefix: child})
			}
		}
	}

	s.Frontier.Done(e)
	return added
}

// OnFailure reenfileira a entry com o próximo atraso de backoff, ou a abandona
// quando não é retentável ou as tentativas esgotaram. Abandono nunca aborta a
// exploração: só este prefixo é perdido.
func (s *Scheduler) OnFailure(e domain.Entry, retryable bool) {
	e.Attempts++

	if !retryable || s.Backoff.Exhausted(e.Attempts) {
		s.mu.Lock()
		s.abandoned++
		s.mu.Unlock()
		s.logf("abandoning prefix: version=%s prefix=%q attempts=%d retryable=%v", e.Version, e.Prefix, e.Attempts, retryable)
		s.Frontier.Done(e)
		return
	}

	e.NotBefore = s.now().Add(s.Backoff.Delay(e.Attempts))
	s.Frontier.Requeue(e)
}

// Abandoned conta prefixos desistidos (falha permanente).
func (s *Scheduler) Abandoned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandoned
}

// DepthCapped conta ramos em que o teto de profundidade cortou a expansão.
func (s *Scheduler) DepthCapped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthCapped
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
