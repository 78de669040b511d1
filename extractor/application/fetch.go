package application

import (
	"context"
	"time"

	"autocomplete-extractor/extractor/domain"
)

// cooldown aplicado após um 429 sem Retry-After. O endpoint real conta a
// janela em minutos, então menos que isso só reatacaria o limite.
const defaultCooldown = 60 * time.Second

// FetchService executa uma única tentativa de consulta: espera a admissão do
// limitador, chama o transporte e resolve o truncamento pela Spec da versão.
//
// Retentativa é responsabilidade do Scheduler; aqui uma chamada = uma tentativa.
type FetchService struct {
	Transport domain.Transport
	Admitter  domain.Admitter
	Specs     map[domain.Version]domain.Spec

	// Sleep permite injetar a espera em testes. nil usa a implementação
	// padrão, que respeita o contexto.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fetch consulta o prefixo de uma entry e devolve o resultado classificado.
//
// Após um OutcomeRateLimited o limitador é penalizado pelo Retry-After do
// servidor (ou por um cooldown padrão), para que os próximos Admit de todos os
// workers já levem a rejeição em conta.
func (s FetchService) Fetch(ctx context.Context, e domain.Entry) domain.Outcome {
	if s.Admitter != nil {
		if wait := s.Admitter.Admit(); wait > 0 {
			if err := s.sleep(ctx, wait); err != nil {
				return domain.Outcome{Kind: domain.OutcomeTransient, Err: err}
			}
		}
	}

	out := s.Transport.Do(ctx, e.Version, e.Prefix)

	switch out.Kind {
	case domain.OutcomeSuccess:
		if out.Count < len(out.Names) {
			out.Count = len(out.Names)
		}
		if spec, ok := s.Specs[e.Version]; ok {
			out.Truncated = spec.Truncated(out.Count)
		}
	case domain.OutcomeRateLimited:
		if s.Admitter != nil {
			d := out.RetryAfter
			if d <= 0 {
				d = defaultCooldown
			}
			s.Admitter.Penalize(d)
		}
	}
	return out
}

func (s FetchService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
