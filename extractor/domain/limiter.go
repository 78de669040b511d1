package domain

import "time"

// Admitter decide quanto o chamador deve esperar antes da próxima requisição
// para manter a taxa global dentro do teto configurado.
//
// Observação: a implementação pode ser janela deslizante, token-bucket, etc.
// A camada de infra pode usar libs como golang.org/x/time/rate.
type Admitter interface {
	// Admit reserva uma vaga e retorna a espera necessária. A decisão e o
	// registro do timestamp são atômicos: esperas honradas por chamadores
	// concorrentes nunca estouram o teto da janela.
	Admit() time.Duration

	// Penalize trata os próximos d como janela cheia. Usado após um 429 do
	// servidor para não reatacar o limite mesmo com capacidade local.
	Penalize(d time.Duration)
}
