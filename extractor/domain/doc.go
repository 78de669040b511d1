// Package domain define contratos e tipos de domínio da extração de vocabulário.
//
// Este pacote não depende de net/http, SQL ou Redis.
// A intenção é permitir testes de unidade puros e desacoplar a política de
// exploração (fronteira, backoff, truncamento) de detalhes de infraestrutura.
package domain
