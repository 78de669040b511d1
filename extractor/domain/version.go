package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Version identifica uma versão da API de autocomplete.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
	V3 Version = "v3"
)

// Spec descreve o comportamento observado de uma versão da API.
//
// PageSize é o tamanho máximo de página observado empiricamente: quando uma
// resposta devolve PageSize nomes, há evidência de truncamento e o prefixo
// precisa ser expandido. Esses valores não são documentados pelo endpoint,
// então tudo aqui pode ser sobrescrito por configuração.
type Spec struct {
	Version  Version
	Alphabet string // símbolos válidos para compor queries, em ordem de expansão
	Specials string // subconjunto do alfabeto que não pode aparecer em sequência
	PageSize int    // limiar de truncamento (tamanho máximo de página)
	MaxDepth int    // trava de segurança contra respostas que reportam truncamento para sempre
}

// DefaultSpecs devolve as três versões conhecidas com os valores observados
// contra o endpoint real.
func DefaultSpecs() map[Version]Spec {
	const (
		lower    = "abcdefghijklmnopqrstuvwxyz"
		digits   = "0123456789"
		specials = "+-. "
	)
	return map[Version]Spec{
		V1: {Version: V1, Alphabet: lower, PageSize: 10, MaxDepth: 16},
		V2: {Version: V2, Alphabet: lower + digits, PageSize: 12, MaxDepth: 16},
		V3: {Version: V3, Alphabet: lower + digits + specials, Specials: specials, PageSize: 15, MaxDepth: 16},
	}
}

// Validate falha cedo em configurações que tornariam a exploração incorreta.
// Erros aqui abortam o processo antes de qualquer requisição.
func (s Spec) Validate() error {
	if s.Version == "" {
		return errors.New("spec: version is required")
	}
	if s.Alphabet == "" {
		return fmt.Errorf("spec %s: alphabet must not be empty", s.Version)
	}
	seen := make(map[rune]bool, len(s.Alphabet))
	for _, r := range s.Alphabet {
		if seen[r] {
			return fmt.Errorf("spec %s: alphabet repeats %q", s.Version, r)
		}
		seen[r] = true
	}
	for _, r := range s.Specials {
		if !seen[r] {
			return fmt.Errorf("spec %s: special %q is not in the alphabet", s.Version, r)
		}
	}
	if s.PageSize <= 0 {
		return fmt.Errorf("spec %s: page size must be > 0", s.Version)
	}
	if s.MaxDepth <= 0 {
		return fmt.Errorf("spec %s: max depth must be > 0", s.Version)
	}
	return nil
}

// Truncated interpreta o count de uma resposta.
// Usa >= em vez de == para que respostas maiores que uma página ainda expandam.
func (s Spec) Truncated(count int) bool {
	return count >= s.PageSize
}

func (s Spec) special(r rune) bool {
	return strings.ContainsRune(s.Specials, r)
}

// Seeds devolve os prefixos iniciais (todos os símbolos de tamanho 1).
func (s Spec) Seeds() []string {
	out := make([]string, 0, len(s.Alphabet))
	for _, r := range s.Alphabet {
		out = append(out, string(r))
	}
	return out
}

// Children expande um prefixo truncado nos filhos de tamanho+1, respeitando a
// regra de que dois caracteres especiais consecutivos nunca formam query válida.
func (s Spec) Children(prefix string) []string {
	runes := []rune(prefix)
	lastSpecial := len(runes) > 0 && s.special(runes[len(runes)-1])

	out := make([]string, 0, len(s.Alphabet))
	for _, r := range s.Alphabet {
		if lastSpecial && s.special(r) {
			continue
		}
		out = append(out, prefix+string(r))
	}
	return out
}

// ValidQuery verifica se uma query respeita o alfabeto e a regra de especiais.
// Uma query inválida enviada ao endpoint é bug de lógica, não erro de rede.
func (s Spec) ValidQuery(q string) bool {
	if q == "" {
		return false
	}
	prevSpecial := false
	for _, r := range q {
		if !strings.ContainsRune(s.Alphabet, r) {
			return false
		}
		sp := s.special(r)
		if sp && prevSpecial {
			return false
		}
		prevSpecial = sp
	}
	return true
}

// Depth é a profundidade de um prefixo em símbolos (não bytes).
func Depth(prefix string) int {
	return len([]rune(prefix))
}
