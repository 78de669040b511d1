package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"autocomplete-extractor/extractor/domain"
)

// Arquivo YAML opcional que sobrescreve os valores descobertos empiricamente
// por versão (alfabeto, especiais, tamanho de página, profundidade máxima):
//
//	versions:
//	  v1:
//	    alphabet: "abcdefghijklmnopqrstuvwxyz"
//	    page_size: 10
//	  v3:
//	    specials: "+-. "
//	    max_depth: 20
type specFile struct {
	Versions map[string]specOverride `yaml:"versions"`
}

type specOverride struct {
	Alphabet string `yaml:"alphabet"`
	Specials string `yaml:"specials"`
	PageSize int    `yaml:"page_size"`
	MaxDepth int    `yaml:"max_depth"`
}

// LoadSpecs parte de domain.DefaultSpecs e aplica os overrides do arquivo.
// Campos ausentes mantêm o padrão; versões desconhecidas criam specs novas.
func LoadSpecs(path string) (map[domain.Version]domain.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specs file: %w", err)
	}

	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse specs file: %w", err)
	}

	specs := domain.DefaultSpecs()
	for name, ov := range f.Versions {
		v := domain.Version(name)
		spec, ok := specs[v]
		if !ok {
			spec = domain.Spec{Version: v, MaxDepth: 16}
		}
		if ov.Alphabet != "" {
			spec.Alphabet = ov.Alphabet
		}
		if ov.Specials != "" {
			spec.Specials = ov.Specials
		}
		if ov.PageSize > 0 {
			spec.PageSize = ov.PageSize
		}
		if ov.MaxDepth > 0 {
			spec.MaxDepth = ov.MaxDepth
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("specs file: %w", err)
		}
		specs[v] = spec
	}
	return specs, nil
}
