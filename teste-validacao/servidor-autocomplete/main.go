// Servidor de autocomplete fake para validar o extractor na mão:
// vocabulário pequeno, truncamento por tamanho de página e um limite de
// 100 requisições por minuto propositalmente simplório.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

var vocabulario = []string{
	"aaron", "abel", "abigail", "adriana", "alice", "amanda", "ana",
	"beatriz", "bernardo", "bianca", "bruno",
	"caio", "camila", "carlos", "cecilia", "clara",
	"daniel", "davi", "debora", "diego",
	"eduarda", "elisa", "enzo", "erika",
	"fabiana", "felipe", "fernanda",
	"gabriel", "giovanna", "gustavo",
	"helena", "henrique",
	"mary-ann", "mary.jane", "o brien",
}

var pageSize = map[string]int{"v1": 10, "v2": 12, "v3": 15}

var (
	mu         sync.Mutex
	contagem   int
	janelaIni  = time.Now()
	janelaDur  = time.Minute
	limitePorJ = 100
)

func limitado() (bool, int) {
	mu.Lock()
	defer mu.Unlock()
	if time.Since(janelaIni) >= janelaDur {
		janelaIni = time.Now()
		contagem = 0
	}
	contagem++
	if contagem > limitePorJ {
		restante := janelaDur - time.Since(janelaIni)
		return true, int(restante.Seconds()) + 1
	}
	return false, 0
}

func main() {
	sort.Strings(vocabulario)

	for versao, tamanho := range pageSize {
		versao, tamanho := versao, tamanho
		http.HandleFunc("/"+versao+"/autocomplete", func(w http.ResponseWriter, r *http.Request) {
			if bloqueado, espera := limitado(); bloqueado {
				w.Header().Set("Retry-After", fmt.Sprint(espera))
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Println("Log: 429 para", r.URL.RawQuery)
				return
			}

			query := r.URL.Query().Get("query")
			if query == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			resultados := []string{}
			for _, nome := range vocabulario {
				if strings.HasPrefix(nome, query) {
					resultados = append(resultados, nome)
					if len(resultados) == tamanho {
						break
					}
				}
			}

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"version": versao,
				"count":   len(resultados),
				"results": resultados,
			})
		})
	}

	fmt.Println("Servidor de autocomplete rodando em http://localhost:8082")
	err := http.ListenAndServe(":8082", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
