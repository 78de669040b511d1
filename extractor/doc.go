// Package extractor orquestra a enumeração do vocabulário de um endpoint de
// autocomplete por expansão de prefixos.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de HTTP/SQL/Redis)
//   - application: casos de uso (consulta admitida, política de expansão) sem I/O
//   - infra: implementações concretas (janela deslizante, fila de fronteira,
//     cliente HTTP, stores de estatística e checkpoint)
//   - extractor (este pacote): pool de workers + wiring + detecção de término
//
// Fluxo de uma exploração:
//
//  1. A fronteira é semeada com todos os prefixos de tamanho 1 do alfabeto
//  2. Workers tiram prefixos da fronteira, esperam a admissão do limitador e
//     consultam o endpoint
//  3. Resposta truncada (count no tamanho de página) expande o prefixo nos
//     filhos de tamanho+1; resposta completa resolve a subárvore inteira
//  4. Falhas retentáveis voltam à fronteira com backoff exponencial; 429
//     penaliza o limitador global
//  5. A versão termina quando a fronteira esvazia sem nenhuma entry em voo
//
// Variáveis de ambiente do binário (cmd/extractor) controlam o comportamento,
// como BASE_URL, RATE_LIMIT, RATE_WINDOW, WORKERS e CHECKPOINT_DB.
package extractor
