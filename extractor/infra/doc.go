// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - SlidingWindow / TokenBucket: admissão de requisições contra o teto de taxa
//   - Queue: fronteira concorrente de prefixos com dedup e backoff por entry
//   - Client: consulta HTTP ao endpoint de autocomplete + classificação
//   - MemoryStats / RedisStats: estatísticas da extração
//   - SQLiteCheckpoint: snapshots para retomada de execução
package infra
