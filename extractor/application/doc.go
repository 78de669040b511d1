// Package application contém os casos de uso da extração: a consulta admitida
// pelo limitador (FetchService) e a política de expansão da fronteira
// (Scheduler).
//
// Ele depende apenas do pacote domain e não conhece HTTP, SQL ou Redis.
package application
