package infra

import (
	"sort"
	"sync"

	"autocomplete-extractor/extractor/domain"
)

// MemoryNames é o acumulador em memória dos nomes descobertos: um set por
// versão, inserção idempotente sob mutex.
type MemoryNames struct {
	mu        sync.Mutex
	byVersion map[domain.Version]map[string]struct{}
}

func NewMemoryNames() *MemoryNames {
	return &MemoryNames{byVersion: make(map[domain.Version]map[string]struct{})}
}

// Add implementa domain.NameStore.
func (n *MemoryNames) Add(v domain.Version, name string) bool {
	if name == "" {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	set, ok := n.byVersion[v]
	if !ok {
		set = make(map[string]struct{})
		n.byVersion[v] = set
	}
	if _, dup := set[name]; dup {
		return false
	}
	set[name] = struct{}{}
	return true
}

// Size implementa domain.NameStore.
func (n *MemoryNames) Size(v domain.Version) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.byVersion[v])
}

// Names implementa domain.NameStore.
func (n *MemoryNames) Names(v domain.Version) []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, 0, len(n.byVersion[v]))
	for name := range n.byVersion[v] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Export implementa domain.NameStore: união entre versões, sem repetição.
func (n *MemoryNames) Export() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	union := make(map[string]struct{})
	for _, set := range n.byVersion {
		for name := range set {
			union[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for name := range union {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Restore implementa domain.NameStore.
func (n *MemoryNames) Restore(v domain.Version, names []string) {
	for _, name := range names {
		n.Add(v, name)
	}
}
