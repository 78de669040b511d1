// Formatação estável de contadores por versão para logs. Mapas iteram em ordem
// aleatória e logs de progresso ficam ilegíveis se a ordem muda a cada linha.

package extractor

import (
	"sort"
	"strconv"
	"strings"

	"autocomplete-extractor/extractor/domain"
)

func formatCounts(m map[domain.Version]int64) string {
	keys := make([]string, 0, len(m))
	for v := range m {
		keys = append(keys, string(v))
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(m[domain.Version(k)], 10))
	}
	return b.String()
}

func formatSizes(m map[domain.Version]int) string {
	out := make(map[domain.Version]int64, len(m))
	for k, v := range m {
		out[k] = int64(v)
	}
	return formatCounts(out)
}
