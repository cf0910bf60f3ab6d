package formats

import (
	"fmt"
	"strings"
	"unicode"

	"gradledeps/internal/engine/graph"
)

func moduleLabel(path string, mod *graph.Module, deps int, metrics map[string]graph.ModuleMetrics) string {
	name := path
	if mod != nil && mod.Name != "" && path != ":" {
		name = fmt.Sprintf("%s (%s)", path, mod.Name)
	}
	parts := []string{fmt.Sprintf("%s\\n(%d deps)", name, deps)}
	if metric, ok := metrics[path]; ok {
		parts = append(parts, fmt.Sprintf("(d=%d in=%d out=%d)", metric.Depth, metric.FanIn, metric.FanOut))
	}
	if mod != nil && mod.IsApplication {
		parts = append(parts, "[application]")
	}
	return strings.Join(parts, "\\n")
}

func sanitizeID(module string) string {
	if module == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range module {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

// makeIDs assigns a unique diagram id per name; clashes after sanitizing get
// a numeric suffix in input order.
func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func toIDs(names []string, ids map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ",")
}

// cycleMembership maps each module in a cycle to the index of its cycle.
func cycleMembership(cycles [][]string) map[string]int {
	out := make(map[string]int)
	for i, cycle := range cycles {
		for _, mod := range cycle {
			out[mod] = i
		}
	}
	return out
}
