package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Normalize приводит название к виду для точного сравнения.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func tokens(name string) []string {
	return strings.Fields(Normalize(name))
}

// Scorer возвращает похожесть двух названий в [0,1].
type Scorer func(a, b string) float64

// WordOverlap: доля слов a, которые встречаются в b.
func WordOverlap(a, b string) float64 {
	ta := tokens(a)
	if len(ta) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(ta))
	for _, w := range ta {
		set[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(set))
	for _, w := range tokens(b) {
		if _, ok := set[w]; ok {
			seen[w] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(len(set))
}

// TokenSortRatio сравнивает названия без учёта порядка слов.
func TokenSortRatio(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	sort.Strings(ta)
	sort.Strings(tb)
	sa, sb := strings.Join(ta, " "), strings.Join(tb, " ")
	if sa == "" && sb == "" {
		return 1
	}
	maxLen := len([]rune(sa))
	if n := len([]rune(sb)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(sa, sb)
	return 1 - float64(d)/float64(maxLen)
}

// Best: кандидаты со score >= threshold, лучшие первыми, не больше limit (0 = без лимита).
func Best(name string, candidates []string, score Scorer, threshold float64, limit int) []Match {
	var out []Match
	for _, c := range candidates {
		if s := score(name, c); s >= threshold {
			out = append(out, Match{Name: c, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Strategy: один способ найти соответствия названию в другом справочнике.
type Strategy interface {
	Name() string
	Lookup(name string) []string
}

// Chain перебирает стратегии по порядку, первая непустая выигрывает.
type Chain []Strategy

func (c Chain) Lookup(name string) (string, []string) {
	for _, s := range c {
		if found := s.Lookup(name); len(found) > 0 {
			return s.Name(), found
		}
	}
	return "", nil
}

// ManualStrategy: таблица ручных сопоставлений, ключ сравнивается как есть.
type ManualStrategy struct {
	table map[string][]string
}

func NewManualStrategy(aliases []Alias) *ManualStrategy {
	m := &ManualStrategy{table: map[string][]string{}}
	for _, a := range aliases {
		m.table[a.POSName] = append(m.table[a.POSName], a.InvoiceName)
	}
	return m
}

func (m *ManualStrategy) Name() string { return "manual" }

func (m *ManualStrategy) Lookup(name string) []string { return m.table[name] }

// ExactStrategy: совпадение после Normalize.
type ExactStrategy struct {
	byKey map[string][]string
}

func NewExactStrategy(names []string) *ExactStrategy {
	e := &ExactStrategy{byKey: map[string][]string{}}
	for _, n := range names {
		k := Normalize(n)
		e.byKey[k] = append(e.byKey[k], n)
	}
	return e
}

func (e *ExactStrategy) Name() string { return "exact" }

func (e *ExactStrategy) Lookup(name string) []string { return e.byKey[Normalize(name)] }

// FuzzyStrategy: похожесть по Scorer не ниже порога.
type FuzzyStrategy struct {
	names     []string
	score     Scorer
	threshold float64
	limit     int
}

func NewFuzzyStrategy(names []string, score Scorer, threshold float64, limit int) *FuzzyStrategy {
	return &FuzzyStrategy{names: names, score: score, threshold: threshold, limit: limit}
}

func (f *FuzzyStrategy) Name() string { return "fuzzy" }

func (f *FuzzyStrategy) Lookup(name string) []string {
	matches := Best(name, f.names, f.score, f.threshold, f.limit)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Name)
	}
	return out
}
