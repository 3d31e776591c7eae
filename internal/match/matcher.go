// Package match implements deterministic fuzzy matching of query text
// against corpus keywords. Pure functions over inputs: identical
// (query, candidates) pairs always rank identically.
package match

import (
	"slices"
	"strings"

	"evabot/internal/domain"

	"github.com/agnivade/levenshtein"
)

const defaultThreshold = 0.6

// Candidate is one document's label set offered to the matcher. Callers
// supply candidates in corpus insertion order; ties keep that order.
type Candidate struct {
	Ref    string   // corpus document id
	Labels []string // keywords plus title/location
}

// Matcher scores queries against candidate label sets.
type Matcher struct {
	threshold float64
}

func New(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured minimum similarity.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match ranks candidates against the query. A document's score is the
// maximum similarity across its labels; results below the threshold are
// dropped. Empty query or empty candidate set yields an empty result,
// never an error.
func (m *Matcher) Match(query string, candidates []Candidate) []domain.MatchResult {
	queryNorm := normalize(query)
	if queryNorm == "" || len(candidates) == 0 {
		return nil
	}
	terms := strings.Fields(queryNorm)

	var results []domain.MatchResult
	for _, cand := range candidates {
		best := 0.0
		matchedOn := ""
		for _, label := range cand.Labels {
			s := score(queryNorm, terms, label)
			if s > best {
				best = s
				matchedOn = label
			}
		}
		if best >= m.threshold {
			results = append(results, domain.MatchResult{
				DocID:     cand.Ref,
				Score:     best,
				MatchedOn: matchedOn,
			})
		}
	}

	// Stable: equal scores keep candidate (corpus insertion) order.
	slices.SortStableFunc(results, func(a, b domain.MatchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return results
}

// score rates one label against the whole query and each of its terms,
// keeping the best. A label appearing verbatim as a word of the query
// (or containing the whole query) is a full match.
func score(queryNorm string, terms []string, label string) float64 {
	labelNorm := normalize(label)
	if labelNorm == "" {
		return 0
	}

	if containsWord(queryNorm, labelNorm) || containsWord(labelNorm, queryNorm) {
		return 1
	}

	best := Similarity(queryNorm, labelNorm)
	for _, term := range terms {
		if s := Similarity(term, labelNorm); s > best {
			best = s
		}
	}
	return best
}

// Similarity is the normalized edit-distance similarity of two strings
// in [0,1]: 1 - distance/len(longer), over case- and
// whitespace-insensitive forms.
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// normalize lowercases and collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// containsWord reports whether needle occurs in haystack on word
// boundaries. Both arguments must already be normalized.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		startOK := start == 0 || haystack[start-1] == ' '
		endOK := end == len(haystack) || haystack[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}
