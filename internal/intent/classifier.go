// Package intent classifies inbound chat messages into discrete intents
// using an ordered rule list. Rules are evaluated top to bottom and the
// first match wins, so ambiguity is resolved deterministically and never
// surfaces as an error.
package intent

import (
	"log/slog"
	"slices"
	"strings"

	"evabot/internal/domain"
)

// Meta is the conversation metadata relevant to classification.
type Meta struct {
	ChatID   string
	SenderID string
	IsGroup  bool
}

// Config holds the configurable token sets. All matching is
// case-insensitive; multi-word entries match as phrases.
type Config struct {
	MentionTokens    []string
	GreetingWords    []string
	QuestionMarkers  []string
	PropertyKeywords []string
	DomainKeywords   []string
	Logger           *slog.Logger
}

// rule pairs a predicate with the intent it produces. Confidence is a
// fixed ordinal per rule position, used only as a tie-break hint.
type rule struct {
	kind       domain.IntentKind
	confidence float64
	matches    func(norm string) bool
}

// Classifier turns raw message text into a QueryIntent.
type Classifier struct {
	mentionTokens []string
	rules         []rule
	logger        *slog.Logger
}

func NewClassifier(cfg Config) *Classifier {
	// Pre-compute lowercase token sets to avoid repeated ToLower per message.
	mentions := lowerAll(cfg.MentionTokens)
	greetings := lowerAll(cfg.GreetingWords)
	markers := lowerAll(cfg.QuestionMarkers)
	property := lowerAll(cfg.PropertyKeywords)
	topics := lowerAll(cfg.DomainKeywords)

	c := &Classifier{
		mentionTokens: mentions,
		logger:        cfg.Logger,
	}

	isQuestion := func(norm string) bool {
		if strings.Contains(norm, "?") {
			return true
		}
		return containsAnyWord(norm, markers)
	}

	c.rules = []rule{
		// Mention tokens match whole words only, so "eva" does not fire
		// inside "relevant" and spam a group chat.
		{domain.IntentMention, 0.95, func(norm string) bool {
			return containsAnyWord(norm, mentions)
		}},
		{domain.IntentGreeting, 0.90, func(norm string) bool {
			return containsAnyWord(norm, greetings) && !isQuestion(norm)
		}},
		// Property inquiries outrank plain questions: "how much is the
		// windhoek property" is a pricing question, but the property
		// keyword is the stronger signal for routing.
		{domain.IntentPropertyInquiry, 0.80, func(norm string) bool {
			return containsAnyWord(norm, property)
		}},
		{domain.IntentDirectQuestion, 0.70, isQuestion},
		{domain.IntentTopicLookup, 0.60, func(norm string) bool {
			return containsAnyWord(norm, topics)
		}},
	}

	return c
}

// Classify applies the rule list to the message text. Group-chat text
// matching no rule yields kind=none, which callers must never answer.
func (c *Classifier) Classify(text string, meta Meta) domain.QueryIntent {
	norm := normalizeText(text)

	for _, r := range c.rules {
		if !r.matches(norm) {
			continue
		}
		query := norm
		if r.kind == domain.IntentMention {
			query = stripMentions(norm, c.mentionTokens)
		}
		qi := domain.QueryIntent{
			Kind:       r.kind,
			RawText:    text,
			Terms:      ExtractTerms(query),
			Confidence: r.confidence,
		}
		c.logger.Debug("message classified",
			"kind", qi.Kind,
			"terms", len(qi.Terms),
			"group", meta.IsGroup,
		)
		return qi
	}

	return domain.QueryIntent{Kind: domain.IntentNone, RawText: text}
}

// ExtractTerms tokenizes text, removes stop words, and preserves order.
// The result is used verbatim as the fuzzy-match query.
func ExtractTerms(text string) []string {
	var terms []string
	for _, tok := range strings.Fields(normalizeText(text)) {
		tok = strings.Trim(tok, "?!.,:;\"'()@#")
		if tok == "" || stopWords[tok] {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// containsAnyWord matches tokens on word boundaries only, so "hi"
// does not fire inside "this".
func containsAnyWord(norm string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && containsWord(norm, tok) {
			return true
		}
	}
	return false
}

func containsWord(haystack, needle string) bool {
	return indexWord(haystack, needle) >= 0
}

// indexWord returns the byte offset of the first word-boundary
// occurrence of needle in haystack, or -1.
func indexWord(haystack, needle string) int {
	idx := 0
	for idx <= len(haystack)-len(needle) {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(needle)
		startOK := start == 0 || !isWordByte(haystack[start-1])
		endOK := end == len(haystack) || !isWordByte(haystack[end])
		if startOK && endOK {
			return start
		}
		idx = start + 1
	}
	return -1
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// stripMentions removes word-boundary occurrences of the mention tokens
// so the remainder of the text becomes the query. Longer tokens go
// first so "eva" does not leave a fragment of "@evageisesbot" behind,
// and words merely containing a token ("evaluating") stay intact.
func stripMentions(norm string, mentions []string) string {
	ordered := make([]string, len(mentions))
	copy(ordered, mentions)
	slices.SortFunc(ordered, func(a, b string) int { return len(b) - len(a) })
	for _, tok := range ordered {
		if tok == "" {
			continue
		}
		norm = removeWord(norm, tok)
	}
	return norm
}

// removeWord deletes every word-boundary occurrence of needle, leaving
// a space in its place.
func removeWord(haystack, needle string) string {
	var b strings.Builder
	for {
		pos := indexWord(haystack, needle)
		if pos < 0 {
			b.WriteString(haystack)
			return b.String()
		}
		b.WriteString(haystack[:pos])
		b.WriteByte(' ')
		haystack = haystack[pos+len(needle):]
	}
}

// stopWords are filler tokens removed from extracted terms.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "what": true, "where": true, "when": true, "why": true,
	"how": true, "who": true, "which": true, "tell": true, "me": true,
	"about": true, "know": true, "please": true, "thanks": true,
	"thank": true, "you": true, "it": true, "its": true, "there": true,
}
