// Package respond renders reply text from classified intents and match
// results. Composition is pure: the same intent, matches, and rotation
// counter always produce the same text, and nothing here performs I/O.
package respond

import (
	"fmt"
	"strings"

	"evabot/internal/corpus"
	"evabot/internal/domain"
)

// Composer renders replies against a fixed corpus.
type Composer struct {
	botName string
	corpus  *corpus.Corpus
	seeAlso int
}

func New(botName string, c *corpus.Corpus, seeAlsoCount int) *Composer {
	if seeAlsoCount < 0 {
		seeAlsoCount = 0
	}
	return &Composer{botName: botName, corpus: c, seeAlso: seeAlsoCount}
}

// Compose produces the reply for an intent. An empty string means "say
// nothing", which happens only for kind=none; every other kind gets at
// least the fallback.
func (c *Composer) Compose(qi domain.QueryIntent, matches []domain.MatchResult, rotation int) string {
	switch qi.Kind {
	case domain.IntentNone:
		return ""
	case domain.IntentGreeting:
		return c.Greeting(rotation)
	}

	if len(matches) == 0 {
		return c.Fallback()
	}

	var b strings.Builder
	c.renderMatch(&b, matches[0])

	if extra := c.seeAlsoTitles(matches[1:]); len(extra) > 0 {
		b.WriteString("\n\nSee also: ")
		b.WriteString(strings.Join(extra, ", "))
	}
	return b.String()
}

// Greeting returns the rotation-th greeting. Rotation is owned by the
// caller so the composer stays stateless.
func (c *Composer) Greeting(rotation int) string {
	return greetings[abs(rotation)%len(greetings)]
}

// Fallback is the answer of last resort. Never empty: once a reply is
// owed, silence is not an option.
func (c *Composer) Fallback() string {
	return "I don't have an answer for that yet. Try /menu to see the topics I know about."
}

func (c *Composer) renderMatch(b *strings.Builder, m domain.MatchResult) {
	if t, ok := c.corpus.Topic(m.DocID); ok {
		fmt.Fprintf(b, "*%s*\n\n%s", t.Title, strings.TrimSpace(t.Body))
		return
	}
	if l, ok := c.corpus.Listing(m.DocID); ok {
		fmt.Fprintf(b, "🏠 *%s*\n💰 %s\n\n%s", l.Location, l.Price, strings.TrimSpace(l.Description))
		return
	}
	// Stale id between corpus reloads. Treat as no knowledge.
	b.WriteString(c.Fallback())
}

func (c *Composer) seeAlsoTitles(rest []domain.MatchResult) []string {
	var out []string
	for _, m := range rest {
		if len(out) == c.seeAlso {
			break
		}
		if t, ok := c.corpus.Topic(m.DocID); ok {
			out = append(out, t.Title)
		} else if l, ok := c.corpus.Listing(m.DocID); ok {
			out = append(out, l.Location)
		}
	}
	return out
}

// Menu renders the category overview. Derived from the corpus, not the
// matcher, so it works even when fuzzy search finds nothing.
func (c *Composer) Menu() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s's Menu*\n\n", c.botName)
	for _, cat := range domain.Categories() {
		n := 0
		for range c.corpus.TopicsByCategory(cat) {
			n++
		}
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "• %s (%d topics)\n", categoryLabel(cat), n)
	}
	if n := len(c.corpus.Listings()); n > 0 {
		fmt.Fprintf(&b, "• Properties (%d listings)\n", n)
	}
	b.WriteString("\nCommands: /topics /properties /stats /help")
	return b.String()
}

// Topics lists every topic title grouped by category.
func (c *Composer) Topics() string {
	var b strings.Builder
	b.WriteString("📚 *Topics*\n")
	for _, cat := range domain.Categories() {
		header := false
		for t := range c.corpus.TopicsByCategory(cat) {
			if !header {
				fmt.Fprintf(&b, "\n%s:\n", categoryLabel(cat))
				header = true
			}
			fmt.Fprintf(&b, "  • %s\n", t.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Properties lists every listing with location and price.
func (c *Composer) Properties() string {
	listings := c.corpus.Listings()
	if len(listings) == 0 {
		return "No property listings at the moment. Check back soon!"
	}
	var b strings.Builder
	b.WriteString("🏠 *Property Listings*\n")
	for _, l := range listings {
		fmt.Fprintf(&b, "\n• %s — %s\n  %s\n", l.Location, l.Price, strings.TrimSpace(l.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Welcome greets a newly joined group member.
func (c *Composer) Welcome() string {
	return fmt.Sprintf("👋 Welcome! I'm %s, your Namibia guide. Ask me anything about travel, wildlife, culture, or property, or send /menu to browse.", c.botName)
}

// Start is the reply to /start.
func (c *Composer) Start() string {
	return fmt.Sprintf("Hello! I'm %s 🇳🇦\n\nI answer questions about Namibia: tourism, wildlife, culture, and property listings.\n\nSend /menu to see what I know, or just ask.", c.botName)
}

// Help is the reply to /help.
func (c *Composer) Help() string {
	return "Commands:\n" +
		"/start — introduction\n" +
		"/menu — category overview\n" +
		"/topics — all topics\n" +
		"/properties — property listings\n" +
		"/stats — usage statistics\n" +
		"/help — this message\n\n" +
		"Or just ask a question, e.g. \"best time to visit Etosha?\""
}

// StatsReport renders store statistics for /stats.
func (c *Composer) StatsReport(s domain.StoreStats) string {
	var b strings.Builder
	b.WriteString("📊 *Statistics*\n\n")
	fmt.Fprintf(&b, "Queries answered: %d\n", s.TotalQueries)
	fmt.Fprintf(&b, "Chats known: %d\n", s.KnownChats)
	for _, kind := range []domain.IntentKind{
		domain.IntentMention,
		domain.IntentGreeting,
		domain.IntentDirectQuestion,
		domain.IntentPropertyInquiry,
		domain.IntentTopicLookup,
	} {
		if n := s.ByIntent[kind]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", kind, n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// DailyPost renders the scheduled daily property post, rotating through
// the listings and closing with a rotating fact. Empty when the corpus
// carries no listings.
func (c *Composer) DailyPost(rotation int) string {
	listings := c.corpus.Listings()
	if len(listings) == 0 {
		return ""
	}
	l := listings[abs(rotation)%len(listings)]
	var b strings.Builder
	b.WriteString("🏠 *Property of the Day*\n\n")
	fmt.Fprintf(&b, "📍 %s\n💰 %s\n\n%s\n\n", l.Location, l.Price, strings.TrimSpace(l.Description))
	b.WriteString(c.Fact(rotation))
	return b.String()
}

// Fact returns the rotation-th Namibia fact.
func (c *Composer) Fact(rotation int) string {
	return facts[abs(rotation)%len(facts)]
}

func categoryLabel(cat domain.Category) string {
	switch cat {
	case domain.CategoryTourism:
		return "Tourism"
	case domain.CategoryWildlife:
		return "Wildlife"
	case domain.CategoryCulture:
		return "Culture"
	default:
		return "Other"
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
