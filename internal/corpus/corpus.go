// Package corpus loads and serves the static knowledge base: topic
// documents and property listings. The corpus is loaded once at startup
// and never mutated afterwards, so readers need no synchronization.
package corpus

import (
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"evabot/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	topicsFile   = "topics.yaml"
	listingsFile = "properties.yaml"
)

// LoadError reports a malformed corpus entry. Any LoadError aborts the
// whole load: a partially answerable corpus would hide gaps silently.
type LoadError struct {
	File   string
	Entry  string // offending id, or "entry N" when the id itself is missing
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("corpus load %s: %s: %s", e.File, e.Entry, e.Reason)
}

// Corpus is the immutable knowledge base.
type Corpus struct {
	topics   []domain.TopicDocument
	listings []domain.PropertyListing
	keywords []string // unique, in corpus insertion order
}

type topicsDoc struct {
	Topics []domain.TopicDocument `yaml:"topics"`
}

type listingsDoc struct {
	Listings []domain.PropertyListing `yaml:"listings"`
}

// Load reads topics.yaml and properties.yaml from dir. properties.yaml
// may be absent (a purely informational deployment); topics.yaml may not.
func Load(dir string, logger *slog.Logger) (*Corpus, error) {
	topicsPath := filepath.Join(dir, topicsFile)
	data, err := os.ReadFile(topicsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read corpus file %s: %w", topicsPath, err)
	}
	var td topicsDoc
	if err := yaml.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("cannot parse corpus file %s: %w", topicsPath, err)
	}

	var ld listingsDoc
	listingsPath := filepath.Join(dir, listingsFile)
	if data, err := os.ReadFile(listingsPath); err == nil {
		if err := yaml.Unmarshal(data, &ld); err != nil {
			return nil, fmt.Errorf("cannot parse corpus file %s: %w", listingsPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read corpus file %s: %w", listingsPath, err)
	} else {
		logger.Info("no property listings file, corpus has topics only", "path", listingsPath)
	}

	c, err := New(td.Topics, ld.Listings)
	if err != nil {
		return nil, err
	}

	logger.Info("corpus loaded",
		"topics", len(c.topics),
		"listings", len(c.listings),
		"keywords", len(c.keywords),
	)
	return c, nil
}

// New validates and assembles a corpus from already-parsed collections.
// Used directly by tests with synthetic corpora.
func New(topics []domain.TopicDocument, listings []domain.PropertyListing) (*Corpus, error) {
	seen := make(map[string]bool, len(topics)+len(listings))

	for i, t := range topics {
		entry := t.ID
		if entry == "" {
			entry = fmt.Sprintf("entry %d", i)
		}
		switch {
		case t.ID == "":
			return nil, &LoadError{File: topicsFile, Entry: entry, Reason: "missing id"}
		case seen[t.ID]:
			return nil, &LoadError{File: topicsFile, Entry: entry, Reason: "duplicate id"}
		case len(t.Keywords) == 0:
			return nil, &LoadError{File: topicsFile, Entry: entry, Reason: "empty keyword set"}
		case !validCategory(t.Category):
			return nil, &LoadError{File: topicsFile, Entry: entry, Reason: fmt.Sprintf("unknown category %q", t.Category)}
		}
		seen[t.ID] = true
	}

	for i, l := range listings {
		entry := l.ID
		if entry == "" {
			entry = fmt.Sprintf("entry %d", i)
		}
		switch {
		case l.ID == "":
			return nil, &LoadError{File: listingsFile, Entry: entry, Reason: "missing id"}
		case seen[l.ID]:
			return nil, &LoadError{File: listingsFile, Entry: entry, Reason: "duplicate id"}
		case len(l.Keywords) == 0:
			return nil, &LoadError{File: listingsFile, Entry: entry, Reason: "empty keyword set"}
		}
		seen[l.ID] = true
	}

	return &Corpus{
		topics:   topics,
		listings: listings,
		keywords: collectKeywords(topics, listings),
	}, nil
}

func validCategory(c domain.Category) bool {
	switch c {
	case domain.CategoryTourism, domain.CategoryWildlife, domain.CategoryCulture, domain.CategoryOther:
		return true
	}
	return false
}

// collectKeywords gathers the unique keyword set in insertion order; it
// seeds the fuzzy matcher's candidate space.
func collectKeywords(topics []domain.TopicDocument, listings []domain.PropertyListing) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}
	for _, t := range topics {
		for _, kw := range t.Keywords {
			add(kw)
		}
	}
	for _, l := range listings {
		for _, kw := range l.Keywords {
			add(kw)
		}
	}
	return out
}

// Topics returns all topic documents in insertion order.
func (c *Corpus) Topics() []domain.TopicDocument { return c.topics }

// Listings returns all property listings in insertion order.
func (c *Corpus) Listings() []domain.PropertyListing { return c.listings }

// TopicsByCategory returns a restartable lazy sequence of the topics in
// the given category, preserving insertion order.
func (c *Corpus) TopicsByCategory(cat domain.Category) iter.Seq[domain.TopicDocument] {
	return func(yield func(domain.TopicDocument) bool) {
		for _, t := range c.topics {
			if t.Category != cat {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// AllKeywords returns the unique keywords across topics and listings.
func (c *Corpus) AllKeywords() []string { return c.keywords }

// Topic looks up a topic document by id.
func (c *Corpus) Topic(id string) (domain.TopicDocument, bool) {
	for _, t := range c.topics {
		if t.ID == id {
			return t, true
		}
	}
	return domain.TopicDocument{}, false
}

// Listing looks up a property listing by id.
func (c *Corpus) Listing(id string) (domain.PropertyListing, bool) {
	for _, l := range c.listings {
		if l.ID == id {
			return l, true
		}
	}
	return domain.PropertyListing{}, false
}
