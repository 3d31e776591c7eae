package domain

// IntentKind is the classified purpose of an inbound message.
type IntentKind string

const (
	IntentGreeting        IntentKind = "greeting"
	IntentDirectQuestion  IntentKind = "direct_question"
	IntentTopicLookup     IntentKind = "topic_lookup"
	IntentPropertyInquiry IntentKind = "property_inquiry"
	IntentMention         IntentKind = "mention"
	IntentNone            IntentKind = "none"
)

// QueryIntent is the per-message classification result. Created for each
// inbound message and discarded once a reply decision is made.
type QueryIntent struct {
	Kind    IntentKind
	RawText string
	// Terms are the stop-word-filtered tokens of the message, in original
	// order. They form the fuzzy-match query.
	Terms []string
	// Confidence is a fixed ordinal derived from the matched rule's
	// position. It is a tie-break hint for the composer, not a probability.
	Confidence float64
}

// OwesReply reports whether the classification contractually requires a
// reply. Only kind=none may stay silent.
func (q QueryIntent) OwesReply() bool {
	return q.Kind != IntentNone
}
