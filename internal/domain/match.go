package domain

// MatchResult is one ranked corpus hit for a query. Results are ordered by
// descending score; equal scores keep corpus insertion order.
type MatchResult struct {
	DocID     string
	Score     float64 // in [0,1], always >= the caller's threshold
	MatchedOn string  // keyword or title that produced the score
}
