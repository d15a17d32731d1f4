package domain

import "fmt"

// TradeAnalysis is a post-hoc qualitative scoring of a trade, produced by a
// process external to the ledger and attached by tradeId. Append-only; never
// alters ledger state.
type TradeAnalysis struct {
	TradeID   int64          `json:"tradeId"`
	Score     float64        `json:"score"`
	Sentiment string         `json:"sentiment"` // see Sentiment* constants
	Insights  []string       `json:"insights"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Sentiment constants
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ParseSentiment validates a persisted sentiment value.
func ParseSentiment(s string) (string, error) {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}
