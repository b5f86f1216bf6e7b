package models

import "time"

// NewsArticle is a single news item about a symbol. Sentiment fields are
// filled by the keyword scorer when the upstream source carries none.
type NewsArticle struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	URL            string    `json:"url"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `json:"publishedAt"`
	SentimentLabel string    `json:"sentimentLabel,omitempty"` // "Bullish", "Bearish", "Neutral"
	SentimentScore float64   `json:"sentimentScore,omitempty"` // -1.0 to +1.0
}

// SentimentSignal is the aggregated news sentiment for a symbol, consumed
// as an optional input by the scoring engine.
type SentimentSignal struct {
	Symbol       string    `json:"symbol"`
	Score        float64   `json:"score"` // -1.0 to +1.0, time-decay weighted
	Confidence   float64   `json:"confidence"`
	Label        string    `json:"label"`
	ArticleCount int       `json:"article_count"`
	Timestamp    time.Time `json:"timestamp"`
}
