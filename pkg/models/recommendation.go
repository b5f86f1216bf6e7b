package models

import "time"

// Rating is the final investment rating.
type Rating string

const (
	RatingBuy  Rating = "BUY"
	RatingHold Rating = "HOLD"
	RatingSell Rating = "SELL"
)

// ScoreFactor is one contributing term of the composite score. Weight is
// signed: the factor pushed the score in the direction of its sign.
type ScoreFactor struct {
	Category string  `json:"category"` // "profitability", "valuation", "solvency", "momentum", "sentiment"
	Name     string  `json:"name"`     // e.g., "net_margin"
	Value    float64 `json:"value"`    // normalized contribution in [-1, 1]
	Weight   float64 `json:"weight"`   // signed effective weight in the composite
}

// Recommendation is the scored output for one symbol. Field names and
// casing are bound by the dashboard and must stay stable.
type Recommendation struct {
	Symbol      string        `json:"symbol"`
	Rating      Rating        `json:"rating"`
	Score       float64       `json:"score"` // composite, typically in [-1, 1]
	TargetPrice float64       `json:"targetPrice"`
	Confidence  float64       `json:"confidence"` // always in [0, 1]
	Analysis    string        `json:"analysis"`
	KeyPoints   []string      `json:"keyPoints"`
	Factors     []ScoreFactor `json:"factors"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
