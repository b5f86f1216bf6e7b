// Package sentiment scores news articles with a keyword dictionary and
// aggregates them into a time-decayed signal for the scoring engine.
// The scorer is deterministic and fully offline.
package sentiment

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "accumulate": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"cut": 0.3, "miss": 0.5, "warning": 0.5, "concern": 0.3,
}

// ScoreText returns a sentiment score in [-1, 1] plus a confidence for a
// single headline or headline+description.
func ScoreText(text string) (score float64, confidence float64) {
	lower := strings.ToLower(text)

	bullScore := 0.0
	bearScore := 0.0
	matches := 0

	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bullScore += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bearScore += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}
	total := bullScore + bearScore
	if total == 0 {
		return 0, 0.1
	}

	score = (bullScore - bearScore) / total
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// Annotate fills the sentiment fields of each article in place and
// returns the slice for chaining.
func Annotate(articles []models.NewsArticle) []models.NewsArticle {
	for i := range articles {
		text := articles[i].Title
		if articles[i].Description != "" {
			text += " " + articles[i].Description
		}
		score, _ := ScoreText(text)
		articles[i].SentimentScore = score
		articles[i].SentimentLabel = Label(score)
	}
	return articles
}

// Aggregate computes the time-decayed signal across a set of annotated
// articles. Article weight halves every 24 hours of age.
func Aggregate(symbol string, articles []models.NewsArticle, now time.Time) models.SentimentSignal {
	if len(articles) == 0 {
		return models.SentimentSignal{
			Symbol:    symbol,
			Label:     "Neutral",
			Timestamp: now,
		}
	}

	weightedSum := 0.0
	totalWeight := 0.0
	confSum := 0.0

	for _, a := range articles {
		text := a.Title
		if a.Description != "" {
			text += " " + a.Description
		}
		score, conf := ScoreText(text)

		age := now.Sub(a.PublishedAt).Hours()
		if age < 0 {
			age = 0
		}
		timeWeight := math.Exp(-0.693 * age / 24) // half-life of one day
		w := timeWeight * conf

		weightedSum += score * w
		totalWeight += w
		confSum += conf
	}

	avgScore := 0.0
	if totalWeight > 0 {
		avgScore = weightedSum / totalWeight
	}

	return models.SentimentSignal{
		Symbol:       symbol,
		Score:        avgScore,
		Confidence:   confSum / float64(len(articles)),
		Label:        Label(avgScore),
		ArticleCount: len(articles),
		Timestamp:    now,
	}
}

// Label maps a score to its display label.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return "Bullish"
	case score > 0.1:
		return "Slightly Bullish"
	case score < -0.3:
		return "Bearish"
	case score < -0.1:
		return "Slightly Bearish"
	}
	return "Neutral"
}

// Summary renders a one-line description of a signal, e.g.
// "Bullish sentiment across 12 articles".
func Summary(sig models.SentimentSignal) string {
	return sig.Label + " sentiment across " + strconv.Itoa(sig.ArticleCount) + " articles"
}
