package sentiment

import (
	"testing"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

func TestScoreTextBullish(t *testing.T) {
	score, conf := ScoreText("Shares surge after earnings beat, analysts upgrade to buy")
	if score <= 0 {
		t.Fatalf("bullish headline scored %v", score)
	}
	if conf <= 0.2 {
		t.Fatalf("multi-keyword match should lift confidence, got %v", conf)
	}
}

func TestScoreTextBearish(t *testing.T) {
	score, _ := ScoreText("Stock plunges on fraud investigation, downgrade follows")
	if score >= 0 {
		t.Fatalf("bearish headline scored %v", score)
	}
}

func TestScoreTextNoSignal(t *testing.T) {
	score, conf := ScoreText("Company schedules annual general meeting")
	if score != 0 {
		t.Fatalf("neutral headline scored %v", score)
	}
	if conf != 0.1 {
		t.Fatalf("no-signal confidence = %v, want 0.1", conf)
	}
}

func TestAnnotate(t *testing.T) {
	articles := []models.NewsArticle{
		{Title: "Record high as rally continues"},
		{Title: "Slump deepens amid selloff"},
	}
	Annotate(articles)

	if articles[0].SentimentScore <= 0 || articles[0].SentimentLabel != "Bullish" {
		t.Errorf("article 0: %+v", articles[0])
	}
	if articles[1].SentimentScore >= 0 || articles[1].SentimentLabel != "Bearish" {
		t.Errorf("article 1: %+v", articles[1])
	}
}

func TestAggregateTimeDecay(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// A fresh bearish article must outweigh a week-old bullish one.
	articles := []models.NewsArticle{
		{Title: "Massive rally and breakout, strong buy", PublishedAt: now.AddDate(0, 0, -7)},
		{Title: "Crash deepens, selloff and fraud investigation", PublishedAt: now.Add(-1 * time.Hour)},
	}

	sig := Aggregate("ACME", articles, now)
	if sig.Score >= 0 {
		t.Fatalf("fresh bearish news should dominate, got score %v", sig.Score)
	}
	if sig.ArticleCount != 2 {
		t.Fatalf("article count = %d", sig.ArticleCount)
	}
}

func TestAggregateEmpty(t *testing.T) {
	sig := Aggregate("ACME", nil, time.Now())
	if sig.Score != 0 || sig.Label != "Neutral" || sig.ArticleCount != 0 {
		t.Fatalf("empty aggregate = %+v", sig)
	}
}

func TestLabelBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.5, "Bullish"},
		{0.2, "Slightly Bullish"},
		{0.0, "Neutral"},
		{-0.2, "Slightly Bearish"},
		{-0.5, "Bearish"},
	}
	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	sig := models.SentimentSignal{Label: "Bullish", ArticleCount: 12}
	if got := Summary(sig); got != "Bullish sentiment across 12 articles" {
		t.Fatalf("Summary() = %q", got)
	}
}
