// Package scoring turns computed ratios, price momentum and an optional
// sentiment signal into a weighted BUY/HOLD/SELL recommendation. The
// engine is pure: given identical inputs it always produces the same
// recommendation (timestamps aside).
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/pkg/models"
)

// Category names used in score factors.
const (
	CategoryProfitability = "profitability"
	CategoryValuation     = "valuation"
	CategorySolvency      = "solvency"
	CategoryMomentum      = "momentum"
	CategorySentiment     = "sentiment"
)

// Engine computes recommendations using configured weights and
// thresholds.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine creates a scoring engine. Zero-valued configs fall back to
// the shipped defaults so a hand-constructed ScoringConfig{} behaves.
func NewEngine(cfg config.ScoringConfig) *Engine {
	if cfg.WeightProfitability+cfg.WeightValuation+cfg.WeightSolvency+cfg.WeightMomentum+cfg.WeightSentiment == 0 {
		cfg = config.Default().Scoring
	}
	if cfg.MaxExpectedReturn <= 0 {
		cfg.MaxExpectedReturn = 0.30
	}
	if cfg.BuyThreshold == 0 && cfg.SellThreshold == 0 {
		cfg.BuyThreshold = 0.25
		cfg.SellThreshold = -0.25
	}
	return &Engine{cfg: cfg}
}

// Input bundles everything the engine consumes. Sentiment is optional;
// History may be empty, in which case the momentum category is skipped.
type Input struct {
	Snapshot  *models.FundamentalsSnapshot
	Ratios    models.RatioSet
	DuPont    models.DuPontBreakdown
	Sentiment *models.SentimentSignal
}

// term is one normalized scoring contribution in [-1, 1].
type term struct {
	name  string
	value float64
}

// Score produces the recommendation for one symbol.
//
// Each computable ratio contributes a sign-oriented term: higher margins
// and returns push positive, higher leverage and richer multiples push
// negative. The composite is the weighted average over the categories
// that produced at least one term, so missing data shrinks confidence
// instead of dragging the score toward zero.
func (e *Engine) Score(in Input) models.Recommendation {
	categories := []struct {
		name   string
		weight float64
		terms  []term
	}{
		{CategoryProfitability, e.cfg.WeightProfitability, profitabilityTerms(in.Ratios)},
		{CategoryValuation, e.cfg.WeightValuation, valuationTerms(in.Ratios)},
		{CategorySolvency, e.cfg.WeightSolvency, solvencyTerms(in.Ratios, in.DuPont)},
		{CategoryMomentum, e.cfg.WeightMomentum, momentumTerms(in.Snapshot)},
		{CategorySentiment, e.cfg.WeightSentiment, sentimentTerms(in.Sentiment)},
	}

	var (
		weightedSum   float64
		presentWeight float64
		totalWeight   float64
		factors       []models.ScoreFactor
	)
	for _, cat := range categories {
		totalWeight += cat.weight
		if len(cat.terms) == 0 {
			continue
		}
		var avg float64
		perTerm := cat.weight / float64(len(cat.terms))
		for _, t := range cat.terms {
			avg += t.value
			w := perTerm
			if t.value < 0 {
				w = -w
			}
			factors = append(factors, models.ScoreFactor{
				Category: cat.name,
				Name:     t.name,
				Value:    t.value,
				Weight:   w,
			})
		}
		avg /= float64(len(cat.terms))
		weightedSum += cat.weight * avg
		presentWeight += cat.weight
	}

	var score float64
	if presentWeight > 0 {
		score = weightedSum / presentWeight
	}
	score = clamp(score, -1, 1)

	rating := models.RatingHold
	switch {
	case score >= e.cfg.BuyThreshold:
		rating = models.RatingBuy
	case score <= e.cfg.SellThreshold:
		rating = models.RatingSell
	}

	rec := models.Recommendation{
		Rating:      rating,
		Score:       round4(score),
		Confidence:  e.confidence(in, presentWeight, totalWeight),
		Factors:     factors,
		GeneratedAt: time.Now().UTC(),
	}
	if in.Snapshot != nil {
		rec.Symbol = in.Snapshot.Symbol
		rec.TargetPrice = e.targetPrice(in.Snapshot, score)
	}
	rec.KeyPoints = keyPoints(in, factors)
	rec.Analysis = analysisText(rec, in)
	return rec
}

// targetPrice maps the composite score to an expected return, linear and
// monotonic non-decreasing: +1 -> +MaxExpectedReturn, -1 -> -MaxExpectedReturn.
func (e *Engine) targetPrice(snap *models.FundamentalsSnapshot, score float64) float64 {
	if !snap.Price.Valid || snap.Price.Value <= 0 {
		return 0
	}
	return round2(snap.Price.Value * (1 + score*e.cfg.MaxExpectedReturn))
}

// confidence combines input coverage with inverse price volatility and
// is always clamped to [0, 1].
func (e *Engine) confidence(in Input, presentWeight, totalWeight float64) float64 {
	coverage := 0.0
	if totalWeight > 0 {
		coverage = presentWeight / totalWeight
	}

	volFactor := 1.0
	if in.Snapshot != nil && len(in.Snapshot.History) >= 20 {
		vol := dailyVolatility(in.Snapshot.History)
		// 1% daily stddev is calm, 4%+ is turbulent.
		volFactor = clamp(1.0-(vol-0.01)*25, 0.3, 1.0)
	}

	return round4(clamp(coverage*volFactor, 0, 1))
}

// --- Category terms ---

// profitabilityTerms normalizes margin and return ratios. A 20% net
// margin, 25% ROE or 10% ROA saturates its term at +1; revenue growth
// saturates at ±30% YoY.
func profitabilityTerms(rs models.RatioSet) []term {
	var terms []term
	if rs.NetMargin.Computable {
		terms = append(terms, term{"net_margin", clamp(rs.NetMargin.Value/20, -1, 1)})
	}
	if rs.ROE.Computable {
		terms = append(terms, term{"roe", clamp(rs.ROE.Value/25, -1, 1)})
	}
	if rs.ROA.Computable {
		terms = append(terms, term{"roa", clamp(rs.ROA.Value/10, -1, 1)})
	}
	if rs.RevenueGrowthYoY.Computable {
		terms = append(terms, term{"revenue_growth_yoy", clamp(rs.RevenueGrowthYoY.Value/30, -1, 1)})
	}
	return terms
}

// valuationTerms rewards cheap multiples. PE 25 is neutral, PE 10 or
// lower is strongly positive, PE 40 or higher strongly negative. An
// earnings-negative (non-computable) PE simply drops out.
func valuationTerms(rs models.RatioSet) []term {
	var terms []term
	if rs.PE.Computable && rs.PE.Value > 0 {
		terms = append(terms, term{"pe", clamp((25-rs.PE.Value)/15, -1, 1)})
	}
	if rs.PB.Computable && rs.PB.Value > 0 {
		terms = append(terms, term{"pb", clamp((4-rs.PB.Value)/3, -1, 1)})
	}
	if rs.DividendYield.Computable && rs.DividendYield.Value > 0 {
		terms = append(terms, term{"dividend_yield", clamp(rs.DividendYield.Value/5, 0, 1)})
	}
	return terms
}

// solvencyTerms penalizes leverage and rewards liquidity. Debt-to-equity
// of 0 scores +1, 2 or higher scores -1. The DuPont equity multiplier
// adds a balance-sheet leverage term: 1x (debt-free) scores +1, 3x is
// neutral, 5x or higher scores -1.
func solvencyTerms(rs models.RatioSet, dp models.DuPontBreakdown) []term {
	var terms []term
	if rs.DebtToEquity.Computable {
		terms = append(terms, term{"debt_to_equity", clamp(1-rs.DebtToEquity.Value, -1, 1)})
	}
	if rs.CurrentRatio.Computable {
		terms = append(terms, term{"current_ratio", clamp(rs.CurrentRatio.Value-1, -1, 1)})
	}
	if rs.InterestCoverage.Computable {
		terms = append(terms, term{"interest_coverage", clamp((rs.InterestCoverage.Value-2)/8, -1, 1)})
	}
	if dp.EquityMultiplier.Computable && dp.EquityMultiplier.Value > 0 {
		terms = append(terms, term{"equity_multiplier", clamp((3-dp.EquityMultiplier.Value)/2, -1, 1)})
	}
	return terms
}

// momentumTerms derives trend terms from the daily close history: total
// return over the window (±30% saturates) and position within the
// window's own range.
func momentumTerms(snap *models.FundamentalsSnapshot) []term {
	if snap == nil || len(snap.History) < 20 {
		return nil
	}
	h := snap.History
	first, last := h[0].Close, h[len(h)-1].Close
	if first <= 0 {
		return nil
	}

	terms := []term{
		{"window_return", clamp((last-first)/first/0.3, -1, 1)},
	}

	lo, hi := h[0].Close, h[0].Close
	for _, p := range h {
		if p.Close < lo {
			lo = p.Close
		}
		if p.Close > hi {
			hi = p.Close
		}
	}
	if hi > lo {
		// 0 at the bottom of the range, 1 at the top, recentered to [-1, 1].
		terms = append(terms, term{"range_position", (last-lo)/(hi-lo)*2 - 1})
	}
	return terms
}

func sentimentTerms(sig *models.SentimentSignal) []term {
	if sig == nil || sig.ArticleCount == 0 {
		return nil
	}
	return []term{{"news_sentiment", clamp(sig.Score, -1, 1)}}
}

// --- Narrative ---

// keyPoints picks the strongest factors as short human-readable bullets,
// ordered by magnitude with positives ahead of equally strong negatives.
func keyPoints(in Input, factors []models.ScoreFactor) []string {
	sorted := make([]models.ScoreFactor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := math.Abs(sorted[i].Value), math.Abs(sorted[j].Value)
		if ai != aj {
			return ai > aj
		}
		return sorted[i].Value > sorted[j].Value
	})

	var points []string
	for _, f := range sorted {
		if len(points) >= 5 {
			break
		}
		points = append(points, factorPoint(f, in))
	}
	return points
}

func factorPoint(f models.ScoreFactor, in Input) string {
	rs := in.Ratios
	direction := "supports the rating"
	if f.Value < 0 {
		direction = "weighs on the rating"
	}
	switch f.Name {
	case "net_margin":
		return fmt.Sprintf("Net margin of %.1f%% %s", rs.NetMargin.Value, direction)
	case "roe":
		return fmt.Sprintf("Return on equity of %.1f%% %s", rs.ROE.Value, direction)
	case "roa":
		return fmt.Sprintf("Return on assets of %.1f%% %s", rs.ROA.Value, direction)
	case "revenue_growth_yoy":
		return fmt.Sprintf("Revenue growth of %.1f%% YoY %s", rs.RevenueGrowthYoY.Value, direction)
	case "pe":
		return fmt.Sprintf("P/E of %.1f %s", rs.PE.Value, direction)
	case "pb":
		return fmt.Sprintf("P/B of %.1f %s", rs.PB.Value, direction)
	case "dividend_yield":
		return fmt.Sprintf("Dividend yield of %.1f%% %s", rs.DividendYield.Value, direction)
	case "debt_to_equity":
		return fmt.Sprintf("Debt-to-equity of %.2f %s", rs.DebtToEquity.Value, direction)
	case "current_ratio":
		return fmt.Sprintf("Current ratio of %.2f %s", rs.CurrentRatio.Value, direction)
	case "interest_coverage":
		return fmt.Sprintf("Interest coverage of %.1fx %s", rs.InterestCoverage.Value, direction)
	case "equity_multiplier":
		return fmt.Sprintf("Equity multiplier of %.2fx %s", in.DuPont.EquityMultiplier.Value, direction)
	case "window_return":
		return fmt.Sprintf("Recent price trend %s", direction)
	case "range_position":
		return fmt.Sprintf("Position in recent trading range %s", direction)
	case "news_sentiment":
		return fmt.Sprintf("News sentiment %s", direction)
	}
	return fmt.Sprintf("%s %s", f.Name, direction)
}

func analysisText(rec models.Recommendation, in Input) string {
	var b strings.Builder
	name := rec.Symbol
	if in.Snapshot != nil && in.Snapshot.CompanyName.Valid {
		name = in.Snapshot.CompanyName.Value
	}
	fmt.Fprintf(&b, "%s is rated %s with a composite score of %.2f.", name, rec.Rating, rec.Score)
	if rec.TargetPrice > 0 {
		fmt.Fprintf(&b, " The score maps to a target price of %.2f.", rec.TargetPrice)
	}
	if rec.Confidence < 0.5 {
		b.WriteString(" Confidence is reduced by incomplete input data.")
	}
	return b.String()
}

// --- Math helpers ---

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dailyVolatility is the standard deviation of day-over-day returns.
func dailyVolatility(history []models.PricePoint) float64 {
	var returns []float64
	for i := 1; i < len(history); i++ {
		prev := history[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, (history[i].Close-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
