package scoring

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/pkg/models"
)

func testEngine() *Engine {
	return NewEngine(config.Default().Scoring)
}

func healthyRatios() models.RatioSet {
	return models.RatioSet{
		PE:               models.OKRatio(18),
		PB:               models.OKRatio(3),
		DividendYield:    models.OKRatio(2),
		NetMargin:        models.OKRatio(15),
		GrossMargin:      models.OKRatio(40),
		ROE:              models.OKRatio(22),
		ROA:              models.OKRatio(9),
		CurrentRatio:     models.OKRatio(1.8),
		QuickRatio:       models.OKRatio(1.2),
		DebtToEquity:     models.OKRatio(0.4),
		InterestCoverage: models.OKRatio(12),
		RevenueGrowthYoY: models.OKRatio(12),
		RevenueCAGR3Y:    models.OKRatio(10),
	}
}

func snapshotWithPrice(price float64) *models.FundamentalsSnapshot {
	return &models.FundamentalsSnapshot{
		Symbol:      "ACME",
		CompanyName: models.NewStringField("Acme Corp", "test"),
		Price:       models.NewField(price, "test"),
	}
}

func steadyHistory(n int, start, step float64) []models.PricePoint {
	points := make([]models.PricePoint, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = models.PricePoint{
			Date:  base.AddDate(0, 0, i),
			Close: start + step*float64(i),
		}
	}
	return points
}

func TestScoreHealthyCompanyBuys(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)
	snap.History = steadyHistory(60, 90, 0.25)

	rec := e.Score(Input{Snapshot: snap, Ratios: healthyRatios()})
	if rec.Rating != models.RatingBuy {
		t.Fatalf("got %s (score %v), want BUY", rec.Rating, rec.Score)
	}
	if rec.TargetPrice <= 100 {
		t.Fatalf("positive score should lift target above price, got %v", rec.TargetPrice)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		t.Fatalf("confidence %v out of [0,1]", rec.Confidence)
	}
	if len(rec.Factors) == 0 || len(rec.KeyPoints) == 0 {
		t.Fatal("expected factors and key points")
	}
}

func TestScoreWeakCompanySells(t *testing.T) {
	e := testEngine()
	rs := models.RatioSet{
		PE:               models.OKRatio(55),
		PB:               models.OKRatio(9),
		NetMargin:        models.OKRatio(-8),
		ROE:              models.OKRatio(-12),
		ROA:              models.OKRatio(-4),
		CurrentRatio:     models.OKRatio(0.6),
		DebtToEquity:     models.OKRatio(3.5),
		InterestCoverage: models.OKRatio(0.8),
		RevenueGrowthYoY: models.OKRatio(-20),
	}
	snap := snapshotWithPrice(40)
	snap.History = steadyHistory(60, 60, -0.3)

	rec := e.Score(Input{Snapshot: snap, Ratios: rs})
	if rec.Rating != models.RatingSell {
		t.Fatalf("got %s (score %v), want SELL", rec.Rating, rec.Score)
	}
	if rec.TargetPrice >= 40 {
		t.Fatalf("negative score should cut target below price, got %v", rec.TargetPrice)
	}
}

func TestScoreDeterministic(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)
	snap.History = steadyHistory(60, 95, 0.1)
	in := Input{Snapshot: snap, Ratios: healthyRatios()}

	first := e.Score(in)
	for i := 0; i < 5; i++ {
		got := e.Score(in)
		if got.Score != first.Score || got.Rating != first.Rating ||
			got.TargetPrice != first.TargetPrice || got.Confidence != first.Confidence {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestScoreMonotonicInNetMargin(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)

	prevScore := math.Inf(-1)
	prevTarget := math.Inf(-1)
	for _, margin := range []float64{-10, 0.1, 5, 10, 15, 19, 25} {
		rs := healthyRatios()
		rs.NetMargin = models.OKRatio(margin)
		rec := e.Score(Input{Snapshot: snap, Ratios: rs})
		if rec.Score < prevScore {
			t.Fatalf("margin %v: score %v dropped below %v", margin, rec.Score, prevScore)
		}
		if rec.TargetPrice < prevTarget {
			t.Fatalf("margin %v: target %v dropped below %v", margin, rec.TargetPrice, prevTarget)
		}
		prevScore, prevTarget = rec.Score, rec.TargetPrice
	}
}

func TestScoreFallingRevenueRisingLeverage(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)

	good := healthyRatios()
	good.RevenueGrowthYoY = models.OKRatio(10)
	good.DebtToEquity = models.OKRatio(0.5)

	bad := healthyRatios()
	bad.RevenueGrowthYoY = models.OKRatio(-10)
	bad.DebtToEquity = models.OKRatio(2.0)

	goodRec := e.Score(Input{Snapshot: snap, Ratios: good})
	badRec := e.Score(Input{Snapshot: snap, Ratios: bad})
	if badRec.Score >= goodRec.Score {
		t.Fatalf("deteriorating fundamentals scored %v, healthy scored %v", badRec.Score, goodRec.Score)
	}
}

func TestScoreMissingCategoriesShrinkConfidence(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)
	snap.History = steadyHistory(60, 95, 0.1)

	full := e.Score(Input{
		Snapshot:  snap,
		Ratios:    healthyRatios(),
		Sentiment: &models.SentimentSignal{Score: 0.4, ArticleCount: 8},
	})

	// Only valuation data, no statements, history or sentiment.
	sparse := e.Score(Input{
		Snapshot: snapshotWithPrice(100),
		Ratios: models.RatioSet{
			PE: models.OKRatio(18),
			NetMargin:        models.BadRatio("revenue missing"),
			ROE:              models.BadRatio("equity missing"),
			DebtToEquity:     models.BadRatio("equity missing"),
			CurrentRatio:     models.BadRatio("balance sheet missing"),
			InterestCoverage: models.BadRatio("income statement missing"),
		},
	})

	if sparse.Confidence >= full.Confidence {
		t.Fatalf("sparse confidence %v should be below full %v", sparse.Confidence, full.Confidence)
	}
}

func TestScoreNonComputableExcluded(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)

	// All profitability ratios missing: the category must not drag the
	// composite toward zero, it must vanish from the weighting.
	onlyValuation := models.RatioSet{PE: models.OKRatio(10)} // strongly positive term
	rec := e.Score(Input{Snapshot: snap, Ratios: onlyValuation})

	if rec.Score <= 0.9 {
		t.Fatalf("single strong valuation term should dominate, got %v", rec.Score)
	}
	for _, f := range rec.Factors {
		if f.Category == CategoryProfitability {
			t.Fatalf("non-computable category produced factor %+v", f)
		}
	}
}

func TestScoreThresholdsFromConfig(t *testing.T) {
	cfg := config.Default().Scoring
	cfg.BuyThreshold = 0.95 // nearly unreachable
	e := NewEngine(cfg)

	rec := e.Score(Input{Snapshot: snapshotWithPrice(100), Ratios: healthyRatios()})
	if rec.Rating == models.RatingBuy {
		t.Fatalf("score %v should not clear a 0.95 buy threshold", rec.Score)
	}
}

func TestTargetPriceBounds(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)

	rec := e.Score(Input{Snapshot: snap, Ratios: healthyRatios()})
	lo, hi := 100*0.7, 100*1.3 // MaxExpectedReturn 0.30
	if rec.TargetPrice < lo || rec.TargetPrice > hi {
		t.Fatalf("target %v outside [%v, %v]", rec.TargetPrice, lo, hi)
	}
}

func TestConfidenceDropsWithVolatility(t *testing.T) {
	e := testEngine()

	calm := snapshotWithPrice(100)
	calm.History = steadyHistory(60, 99, 0.02)

	wild := snapshotWithPrice(100)
	wild.History = make([]models.PricePoint, 60)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range wild.History {
		price := 100.0
		if i%2 == 0 {
			price = 80.0
		}
		wild.History[i] = models.PricePoint{Date: base.AddDate(0, 0, i), Close: price}
	}

	calmRec := e.Score(Input{Snapshot: calm, Ratios: healthyRatios()})
	wildRec := e.Score(Input{Snapshot: wild, Ratios: healthyRatios()})
	if wildRec.Confidence >= calmRec.Confidence {
		t.Fatalf("volatile confidence %v should be below calm %v", wildRec.Confidence, calmRec.Confidence)
	}
}

func TestEquityMultiplierContributes(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)
	rs := healthyRatios()

	lean := e.Score(Input{Snapshot: snap, Ratios: rs,
		DuPont: models.DuPontBreakdown{EquityMultiplier: models.OKRatio(1.2)}})
	levered := e.Score(Input{Snapshot: snap, Ratios: rs,
		DuPont: models.DuPontBreakdown{EquityMultiplier: models.OKRatio(5.5)}})

	if levered.Score >= lean.Score {
		t.Fatalf("5.5x equity multiplier scored %v, 1.2x scored %v", levered.Score, lean.Score)
	}

	var found bool
	for _, f := range lean.Factors {
		if f.Name == "equity_multiplier" {
			found = true
			if f.Category != CategorySolvency {
				t.Errorf("equity_multiplier in category %q, want %q", f.Category, CategorySolvency)
			}
		}
	}
	if !found {
		t.Fatal("equity multiplier produced no factor")
	}
}

func TestKeyPointsPositivesBeforeEqualNegatives(t *testing.T) {
	rs := healthyRatios()
	factors := []models.ScoreFactor{
		{Category: CategorySolvency, Name: "debt_to_equity", Value: -0.6},
		{Category: CategoryProfitability, Name: "roe", Value: 0.6},
	}

	points := keyPoints(Input{Ratios: rs}, factors)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !strings.Contains(points[0], "supports the rating") {
		t.Errorf("point[0] = %q, want the positive factor first", points[0])
	}
	if !strings.Contains(points[1], "weighs on the rating") {
		t.Errorf("point[1] = %q, want the negative factor second", points[1])
	}
}

func TestSentimentContributes(t *testing.T) {
	e := testEngine()
	snap := snapshotWithPrice(100)
	rs := healthyRatios()

	neutral := e.Score(Input{Snapshot: snap, Ratios: rs})
	bearish := e.Score(Input{Snapshot: snap, Ratios: rs,
		Sentiment: &models.SentimentSignal{Score: -0.9, ArticleCount: 10}})

	if bearish.Score >= neutral.Score {
		t.Fatalf("bearish sentiment %v should lower score vs %v", bearish.Score, neutral.Score)
	}
}
