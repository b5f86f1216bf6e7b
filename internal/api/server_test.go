package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/internal/datasource"
	"github.com/equityscope/equityscope/pkg/models"
)

type stubQuote struct {
	snap *models.FundamentalsSnapshot
	err  error
}

func (s *stubQuote) Name() string { return "stub" }

func (s *stubQuote) GetQuote(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type stubNews struct {
	articles []models.NewsArticle
}

func (s *stubNews) Name() string { return "stubnews" }

func (s *stubNews) GetArticles(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	return s.articles, nil
}

func testSnapshot() *models.FundamentalsSnapshot {
	f := func(v float64) models.Field { return models.NewField(v, "stub") }
	return &models.FundamentalsSnapshot{
		Symbol:      "AAPL",
		Currency:    "USD",
		AsOf:        time.Now(),
		CompanyName: models.NewStringField("Apple Inc.", "stub"),
		Sector:      models.NewStringField("Technology", "stub"),
		Industry:    models.NewStringField("Consumer Electronics", "stub"),
		Price:       f(187.5),
		MarketCap:   f(2.9e12),
		PERatio:     f(28.4),
		DividendYield: f(0.55),
		Week52High:  f(199.6),
		Week52Low:   f(164.1),
		Years: []models.FiscalYear{
			{Label: "FY2025", Revenue: f(400e9), NetIncome: f(100e9),
				TotalAssets: f(350e9), TotalEquity: f(80e9)},
		},
	}
}

func newTestServer(q datasource.QuoteProvider) *Server {
	cfg := config.Default()
	acfg := cfg.Aggregator
	acfg.RetryBaseMS = 1
	news := &stubNews{articles: []models.NewsArticle{
		{Title: "Shares rally on strong results", Source: "Wire", PublishedAt: time.Now()},
	}}
	agg := datasource.NewAggregator(acfg, q, nil, news)
	return NewServer(cfg, agg, "test")
}

func doRequest(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	var resp APIResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rr.Body.String())
	}
	return rr, resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, resp := doRequest(t, srv, "/api/health")

	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("health: code=%d resp=%+v", rr.Code, resp)
	}
}

func TestStockDataFieldNames(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/stock-data?symbol=AAPL")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rr.Code, rr.Body.String())
	}

	// The dashboard binds to these exact keys.
	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"symbol", "currentPrice", "marketCap", "peRatio", "dividendYield",
		"52WeekHigh", "52WeekLow", "companyName", "sector", "industry",
	} {
		if _, ok := envelope.Data[key]; !ok {
			t.Errorf("stock-data missing key %q", key)
		}
	}
}

func TestStockDataMissingSymbol(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, resp := doRequest(t, srv, "/api/stock-data")

	if rr.Code != http.StatusBadRequest || resp.Success {
		t.Fatalf("code=%d resp=%+v", rr.Code, resp)
	}
}

func TestStockDataInvalidSymbol(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/stock-data?symbol=123BAD")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid symbol: code = %d", rr.Code)
	}
}

func TestStockDataUnknownTicker(t *testing.T) {
	srv := newTestServer(&stubQuote{err: fmt.Errorf("nope: %w", datasource.ErrSymbolNotFound)})
	rr, _ := doRequest(t, srv, "/api/stock-data?symbol=XYZQQQ1")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown symbol: code = %d", rr.Code)
	}
}

func TestValidateTicker(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})

	rr, _ := doRequest(t, srv, "/api/validate-ticker?symbol=RELIANCE.NS")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	var envelope struct {
		Data struct {
			Valid  bool   `json:"valid"`
			Symbol string `json:"symbol"`
			Market string `json:"market"`
		} `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &envelope)
	if !envelope.Data.Valid || envelope.Data.Symbol != "RELIANCE.NS" || envelope.Data.Market != "India (National Stock Exchange)" {
		t.Fatalf("validate: %+v", envelope.Data)
	}

	// Grammar failures report valid=false with 200, not an error status.
	rr, _ = doRequest(t, srv, "/api/validate-ticker?symbol=123BAD")
	if rr.Code != http.StatusOK {
		t.Fatalf("invalid grammar code = %d", rr.Code)
	}
	json.Unmarshal(rr.Body.Bytes(), &envelope)
	if envelope.Data.Valid {
		t.Fatal("123BAD should not validate")
	}
}

func TestRatiosEndpoint(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/ratios?symbol=AAPL")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Data struct {
			Ratios models.RatioSet        `json:"ratios"`
			DuPont models.DuPontBreakdown `json:"dupont"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if !envelope.Data.Ratios.NetMargin.Computable {
		t.Errorf("net margin: %+v", envelope.Data.Ratios.NetMargin)
	}
	if envelope.Data.DuPont.Partial {
		t.Error("full statements should yield a complete breakdown")
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/analysis?symbol=AAPL")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Data models.Recommendation `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	rec := envelope.Data
	if rec.Rating != models.RatingBuy && rec.Rating != models.RatingHold && rec.Rating != models.RatingSell {
		t.Fatalf("rating = %q", rec.Rating)
	}
	if rec.Confidence < 0 || rec.Confidence > 1 {
		t.Fatalf("confidence = %v", rec.Confidence)
	}
	if rec.TargetPrice <= 0 {
		t.Fatalf("target price = %v", rec.TargetPrice)
	}
}

func TestReportEndpoint(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/report?symbol=AAPL")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Data models.Report `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	rep := envelope.Data
	if len(rep.Sections) != 13 {
		t.Fatalf("got %d sections", len(rep.Sections))
	}
	for i, sec := range rep.Sections {
		if sec.ID != models.SectionOrder[i] {
			t.Errorf("section %d = %s, want %s", i, sec.ID, models.SectionOrder[i])
		}
	}
}

func TestNewsEndpoint(t *testing.T) {
	srv := newTestServer(&stubQuote{snap: testSnapshot()})
	rr, _ := doRequest(t, srv, "/api/news?symbol=AAPL")
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Data []models.NewsArticle `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("got %d articles", len(envelope.Data))
	}
	if envelope.Data[0].SentimentLabel == "" {
		t.Error("articles should be sentiment-annotated")
	}
}
