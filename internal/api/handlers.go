package api

import (
	"net/http"
	"time"

	"github.com/equityscope/equityscope/internal/analysis/fundamental"
	"github.com/equityscope/equityscope/internal/analysis/scoring"
	"github.com/equityscope/equityscope/internal/analysis/sentiment"
	"github.com/equityscope/equityscope/internal/report"
	"github.com/equityscope/equityscope/pkg/models"
	"github.com/equityscope/equityscope/pkg/symbols"
)

// stockData is the dashboard's stock-data payload. The field names and
// casing are part of the contract and must not change.
type stockData struct {
	Symbol        string   `json:"symbol"`
	CurrentPrice  *float64 `json:"currentPrice"`
	MarketCap     *float64 `json:"marketCap"`
	PERatio       *float64 `json:"peRatio"`
	DividendYield *float64 `json:"dividendYield"`
	Week52High    *float64 `json:"52WeekHigh"`
	Week52Low     *float64 `json:"52WeekLow"`
	CompanyName   string   `json:"companyName"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	Warnings      []string `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleValidateTicker(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbol")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	symbol, market, err := symbols.Validate(raw)
	if err != nil {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    map[string]interface{}{"valid": false, "reason": err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]interface{}{"valid": true, "symbol": symbol, "market": market},
	})
}

func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.fetchSnapshot(w, r)
	if !ok {
		return
	}

	fv := func(f models.Field) *float64 {
		if !f.Valid {
			return nil
		}
		v := f.Value
		return &v
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: stockData{
			Symbol:        snap.Symbol,
			CurrentPrice:  fv(snap.Price),
			MarketCap:     fv(snap.MarketCap),
			PERatio:       fv(snap.PERatio),
			DividendYield: fv(snap.DividendYield),
			Week52High:    fv(snap.Week52High),
			Week52Low:     fv(snap.Week52Low),
			CompanyName:   snap.CompanyName.Value,
			Sector:        snap.Sector.Value,
			Industry:      snap.Industry.Value,
			Warnings:      snap.Warnings,
		},
	})
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.fetchSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"symbol": snap.Symbol,
			"ratios": fundamental.ComputeRatios(snap),
			"dupont": fundamental.ComputeDuPont(snap),
		},
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.fetchSnapshot(w, r)
	if !ok {
		return
	}

	rec := s.scorer.Score(scoring.Input{
		Snapshot:  snap,
		Ratios:    fundamental.ComputeRatios(snap),
		DuPont:    fundamental.ComputeDuPont(snap),
		Sentiment: s.sentimentSignal(r, snap),
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rec})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbol")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	articles, err := s.agg.News(r.Context(), raw, s.cfg.Providers.NewsLimit)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	sentiment.Annotate(articles)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.fetchSnapshot(w, r)
	if !ok {
		return
	}

	ratios := fundamental.ComputeRatios(snap)
	dupont := fundamental.ComputeDuPont(snap)

	// News is best-effort: a failed news fetch degrades the commentary
	// section instead of failing the report.
	var articles []models.NewsArticle
	if news, err := s.agg.News(r.Context(), snap.Symbol, s.cfg.Providers.NewsLimit); err == nil {
		articles = sentiment.Annotate(news)
	}
	sig := sentiment.Aggregate(snap.Symbol, articles, time.Now().UTC())

	rec := s.scorer.Score(scoring.Input{
		Snapshot:  snap,
		Ratios:    ratios,
		DuPont:    dupont,
		Sentiment: &sig,
	})

	rep := report.Assemble(report.Input{
		Snapshot:       snap,
		Ratios:         ratios,
		DuPont:         dupont,
		Recommendation: rec,
		Sentiment:      sig,
		News:           articles,
		GeneratedAt:    time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
}

// fetchSnapshot resolves the symbol query param into a snapshot, writing
// the error response itself on failure.
func (s *Server) fetchSnapshot(w http.ResponseWriter, r *http.Request) (*models.FundamentalsSnapshot, bool) {
	raw := r.URL.Query().Get("symbol")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return nil, false
	}

	snap, err := s.agg.Fetch(r.Context(), raw)
	if err != nil {
		writeFetchError(w, err)
		return nil, false
	}
	return snap, true
}

// sentimentSignal fetches and scores news for the analysis endpoint;
// failures just mean no sentiment category.
func (s *Server) sentimentSignal(r *http.Request, snap *models.FundamentalsSnapshot) *models.SentimentSignal {
	articles, err := s.agg.News(r.Context(), snap.Symbol, s.cfg.Providers.NewsLimit)
	if err != nil || len(articles) == 0 {
		return nil
	}
	sig := sentiment.Aggregate(snap.Symbol, articles, time.Now().UTC())
	return &sig
}
