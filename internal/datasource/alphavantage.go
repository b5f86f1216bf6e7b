package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

const alphaVantageName = "alphavantage"

// AlphaVantage is the secondary fundamentals provider. Its free tier
// allows 5 requests per minute, so the limiter is deliberately slow.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	limiter *RateLimiter
}

// NewAlphaVantage creates an Alpha Vantage client. An empty apiKey
// disables the provider; callers should check Enabled before use.
func NewAlphaVantage(baseURL, apiKey string) *AlphaVantage {
	return &AlphaVantage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: NewRateLimiter(5, time.Minute),
	}
}

func (a *AlphaVantage) Name() string { return alphaVantageName }

// Enabled reports whether an API key is configured.
func (a *AlphaVantage) Enabled() bool { return a.apiKey != "" }

// avOverview mirrors the OVERVIEW function response. All numbers come
// back as strings; "None" and "-" mean absent.
type avOverview struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	Currency             string `json:"Currency"`
	Exchange             string `json:"Exchange"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	PriceToBookRatio     string `json:"PriceToBookRatio"`
	EPS                  string `json:"EPS"`
	ForwardPE            string `json:"ForwardPE"`
	DividendPerShare     string `json:"DividendPerShare"`
	DividendYield        string `json:"DividendYield"`
	Week52High           string `json:"52WeekHigh"`
	Week52Low            string `json:"52WeekLow"`
	SharesOutstanding    string `json:"SharesOutstanding"`
	Beta                 string `json:"Beta"`
}

type avStatementResponse struct {
	Symbol        string            `json:"symbol"`
	AnnualReports []map[string]string `json:"annualReports"`
	Note          string            `json:"Note"`
	Information   string            `json:"Information"`
	ErrorMessage  string            `json:"Error Message"`
}

// GetFundamentals combines OVERVIEW, INCOME_STATEMENT and BALANCE_SHEET
// into a snapshot fragment. A failure on the statement calls degrades to
// an overview-only fragment rather than failing the whole fetch.
func (a *AlphaVantage) GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("%w: alphavantage key not configured", ErrProviderUnavailable)
	}

	ov, err := a.overview(ctx, symbol)
	if err != nil {
		return nil, err
	}

	frag := &models.FundamentalsSnapshot{
		Symbol:      symbol,
		Currency:    ov.Currency,
		Exchange:    ov.Exchange,
		AsOf:        time.Now(),
		CompanyName: models.NewStringField(ov.Name, alphaVantageName),
		Sector:      models.NewStringField(ov.Sector, alphaVantageName),
		Industry:    models.NewStringField(ov.Industry, alphaVantageName),
		Description: models.NewStringField(ov.Description, alphaVantageName),
	}
	frag.MarketCap = avField(ov.MarketCapitalization)
	frag.PERatio = avField(ov.PERatio)
	frag.PBRatio = avField(ov.PriceToBookRatio)
	frag.TrailingEPS = avField(ov.EPS)
	frag.DividendPerShare = avField(ov.DividendPerShare)
	frag.DividendYield = avField(ov.DividendYield)
	frag.Week52High = avField(ov.Week52High)
	frag.Week52Low = avField(ov.Week52Low)
	frag.SharesOutstanding = avField(ov.SharesOutstanding)
	frag.Beta = avField(ov.Beta)

	income, incErr := a.statements(ctx, symbol, "INCOME_STATEMENT")
	balance, balErr := a.statements(ctx, symbol, "BALANCE_SHEET")
	if incErr != nil {
		frag.Warnings = append(frag.Warnings, "alphavantage income statement unavailable: "+incErr.Error())
	}
	if balErr != nil {
		frag.Warnings = append(frag.Warnings, "alphavantage balance sheet unavailable: "+balErr.Error())
	}
	frag.Years = avFiscalYears(income, balance)

	return frag, nil
}

func (a *AlphaVantage) overview(ctx context.Context, symbol string) (*avOverview, error) {
	data, err := a.call(ctx, "OVERVIEW", symbol)
	if err != nil {
		return nil, err
	}

	var ov avOverview
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse overview: %w", err)
	}
	// Empty object means unknown symbol on this endpoint.
	if ov.Symbol == "" {
		if note := avNote(data); note != "" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, note)
		}
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return &ov, nil
}

func (a *AlphaVantage) statements(ctx context.Context, symbol, function string) ([]map[string]string, error) {
	data, err := a.call(ctx, function, symbol)
	if err != nil {
		return nil, err
	}

	var resp avStatementResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", strings.ToLower(function), err)
	}
	if resp.Note != "" || resp.Information != "" {
		return nil, fmt.Errorf("%w: %s%s", ErrRateLimited, resp.Note, resp.Information)
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, resp.ErrorMessage)
	}
	return resp.AnnualReports, nil
}

func (a *AlphaVantage) call(ctx context.Context, function, symbol string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", a.apiKey)
	endpoint := fmt.Sprintf("%s/query?%s", a.baseURL, q.Encode())

	body, _, err := doGet(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s %s: %w", strings.ToLower(function), symbol, err)
	}
	defer body.Close()

	return io.ReadAll(body)
}

// avFiscalYears zips the annual income and balance reports by position;
// Alpha Vantage returns both newest-first.
func avFiscalYears(income, balance []map[string]string) []models.FiscalYear {
	n := len(income)
	if len(balance) > n {
		n = len(balance)
	}
	if n > 4 {
		n = 4
	}

	years := make([]models.FiscalYear, 0, n)
	for i := 0; i < n; i++ {
		fy := models.FiscalYear{}
		if i < len(income) {
			inc := income[i]
			fy.EndDate = inc["fiscalDateEnding"]
			fy.Revenue = avField(inc["totalRevenue"])
			fy.GrossProfit = avField(inc["grossProfit"])
			fy.OperatingIncome = avField(inc["operatingIncome"])
			fy.NetIncome = avField(inc["netIncome"])
			fy.InterestExpense = avField(inc["interestExpense"])
		}
		if i < len(balance) {
			bs := balance[i]
			if fy.EndDate == "" {
				fy.EndDate = bs["fiscalDateEnding"]
			}
			fy.TotalAssets = avField(bs["totalAssets"])
			fy.TotalEquity = avField(bs["totalShareholderEquity"])
			fy.TotalLiabilities = avField(bs["totalLiabilities"])
			fy.CurrentAssets = avField(bs["totalCurrentAssets"])
			fy.CurrentLiabilities = avField(bs["totalCurrentLiabilities"])
			fy.Inventory = avField(bs["inventory"])
			fy.TotalDebt = sumFields(avField(bs["shortTermDebt"]), avField(bs["longTermDebt"]))
		}
		fy.Label = fiscalLabel(fy.EndDate)
		years = append(years, fy)
	}
	return years
}

// avField parses Alpha Vantage's stringly-typed numbers. "None", "-" and
// empty strings produce an invalid field.
func avField(s string) models.Field {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return models.Field{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Field{}
	}
	return models.NewField(v, alphaVantageName)
}

// avNote pulls a throttling note out of an otherwise-empty response.
func avNote(data []byte) string {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	if n := m["Note"]; n != "" {
		return n
	}
	return m["Information"]
}
