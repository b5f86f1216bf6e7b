package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

// yahooName tags every field the Yahoo client supplies.
const yahooName = "yahoo"

// Yahoo implements the primary quote provider against the Yahoo Finance
// v7/v8/v10 JSON APIs. It also serves as the fundamentals fallback via
// the quoteSummary endpoint.
type Yahoo struct {
	baseURL string
	limiter *RateLimiter
}

// NewYahoo creates a Yahoo Finance client. baseURL is normally
// "https://query1.finance.yahoo.com"; tests point it at a local server.
func NewYahoo(baseURL string) *Yahoo {
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the provider name used in field source tags.
func (y *Yahoo) Name() string { return yahooName }

// --- Yahoo Finance API types ---

type yhQuoteResponse struct {
	QuoteResponse struct {
		Result []yhQuoteResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"quoteResponse"`
}

type yhQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	Currency                   string  `json:"currency"`
	FullExchangeName           string  `json:"fullExchangeName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	TrailingPE                 float64 `json:"trailingPE"`
	PriceToBook                float64 `json:"priceToBook"`
	EpsTrailingTwelveMonths    float64 `json:"epsTrailingTwelveMonths"`
	EpsForward                 float64 `json:"epsForward"`
	DividendYield              float64 `json:"dividendYield"`
	TrailingAnnualDividendRate float64 `json:"trailingAnnualDividendRate"`
	SharesOutstanding          float64 `json:"sharesOutstanding"`
}

type yhChartResponse struct {
	Chart struct {
		Result []yhChartResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"chart"`
}

type yhChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yhSummaryResponse struct {
	QuoteSummary struct {
		Result []yhSummaryResult `json:"result"`
		Error  *yhError          `json:"error"`
	} `json:"quoteSummary"`
}

type yhSummaryResult struct {
	AssetProfile *struct {
		LongBusinessSummary string `json:"longBusinessSummary"`
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
	} `json:"assetProfile"`
	IncomeStatementHistory *struct {
		Statements []yhIncomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory *struct {
		Statements []yhBalanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
}

type yhIncomeStatement struct {
	EndDate          yhValue `json:"endDate"`
	TotalRevenue     yhValue `json:"totalRevenue"`
	GrossProfit      yhValue `json:"grossProfit"`
	OperatingIncome  yhValue `json:"operatingIncome"`
	NetIncome        yhValue `json:"netIncome"`
	InterestExpense  yhValue `json:"interestExpense"`
}

type yhBalanceSheet struct {
	EndDate                 yhValue `json:"endDate"`
	TotalAssets             yhValue `json:"totalAssets"`
	TotalStockholderEquity  yhValue `json:"totalStockholderEquity"`
	TotalLiab               yhValue `json:"totalLiab"`
	TotalCurrentAssets      yhValue `json:"totalCurrentAssets"`
	TotalCurrentLiabilities yhValue `json:"totalCurrentLiabilities"`
	Inventory               yhValue `json:"inventory"`
	ShortLongTermDebt       yhValue `json:"shortLongTermDebt"`
	LongTermDebt            yhValue `json:"longTermDebt"`
}

// yhValue is Yahoo's {raw, fmt} number wrapper.
type yhValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v yhValue) field() models.Field {
	if v.Raw == nil {
		return models.Field{}
	}
	return models.NewField(*v.Raw, yahooName)
}

type yhError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetQuote returns a snapshot fragment holding Yahoo's quote fields.
func (y *Yahoo) GetQuote(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, symbol)
	var resp yhQuoteResponse
	if err := y.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo API error %s: %s", resp.QuoteResponse.Error.Code, resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	r := resp.QuoteResponse.Result[0]
	frag := &models.FundamentalsSnapshot{
		Symbol:      symbol,
		Currency:    r.Currency,
		Exchange:    r.FullExchangeName,
		AsOf:        time.Now(),
		CompanyName: models.NewStringField(coalesce(r.LongName, r.ShortName), yahooName),
	}
	if r.RegularMarketPrice > 0 {
		frag.Price = models.NewField(r.RegularMarketPrice, yahooName)
	}
	if r.MarketCap > 0 {
		frag.MarketCap = models.NewField(r.MarketCap, yahooName)
	}
	if r.TrailingPE > 0 {
		frag.PERatio = models.NewField(r.TrailingPE, yahooName)
	}
	if r.PriceToBook > 0 {
		frag.PBRatio = models.NewField(r.PriceToBook, yahooName)
	}
	if r.EpsTrailingTwelveMonths != 0 {
		frag.TrailingEPS = models.NewField(r.EpsTrailingTwelveMonths, yahooName)
	}
	if r.EpsForward != 0 {
		frag.ForwardEPS = models.EstimatedField(r.EpsForward, yahooName)
	}
	if r.DividendYield > 0 {
		frag.DividendYield = models.NewField(r.DividendYield, yahooName)
	}
	if r.TrailingAnnualDividendRate > 0 {
		frag.DividendPerShare = models.NewField(r.TrailingAnnualDividendRate, yahooName)
	}
	if r.FiftyTwoWeekHigh > 0 {
		frag.Week52High = models.NewField(r.FiftyTwoWeekHigh, yahooName)
	}
	if r.FiftyTwoWeekLow > 0 {
		frag.Week52Low = models.NewField(r.FiftyTwoWeekLow, yahooName)
	}
	if r.RegularMarketVolume > 0 {
		frag.Volume = models.NewField(float64(r.RegularMarketVolume), yahooName)
	}
	if r.SharesOutstanding > 0 {
		frag.SharesOutstanding = models.NewField(r.SharesOutstanding, yahooName)
	}
	return frag, nil
}

// GetFundamentals returns a snapshot fragment with up to four trailing
// fiscal years from the quoteSummary statement modules, plus the company
// profile fields.
func (y *Yahoo) GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalsSnapshot, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	modules := "assetProfile,incomeStatementHistory,balanceSheetHistory"
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, symbol, modules)
	var resp yhSummaryResponse
	if err := y.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo API error %s: %s", resp.QuoteSummary.Error.Code, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	r := resp.QuoteSummary.Result[0]
	frag := &models.FundamentalsSnapshot{Symbol: symbol, AsOf: time.Now()}

	if p := r.AssetProfile; p != nil {
		frag.Sector = models.NewStringField(p.Sector, yahooName)
		frag.Industry = models.NewStringField(p.Industry, yahooName)
		frag.Description = models.NewStringField(p.LongBusinessSummary, yahooName)
	}

	var income []yhIncomeStatement
	if r.IncomeStatementHistory != nil {
		income = r.IncomeStatementHistory.Statements
	}
	var balance []yhBalanceSheet
	if r.BalanceSheetHistory != nil {
		balance = r.BalanceSheetHistory.Statements
	}

	n := len(income)
	if len(balance) > n {
		n = len(balance)
	}
	if n > 4 {
		n = 4
	}
	for i := 0; i < n; i++ {
		fy := models.FiscalYear{}
		if i < len(income) {
			inc := income[i]
			fy.EndDate = inc.EndDate.Fmt
			fy.Revenue = inc.TotalRevenue.field()
			fy.GrossProfit = inc.GrossProfit.field()
			fy.OperatingIncome = inc.OperatingIncome.field()
			fy.NetIncome = inc.NetIncome.field()
			fy.InterestExpense = inc.InterestExpense.field()
		}
		if i < len(balance) {
			bs := balance[i]
			if fy.EndDate == "" {
				fy.EndDate = bs.EndDate.Fmt
			}
			fy.TotalAssets = bs.TotalAssets.field()
			fy.TotalEquity = bs.TotalStockholderEquity.field()
			fy.TotalLiabilities = bs.TotalLiab.field()
			fy.CurrentAssets = bs.TotalCurrentAssets.field()
			fy.CurrentLiabilities = bs.TotalCurrentLiabilities.field()
			fy.Inventory = bs.Inventory.field()
			fy.TotalDebt = sumFields(bs.ShortLongTermDebt.field(), bs.LongTermDebt.field())
		}
		fy.Label = fiscalLabel(fy.EndDate)
		frag.Years = append(frag.Years, fy)
	}

	return frag, nil
}

// GetHistory returns recent daily closes from the chart API, oldest first.
func (y *Yahoo) GetHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, symbol, from.Unix(), to.Unix())

	var resp yhChartResponse
	if err := y.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{
			Date:  time.Unix(ts, 0),
			Close: *closes[i],
		})
	}
	return points, nil
}

// --- Helpers ---

func (y *Yahoo) getJSON(ctx context.Context, url string, out any) error {
	body, _, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func sumFields(a, b models.Field) models.Field {
	switch {
	case a.Valid && b.Valid:
		return models.NewField(a.Value+b.Value, a.Source)
	case a.Valid:
		return a
	case b.Valid:
		return b
	}
	return models.Field{}
}

// fiscalLabel turns "2025-03-31" into "FY2025"; unparseable dates keep
// the raw string.
func fiscalLabel(endDate string) string {
	if len(endDate) >= 4 {
		year := endDate[:4]
		allDigits := true
		for _, r := range year {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return "FY" + year
		}
	}
	return endDate
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
