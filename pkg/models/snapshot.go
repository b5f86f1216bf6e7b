// Package models defines the core data structures used throughout EquityScope.
package models

import "time"

// Field holds a single numeric fundamental with provenance. A field that no
// provider supplied has Valid=false; a zero value is never used to stand in
// for missing data.
type Field struct {
	Value     float64 `json:"value"`
	Source    string  `json:"source,omitempty"`    // provider that supplied the value
	Estimated bool    `json:"estimated,omitempty"` // true for analyst estimates / derived values
	Valid     bool    `json:"valid"`
}

// NewField returns a present field sourced from the named provider.
func NewField(value float64, source string) Field {
	return Field{Value: value, Source: source, Valid: true}
}

// EstimatedField returns a present field flagged as estimated.
func EstimatedField(value float64, source string) Field {
	return Field{Value: value, Source: source, Estimated: true, Valid: true}
}

// Or returns f if it is valid, otherwise other. Used for field-level
// provider fallback during merging.
func (f Field) Or(other Field) Field {
	if f.Valid {
		return f
	}
	return other
}

// StringField holds a single text fundamental with provenance.
type StringField struct {
	Value  string `json:"value"`
	Source string `json:"source,omitempty"`
	Valid  bool   `json:"valid"`
}

// NewStringField returns a present string field sourced from the named provider.
func NewStringField(value, source string) StringField {
	if value == "" {
		return StringField{}
	}
	return StringField{Value: value, Source: source, Valid: true}
}

// Or returns f if it is valid, otherwise other.
func (f StringField) Or(other StringField) StringField {
	if f.Valid {
		return f
	}
	return other
}

// PricePoint is a single daily closing price used for momentum analysis.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// FiscalYear holds one trailing fiscal year of statement data. All fields
// are optional; absent figures stay Valid=false.
type FiscalYear struct {
	Label              string `json:"label"` // e.g., "FY2025"
	EndDate            string `json:"end_date,omitempty"`
	Revenue            Field  `json:"revenue"`
	GrossProfit        Field  `json:"gross_profit"`
	OperatingIncome    Field  `json:"operating_income"`
	NetIncome          Field  `json:"net_income"`
	InterestExpense    Field  `json:"interest_expense"`
	TotalAssets        Field  `json:"total_assets"`
	TotalEquity        Field  `json:"total_equity"`
	TotalLiabilities   Field  `json:"total_liabilities"`
	CurrentAssets      Field  `json:"current_assets"`
	CurrentLiabilities Field  `json:"current_liabilities"`
	Inventory          Field  `json:"inventory"`
	TotalDebt          Field  `json:"total_debt"`
	OperatingCashFlow  Field  `json:"operating_cash_flow"`
}

// FundamentalsSnapshot is the merged view of one symbol across providers.
// It is created fresh per request, immutable once constructed, and the only
// entity that is cached.
type FundamentalsSnapshot struct {
	Symbol   string `json:"symbol"` // normalized, e.g. "AAPL", "RELIANCE.NS"
	Market   string `json:"market"` // e.g., "United States"
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"currency,omitempty"`

	AsOf time.Time `json:"as_of"`

	CompanyName StringField `json:"company_name"`
	Sector      StringField `json:"sector"`
	Industry    StringField `json:"industry"`
	Description StringField `json:"description"`

	Price             Field `json:"price"`
	MarketCap         Field `json:"market_cap"`
	TrailingEPS       Field `json:"trailing_eps"`
	ForwardEPS        Field `json:"forward_eps"`
	PERatio           Field `json:"pe_ratio"`
	PBRatio           Field `json:"pb_ratio"`
	DividendPerShare  Field `json:"dividend_per_share"`
	DividendYield     Field `json:"dividend_yield"` // percentage
	Week52High        Field `json:"week_52_high"`
	Week52Low         Field `json:"week_52_low"`
	Volume            Field `json:"volume"`
	SharesOutstanding Field `json:"shares_outstanding"`
	Beta              Field `json:"beta"`

	// Up to 4 trailing fiscal years, newest first.
	Years []FiscalYear `json:"years,omitempty"`

	// Daily closes, oldest first, for momentum scoring.
	History []PricePoint `json:"history,omitempty"`

	// Non-fatal problems encountered while aggregating (missing fields,
	// provider failures absorbed by fallback).
	Warnings []string `json:"warnings,omitempty"`
}

// LatestYear returns the most recent fiscal year, or nil when no statement
// data is available.
func (s *FundamentalsSnapshot) LatestYear() *FiscalYear {
	if len(s.Years) == 0 {
		return nil
	}
	return &s.Years[0]
}

// PriorYear returns the fiscal year before the latest, or nil.
func (s *FundamentalsSnapshot) PriorYear() *FiscalYear {
	if len(s.Years) < 2 {
		return nil
	}
	return &s.Years[1]
}
