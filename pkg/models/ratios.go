package models

// Ratio is a single computed accounting ratio. Computable=false means a
// required input was missing or a denominator was zero; Value is then
// meaningless and Reason records why. A ratio is never silently coerced
// to zero.
type Ratio struct {
	Value      float64 `json:"value"`
	Computable bool    `json:"computable"`
	Reason     string  `json:"reason,omitempty"`
}

// OKRatio returns a computable ratio.
func OKRatio(v float64) Ratio {
	return Ratio{Value: v, Computable: true}
}

// BadRatio returns a non-computable ratio with the recorded reason.
func BadRatio(reason string) Ratio {
	return Ratio{Computable: false, Reason: reason}
}

// RatioSet holds the standardized ratio groups computed from one snapshot.
type RatioSet struct {
	// Valuation
	PE            Ratio `json:"pe"`
	PB            Ratio `json:"pb"`
	DividendYield Ratio `json:"dividend_yield"` // percentage

	// Profitability (percentages except where noted)
	NetMargin   Ratio `json:"net_margin"`
	GrossMargin Ratio `json:"gross_margin"`
	ROE         Ratio `json:"roe"`
	ROA         Ratio `json:"roa"`

	// Liquidity
	CurrentRatio Ratio `json:"current_ratio"`
	QuickRatio   Ratio `json:"quick_ratio"`

	// Solvency
	DebtToEquity     Ratio `json:"debt_to_equity"`
	InterestCoverage Ratio `json:"interest_coverage"`

	// Growth (supplementary, consumed by scoring and report sections)
	RevenueGrowthYoY Ratio `json:"revenue_growth_yoy"` // percentage
	RevenueCAGR3Y    Ratio `json:"revenue_cagr_3y"`    // percentage
}

// DuPontBreakdown decomposes ROE into net margin × asset turnover ×
// equity multiplier. When every factor is computable the product equals
// the RatioSet ROE within 1e-6 relative tolerance by construction;
// otherwise Partial is set and the product is not populated.
type DuPontBreakdown struct {
	NetMargin        Ratio `json:"net_margin"`       // fraction, not percentage
	AssetTurnover    Ratio `json:"asset_turnover"`   // revenue / total assets
	EquityMultiplier Ratio `json:"equity_multiplier"` // total assets / total equity
	ROE              Ratio `json:"roe"`              // product of the three, fraction
	Partial          bool  `json:"partial"`
}
