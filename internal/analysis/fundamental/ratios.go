// Package fundamental computes accounting ratios and the DuPont
// decomposition from a merged snapshot. Everything here is pure: no I/O,
// no clocks, identical input always yields identical output.
package fundamental

import (
	"math"

	"github.com/equityscope/equityscope/pkg/models"
)

// ComputeRatios derives the standardized ratio set from one snapshot.
// A ratio whose numerator or denominator is missing (or zero, which the
// upstream providers use interchangeably with missing) comes back with
// Computable=false and a recorded reason, never NaN or Inf.
func ComputeRatios(snap *models.FundamentalsSnapshot) models.RatioSet {
	rs := models.RatioSet{}
	if snap == nil {
		return unavailableSet("no snapshot")
	}

	// Valuation: prefer provider-reported multiples, derive otherwise.
	rs.PE = peRatio(snap)
	rs.PB = pbRatio(snap)
	rs.DividendYield = dividendYield(snap)

	latest := snap.LatestYear()
	if latest == nil {
		missing := unavailableSet("no fiscal year data")
		missing.PE = rs.PE
		missing.PB = rs.PB
		missing.DividendYield = rs.DividendYield
		return missing
	}

	// Profitability
	rs.NetMargin = pct(div(latest.NetIncome, latest.Revenue, "net income", "revenue"))
	rs.GrossMargin = pct(div(latest.GrossProfit, latest.Revenue, "gross profit", "revenue"))
	rs.ROE = pct(div(latest.NetIncome, latest.TotalEquity, "net income", "total equity"))
	rs.ROA = pct(div(latest.NetIncome, latest.TotalAssets, "net income", "total assets"))

	// Liquidity
	rs.CurrentRatio = div(latest.CurrentAssets, latest.CurrentLiabilities, "current assets", "current liabilities")
	rs.QuickRatio = quickRatio(latest)

	// Solvency
	rs.DebtToEquity = div(latest.TotalDebt, latest.TotalEquity, "total debt", "total equity")
	rs.InterestCoverage = div(latest.OperatingIncome, latest.InterestExpense, "operating income", "interest expense")

	// Growth
	rs.RevenueGrowthYoY = revenueGrowthYoY(snap)
	rs.RevenueCAGR3Y = revenueCAGR(snap, 3)

	return rs
}

// --- Individual ratios ---

func peRatio(snap *models.FundamentalsSnapshot) models.Ratio {
	if snap.PERatio.Valid && snap.PERatio.Value != 0 {
		return models.OKRatio(snap.PERatio.Value)
	}
	// Derive from price and trailing EPS when the multiple itself is absent.
	return div(snap.Price, snap.TrailingEPS, "price", "trailing EPS")
}

func pbRatio(snap *models.FundamentalsSnapshot) models.Ratio {
	if snap.PBRatio.Valid && snap.PBRatio.Value != 0 {
		return models.OKRatio(snap.PBRatio.Value)
	}
	// Derive from market cap and book equity.
	latest := snap.LatestYear()
	if latest == nil {
		return models.BadRatio("price-to-book missing and no fiscal year data to derive it")
	}
	return div(snap.MarketCap, latest.TotalEquity, "market cap", "total equity")
}

func dividendYield(snap *models.FundamentalsSnapshot) models.Ratio {
	if snap.DividendYield.Valid && snap.DividendYield.Value != 0 {
		v := snap.DividendYield.Value
		// Some providers report a fraction, others a percentage.
		if v > 0 && v < 1 {
			v *= 100
		}
		return models.OKRatio(v)
	}
	return pct(div(snap.DividendPerShare, snap.Price, "dividend per share", "price"))
}

func quickRatio(latest *models.FiscalYear) models.Ratio {
	if !latest.CurrentAssets.Valid || latest.CurrentAssets.Value == 0 {
		return models.BadRatio("current assets missing")
	}
	if !latest.CurrentLiabilities.Valid || latest.CurrentLiabilities.Value == 0 {
		return models.BadRatio("current liabilities missing or zero")
	}
	quick := latest.CurrentAssets.Value
	if latest.Inventory.Valid {
		quick -= latest.Inventory.Value
	}
	return models.OKRatio(quick / latest.CurrentLiabilities.Value)
}

func revenueGrowthYoY(snap *models.FundamentalsSnapshot) models.Ratio {
	latest, prior := snap.LatestYear(), snap.PriorYear()
	if latest == nil || prior == nil {
		return models.BadRatio("fewer than two fiscal years")
	}
	if !prior.Revenue.Valid || prior.Revenue.Value == 0 {
		return models.BadRatio("prior-year revenue missing")
	}
	if !latest.Revenue.Valid || latest.Revenue.Value == 0 {
		return models.BadRatio("latest revenue missing")
	}
	return models.OKRatio((latest.Revenue.Value - prior.Revenue.Value) / prior.Revenue.Value * 100)
}

// revenueCAGR computes the compound annual growth rate across n years;
// it needs n+1 years of statement data.
func revenueCAGR(snap *models.FundamentalsSnapshot, n int) models.Ratio {
	if len(snap.Years) < n+1 {
		return models.BadRatio("insufficient fiscal year history")
	}
	first := snap.Years[n].Revenue
	last := snap.Years[0].Revenue
	if !first.Valid || first.Value <= 0 {
		return models.BadRatio("base-year revenue missing")
	}
	if !last.Valid || last.Value <= 0 {
		return models.BadRatio("latest revenue missing")
	}
	cagr := math.Pow(last.Value/first.Value, 1.0/float64(n)) - 1
	return models.OKRatio(cagr * 100)
}

// --- Helpers ---

// div is the guarded division every ratio goes through. Missing or
// zero-valued inputs produce a non-computable ratio; zeros are treated
// as missing because upstream feeds emit 0 for absent line items. A
// negative denominator (negative equity, most commonly) makes the
// ratio's sign ambiguous, so it is flagged rather than computed.
func div(num, den models.Field, numName, denName string) models.Ratio {
	if !num.Valid || num.Value == 0 {
		return models.BadRatio(numName + " missing")
	}
	if !den.Valid || den.Value == 0 {
		return models.BadRatio(denName + " missing or zero")
	}
	if den.Value < 0 {
		return models.BadRatio(denName + " negative")
	}
	return models.OKRatio(num.Value / den.Value)
}

// pct converts a computable fraction to a percentage.
func pct(r models.Ratio) models.Ratio {
	if !r.Computable {
		return r
	}
	return models.OKRatio(r.Value * 100)
}

func unavailableSet(reason string) models.RatioSet {
	bad := models.BadRatio(reason)
	return models.RatioSet{
		PE: bad, PB: bad, DividendYield: bad,
		NetMargin: bad, GrossMargin: bad, ROE: bad, ROA: bad,
		CurrentRatio: bad, QuickRatio: bad,
		DebtToEquity: bad, InterestCoverage: bad,
		RevenueGrowthYoY: bad, RevenueCAGR3Y: bad,
	}
}
