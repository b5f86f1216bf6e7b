package fundamental

import (
	"github.com/equityscope/equityscope/pkg/models"
)

// ComputeDuPont decomposes ROE into net margin, asset turnover and
// equity multiplier. The factors use exactly the fields ComputeRatios
// uses for ROE, so when all three are computable their product equals
// the ratio-set ROE (as a fraction) by construction. Any missing factor
// marks the breakdown partial and leaves the product unset.
func ComputeDuPont(snap *models.FundamentalsSnapshot) models.DuPontBreakdown {
	if snap == nil {
		return partialDuPont("no snapshot")
	}
	latest := snap.LatestYear()
	if latest == nil {
		return partialDuPont("no fiscal year data")
	}

	dp := models.DuPontBreakdown{
		NetMargin:        div(latest.NetIncome, latest.Revenue, "net income", "revenue"),
		AssetTurnover:    div(latest.Revenue, latest.TotalAssets, "revenue", "total assets"),
		EquityMultiplier: div(latest.TotalAssets, latest.TotalEquity, "total assets", "total equity"),
	}

	if dp.NetMargin.Computable && dp.AssetTurnover.Computable && dp.EquityMultiplier.Computable {
		dp.ROE = models.OKRatio(dp.NetMargin.Value * dp.AssetTurnover.Value * dp.EquityMultiplier.Value)
		return dp
	}
	dp.ROE = models.BadRatio("one or more factors not computable")
	dp.Partial = true
	return dp
}

func partialDuPont(reason string) models.DuPontBreakdown {
	bad := models.BadRatio(reason)
	return models.DuPontBreakdown{
		NetMargin:        bad,
		AssetTurnover:    bad,
		EquityMultiplier: bad,
		ROE:              bad,
		Partial:          true,
	}
}
