// Package report assembles the fixed 13-section research report from the
// snapshot, computed ratios, DuPont breakdown, recommendation, news and
// externally supplied narrative text. The assembler performs no I/O and
// is safe for concurrent use.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/equityscope/equityscope/pkg/models"
)

// Disclaimer is the static closing section text. It is identical for
// every report regardless of input.
const Disclaimer = "This report is generated automatically from publicly available data " +
	"for educational purposes only. It is not investment advice, an offer, or a " +
	"solicitation to buy or sell any security. Figures may be incomplete, delayed, " +
	"or inaccurate. Always consult a registered financial adviser before making " +
	"investment decisions."

// Narrative carries the externally supplied prose sections. Any empty
// field renders its section as unavailable rather than dropping it.
type Narrative struct {
	StrategicHighlights  string
	IndustryOverview     string
	BrandPortfolio       string
	ManagementCommentary string
}

// Input bundles everything the assembler consumes.
type Input struct {
	Snapshot       *models.FundamentalsSnapshot
	Ratios         models.RatioSet
	DuPont         models.DuPontBreakdown
	Recommendation models.Recommendation
	Sentiment      models.SentimentSignal
	News           []models.NewsArticle
	Narrative      Narrative
	GeneratedAt    time.Time
}

// Assemble builds the report. The result always contains exactly the 13
// sections of models.SectionOrder, in that order, numbered from 1;
// sections whose backing data is missing appear with Unavailable set and
// the missing fields listed.
func Assemble(in Input) models.Report {
	rep := models.Report{
		GeneratedAt: in.GeneratedAt,
	}
	if in.Snapshot != nil {
		rep.Symbol = in.Snapshot.Symbol
		if in.Snapshot.CompanyName.Valid {
			rep.CompanyName = in.Snapshot.CompanyName.Value
		}
	}

	for i, id := range models.SectionOrder {
		sec := buildSection(id, in)
		sec.Number = i + 1
		sec.ID = id
		rep.Sections[i] = sec
	}
	return rep
}

func buildSection(id models.SectionID, in Input) models.Section {
	switch id {
	case models.SectionHeader:
		return headerSection(in)
	case models.SectionBusiness:
		return businessSection(in.Snapshot)
	case models.SectionSnapshot:
		return snapshotSection(in.Snapshot)
	case models.SectionKeyMetrics:
		return keyMetricsSection(in.Snapshot, in.Ratios)
	case models.SectionHighlights:
		return narrativeSection("Strategic Highlights", in.Narrative.StrategicHighlights, "strategic highlights text")
	case models.SectionQuarterly:
		return performanceSection(in.Snapshot)
	case models.SectionIndustry:
		return narrativeSection("Industry Overview", in.Narrative.IndustryOverview, "industry overview text")
	case models.SectionPortfolio:
		return narrativeSection("Brand & Segment Portfolio", in.Narrative.BrandPortfolio, "brand/segment portfolio text")
	case models.SectionCommentary:
		return commentarySection(in)
	case models.SectionRatiosTable:
		return ratiosSection(in.Ratios)
	case models.SectionDuPont:
		return dupontSection(in.DuPont)
	case models.SectionRating:
		return ratingSection(in.Recommendation)
	case models.SectionDisclaimer:
		return models.Section{Title: "Disclaimer", Body: Disclaimer}
	}
	return models.Section{Title: string(id), Unavailable: true, Body: insufficientData}
}

const insufficientData = "Insufficient data to populate this section."

// --- Section builders ---

func headerSection(in Input) models.Section {
	sec := models.Section{Title: "Equity Research Report"}
	if in.Snapshot == nil {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"snapshot"}
		return sec
	}
	snap := in.Snapshot

	name := snap.Symbol
	if snap.CompanyName.Valid {
		name = snap.CompanyName.Value
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", name, snap.Symbol)
	if snap.Exchange != "" {
		fmt.Fprintf(&b, " · %s", snap.Exchange)
	}
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "\nGenerated %s", in.GeneratedAt.Format("02 Jan 2006 15:04 MST"))
	}
	if in.Recommendation.Rating != "" {
		fmt.Fprintf(&b, "\nRating: %s", in.Recommendation.Rating)
		if in.Recommendation.TargetPrice > 0 {
			fmt.Fprintf(&b, " | Target Price: %s", money(in.Recommendation.TargetPrice, snap.Currency))
		}
	}
	sec.Body = b.String()
	return sec
}

func businessSection(snap *models.FundamentalsSnapshot) models.Section {
	sec := models.Section{Title: "Business Overview"}
	if snap == nil || !snap.Description.Valid {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"description"}
		return sec
	}
	sec.Body = snap.Description.Value
	if snap.Sector.Valid {
		sec.Rows = append(sec.Rows, models.Row{Label: "Sector", Values: []string{snap.Sector.Value}})
	}
	if snap.Industry.Valid {
		sec.Rows = append(sec.Rows, models.Row{Label: "Industry", Values: []string{snap.Industry.Value}})
	}
	return sec
}

func snapshotSection(snap *models.FundamentalsSnapshot) models.Section {
	sec := models.Section{Title: "Financial Snapshot"}
	if snap == nil {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"snapshot"}
		return sec
	}

	var missing []string
	add := func(label string, f models.Field, render func(float64) string) {
		if !f.Valid {
			missing = append(missing, strings.ToLower(label))
			return
		}
		sec.Rows = append(sec.Rows, models.Row{Label: label, Values: []string{render(f.Value)}})
	}
	cur := snap.Currency
	add("Current Price", snap.Price, func(v float64) string { return money(v, cur) })
	add("Market Cap", snap.MarketCap, func(v float64) string { return compact(v, cur) })
	add("52-Week High", snap.Week52High, func(v float64) string { return money(v, cur) })
	add("52-Week Low", snap.Week52Low, func(v float64) string { return money(v, cur) })
	add("Volume", snap.Volume, func(v float64) string { return compact(v, "") })
	add("Shares Outstanding", snap.SharesOutstanding, func(v float64) string { return compact(v, "") })

	if len(sec.Rows) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
	}
	sec.MissingFields = missing
	return sec
}

func keyMetricsSection(snap *models.FundamentalsSnapshot, rs models.RatioSet) models.Section {
	sec := models.Section{Title: "Key Metrics"}

	var missing []string
	addRatio := func(label string, r models.Ratio, render func(float64) string) {
		if !r.Computable {
			missing = append(missing, strings.ToLower(label))
			return
		}
		sec.Rows = append(sec.Rows, models.Row{Label: label, Values: []string{render(r.Value)}})
	}
	addRatio("P/E Ratio", rs.PE, ratio2)
	addRatio("P/B Ratio", rs.PB, ratio2)
	addRatio("Dividend Yield", rs.DividendYield, percent)
	if snap != nil && snap.TrailingEPS.Valid {
		sec.Rows = append(sec.Rows, models.Row{Label: "EPS (TTM)", Values: []string{ratio2(snap.TrailingEPS.Value)}})
	} else {
		missing = append(missing, "eps (ttm)")
	}
	if snap != nil && snap.Beta.Valid {
		sec.Rows = append(sec.Rows, models.Row{Label: "Beta", Values: []string{ratio2(snap.Beta.Value)}})
	}

	if len(sec.Rows) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
	}
	sec.MissingFields = missing
	return sec
}

// performanceSection tabulates the trailing fiscal periods, newest first.
func performanceSection(snap *models.FundamentalsSnapshot) models.Section {
	sec := models.Section{Title: "Financial Performance"}
	if snap == nil || len(snap.Years) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"fiscal year statements"}
		return sec
	}

	labels := make([]string, len(snap.Years))
	for i, y := range snap.Years {
		labels[i] = y.Label
	}
	sec.Rows = append(sec.Rows, models.Row{Label: "Period", Values: labels})

	cur := snap.Currency
	line := func(label string, pick func(models.FiscalYear) models.Field) {
		values := make([]string, len(snap.Years))
		any := false
		for i, y := range snap.Years {
			f := pick(y)
			if f.Valid {
				values[i] = compact(f.Value, cur)
				any = true
			} else {
				values[i] = "—"
			}
		}
		if any {
			sec.Rows = append(sec.Rows, models.Row{Label: label, Values: values})
		} else {
			sec.MissingFields = append(sec.MissingFields, strings.ToLower(label))
		}
	}
	line("Revenue", func(y models.FiscalYear) models.Field { return y.Revenue })
	line("Gross Profit", func(y models.FiscalYear) models.Field { return y.GrossProfit })
	line("Operating Income", func(y models.FiscalYear) models.Field { return y.OperatingIncome })
	line("Net Income", func(y models.FiscalYear) models.Field { return y.NetIncome })
	line("Total Equity", func(y models.FiscalYear) models.Field { return y.TotalEquity })
	return sec
}

func narrativeSection(title, text, missingField string) models.Section {
	sec := models.Section{Title: title}
	if strings.TrimSpace(text) == "" {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{missingField}
		return sec
	}
	sec.Body = text
	return sec
}

// commentarySection prefers supplied commentary text and falls back to a
// digest of recent news headlines with their sentiment.
func commentarySection(in Input) models.Section {
	if strings.TrimSpace(in.Narrative.ManagementCommentary) != "" {
		return narrativeSection("Management Commentary & News", in.Narrative.ManagementCommentary, "")
	}

	sec := models.Section{Title: "Management Commentary & News"}
	if len(in.News) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"management commentary text", "news articles"}
		return sec
	}

	var b strings.Builder
	if in.Sentiment.ArticleCount > 0 {
		fmt.Fprintf(&b, "%s sentiment across %d recent articles.\n", in.Sentiment.Label, in.Sentiment.ArticleCount)
	}
	limit := len(in.News)
	if limit > 5 {
		limit = 5
	}
	for _, a := range in.News[:limit] {
		label := a.SentimentLabel
		if label == "" {
			label = "Neutral"
		}
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", label, a.Title, a.Source)
	}
	sec.Body = strings.TrimRight(b.String(), "\n")
	return sec
}

func ratiosSection(rs models.RatioSet) models.Section {
	sec := models.Section{Title: "Financial Ratios"}

	type entry struct {
		label  string
		r      models.Ratio
		render func(float64) string
	}
	entries := []entry{
		{"Net Margin", rs.NetMargin, percent},
		{"Gross Margin", rs.GrossMargin, percent},
		{"Return on Equity", rs.ROE, percent},
		{"Return on Assets", rs.ROA, percent},
		{"Current Ratio", rs.CurrentRatio, ratio2},
		{"Quick Ratio", rs.QuickRatio, ratio2},
		{"Debt to Equity", rs.DebtToEquity, ratio2},
		{"Interest Coverage", rs.InterestCoverage, times},
		{"Revenue Growth YoY", rs.RevenueGrowthYoY, percent},
		{"Revenue CAGR (3Y)", rs.RevenueCAGR3Y, percent},
	}
	for _, e := range entries {
		if !e.r.Computable {
			sec.MissingFields = append(sec.MissingFields, strings.ToLower(e.label))
			continue
		}
		sec.Rows = append(sec.Rows, models.Row{Label: e.label, Values: []string{e.render(e.r.Value)}})
	}
	if len(sec.Rows) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
	}
	return sec
}

func dupontSection(dp models.DuPontBreakdown) models.Section {
	sec := models.Section{Title: "DuPont Analysis"}

	add := func(label string, r models.Ratio, render func(float64) string) {
		if !r.Computable {
			sec.MissingFields = append(sec.MissingFields, strings.ToLower(label))
			return
		}
		sec.Rows = append(sec.Rows, models.Row{Label: label, Values: []string{render(r.Value)}})
	}
	add("Net Margin", dp.NetMargin, func(v float64) string { return percent(v * 100) })
	add("Asset Turnover", dp.AssetTurnover, times)
	add("Equity Multiplier", dp.EquityMultiplier, times)
	add("ROE (product)", dp.ROE, func(v float64) string { return percent(v * 100) })

	if dp.Partial {
		sec.Body = "Breakdown is partial: one or more factors could not be computed."
	} else {
		sec.Body = "ROE = net margin × asset turnover × equity multiplier."
	}
	if len(sec.Rows) == 0 {
		sec.Unavailable = true
		sec.Body = insufficientData
	}
	return sec
}

func ratingSection(rec models.Recommendation) models.Section {
	sec := models.Section{Title: "Rating & Rationale"}
	if rec.Rating == "" {
		sec.Unavailable = true
		sec.Body = insufficientData
		sec.MissingFields = []string{"recommendation"}
		return sec
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rating: %s (score %.2f, confidence %.0f%%)", rec.Rating, rec.Score, rec.Confidence*100)
	if rec.TargetPrice > 0 {
		fmt.Fprintf(&b, "\nTarget price: %.2f", rec.TargetPrice)
	}
	if rec.Analysis != "" {
		fmt.Fprintf(&b, "\n\n%s", rec.Analysis)
	}
	sec.Body = b.String()

	for _, p := range rec.KeyPoints {
		sec.Rows = append(sec.Rows, models.Row{Label: "•", Values: []string{p}})
	}
	return sec
}

// --- Formatting helpers ---

func money(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}

// compact renders a large figure with a T/B/M/K suffix.
func compact(v float64, currency string) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	var s string
	switch {
	case abs >= 1e12:
		s = fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		s = fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		s = fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e3:
		s = fmt.Sprintf("%.2fK", v/1e3)
	default:
		s = fmt.Sprintf("%.2f", v)
	}
	if currency != "" {
		s += " " + currency
	}
	return s
}

func percent(v float64) string { return fmt.Sprintf("%.2f%%", v) }
func ratio2(v float64) string  { return fmt.Sprintf("%.2f", v) }
func times(v float64) string   { return fmt.Sprintf("%.2fx", v) }
