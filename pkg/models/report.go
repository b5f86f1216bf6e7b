package models

import "time"

// SectionID identifies one of the 13 fixed report sections.
type SectionID string

const (
	SectionHeader        SectionID = "header"
	SectionBusiness      SectionID = "business_overview"
	SectionSnapshot      SectionID = "financial_snapshot"
	SectionKeyMetrics    SectionID = "key_metrics"
	SectionHighlights    SectionID = "strategic_highlights"
	SectionQuarterly     SectionID = "quarterly_performance"
	SectionIndustry      SectionID = "industry_overview"
	SectionPortfolio     SectionID = "brand_portfolio"
	SectionCommentary    SectionID = "management_commentary"
	SectionRatiosTable   SectionID = "ratios_table"
	SectionDuPont        SectionID = "dupont_analysis"
	SectionRating        SectionID = "ratings_rationale"
	SectionDisclaimer    SectionID = "disclaimer"
)

// SectionOrder is the fixed display order of the 13 report sections.
// A Report always contains exactly these sections in exactly this order.
var SectionOrder = [13]SectionID{
	SectionHeader,
	SectionBusiness,
	SectionSnapshot,
	SectionKeyMetrics,
	SectionHighlights,
	SectionQuarterly,
	SectionIndustry,
	SectionPortfolio,
	SectionCommentary,
	SectionRatiosTable,
	SectionDuPont,
	SectionRating,
	SectionDisclaimer,
}

// Row is one labeled row in a section table.
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Section is one report section. Sections are never omitted: when the
// backing data is missing the section still appears with Unavailable set,
// an explicit placeholder body, and the list of fields that were missing.
type Section struct {
	Number        int       `json:"number"` // 1-based position
	ID            SectionID `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Rows          []Row     `json:"rows,omitempty"`
	Unavailable   bool      `json:"unavailable,omitempty"`
	MissingFields []string  `json:"missing_fields,omitempty"`
}

// Report is the assembled multi-section research report for one symbol.
type Report struct {
	Symbol      string      `json:"symbol"`
	CompanyName string      `json:"company_name,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
	Sections    [13]Section `json:"sections"`
}

// SectionByID returns the section with the given id, or nil.
func (r *Report) SectionByID(id SectionID) *Section {
	for i := range r.Sections {
		if r.Sections[i].ID == id {
			return &r.Sections[i]
		}
	}
	return nil
}
