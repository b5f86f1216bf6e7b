// EquityScope — multi-provider stock research and scoring.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/equityscope/equityscope/internal/analysis/fundamental"
	"github.com/equityscope/equityscope/internal/analysis/scoring"
	"github.com/equityscope/equityscope/internal/analysis/sentiment"
	"github.com/equityscope/equityscope/internal/api"
	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/internal/datasource"
	"github.com/equityscope/equityscope/internal/report"
	"github.com/equityscope/equityscope/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "equityscope",
	Short: "EquityScope — multi-provider stock research and scoring",
	Long: `EquityScope aggregates fundamentals from multiple market data
providers, computes accounting ratios and a DuPont breakdown, scores the
result into a BUY/HOLD/SELL recommendation, and assembles a 13-section
research report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "emit JSON instead of formatted text")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newAggregator wires the provider set from config.
func newAggregator() *datasource.Aggregator {
	yahoo := datasource.NewYahoo(cfg.Providers.YahooBaseURL)
	news := datasource.NewNews(cfg.Providers.NewsAPIBaseURL, cfg.Providers.NewsAPIKey)

	// Extended fundamentals prefer Alpha Vantage when a key is set;
	// Yahoo backfills whatever it leaves absent.
	var funds []datasource.FundamentalsProvider
	av := datasource.NewAlphaVantage(cfg.Providers.AlphaVantageBaseURL, cfg.Providers.AlphaVantageKey)
	if av.Enabled() {
		funds = append(funds, av)
	}
	funds = append(funds, yahoo)

	return datasource.NewAggregator(cfg.Aggregator, yahoo, yahoo, news, funds...)
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("EquityScope %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Quote ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Fetch the merged snapshot for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newAggregator().Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return emitJSON(snap)
		}

		fmt.Printf("%s", snap.Symbol)
		if snap.CompanyName.Valid {
			fmt.Printf(" — %s", snap.CompanyName.Value)
		}
		fmt.Println()
		if snap.Price.Valid {
			fmt.Printf("  Price:      %.2f %s (via %s)\n", snap.Price.Value, snap.Currency, snap.Price.Source)
		}
		if snap.MarketCap.Valid {
			fmt.Printf("  Market Cap: %.0f\n", snap.MarketCap.Value)
		}
		if snap.PERatio.Valid {
			fmt.Printf("  P/E:        %.2f\n", snap.PERatio.Value)
		}
		for _, w := range snap.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		return nil
	},
}

// --- Ratios ---

var ratiosCmd = &cobra.Command{
	Use:   "ratios [ticker]",
	Short: "Compute financial ratios and the DuPont breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newAggregator().Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ratios := fundamental.ComputeRatios(snap)
		dupont := fundamental.ComputeDuPont(snap)
		return emitJSON(map[string]any{
			"symbol": snap.Symbol,
			"ratios": ratios,
			"dupont": dupont,
		})
	},
}

// --- Analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Score a symbol into a BUY/HOLD/SELL recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := newAggregator()
		snap, err := agg.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var sig *models.SentimentSignal
		if articles, err := agg.News(cmd.Context(), snap.Symbol, cfg.Providers.NewsLimit); err == nil && len(articles) > 0 {
			s := sentiment.Aggregate(snap.Symbol, articles, time.Now().UTC())
			sig = &s
		}

		rec := scoring.NewEngine(cfg.Scoring).Score(scoring.Input{
			Snapshot:  snap,
			Ratios:    fundamental.ComputeRatios(snap),
			DuPont:    fundamental.ComputeDuPont(snap),
			Sentiment: sig,
		})
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return emitJSON(rec)
		}

		fmt.Printf("%s: %s (score %.2f, confidence %.0f%%)\n", rec.Symbol, rec.Rating, rec.Score, rec.Confidence*100)
		if rec.TargetPrice > 0 {
			fmt.Printf("  Target price: %.2f\n", rec.TargetPrice)
		}
		for _, p := range rec.KeyPoints {
			fmt.Printf("  - %s\n", p)
		}
		return nil
	},
}

// --- News ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Fetch recent news with sentiment annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := newAggregator().News(cmd.Context(), args[0], cfg.Providers.NewsLimit)
		if err != nil {
			return err
		}
		sentiment.Annotate(articles)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return emitJSON(articles)
		}

		for _, a := range articles {
			fmt.Printf("[%s] %s\n    %s (%s)\n", a.SentimentLabel, a.Title, a.URL, a.Source)
		}
		return nil
	},
}

// --- Report ---

var reportCmd = &cobra.Command{
	Use:   "report [ticker]",
	Short: "Assemble the full 13-section research report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := newAggregator()
		snap, err := agg.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		ratios := fundamental.ComputeRatios(snap)
		dupont := fundamental.ComputeDuPont(snap)

		var articles []models.NewsArticle
		if news, err := agg.News(cmd.Context(), snap.Symbol, cfg.Providers.NewsLimit); err == nil {
			articles = sentiment.Annotate(news)
		}
		sig := sentiment.Aggregate(snap.Symbol, articles, time.Now().UTC())

		rec := scoring.NewEngine(cfg.Scoring).Score(scoring.Input{
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
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return emitJSON(rep)
		}
		fmt.Print(report.RenderText(rep))
		return nil
	},
}

// --- Serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		srv := api.NewServer(cfg, newAggregator(), version)
		fmt.Printf("EquityScope API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  EquityScope — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Yahoo:       %s\n", cfg.Providers.YahooBaseURL)
		fmt.Printf("    Cache TTL:   %s\n", cfg.Aggregator.CacheTTL())
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range cfg.KeyStatuses() {
			status := "not set (provider disabled)"
			if k.Set {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-24s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
