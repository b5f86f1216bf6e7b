// Package symbols implements the market-suffix ticker grammar used to
// validate and classify stock symbols before any network call.
//
// A symbol is a bare US ticker ("AAPL", "BRK-B") or a ticker followed by a
// known exchange suffix ("RELIANCE.NS", "SHEL.L", "SHOP.TO").
package symbols

import (
	"fmt"
	"strings"
)

// ErrInvalidSymbol is returned when a symbol fails the grammar. It is a
// pre-network validation failure and is never retried.
var ErrInvalidSymbol = fmt.Errorf("invalid symbol")

// marketSuffixes maps exchange suffixes to the market they denote.
var marketSuffixes = map[string]string{
	".NS": "India (National Stock Exchange)",
	".BO": "India (Bombay Stock Exchange)",
	".L":  "UK (London Stock Exchange)",
	".TO": "Canada (Toronto Stock Exchange)",
	".V":  "Canada (TSX Venture Exchange)",
	".AX": "Australia (Australian Securities Exchange)",
	".NZ": "New Zealand",
	".HK": "Hong Kong",
	".SI": "Singapore",
	".KS": "South Korea",
	".T":  "Japan (Tokyo Stock Exchange)",
	".DE": "Germany (Xetra)",
	".PA": "France (Euronext Paris)",
	".AS": "Netherlands (Euronext Amsterdam)",
	".MI": "Italy (Borsa Italiana)",
	".MC": "Spain (Bolsa de Madrid)",
	".SW": "Switzerland (SIX Swiss Exchange)",
	".ST": "Sweden (Nasdaq Stockholm)",
	".OL": "Norway (Oslo Bors)",
	".BR": "Belgium (Euronext Brussels)",
	".LS": "Portugal (Euronext Lisbon)",
	".VI": "Austria (Wiener Borse)",
	".WA": "Poland (Warsaw Stock Exchange)",
	".CO": "Denmark (Nasdaq Copenhagen)",
	".HE": "Finland (Nasdaq Helsinki)",
	".SA": "Brazil (B3)",
	".MX": "Mexico (Bolsa Mexicana)",
	".JO": "South Africa (Johannesburg Stock Exchange)",
	".TA": "Israel (Tel Aviv Stock Exchange)",
	".IS": "Turkey (Borsa Istanbul)",
}

const usMarket = "United States"

// Normalize upper-cases and trims a raw symbol.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks a raw symbol against the grammar and returns the
// normalized symbol plus the market its suffix denotes. It performs no
// network I/O; a grammar failure wraps ErrInvalidSymbol.
func Validate(raw string) (symbol, market string, err error) {
	symbol = Normalize(raw)
	if symbol == "" {
		return "", "", fmt.Errorf("%w: empty symbol", ErrInvalidSymbol)
	}

	base := symbol
	market = usMarket
	maxLen := usMaxLen

	if i := strings.LastIndex(symbol, "."); i >= 0 {
		suffix := symbol[i:]
		switch m, ok := marketSuffixes[suffix]; {
		case ok:
			market = m
			base = symbol[:i]
			maxLen = suffixedMaxLen
		case isClassShareSuffix(suffix):
			// Yahoo writes US class shares with a dash (BRK-B); accept
			// the dotted form and normalize it.
			symbol = symbol[:i] + "-" + suffix[1:]
			base = symbol
		default:
			return "", "", fmt.Errorf("%w: unknown market suffix %q in %q", ErrInvalidSymbol, suffix, symbol)
		}
	}

	if err := validateBase(base, maxLen); err != nil {
		return "", "", err
	}
	return symbol, market, nil
}

// isClassShareSuffix reports whether a dot suffix is a single share-class
// letter rather than an exchange code. Single-letter exchange suffixes
// (.L, .V, .T) are checked first by the caller, so anything left here is
// a class share.
func isClassShareSuffix(suffix string) bool {
	return len(suffix) == 2 && suffix[1] >= 'A' && suffix[1] <= 'Z'
}

// Market returns the market name for an already-normalized symbol,
// defaulting to the US market for bare tickers.
func Market(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		if m, ok := marketSuffixes[symbol[i:]]; ok {
			return m
		}
		if isClassShareSuffix(symbol[i:]) {
			return usMarket
		}
		return "Unknown Market"
	}
	return usMarket
}

// Suffixes returns all known market suffixes and their descriptions.
func Suffixes() map[string]string {
	out := make(map[string]string, len(marketSuffixes))
	for k, v := range marketSuffixes {
		out[k] = v
	}
	return out
}

const (
	usMaxLen       = 6  // bare US tickers, class-share dash included
	suffixedMaxLen = 12 // covers the longest NSE tickers
)

// validateBase checks the ticker portion: letters and digits, with "-"
// allowed for share classes (BRK-B) and "&" for a few Indian listings
// (M&M).
func validateBase(base string, maxLen int) error {
	if base == "" {
		return fmt.Errorf("%w: empty ticker before suffix", ErrInvalidSymbol)
	}
	if len(base) > maxLen {
		return fmt.Errorf("%w: ticker %q longer than %d characters", ErrInvalidSymbol, base, maxLen)
	}
	if base[0] < 'A' || base[0] > 'Z' {
		return fmt.Errorf("%w: ticker %q must start with a letter", ErrInvalidSymbol, base)
	}
	for _, r := range base {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '&':
		default:
			return fmt.Errorf("%w: ticker %q contains %q", ErrInvalidSymbol, base, r)
		}
	}
	return nil
}
