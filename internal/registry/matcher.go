package registry

import (
	"strings"
	"unicode"
)

// assetSynonyms maps a base asset (the reference symbol with its quote
// currency stripped) to the words that identify it in a market title.
var assetSynonyms = map[string][]string{
	"BTC":   {"btc", "bitcoin"},
	"ETH":   {"eth", "ethereum", "ether"},
	"SOL":   {"sol", "solana"},
	"XRP":   {"xrp", "ripple"},
	"DOGE":  {"doge", "dogecoin"},
	"ADA":   {"ada", "cardano"},
	"AVAX":  {"avax", "avalanche"},
	"LINK":  {"link", "chainlink"},
	"LTC":   {"ltc", "litecoin"},
	"BNB":   {"bnb"},
	"MATIC": {"matic", "polygon"},
}

var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD"}

// Matcher maps market titles to reference symbols via keyword matching.
type Matcher struct {
	keywords map[string]string // lowercase keyword -> reference symbol
}

// NewMatcher builds a matcher for the configured reference symbols. Symbols
// whose base asset has no synonym table fall back to matching the bare asset
// name.
func NewMatcher(symbols []string) *Matcher {
	keywords := make(map[string]string)

	for _, symbol := range symbols {
		base := baseAsset(symbol)

		synonyms, ok := assetSynonyms[base]
		if !ok {
			synonyms = []string{strings.ToLower(base)}
		}

		for _, keyword := range synonyms {
			keywords[keyword] = symbol
		}
	}

	return &Matcher{keywords: keywords}
}

// Match returns the reference symbol whose keywords appear in the title.
// Titles matching more than one distinct symbol are ambiguous and rejected.
func (m *Matcher) Match(title string) (string, bool) {
	matched := ""

	for _, word := range titleWords(title) {
		symbol, ok := m.keywords[word]
		if !ok {
			continue
		}
		if matched != "" && matched != symbol {
			// Ambiguous title, e.g. "Will BTC flip ETH"
			return "", false
		}
		matched = symbol
	}

	return matched, matched != ""
}

// baseAsset strips a known quote-currency suffix from a symbol.
func baseAsset(symbol string) string {
	upper := strings.ToUpper(symbol)
	for _, suffix := range quoteSuffixes {
		if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix) {
			return strings.TrimSuffix(upper, suffix)
		}
	}
	return upper
}

// titleWords splits a title into lowercase alphanumeric words.
func titleWords(title string) []string {
	return strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
