package lag

import (
	"strings"

	"github.com/mselser95/polymarket-lag/pkg/types"
)

// Bias is the directional phrasing of an entity title.
type Bias string

const (
	Bullish Bias = "bullish"
	Bearish Bias = "bearish"
)

// bearishKeywords are checked first: titles like "Will BTC drop below $90k"
// often contain a price target that would otherwise read as bullish.
var bearishKeywords = []string{
	"below", "under", "dip to", "drop", "fall", "crash", "decline", "lower than",
}

var bullishKeywords = []string{
	"above", "over", "exceed", "reach", "hit", "rise", "surge", "higher than",
	"all-time high", "all time high",
}

// Classify scans the entity title for directional keywords. Titles matching
// no keyword get the configured default bias.
func Classify(title string, defaultBias Bias) Bias {
	lower := strings.ToLower(title)

	for _, keyword := range bearishKeywords {
		if strings.Contains(lower, keyword) {
			return Bearish
		}
	}

	for _, keyword := range bullishKeywords {
		if strings.Contains(lower, keyword) {
			return Bullish
		}
	}

	return defaultBias
}

// PickOutcome maps (bias, move direction) to the outcome token expected to
// appreciate. Total over all four combinations.
func PickOutcome(bias Bias, direction types.Direction) string {
	if bias == Bearish {
		if direction == types.DirectionUp {
			return types.OutcomeNo
		}
		return types.OutcomeYes
	}

	if direction == types.DirectionUp {
		return types.OutcomeYes
	}
	return types.OutcomeNo
}
