package lag

import "math"

// ExpectedExit projects the market price after the anticipated catch-up move.
// moveChangePct is the reference-side move in percent; transferCoefficient is
// the expected market move per unit of reference move.
func ExpectedExit(currentPrice, moveChangePct, transferCoefficient float64) float64 {
	return currentPrice * (1 + math.Abs(moveChangePct)/100*transferCoefficient)
}

// MaxAcceptableEntry returns the highest entry price that still yields at
// least minProfitPct if the market reaches the projected exit. Used only
// under the price-protected execution policy.
func MaxAcceptableEntry(currentPrice, moveChangePct, minProfitPct, transferCoefficient float64) float64 {
	expectedExit := ExpectedExit(currentPrice, moveChangePct, transferCoefficient)
	return expectedExit / (1 + minProfitPct/100)
}
