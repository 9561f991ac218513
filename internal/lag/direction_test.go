package lag

import (
	"testing"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		expect Bias
	}{
		{"above-is-bullish", "Will Bitcoin be above $100,000?", Bullish},
		{"reach-is-bullish", "Will ETH reach $5,000 this year?", Bullish},
		{"ath-is-bullish", "Will Solana hit an all-time high in March?", Bullish},
		{"below-is-bearish", "Will Bitcoin fall below $80,000?", Bearish},
		{"drop-is-bearish", "Will BTC drop 10% this week?", Bearish},
		{"crash-is-bearish", "Crypto crash before June?", Bearish},
		{"bearish-wins-over-price-target", "Will Bitcoin drop below $90k?", Bearish},
		{"no-keyword-defaults", "Bitcoin at noon ET?", Bullish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Classify(tt.title, Bullish))
		})
	}
}

func TestClassify_DefaultBiasIsConfigurable(t *testing.T) {
	title := "Bitcoin at noon ET?"
	assert.Equal(t, Bullish, Classify(title, Bullish))
	assert.Equal(t, Bearish, Classify(title, Bearish))
}

// Every (bias, direction) pair is covered; the table is total.
func TestPickOutcome(t *testing.T) {
	tests := []struct {
		bias      Bias
		direction types.Direction
		expect    string
	}{
		{Bullish, types.DirectionUp, types.OutcomeYes},
		{Bullish, types.DirectionDown, types.OutcomeNo},
		{Bearish, types.DirectionUp, types.OutcomeNo},
		{Bearish, types.DirectionDown, types.OutcomeYes},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, PickOutcome(tt.bias, tt.direction),
			"bias=%s direction=%s", tt.bias, tt.direction)
	}
}
