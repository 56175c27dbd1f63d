package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diogo/advisor/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		quotes []models.MarketQuote
		want   string
	}{
		{
			name:   "single quote",
			text:   "Should I buy?",
			quotes: []models.MarketQuote{quote("Bitcoin", "btc", "65000")},
			want: "User message: Should I buy?\n\nCrypto data:\nBitcoin (BTC): $65000\n" +
				"\nProvide investment advice based on the above data and user message.",
		},
		{
			name:   "no quotes",
			text:   "hi",
			quotes: nil,
			want:   "User message: hi\n\nCrypto data:\n\nProvide investment advice based on the above data and user message.",
		},
		{
			name: "order preserved",
			text: "x",
			quotes: []models.MarketQuote{
				quote("XRP", "xrp", "0.5234"),
				quote("Bitcoin", "btc", "65000"),
			},
			want: "User message: x\n\nCrypto data:\nXRP (XRP): $0.5234\nBitcoin (BTC): $65000\n" +
				"\nProvide investment advice based on the above data and user message.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPrompt(tt.text, tt.quotes))
		})
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	quotes := sampleQuotes()
	first := BuildPrompt("same input", quotes)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildPrompt("same input", quotes))
	}
}
