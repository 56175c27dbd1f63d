package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MarketQuote is the current price of one tracked asset
type MarketQuote struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// Ticker returns the upper-cased symbol
func (q MarketQuote) Ticker() string {
	return strings.ToUpper(q.Symbol)
}

// Line renders the quote as "<name> (<SYMBOL>): $<price>"
func (q MarketQuote) Line() string {
	return fmt.Sprintf("%s (%s): $%s", q.Name, q.Ticker(), q.CurrentPrice.String())
}
