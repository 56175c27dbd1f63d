package orchestrator

import (
	"strings"

	"github.com/diogo/advisor/internal/models"
)

const (
	promptUserPrefix  = "User message: "
	promptDataHeader  = "Crypto data:\n"
	promptInstruction = "Provide investment advice based on the above data and user message."
)

// BuildPrompt combines the user's text with one line per quote, in the order given.
// The result depends only on its inputs.
func BuildPrompt(userText string, quotes []models.MarketQuote) string {
	var b strings.Builder
	b.WriteString(promptUserPrefix)
	b.WriteString(userText)
	b.WriteString("\n\n")
	b.WriteString(promptDataHeader)
	for _, q := range quotes {
		b.WriteString(q.Line())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(promptInstruction)
	return b.String()
}
