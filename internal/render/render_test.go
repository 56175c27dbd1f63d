package render

import (
	"strings"
	"testing"

	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/transcript"
)

func TestMarkdown(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		width    int
		contains string
	}{
		{"heading", "# Allocation", 80, "Allocation"},
		{"bold", "Keep **60%** in BTC", 80, "60%"},
		{"list", "- Bitcoin\n- Ethereum", 80, "Ethereum"},
		{"narrow_width", "# A long heading about diversification", 40, "diversification"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, err := Markdown(tc.input, DefaultOptions().WithWidth(tc.width))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tc.contains) {
				t.Errorf("output should contain %q, got: %s", tc.contains, output)
			}
		})
	}
}

func TestMarkdownEmoji(t *testing.T) {
	input := "Markets look good :rocket:"

	output, err := Markdown(input, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(output, ":rocket:") {
		t.Errorf("emoji should have been converted, got: %s", output)
	}

	output, err = Markdown(input, DefaultOptions().WithEmoji(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, ":rocket:") {
		t.Errorf("emoji should NOT have been converted, got: %s", output)
	}
}

func TestMarkdownTable(t *testing.T) {
	output, err := MarkdownWithWidth("| Coin | Price |\n|---|---|\n| BTC | 65000 |", 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "Coin") || !strings.Contains(output, "65000") {
		t.Errorf("table should contain its cells, got: %s", output)
	}
}

func TestSpeaker(t *testing.T) {
	if Speaker(models.NewUserMessage("q")) != "You" {
		t.Error("user messages are labelled You")
	}
	if Speaker(models.NewSystemMessage("a")) != "Advisor" {
		t.Error("system messages are labelled Advisor")
	}
}

func TestTranscriptMarkdown(t *testing.T) {
	snap := transcript.Snapshot{Pending: true, Messages: []models.Message{
		models.NewSystemMessage(models.GreetingText),
		models.NewUserMessage("Should I buy?"),
		models.NewSystemMessage("Maybe.\n"),
		models.NewUserMessage("Why?"),
		models.NewSystemMessage(models.PlaceholderText),
	}}

	want := "# Advisor transcript\n" +
		"\n## Advisor\n\nI help you build the best trading portfolio\n" +
		"\n## You\n\nShould I buy?\n" +
		"\n## Advisor\n\nMaybe.\n" +
		"\n## You\n\nWhy?\n" +
		"\n## Advisor\n\n_Thinking ..._\n"

	if got := TranscriptMarkdown(snap); got != want {
		t.Errorf("TranscriptMarkdown() =\n%s\nwant\n%s", got, want)
	}

	// Once answered, the same text is ordinary content.
	snap.Pending = false
	if got := TranscriptMarkdown(snap); !strings.HasSuffix(got, "\n## Advisor\n\nThinking ...\n") {
		t.Errorf("answered placeholder text rendered as pending:\n%s", got)
	}
}
