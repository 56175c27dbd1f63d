package render

import (
	"strings"

	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/transcript"
)

// Markdown renders markdown content for terminal display
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// Speaker returns the heading used for a message's author
func Speaker(m models.Message) string {
	if m.IsUser() {
		return "You"
	}
	return "Advisor"
}

// TranscriptMarkdown writes the conversation as a markdown document.
// A pending placeholder is written in italics.
func TranscriptMarkdown(snap transcript.Snapshot) string {
	var b strings.Builder
	b.WriteString("# Advisor transcript\n")
	for i, m := range snap.Messages {
		b.WriteString("\n## ")
		b.WriteString(Speaker(m))
		b.WriteString("\n\n")
		if snap.IsPending(i) {
			b.WriteString("_" + m.Content + "_")
		} else {
			b.WriteString(strings.TrimRight(m.Content, "\n"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
