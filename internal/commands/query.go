package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/advisor/internal/config"
	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/orchestrator"
	"github.com/diogo/advisor/internal/render"
)

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

var (
	advisorLabelStyle  lipgloss.Style
	advisorBubbleStyle lipgloss.Style
	alertStyle         lipgloss.Style
	successStyle       lipgloss.Style
	failureStyle       lipgloss.Style
	dimStyle           lipgloss.Style
)

func init() {
	applyTheme(render.GetTUITheme())
}

// applyTheme builds the one-shot output styles from the chat theme
func applyTheme(theme render.TUITheme) {
	advisorLabelStyle = lipgloss.NewStyle().Foreground(theme.Advisor).Bold(true)
	advisorBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Advisor).
		Foreground(theme.Text).
		Padding(0, 1).
		MarginTop(1).
		MarginBottom(1)
	alertStyle = lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(theme.Advisor)
	failureStyle = lipgloss.NewStyle().Foreground(theme.Error)
	dimStyle = lipgloss.NewStyle().Foreground(theme.TextDim)
}

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner shows the current turn stage and elapsed time on w
type spinner struct {
	w       io.Writer
	message string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	s.started = time.Now()
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")
		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage changes the label shown next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// render draws one frame. MUST be called with s.mu held.
func (s *spinner) render() {
	theme := render.GetTUITheme()
	frame := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(spinnerFrames[s.frame%len(spinnerFrames)])
	msg := lipgloss.NewStyle().Foreground(theme.Text).Render(s.message)
	elapsed := lipgloss.NewStyle().Foreground(theme.TextMute).Render(
		fmt.Sprintf("%.1fs", time.Since(s.started).Seconds()),
	)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", frame, msg, elapsed)
}

func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done
	fmt.Fprintf(s.w, "%s %s\n", successStyle.Bold(true).Render("✓"), successStyle.Render(message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// stateLabel describes what a turn is waiting on
func stateLabel(state orchestrator.State) string {
	switch state {
	case orchestrator.StateSubmitting, orchestrator.StateFetchingMarketData:
		return "Fetching market prices"
	case orchestrator.StateBuildingPrompt:
		return "Building prompt"
	case orchestrator.StateAwaitingAdvice:
		return "Waiting for advice"
	default:
		return "Done"
	}
}

// runAsk sends one question through the orchestrator and prints the answer.
// Failure outcomes are reported on stderr and returned as errors.
func runAsk(ctx context.Context, deps *Dependencies, flags *globalFlags, ask *askFlags, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	cfg, err := deps.loadConfig(flags)
	if err != nil {
		return err
	}

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		applyTheme(render.GetTUITheme())
	}

	decorated := !ask.raw && isTerminal(deps.Stdout)
	logger := newLogger(cfg.Verbose, deps.Stderr)

	var spin *spinner
	var opts []orchestrator.Option
	if decorated {
		spin = newSpinner(deps.Stderr, stateLabel(orchestrator.StateFetchingMarketData))
		opts = append(opts, orchestrator.WithStateObserver(func(s orchestrator.State) {
			spin.setMessage(stateLabel(s))
		}))
	}

	orch, err := deps.buildOrchestrator(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}

	if spin != nil {
		spin.start()
	}
	startTime := time.Now()
	outcome, _ := orch.Ask(ctx, question)
	logger.Printf("[advisor] %s took %s", outcome.TurnID, time.Since(startTime).Round(time.Millisecond))

	if outcome.Failed() {
		if spin != nil {
			spin.stopWithError()
		}
		return reportFailure(deps.Stderr, outcome)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}

	return writeAnswer(deps, cfg, ask, decorated, outcome.Advice)
}

// reportFailure prints the user-facing failure and returns it as an error
func reportFailure(w io.Writer, outcome orchestrator.Outcome) error {
	switch outcome.Kind {
	case orchestrator.OutcomeMarketFailure:
		fmt.Fprintln(w, formatErrorMessage(outcome.Err, "Market data unavailable"))
		return fmt.Errorf("market data unavailable: %w", outcome.Err)
	default:
		if outcome.Alert != "" {
			fmt.Fprintln(w, alertStyle.Render("⚠ "+outcome.Alert))
			return fmt.Errorf("advice rejected: %s", outcome.Alert)
		}
		fmt.Fprintln(w, formatErrorMessage(outcome.Err, "Advice failed"))
		return fmt.Errorf("advice failed: %w", outcome.Err)
	}
}

func writeAnswer(deps *Dependencies, cfg config.Config, ask *askFlags, decorated bool, text string) error {
	if !decorated {
		if ask.output != "" {
			if err := os.WriteFile(ask.output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		fmt.Fprint(deps.Stdout, text)
		return nil
	}

	fmt.Fprintln(deps.Stderr)

	if cfg.CopyToClipboard {
		if err := clipboardWrite(text); err != nil {
			fmt.Fprintln(deps.Stderr, failureStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(deps.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if ask.output != "" {
		if err := os.WriteFile(ask.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(deps.Stderr, successStyle.Render(fmt.Sprintf("✓ Answer saved to %s", ask.output)))
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout, advisorLabelStyle.Render("✦ Advisor"))

	rendered, err := render.Markdown(text, render.OptionsFromConfig(cfg.Markdown, contentWidth))
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")
	fmt.Fprintln(deps.Stdout, advisorBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(failureStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if rejectErr, ok := apierrors.AsReject(err); ok {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Reject Code: %s", rejectErr.Code)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// Show response body if available
	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else {
		switch {
		case apierrors.IsTimeoutError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or check your connection"))
		case apierrors.IsNetworkError(err):
			sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
		case apierrors.GetHTTPStatus(err) == 429:
			sb.WriteString(dimStyle.Render("\n  Hint: The price service is rate limiting. Set COINGECKO_API_KEY or wait a minute"))
		case apierrors.GetHTTPStatus(err) == 401 || apierrors.GetHTTPStatus(err) == 403:
			sb.WriteString(dimStyle.Render("\n  Hint: Check the API key for the selected backend"))
		}
	}

	return sb.String()
}
