package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/diogo/advisor/internal/orchestrator"
)

func TestSpinnerLifecycle_StopWithSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Fetching")
	s.start()
	time.Sleep(100 * time.Millisecond)
	s.setMessage("Waiting")
	s.stopWithSuccess("done")

	if !strings.Contains(buf.String(), "done") {
		t.Errorf("expected success message in output, got %q", buf.String())
	}
}

func TestSpinnerLifecycle_StopWithError(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Fetching")
	s.start()
	time.Sleep(30 * time.Millisecond)
	s.stopWithError()
	// A second stop must not panic
	s.stopOnce()
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state orchestrator.State
		want  string
	}{
		{orchestrator.StateSubmitting, "Fetching market prices"},
		{orchestrator.StateFetchingMarketData, "Fetching market prices"},
		{orchestrator.StateBuildingPrompt, "Building prompt"},
		{orchestrator.StateAwaitingAdvice, "Waiting for advice"},
		{orchestrator.StateIdle, "Done"},
	}

	for _, tt := range tests {
		if got := stateLabel(tt.state); got != tt.want {
			t.Errorf("stateLabel(%s) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
