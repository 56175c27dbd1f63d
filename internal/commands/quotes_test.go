package commands

import (
	"strings"
	"testing"

	apierrors "github.com/diogo/advisor/internal/errors"
)

func TestQuotesCommand_Table(t *testing.T) {
	td := newTestDeps()
	if err := td.run("quotes"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out := td.stdout.String()
	for _, want := range []string{"PRICE (USD)", "Bitcoin", "BTC", "$65,000.00", "$3,200.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestQuotesCommand_Raw(t *testing.T) {
	td := newTestDeps()
	if err := td.run("quotes", "--raw"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "Bitcoin (BTC): $65000\nEthereum (ETH): $3200.5\n"
	if td.stdout.String() != want {
		t.Errorf("stdout = %q, want %q", td.stdout.String(), want)
	}
}

func TestQuotesCommand_Error(t *testing.T) {
	td := newTestDeps()
	td.prices.Err = apierrors.NewNetworkErrorWithEndpoint("fetch quotes", "https://api.coingecko.com", nil)

	if err := td.run("quotes"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(td.stderr.String(), "Failed to fetch prices") {
		t.Errorf("stderr = %q", td.stderr.String())
	}
}
