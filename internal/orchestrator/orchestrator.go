// Package orchestrator runs one advice query at a time against the transcript.
package orchestrator

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/diogo/advisor/internal/api"
	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/transcript"
)

// Alerter shows a reject message to the user outside the transcript
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to the Alerter interface
type AlertFunc func(message string)

// Alert calls f(message)
func (f AlertFunc) Alert(message string) {
	f(message)
}

// Orchestrator drives the submit, fetch, prompt, advise, reconcile sequence.
// At most one turn is in flight; submissions while busy are ignored.
type Orchestrator struct {
	store    *transcript.Store
	prices   api.PriceSource
	advisor  api.Advisor
	currency string
	assets   []string
	alerter  Alerter
	observer func(State)
	logger   *log.Logger

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCurrency sets the quote currency
func WithCurrency(currency string) Option {
	return func(o *Orchestrator) {
		if currency != "" {
			o.currency = currency
		}
	}
}

// WithAssets sets the asset ids quoted in every prompt
func WithAssets(ids ...string) Option {
	return func(o *Orchestrator) {
		if len(ids) > 0 {
			o.assets = append([]string(nil), ids...)
		}
	}
}

// WithAlerter sets where reject messages are raised
func WithAlerter(a Alerter) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.alerter = a
		}
	}
}

// WithStateObserver registers fn to be called after every state transition.
// fn runs on the goroutine making the transition and must not block.
func WithStateObserver(fn func(State)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithLogger sets the logger for turn diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator over store
func New(store *transcript.Store, prices api.PriceSource, advisor api.Advisor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		prices:   prices,
		advisor:  advisor,
		currency: models.DefaultCurrency,
		assets:   models.DefaultAssets(),
		alerter:  AlertFunc(func(string) {}),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Transcript returns the store the orchestrator writes to
func (o *Orchestrator) Transcript() *transcript.Store {
	return o.store
}

// Currency returns the quote currency
func (o *Orchestrator) Currency() string {
	return o.currency
}

// Assets returns a copy of the quoted asset ids
func (o *Orchestrator) Assets() []string {
	return append([]string(nil), o.assets...)
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsLoading reports whether a turn is in flight
func (o *Orchestrator) IsLoading() bool {
	return o.State() != StateIdle
}

// Submit appends the user message and the placeholder in one store operation
// and returns the turn that will complete them. It returns false, leaving the
// store untouched, when userText is blank or a turn is already in flight.
func (o *Orchestrator) Submit(userText string) (*Turn, bool) {
	if strings.TrimSpace(userText) == "" {
		return nil, false
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		o.logger.Printf("[orchestrator] submission ignored, state=%s", o.State())
		return nil, false
	}

	o.store.AppendPending(
		models.NewUserMessage(userText),
		models.NewSystemMessage(models.PlaceholderText),
	)
	o.state = StateSubmitting
	o.mu.Unlock()

	turn := &Turn{
		ID:       newTurnID(),
		UserText: userText,
		o:        o,
	}
	o.logger.Printf("[orchestrator] %s submitted", turn.ID)
	o.notify(StateSubmitting)
	return turn, true
}

// Ask submits userText and runs the turn to completion
func (o *Orchestrator) Ask(ctx context.Context, userText string) (Outcome, bool) {
	turn, ok := o.Submit(userText)
	if !ok {
		return Outcome{}, false
	}
	return turn.Run(ctx), true
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.notify(s)
}

func (o *Orchestrator) notify(s State) {
	if o.observer != nil {
		o.observer(s)
	}
}

// Turn is a submitted query awaiting its market data and advice
type Turn struct {
	ID       string
	UserText string

	o       *Orchestrator
	once    sync.Once
	outcome Outcome
}

// Run fetches quotes, asks for advice and reconciles the transcript.
// Only the first call does any work; later calls return the same outcome.
// ctx is passed to both collaborators unchanged.
func (t *Turn) Run(ctx context.Context) Outcome {
	t.once.Do(func() {
		t.outcome = t.run(ctx)
		t.o.logger.Printf("[orchestrator] %s finished: %s", t.ID, t.outcome.Kind)
		t.o.setState(StateIdle)
	})
	return t.outcome
}

func (t *Turn) run(ctx context.Context) Outcome {
	o := t.o

	o.setState(StateFetchingMarketData)
	quotes, err := o.prices.Quotes(ctx, o.currency, o.assets)
	if err != nil {
		o.logger.Printf("[orchestrator] %s market data failed: %v", t.ID, err)
		o.store.ReplaceLastWith(models.NewSystemMessage(models.MarketFailureText))
		return Outcome{TurnID: t.ID, Kind: OutcomeMarketFailure, Err: err}
	}

	o.setState(StateBuildingPrompt)
	prompt := BuildPrompt(t.UserText, quotes)

	o.setState(StateAwaitingAdvice)
	o.logger.Printf("[orchestrator] %s asking for advice with %d quotes", t.ID, len(quotes))
	advice, err := o.advisor.Chat(ctx, []models.Message{models.NewUserMessage(prompt)})
	if err != nil {
		o.logger.Printf("[orchestrator] %s advice failed: %v", t.ID, err)
		out := Outcome{TurnID: t.ID, Kind: OutcomeAdviceFailure, Err: err}
		if msg, ok := apierrors.AlertMessage(err); ok {
			out.Alert = msg
			o.alerter.Alert(msg)
		}
		o.store.DropLast()
		return out
	}

	o.store.ReplaceLastWith(models.NewSystemMessage(advice))
	return Outcome{TurnID: t.ID, Kind: OutcomeAdvice, Advice: advice}
}

func newTurnID() string {
	return "turn_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
