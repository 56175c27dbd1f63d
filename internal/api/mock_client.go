package api

import (
	"context"
	"sync"

	"github.com/diogo/advisor/internal/models"
)

// MockPriceSource is a PriceSource for tests.
// When Gate is set, Quotes blocks until it is closed or ctx is done.
type MockPriceSource struct {
	Result []models.MarketQuote
	Err    error
	Gate   chan struct{}

	mu    sync.Mutex
	calls []MockQuotesCall
}

// MockQuotesCall records the arguments of one Quotes call
type MockQuotesCall struct {
	Currency string
	IDs      []string
}

// Quotes implements PriceSource
func (m *MockPriceSource) Quotes(ctx context.Context, currency string, ids []string) ([]models.MarketQuote, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockQuotesCall{Currency: currency, IDs: append([]string(nil), ids...)})
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Calls returns the recorded calls
func (m *MockPriceSource) Calls() []MockQuotesCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockQuotesCall(nil), m.calls...)
}

// MockAdvisor is an Advisor for tests.
// When Gate is set, Chat blocks until it is closed or ctx is done.
type MockAdvisor struct {
	Response string
	Err      error
	Gate     chan struct{}

	mu    sync.Mutex
	calls [][]models.Message
}

// Chat implements Advisor
func (m *MockAdvisor) Chat(ctx context.Context, messages []models.Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]models.Message(nil), messages...))
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns the conversations passed to Chat
func (m *MockAdvisor) Calls() [][]models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.Message(nil), m.calls...)
}
