package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
)

// PriceSource returns current quotes for a set of asset ids
type PriceSource interface {
	Quotes(ctx context.Context, currency string, ids []string) ([]models.MarketQuote, error)
}

// MarketClient fetches quotes from a CoinGecko compatible /coins/markets endpoint
type MarketClient struct {
	httpClient tls_client.HttpClient
	baseURL    string
	order      string
	apiKey     string
	logger     *log.Logger
}

// MarketOption configures a MarketClient
type MarketOption func(*MarketClient)

// WithMarketBaseURL overrides the API root, e.g. for a pro plan or a test server
func WithMarketBaseURL(base string) MarketOption {
	return func(c *MarketClient) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithOrder sets the order parameter sent to the service
func WithOrder(order string) MarketOption {
	return func(c *MarketClient) {
		if order != "" {
			c.order = order
		}
	}
}

// WithMarketAPIKey sends the key in the x-cg-demo-api-key header
func WithMarketAPIKey(key string) MarketOption {
	return func(c *MarketClient) {
		c.apiKey = key
	}
}

// WithMarketHTTPClient replaces the TLS transport
func WithMarketHTTPClient(httpClient tls_client.HttpClient) MarketOption {
	return func(c *MarketClient) {
		c.httpClient = httpClient
	}
}

// WithMarketLogger sets the logger used for request diagnostics
func WithMarketLogger(logger *log.Logger) MarketOption {
	return func(c *MarketClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewMarketClient creates a MarketClient with the default endpoint
func NewMarketClient(opts ...MarketOption) (*MarketClient, error) {
	c := &MarketClient{
		baseURL: models.EndpointCoinGecko,
		order:   models.DefaultOrder,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		httpClient, err := NewTransport(defaultTimeoutSeconds)
		if err != nil {
			return nil, err
		}
		c.httpClient = httpClient
	}
	return c, nil
}

// Endpoint returns the full markets URL without query parameters
func (c *MarketClient) Endpoint() string {
	return c.baseURL + models.PathCoinMarkets
}

// Quotes returns one quote per asset the service knows about, in the order it
// answered. Unknown ids are omitted by the service, so an empty result is valid.
func (c *MarketClient) Quotes(ctx context.Context, currency string, ids []string) ([]models.MarketQuote, error) {
	endpoint := c.Endpoint()

	query := url.Values{}
	query.Set("vs_currency", currency)
	query.Set("ids", strings.Join(ids, ","))
	query.Set("order", c.order)

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setDefaultHeaders(req)
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	c.logger.Printf("[market] GET %s ids=%s", endpoint, query.Get("ids"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("fetch quotes", endpoint, err)
	}
	defer closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		errorBody, _ := readBody(resp, maxErrorBody)
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "fetch quotes failed", string(errorBody))
	}

	body, err := readBody(resp, maxResponseBody)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read quotes", endpoint, err)
	}

	quotes, err := ParseQuotes(body)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("[market] received %d quotes", len(quotes))
	return quotes, nil
}

// ParseQuotes decodes a /coins/markets array
func ParseQuotes(body []byte) ([]models.MarketQuote, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("body is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, apierrors.NewParseError("expected an array of markets", "")
	}

	var (
		quotes   []models.MarketQuote
		parseErr error
	)
	parsed.ForEach(func(key, value gjson.Result) bool {
		quote, err := parseQuote(key.Int(), value)
		if err != nil {
			parseErr = err
			return false
		}
		quotes = append(quotes, quote)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if quotes == nil {
		quotes = []models.MarketQuote{}
	}
	return quotes, nil
}

func parseQuote(index int64, value gjson.Result) (models.MarketQuote, error) {
	at := func(field string) string {
		return fmt.Sprintf("%d.%s", index, field)
	}

	name := value.Get(PathQuoteName)
	if name.Type != gjson.String {
		return models.MarketQuote{}, apierrors.NewParseError("missing name", at(PathQuoteName))
	}
	symbol := value.Get(PathQuoteSym)
	if symbol.Type != gjson.String {
		return models.MarketQuote{}, apierrors.NewParseError("missing symbol", at(PathQuoteSym))
	}
	price := value.Get(PathQuotePrice)
	if price.Type != gjson.Number {
		return models.MarketQuote{}, apierrors.NewParseError("missing current_price", at(PathQuotePrice))
	}

	amount, err := decimal.NewFromString(price.Raw)
	if err != nil {
		return models.MarketQuote{}, apierrors.NewParseError(err.Error(), at(PathQuotePrice))
	}

	return models.MarketQuote{
		ID:           value.Get(PathQuoteID).String(),
		Name:         name.String(),
		Symbol:       symbol.String(),
		CurrentPrice: amount,
	}, nil
}
