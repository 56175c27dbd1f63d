// Package api implements the market data and advice clients.
package api

import (
	"fmt"
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/advisor/internal/models"
)

const (
	defaultTimeoutSeconds = 60
	maxErrorBody          = 4096
	maxResponseBody       = 4 << 20
)

// NewTransport creates the TLS client shared by the HTTP collaborators.
// It uses a Chrome profile so public endpoints treat it like a browser.
func NewTransport(timeoutSeconds int) (tls_client.HttpClient, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

func setDefaultHeaders(req *fhttp.Request) {
	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
}

// readBody reads at most limit bytes of the response body
func readBody(resp *fhttp.Response, limit int64) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func closeBody(resp *fhttp.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
