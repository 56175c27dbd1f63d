package api

import (
	"bytes"
	"io"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// mockHTTPClient is a tls_client.HttpClient that answers every request with a
// canned response and records what it was sent
type mockHTTPClient struct {
	status int
	body   []byte
	err    error

	lastRequest *fhttp.Request
	lastBody    []byte
	calls       int
}

func newMockHTTPClient(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{status: status, body: []byte(body)}
}

func newMockHTTPClientWithError(err error) *mockHTTPClient {
	return &mockHTTPClient{err: err}
}

func (m *mockHTTPClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.calls++
	m.lastRequest = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &fhttp.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(bytes.NewReader(m.body)),
		Header:     make(fhttp.Header),
	}, nil
}

func (m *mockHTTPClient) GetCookies(u *url.URL) []*fhttp.Cookie           { return nil }
func (m *mockHTTPClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie)  {}
func (m *mockHTTPClient) SetCookieJar(jar fhttp.CookieJar)                {}
func (m *mockHTTPClient) GetCookieJar() fhttp.CookieJar                   { return nil }
func (m *mockHTTPClient) SetProxy(proxyUrl string) error                  { return nil }
func (m *mockHTTPClient) GetProxy() string                                { return "" }
func (m *mockHTTPClient) SetFollowRedirect(followRedirect bool)           {}
func (m *mockHTTPClient) GetFollowRedirect() bool                         { return false }
func (m *mockHTTPClient) CloseIdleConnections()                           {}
func (m *mockHTTPClient) GetBandwidthTracker() bandwidth.BandwidthTracker { return nil }
func (m *mockHTTPClient) Get(url string) (*fhttp.Response, error)         { return m.get(url) }
func (m *mockHTTPClient) Head(url string) (*fhttp.Response, error)        { return m.get(url) }

func (m *mockHTTPClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	req, err := fhttp.NewRequest(fhttp.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return m.Do(req)
}

func (m *mockHTTPClient) get(url string) (*fhttp.Response, error) {
	req, err := fhttp.NewRequest(fhttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return m.Do(req)
}
