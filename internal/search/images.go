package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var ErrUnconfigured = errors.New("image search not configured")

// Provider returns image URLs for a query. The bot pages through results
// via the session store's cursor.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

type httpProvider struct {
	baseURL string
	apiKey  string
	http    *fasthttp.Client
	timeout time.Duration
}

// NewHTTPProvider builds the provider; an empty base URL yields a provider
// that always reports ErrUnconfigured.
func NewHTTPProvider(baseURL, apiKey string) Provider {
	return &httpProvider{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
		timeout: 10 * time.Second,
	}
}

func (p *httpProvider) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if p.baseURL == "" {
		return nil, ErrUnconfigured
	}
	if limit <= 0 {
		limit = 10
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(fmt.Sprintf("%s/search?q=%s&limit=%d", p.baseURL, url.QueryEscape(query), limit))
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	deadline := time.Now().Add(p.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := p.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("search error: status=%d", code)
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	urls := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		if strings.TrimSpace(r.URL) != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls, nil
}
