package tle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php"

// Fetcher retrieves raw TLE data from a Celestrak-compatible GP source.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given base URL. An empty URL
// selects Celestrak.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured source URL.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// FetchCatalog performs an HTTP GET for one satellite's TLE by catalog
// number. Retry and refresh policy belongs here, at the element-source
// boundary; the forecast engine never fetches.
func (f *Fetcher) FetchCatalog(ctx context.Context, catnum int) ([]byte, error) {
	q := url.Values{}
	q.Set("CATNR", strconv.Itoa(catnum))
	q.Set("FORMAT", "tle")
	return f.get(ctx, f.baseURL+"?"+q.Encode())
}

// FetchGroup performs an HTTP GET for a named Celestrak group feed.
func (f *Fetcher) FetchGroup(ctx context.Context, group string) ([]byte, error) {
	q := url.Values{}
	q.Set("GROUP", group)
	q.Set("FORMAT", "tle")
	return f.get(ctx, f.baseURL+"?"+q.Encode())
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}
