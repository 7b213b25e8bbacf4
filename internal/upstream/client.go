// Package upstream talks to the interaction data services a clustering job
// pulls its records from.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/interactomics/clusterquery/internal/mitab"
)

// Sentinel errors for upstream client failures.
var (
	ErrServiceUnknown     = errors.New("unknown upstream service")
	ErrServiceUnreachable = errors.New("upstream service unreachable")
	ErrServiceQueryError  = errors.New("upstream query error")
	ErrServiceTimeout     = errors.New("upstream query timeout")
)

// Fetcher is the interface the clustering worker depends on.
type Fetcher interface {
	FetchAll(ctx context.Context, service, query string) ([]mitab.Record, error)
}

// HTTPClient implements Fetcher over the data services' tabular HTTP API.
type HTTPClient struct {
	services map[string]string
	pageSize int
	client   *http.Client
}

// NewHTTPClient creates a client for the given service registry
// (service name → base URL).
func NewHTTPClient(services map[string]string, pageSize int, timeout time.Duration) *HTTPClient {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &HTTPClient{
		services: services,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
	}
}

// FetchAll retrieves every record matching query from the named service,
// paging through the tabular endpoint until a short page signals exhaustion.
func (c *HTTPClient) FetchAll(ctx context.Context, service, query string) ([]mitab.Record, error) {
	baseURL, ok := c.services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceUnknown, service)
	}

	var records []mitab.Record
	for from := 0; ; from += c.pageSize {
		page, err := c.fetchPage(ctx, baseURL, query, from)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", service, err)
		}
		records = append(records, page...)
		if len(page) < c.pageSize {
			return records, nil
		}
	}
}

func (c *HTTPClient) fetchPage(ctx context.Context, baseURL, query string, from int) ([]mitab.Record, error) {
	params := url.Values{
		"query":       {query},
		"firstResult": {strconv.Itoa(from)},
		"maxResults":  {strconv.Itoa(c.pageSize)},
		"format":      {"tab25"},
	}
	u := fmt.Sprintf("%s/query?%s", baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceQueryError, resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	records, err := mitab.ParseLines(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceQueryError, err)
	}
	return records, nil
}

// readErrorBody returns up to 512 bytes of an error response for diagnostics.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(body) == 0 {
		return "<no body>"
	}
	return string(body)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrServiceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrServiceTimeout, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
}

// Compile-time check that HTTPClient implements Fetcher.
var _ Fetcher = (*HTTPClient)(nil)
