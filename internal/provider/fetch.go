package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/specialistvlad/pzscripts/internal/ctxlog"
	"github.com/specialistvlad/pzscripts/internal/schema"
)

// maxSchemaSize bounds the size of a downloaded schema document.
const maxSchemaSize = 32 << 20

const defaultFetchTimeout = 30 * time.Second

// newHTTPClient returns the client shared by every download of a provider.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Close releases the idle connections of the download client.
func (p *Provider) Close() {
	p.opts.Client.CloseIdleConnections()
}

func (p *Provider) fetch(ctx context.Context) (*schema.Snapshot, []byte, error) {
	ctx = ctxlog.With(ctx, "url", p.opts.URL)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Fetching schema.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	snap, err := schema.Decode(data, p.opts.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Schema fetched.", "bytes", len(data))
	return snap, data, nil
}
