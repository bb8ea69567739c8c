package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxPayloadBytes bounds how much of a provider response is read. The
// DeFiLlama pools feed is the largest at a few MB.
const maxPayloadBytes = 16 << 20

// Fetcher performs the outbound HTTP call for a provider and hands the raw
// body to the provider's parser.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "fetcher").Logger(),
	}
}

// Fetch retrieves and parses one provider's current payload.
func (f *Fetcher) Fetch(ctx context.Context, descriptor Descriptor) ([]ParsedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptor.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", descriptor.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	f.log.Debug().Str("provider", descriptor.Name).Str("url", descriptor.Endpoint).Msg("Fetching provider data")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", descriptor.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", descriptor.Name, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", descriptor.Name, err)
	}

	entries, err := descriptor.Parse(payload)
	if err != nil {
		return nil, err
	}

	f.log.Debug().Str("provider", descriptor.Name).Int("entries", len(entries)).Msg("Provider payload parsed")
	return entries, nil
}
