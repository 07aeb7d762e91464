package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultRateAPIURL = "https://api.exchangerate-api.com/v4/latest"

// HTTPRateSource fetches exchange rates from the Exchange Rate API.
type HTTPRateSource struct {
	httpClient *http.Client
	baseURL    string
}

// Exchange Rate API response types
type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
	Base  string             `json:"base"`
}

// NewHTTPRateSource creates a rate source against the public Exchange
// Rate API. An empty baseURL selects the production endpoint.
func NewHTTPRateSource(baseURL string) *HTTPRateSource {
	if baseURL == "" {
		baseURL = defaultRateAPIURL
	}
	return &HTTPRateSource{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Rate returns the from→to exchange rate, or nil when the API does not
// quote the pair.
func (s *HTTPRateSource) Rate(ctx context.Context, from, to string) (*float64, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, from)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := body.Rates[to]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}
