package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// DefaultBirdeyeTimeout is the default HTTP timeout for Birdeye requests.
const DefaultBirdeyeTimeout = 10 * time.Second

// Birdeye fetches token prices from the Birdeye public API.
type Birdeye struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// BirdeyeOption configures the Birdeye source.
type BirdeyeOption func(*Birdeye)

// WithBirdeyeHTTPClient sets a custom http.Client.
func WithBirdeyeHTTPClient(client *http.Client) BirdeyeOption {
	return func(b *Birdeye) {
		b.client = client
	}
}

// WithBirdeyeBaseURL overrides the API base URL. Intended for tests.
func WithBirdeyeBaseURL(baseURL string) BirdeyeOption {
	return func(b *Birdeye) {
		b.baseURL = baseURL
	}
}

// NewBirdeye creates a Birdeye price source.
func NewBirdeye(apiKey string, opts ...BirdeyeOption) *Birdeye {
	b := &Birdeye{
		baseURL: "https://public-api.birdeye.so",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultBirdeyeTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// birdeyeResponse is the wire shape of GET /defi/price.
type birdeyeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value      float64 `json:"value"`
		UpdateUnix int64   `json:"updateUnixTime"`
	} `json:"data"`
}

// TokenPrice fetches the current price for a mint.
func (b *Birdeye) TokenPrice(ctx context.Context, mint string) (*domain.TokenPrice, error) {
	u := fmt.Sprintf("%s/defi/price?address=%s", b.baseURL, url.QueryEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build birdeye request: %w", err)
	}
	req.Header.Set("X-API-KEY", b.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("birdeye request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("birdeye status %d: %s", resp.StatusCode, string(body))
	}

	var parsed birdeyeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode birdeye response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("birdeye: %w", ErrUnavailable)
	}

	return &domain.TokenPrice{
		Price:     decimal.NewFromFloat(parsed.Data.Value),
		Timestamp: parsed.Data.UpdateUnix * 1000,
		Source:    "birdeye",
	}, nil
}

var _ Source = (*Birdeye)(nil)
