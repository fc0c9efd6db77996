package ephemeris

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"astroref/internal/angle"
	"astroref/internal/body"
)

const (
	defaultLongitudePath = "$.longitude"
	defaultHTTPTimeout   = 10 * time.Second
)

// HTTPProvider polls a JSON ephemeris service, one request per body.
type HTTPProvider struct {
	baseURL       string
	center        Center
	longitudePath string
	client        *http.Client
	log           zerolog.Logger
}

// Option configures HTTPProvider construction parameters.
type Option func(*HTTPProvider)

// WithCenter forwards the requested center to the service.
func WithCenter(c Center) Option {
	return func(p *HTTPProvider) { p.center = c }
}

// WithLongitudePath sets the JSONPath expression locating the longitude in the response.
func WithLongitudePath(expr string) Option {
	return func(p *HTTPProvider) {
		if expr = strings.TrimSpace(expr); expr != "" {
			p.longitudePath = expr
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProvider) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// NewHTTPProvider constructs a provider rooted at baseURL.
func NewHTTPProvider(baseURL string, log zerolog.Logger, opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		center:        Geocentric,
		longitudePath: defaultLongitudePath,
		client:        &http.Client{Timeout: defaultHTTPTimeout},
		log:           log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the provider in logs and metrics.
func (p *HTTPProvider) Name() string { return ProviderHTTP }

// Longitude requests {base}/longitude?body=&t=&center= and extracts the value.
func (p *HTTPProvider) Longitude(ctx context.Context, id body.ID, at time.Time) (float64, error) {
	q := url.Values{}
	q.Set("body", string(id))
	q.Set("t", at.UTC().Format(time.RFC3339))
	q.Set("center", string(p.center))
	endpoint := fmt.Sprintf("%s/longitude?%s", p.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "astroref/1.0")
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var doc interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	lon, err := extractLongitude(doc, p.longitudePath)
	if err != nil {
		return 0, err
	}
	p.log.Debug().Str("body", string(id)).Float64("longitude", lon).Msg("ephemeris reading")
	return lon, nil
}

func extractLongitude(doc interface{}, expr string) (float64, error) {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return 0, fmt.Errorf("jsonpath %s: %w", expr, err)
	}
	var lon float64
	switch v := val.(type) {
	case float64:
		lon = v
	case json.Number:
		lon, err = v.Float64()
	case string:
		lon, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []interface{}:
		if len(v) != 1 {
			return 0, fmt.Errorf("jsonpath %s: expected one value, got %d", expr, len(v))
		}
		return extractLongitude(v[0], "$")
	default:
		return 0, fmt.Errorf("jsonpath %s: unsupported value %T", expr, val)
	}
	if err != nil {
		return 0, fmt.Errorf("jsonpath %s: %w", expr, err)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, fmt.Errorf("jsonpath %s: non-finite longitude %v", expr, lon)
	}
	return angle.Normalize(lon), nil
}
