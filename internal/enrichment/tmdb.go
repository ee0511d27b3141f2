// Package enrichment decorates recommended titles with TMDB metadata: poster
// URL, overview and vote average. Lookups run on a bounded worker pool, are
// cached in Redis and degrade to placeholder cards on any failure.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/temcen/cinematch/internal/metrics"
	"github.com/temcen/cinematch/pkg/models"
)

// ErrNoResults is returned when TMDB has no match for a title.
var ErrNoResults = errors.New("tmdb returned no results")

// SearchResult is a single TMDB movie search match.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// ClientConfig holds TMDB connection settings.
type ClientConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
	Breaker      BreakerConfig
}

// BreakerConfig tunes the circuit breaker guarding TMDB.
type BreakerConfig struct {
	// MaxRequests is how many probes are let through while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MinRequests is the sample size required before the breaker may trip.
	MinRequests uint32
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

// Client searches TMDB for movie metadata.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[*SearchResponse]
	logger       *logrus.Logger
	metrics      *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records breaker state transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a TMDB client.
func NewClient(cfg ClientConfig, logger *logrus.Logger, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(strings.TrimSpace(cfg.ImageBaseURL), "/"),
		language:     strings.TrimSpace(cfg.Language),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(cfg.Breaker, c.logger, c.metrics)
	c.metrics.BreakerState(breakerName, 0)

	return c, nil
}

const breakerName = "tmdb"

func newBreaker(cfg BreakerConfig, logger *logrus.Logger, m *metrics.Metrics) *gobreaker.CircuitBreaker[*SearchResponse] {
	return gobreaker.NewCircuitBreaker[*SearchResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			m.BreakerState(name, stateValue(to))
		},
		// A caller giving up is not a TMDB failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state name.
func (c *Client) State() string {
	return c.breaker.State().String()
}

// SearchMovie searches TMDB for the supplied title through the breaker.
func (c *Client) SearchMovie(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	return c.breaker.Execute(func() (*SearchResponse, error) {
		return c.search(ctx, query)
	})
}

func (c *Client) search(ctx context.Context, query string) (*SearchResponse, error) {
	endpoint, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	return &payload, nil
}

// Lookup returns the display card of the top TMDB match for title.
func (c *Client) Lookup(ctx context.Context, title string) (models.MovieCard, error) {
	resp, err := c.SearchMovie(ctx, title)
	if err != nil {
		return models.MovieCard{}, err
	}
	if len(resp.Results) == 0 {
		return models.MovieCard{}, fmt.Errorf("%w: %q", ErrNoResults, title)
	}
	return c.card(title, resp.Results[0]), nil
}

func (c *Client) card(requested string, r SearchResult) models.MovieCard {
	card := models.MovieCard{Title: r.Title}
	if card.Title == "" {
		card.Title = requested
	}
	if r.Overview != "" {
		overview := r.Overview
		card.Overview = &overview
	}
	if r.PosterPath != "" {
		poster := c.imageBaseURL + r.PosterPath
		card.Poster = &poster
	}
	rating := r.VoteAverage
	card.Rating = &rating
	return card
}
