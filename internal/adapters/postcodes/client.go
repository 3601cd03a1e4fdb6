package postcodes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"postcode-tracker/internal/platform/logger"
)

// Config controls the endpoints and retry policy of a Client. Each Client
// owns its copy so tests can point at fake servers without shared state.
type Config struct {
	PrimaryURL string
	MirrorURL  string

	// Retries after the first attempt, per endpoint.
	MaxRetries int
	// Delay before the first retry. Doubled after every retry when
	// Exponential is set, constant otherwise.
	RetryDelay  time.Duration
	Exponential bool

	// Per-attempt timeout.
	RequestTimeout time.Duration
	// Deadline for the whole primary+mirror sequence of one call.
	TotalTimeout time.Duration

	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		PrimaryURL:     "https://api.postcodes.io",
		MirrorURL:      "https://postcodes.io",
		MaxRetries:     2,
		RetryDelay:     200 * time.Millisecond,
		Exponential:    true,
		RequestTimeout: 3 * time.Second,
		TotalTimeout:   15 * time.Second,
		UserAgent:      "postcode-tracker/1.0",
	}
}

type endpoint struct {
	name    string
	baseURL string
}

// Client implements ports.Geocoder against postcodes.io or a compatible
// mirror. It tries the primary endpoint with retries, then the mirror
// with its own retry budget.
//
// The client is safe for concurrent use.
type Client struct {
	session   *http.Client
	cfg       Config
	endpoints []endpoint
	log       *zap.SugaredLogger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.PrimaryURL) == "" {
		return nil, errors.New("postcodes client: primary url is empty")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("postcodes client: max retries must not be negative")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "postcode-tracker/1.0"
	}

	endpoints := []endpoint{{name: "primary", baseURL: strings.TrimRight(cfg.PrimaryURL, "/")}}
	if m := strings.TrimRight(strings.TrimSpace(cfg.MirrorURL), "/"); m != "" {
		endpoints = append(endpoints, endpoint{name: "mirror", baseURL: m})
	}

	return &Client{
		session:   &http.Client{Timeout: cfg.RequestTimeout},
		cfg:       cfg,
		endpoints: endpoints,
		log:       logger.GetLogger("postcodes"),
	}, nil
}
