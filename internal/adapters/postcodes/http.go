package postcodes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/metrics"
)

// Suggested client back-off when the provider gave no Retry-After of its own.
const defaultRetryAfter = 30 * time.Second

var errMalformedPayload = errors.New("malformed payload")

type httpStatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(
	ctx context.Context,
	baseURL string,
	path string,
	query url.Values,
) (*http.Request, error) {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	return req, nil
}

// do performs a single attempt. A 404 maps to domain.ErrNotFound, any other
// non-2xx to *httpStatusError, and an undecodable body to errMalformedPayload.
func (c *Client) do(req *http.Request, decode func(io.Reader) error) error {
	resp, err := c.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", domain.ErrNotFound, req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &httpStatusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if err := decode(resp.Body); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformedPayload, err)
	}

	return nil
}

// fetch runs one logical call across all endpoints under the total deadline.
// A definitive not-found from any endpoint ends the call immediately.
func (c *Client) fetch(
	ctx context.Context,
	path string,
	query url.Values,
	decode func(io.Reader) error,
) error {
	if c.cfg.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.TotalTimeout)
		defer cancel()
	}

	var lastErr error
	lastEndpoint := ""
	total := 0
	for _, ep := range c.endpoints {
		attempts, err := c.doWithRetry(ctx, ep, func() (*http.Request, error) {
			return c.newRequest(ctx, ep.baseURL, path, query)
		}, decode)
		total += attempts
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}

		lastErr = err
		lastEndpoint = ep.name
		c.log.Warnw("geocoder endpoint exhausted", "endpoint", ep.name, "path", path, "attempts", attempts, "err", err)

		if ctx.Err() != nil {
			break
		}
	}

	retryAfter := defaultRetryAfter
	var he *httpStatusError
	if errors.As(lastErr, &he) && he.RetryAfter > 0 {
		retryAfter = he.RetryAfter
	}

	return &domain.UpstreamError{
		Endpoint:   lastEndpoint,
		Attempts:   total,
		RetryAfter: retryAfter,
		Err:        lastErr,
	}
}

// doWithRetry retries every failure except a definitive not-found, up to
// MaxRetries times after the first attempt, while respecting context
// cancellation. It returns the number of attempts made.
func (c *Client) doWithRetry(
	ctx context.Context,
	ep endpoint,
	makeReq func() (*http.Request, error),
	decode func(io.Reader) error,
) (int, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	backoff := c.cfg.RetryDelay

	var lastErr error
	attempt := 0

	for attempt < maxAttempts {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return attempt, lastErr
		}

		req, err := makeReq()
		if err != nil {
			return attempt, fmt.Errorf("make request: %w", err)
		}

		attempt++
		err = c.do(req, decode)
		switch {
		case err == nil:
			metrics.GeocoderAttempts.WithLabelValues(ep.name, "ok").Inc()
			return attempt, nil
		case errors.Is(err, domain.ErrNotFound):
			metrics.GeocoderAttempts.WithLabelValues(ep.name, "not_found").Inc()
			return attempt, err
		}

		metrics.GeocoderAttempts.WithLabelValues(ep.name, "error").Inc()
		lastErr = err
		c.log.Debugw("geocoder attempt failed", "endpoint", ep.name, "attempt", attempt, "err", err)

		if attempt == maxAttempts {
			break
		}

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return attempt, lastErr
			case <-timer.C:
			}
		}

		if c.cfg.Exponential {
			backoff *= 2
		}
	}

	return attempt, lastErr
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
