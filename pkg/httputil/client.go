// Package httputil holds the HTTP plumbing shared by the metadata providers:
// timeouts, a User-Agent, client-side rate limiting and 429 backoff.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "SamanBooks/1.0"

// RetryBaseDelay is the first backoff after an HTTP 429. It doubles on each
// further attempt. Tests shorten it.
var RetryBaseDelay = 2 * time.Second

type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	// MaxRetries is how many times a 429 is retried. Zero disables retries.
	MaxRetries int
	UserAgent  string
}

// Client performs provider GET requests. It's safe for concurrent use.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	userAgent  string
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		userAgent:  userAgent,
	}
}

// GetJSON fetches rawURL and decodes the JSON body into v. Any transport
// failure or non-2xx status is logged with the provider name and returned
// as a transport_failed error.
func (c *Client) GetJSON(ctx context.Context, provider, rawURL string, v interface{}) error {
	log := logger.FromContext(ctx).Data(logger.Data{"provider": provider, "url": rawURL})

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		log.Warn("provider request failed", logger.Data{"error": err.Error()})
		return errcodes.TransportFailed(provider, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Warn("provider returned non-2xx status", logger.Data{"status": resp.StatusCode})
		return errcodes.TransportFailed(provider, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		log.Warn("provider returned malformed json", logger.Data{"error": err.Error()})
		return errcodes.TransportFailed(provider, "malformed response: "+err.Error())
	}
	return nil
}

// DoWithRetry executes req and retries HTTP 429 responses with exponential
// backoff starting at RetryBaseDelay. After maxRetries the last 429 response
// is returned for the caller to inspect. Cancelling ctx during a backoff
// returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		logger.FromContext(ctx).Debug("rate limited, backing off", logger.Data{
			"backoff": backoff.String(),
			"attempt": attempt + 1,
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
