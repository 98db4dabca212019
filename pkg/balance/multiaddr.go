package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/luxfi/log"
)

const (
	// DefaultTimeout bounds a single multiaddr request
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a transient failure
	DefaultMaxRetries uint = 3

	// maxResponseSize bounds the body read from the endpoint
	maxResponseSize = 16 << 20
)

// ClientConfig holds the configuration of a MultiAddrClient
type ClientConfig struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries uint

	// NewBackOff overrides the exponential retry schedule. It is called
	// once per lookup since a BackOff is stateful.
	NewBackOff func() backoff.BackOff

	HTTPClient *http.Client
}

// MultiAddrClient queries the blockchain.info multiaddr API
type MultiAddrClient struct {
	cfg     ClientConfig
	client  *http.Client
	log     log.Logger
	metrics *Metrics
}

type multiAddrResponse struct {
	Addresses []struct {
		Address      string `json:"address"`
		FinalBalance int64  `json:"final_balance"`
	} `json:"addresses"`
}

// StatusError is returned for a non 2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("balance endpoint returned %d: %s", e.StatusCode, e.Body)
}

// NewMultiAddrClient creates a client for the endpoint in cfg
func NewMultiAddrClient(cfg ClientConfig, logger log.Logger, metrics *Metrics) *MultiAddrClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &MultiAddrClient{cfg: cfg, client: client, log: logger, metrics: metrics}
}

// Balances fetches the final balance of every address in addrs with a
// single multiaddr call, retrying transient failures
func (c *MultiAddrClient) Balances(ctx context.Context, addrs []string) (Balances, error) {
	if len(addrs) == 0 {
		return Balances{}, nil
	}

	reqURL, err := c.requestURL(addrs)
	if err != nil {
		return nil, err
	}

	var bo backoff.BackOff = backoff.NewExponentialBackOff()
	if c.cfg.NewBackOff != nil {
		bo = c.cfg.NewBackOff()
	}

	return backoff.Retry(ctx, func() (Balances, error) {
		return c.fetch(ctx, reqURL)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.cfg.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.metrics.Retries.Inc()
			c.log.Warn("Balance lookup failed, retrying",
				"addresses", len(addrs), "retryIn", next, "error", err)
		}),
	)
}

func (c *MultiAddrClient) requestURL(addrs []string) (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid balance endpoint %q: %w", c.cfg.Endpoint, err)
	}
	q := u.Query()
	q.Set("active", strings.Join(addrs, "|"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *MultiAddrClient) fetch(ctx context.Context, reqURL string) (Balances, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.metrics.Requests.Inc()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("balance request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read balance response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
		if retryable(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var parsed multiAddrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("malformed balance response: %w", err))
	}

	balances := make(Balances, len(parsed.Addresses))
	for _, a := range parsed.Addresses {
		balances[a.Address] = a.FinalBalance
	}
	return balances, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsStatus reports whether err carries the given HTTP status code
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == status
}
