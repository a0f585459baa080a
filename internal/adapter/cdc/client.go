// Package cdc fetches the Chronic Disease Indicators dataset from the CDC
// Socrata API.
package cdc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/chronic-disease-etl/internal/config"
	"github.com/couchcryptid/chronic-disease-etl/internal/domain"
	"github.com/couchcryptid/chronic-disease-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Client pages through a Socrata resource with $limit/$offset.
type Client struct {
	baseURL    string
	pageSize   int
	pageDelay  time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
	newBackOff func() backoff.BackOff
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a CDC client from the CDC_* settings.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   cfg.CDCBaseURL,
		pageSize:  cfg.CDCPageSize,
		pageDelay: cfg.CDCPageDelay,
		httpClient: &http.Client{
			Timeout: cfg.CDCTimeout,
		},
		clock:      clockwork.NewRealClock(),
		newBackOff: defaultBackOff,
		metrics:    metrics,
		logger:     logger,
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute
	return bo
}

// FetchAll returns every row of the dataset. Paging stops at the first empty
// or short page. Consecutive requests are spaced by the page delay.
func (c *Client) FetchAll(ctx context.Context) ([]domain.RawRow, error) {
	var rows []domain.RawRow
	for offset := 0; ; offset += c.pageSize {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		c.metrics.RowsFetched.Add(float64(len(page)))
		c.logger.Info("cdc page fetched", "offset", offset, "rows", len(page), "total", len(rows))

		if len(page) < c.pageSize {
			return rows, nil
		}
		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]domain.RawRow, error) {
	pageURL, err := c.pageURL(offset)
	if err != nil {
		return nil, err
	}

	var page []domain.RawRow
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			c.metrics.FetchRetries.Inc()
		}
		start := c.clock.Now()
		rows, err := c.doRequest(ctx, pageURL)
		c.metrics.FetchPageDuration.Observe(c.clock.Since(start).Seconds())
		if err != nil {
			return err
		}
		page = rows
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("cdc request failed, retrying", "offset", offset, "attempt", attempt, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("fetch cdc page at offset %d: %w", offset, err)
	}
	return page, nil
}

func (c *Client) pageURL(offset int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse cdc base url: %w", err)
	}
	q := u.Query()
	q.Set("$limit", strconv.Itoa(c.pageSize))
	q.Set("$offset", strconv.Itoa(offset))
	// Offset paging is only stable under a total order.
	q.Set("$order", ":id")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// doRequest performs one page request. Client errors other than 429 are
// permanent; network errors, 429 and 5xx are retried.
func (c *Client) doRequest(ctx context.Context, pageURL string) ([]domain.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("cdc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}

	var rows []domain.RawRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode cdc page: %w", err))
	}
	return rows, nil
}

func (c *Client) sleep(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(c.pageDelay):
		return nil
	}
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cdc API error: status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
