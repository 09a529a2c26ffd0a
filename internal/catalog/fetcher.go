package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
)

const maxFeedBytes = 16 << 20

// HTTPFetcher downloads the feed over HTTP with a cache-busting timestamp.
type HTTPFetcher struct {
	client  *http.Client
	feedURL string
	retries uint64
	backoff time.Duration
	now     func() time.Time
}

func NewHTTPFetcher(feedURL string, timeout time.Duration, retries uint64) (*HTTPFetcher, error) {
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		feedURL: feedURL,
		retries: retries,
		backoff: 200 * time.Millisecond,
		now:     time.Now,
	}, nil
}

// Fetch GETs the feed, retrying transport errors and 5xx responses with exponential backoff.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	var body string
	b := retry.WithMaxRetries(f.retries, retry.NewExponential(f.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		target, err := f.requestURL()
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("feed returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("feed returned %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
		if err != nil {
			return retry.RetryableError(err)
		}
		if !utf8.Valid(data) {
			return fmt.Errorf("feed body is not valid utf-8")
		}
		body = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) requestURL() (string, error) {
	u, err := url.Parse(f.feedURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
