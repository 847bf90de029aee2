package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

// Client talks to a remote catalog service over its HTTP API and maps status
// codes back onto the catalog sentinel errors, so callers cannot tell it
// apart from an in-process Service. Transport errors and 5xx responses are
// retried with bounded backoff; everything else is permanent.
type Client struct {
	base       string
	http       *http.Client
	maxRetries uint64
}

// NewClient creates a catalog client. timeout bounds each individual HTTP
// call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:       strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (entity.Product, error) {
	var product entity.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &product)
	return product, err
}

func (c *Client) ReserveStock(ctx context.Context, id int64, qty int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/products/%d/reserve", id), StockRequest{Quantity: qty}, nil)
}

func (c *Client) ReleaseStock(ctx context.Context, id int64, qty int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/products/%d/release", id), StockRequest{Quantity: qty}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Timeouts and connection errors are the transient class.
			return fmt.Errorf("catalog call failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
				}
			}
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("catalog returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(statusError(resp))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrInsufficientStock, body.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, body.Error)
	default:
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, body.Error)
	}
}
