// Package cartclient talks to the cart API on behalf of one signed-in user.
package cartclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cartview/internal/cartstore"
	"cartview/internal/domain"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// StatusError is returned for non-2xx responses from the cart API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart api: status %d", e.Code)
	}
	return fmt.Sprintf("cart api: status %d: %s", e.Code, e.Message)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures int
	HTTPClient  *http.Client
}

// Client shares one circuit breaker across every user it serves.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	log     logrus.FieldLogger
}

func New(opts Options, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	maxFailures := uint32(opts.MaxFailures)
	st := gobreaker.Settings{
		Name:        "CartAPI",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: opts.Timeout,
		log:     log,
	}
}

// For binds the client to a bearer token.
func (c *Client) For(token string) cartstore.Backend {
	return &session{client: c, token: token}
}

// State reports the breaker state, for readiness output.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

type session struct {
	client *Client
	token  string
}

func (s *session) Fetch(ctx context.Context) ([]domain.CartLine, error) {
	return s.client.do(ctx, http.MethodGet, "/me/cart", s.token)
}

func (s *session) Remove(ctx context.Context, itemID string, quantity int) ([]domain.CartLine, error) {
	path := "/me/cart/items/" + url.PathEscape(itemID)
	if quantity != cartstore.WholeLine {
		path += "?quantity=" + strconv.Itoa(quantity)
	}
	return s.client.do(ctx, http.MethodDelete, path, s.token)
}

func (s *session) Clear(ctx context.Context) ([]domain.CartLine, error) {
	return s.client.do(ctx, http.MethodDelete, "/me/cart", s.token)
}

type cartResponse struct {
	LineItems []domain.CartLine `json:"lineItems"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path, token string) ([]domain.CartLine, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", method, path)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var er errorResponse
			_ = json.Unmarshal(body, &er)
			return nil, &StatusError{Code: resp.StatusCode, Message: er.Message}
		}

		var out cartResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, errors.Wrap(err, "decode cart")
		}
		if out.LineItems == nil {
			out.LineItems = []domain.CartLine{}
		}
		return out.LineItems, nil
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).WithError(err).Debug("cart api call failed")
		return nil, err
	}
	return res.([]domain.CartLine), nil
}
