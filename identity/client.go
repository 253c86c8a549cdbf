// Package identity talks to the identity endpoints of the API: login, logout,
// registration, password recovery, refresh and the profile of the current user.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/sessions"
)

const maxErrorBody = 64 << 10

// Client performs one network call per operation and never retries on its own.
// It is the only writer of the session state.
type Client struct {
	cfg     config.AuthConfig
	http    *http.Client
	carrier credential.Carrier
	state   *sessions.State
	logger  zerolog.Logger
	profile profileMemo
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client sending its requests through httpClient, which is
// expected to carry the authentication pipeline.
func New(cfg config.AuthConfig, httpClient *http.Client, carrier credential.Carrier, state *sessions.State, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		cfg:     cfg,
		http:    httpClient,
		carrier: carrier,
		state:   state,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call sends body as JSON to endpoint and decodes a successful response into out.
// Non 2xx responses become *errors.APIError.
func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	target := c.cfg.APIURL(endpoint)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[identity call] encoding %s body", endpoint)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrapf(err, "[identity call] building %s request", endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, errors.ErrTransport) {
			return err
		}
		return fmt.Errorf("%w: %w", errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apiError(resp, method, target)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(errors.ErrUnknown, "[identity call] decoding %s response: %v", endpoint, err)
	}
	return nil
}

func apiError(resp *http.Response, method, target string) error {
	apiErr := &errors.APIError{
		Status: resp.StatusCode,
		Kind:   errors.KindForStatus(resp.StatusCode),
		Method: method,
		URL:    target,
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}
