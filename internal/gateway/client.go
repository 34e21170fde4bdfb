// Package gateway issues scenario calls to the warehouse backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ScanFlow/internal/config"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/scenario"
)

const maxBodySize = 4 << 20

// TransportError reports a call that produced no usable envelope.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("call %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("call %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == scenario.ErrTransport
}

// wireEnvelope is the response body returned by the backend.
type wireEnvelope struct {
	NextState string                   `json:"next_state"`
	Data      map[string]scenario.Data `json:"data"`
	Message   *scenario.Message        `json:"message"`
}

// Client calls {base_url}/{route}/{endpoint} with the JSON encoded params.
type Client struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	validate *validator.Validate
	log      *slog.Logger
}

func New(conf *config.Config, log *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(conf.Backend.BaseURL, "/"),
		apiKey:   conf.Backend.ApiKey,
		timeout:  conf.Backend.Timeout,
		http:     &http.Client{},
		validate: validator.New(),
		log:      log.With(sl.Module("gateway")),
	}
}

// Call issues req and normalizes the response envelope.
func (c *Client) Call(ctx context.Context, req scenario.Request) (scenario.Envelope, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fail := func(status int, err error) (scenario.Envelope, error) {
		return scenario.Envelope{}, &TransportError{Endpoint: req.Endpoint, Status: status, Err: err}
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fail(0, fmt.Errorf("marshal params: %w", err))
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, req.Route, req.Endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("API-KEY", c.apiKey)
	}

	log := c.log.With(
		slog.String("scenario", req.Scenario),
		slog.String("endpoint", req.Endpoint),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Debug("request failed", sl.Err(err))
		return fail(0, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}

	env, err := c.decode(raw, req.State)
	if err != nil {
		return fail(resp.StatusCode, err)
	}

	log.With(
		slog.String("next_state", string(env.State)),
		slog.Bool("message", env.Message != nil),
	).Debug("call resolved")
	return env, nil
}

// decode converts a wire envelope into a scenario envelope. The data bag is
// taken from the next state or, when the state is kept, from current.
func (c *Client) decode(raw []byte, current scenario.StateName) (scenario.Envelope, error) {
	var w wireEnvelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &w); err != nil {
			return scenario.Envelope{}, fmt.Errorf("decode envelope: %w", err)
		}
	}
	if w.Message != nil {
		if err := c.validate.Struct(w.Message); err != nil {
			return scenario.Envelope{}, fmt.Errorf("invalid message: %w", err)
		}
	}

	env := scenario.Envelope{
		State:   scenario.StateName(w.NextState),
		Message: w.Message,
	}
	key := w.NextState
	if key == "" {
		key = string(current)
	}
	if d, ok := w.Data[key]; ok {
		env.Data = d
		if env.Data == nil {
			env.Data = scenario.Data{}
		}
	}
	return env, nil
}
