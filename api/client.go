package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hazfactura/console/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// Client is the billing API client. Authenticated calls take their bearer
// credential from the session's token source.
type Client struct {
	baseURL        string
	base           http.RoundTripper
	timeout        time.Duration
	anon           *http.Client
	authed         *http.Client
	onUnauthorized func(ctx context.Context)
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithOnUnauthorized registers the hook run whenever any call gets a 401
func WithOnUnauthorized(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a new API client.
func New(baseURL string, source oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    http.DefaultTransport,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.anon = &http.Client{Timeout: c.timeout, Transport: c.base}
	c.authed = c.bearerClient(source)
	return c
}

func (c *Client) bearerClient(source oauth2.TokenSource) *http.Client {
	return &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: source, Base: c.base},
	}
}

// Login exchanges credentials for a token and the user document
func (c *Client) Login(ctx context.Context, correo, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := LoginRequest{Correo: correo, Password: password}
	if err := c.doRequest(ctx, c.anon, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("client.Login: %w: response without token", errors.ErrUpstream)
	}
	return &resp, nil
}

// DataUser fetches the signed-in user's current document
func (c *Client) DataUser(ctx context.Context) (*Usuario, error) {
	var u Usuario
	if err := c.doRequest(ctx, c.authed, http.MethodGet, "/user/data-user", nil, &u); err != nil {
		return nil, fmt.Errorf("client.DataUser: %w", err)
	}
	return &u, nil
}

// RegisterPassword activates an account. The bearer is the welcome-link
// token, not the session's.
func (c *Client) RegisterPassword(ctx context.Context, activationToken, userID, password string) (*MessageResponse, error) {
	var resp MessageResponse
	httpClient := c.bearerClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: activationToken, TokenType: "Bearer"}))
	body := RegisterPasswordRequest{Usuario: userID, Password: password}
	if err := c.doRequest(ctx, httpClient, http.MethodPost, "/user/registro-password", body, &resp); err != nil {
		return nil, fmt.Errorf("client.RegisterPassword: %w", err)
	}
	return &resp, nil
}

// RegisterBusiness completes the tax/business profile of the signed-in admin
func (c *Client) RegisterBusiness(ctx context.Context, req BusinessRequest) (*BusinessResponse, error) {
	var resp BusinessResponse
	if err := c.doRequest(ctx, c.authed, http.MethodPost, "/business/registro-business", req, &resp); err != nil {
		return nil, fmt.Errorf("client.RegisterBusiness: %w", err)
	}
	return &resp, nil
}

// SignUp requests a free-trial account; the API emails a welcome link
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doRequest(ctx, c.anon, http.MethodPost, "/auth", req, &resp); err != nil {
		return nil, fmt.Errorf("client.SignUp: %w", err)
	}
	return &resp, nil
}

// TaxRegimes lists the SAT tax regimes available to a person type
func (c *Client) TaxRegimes(ctx context.Context, personType PersonType) ([]TaxRegime, error) {
	var regimes []TaxRegime
	if err := c.doRequest(ctx, c.authed, http.MethodGet, "/tax-regime/"+personType.Endpoint(), nil, &regimes); err != nil {
		return nil, fmt.Errorf("client.TaxRegimes: %w", err)
	}
	return regimes, nil
}

func (c *Client) doRequest(ctx context.Context, httpClient *http.Client, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errors.ErrNoSession) {
			return errors.ErrNotAuthenticated
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api call")

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body, resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body, resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readMessage(r io.Reader, status int) string {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(status)
}
