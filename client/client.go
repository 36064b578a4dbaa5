package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-wallet-auth"
)

var _ auth.IdentityAPI = (*Client)(nil)

// Endpoints are the paths of the wallet API, relative to the base URL
type Endpoints struct {
	Verify      string `json:"verify"`
	UserLogin   string `json:"user_login"`
	PeerLogin   string `json:"peer_login"`
	AdminLogin  string `json:"admin_login"`
	Logout      string `json:"logout"`
	BalanceLog  string `json:"balance_log"`
	Transaction string `json:"transaction"`
}

// DefaultEndpoints returns the paths used by the wallet API
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Verify:      "/auth/verify",
		UserLogin:   "/auth/login",
		PeerLogin:   "/peer/login",
		AdminLogin:  "/admin/login",
		Logout:      "/auth/logout",
		BalanceLog:  "/balance-logs/{id}",
		Transaction: "/transactions/{id}",
	}
}

// Config holds the client options
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Endpoints Endpoints
	Debug     bool
}

// Option customizes the client
type Option func(*Client)

// WithLogger overrides the client logger
func WithLogger(logger auth.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the wallet REST API. Each client owns a cookie jar that
// holds the opaque session cookie set by the API.
type Client struct {
	http      *resty.Client
	jar       *sessionJar
	endpoints Endpoints
	logger    auth.Logger
}

// New creates a wallet API client
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "go-wallet-auth/1.0"
	}
	cfg.Endpoints = withDefaultEndpoints(cfg.Endpoints)

	jar := newSessionJar()

	c := &Client{
		jar:       jar,
		endpoints: cfg.Endpoints,
		logger:    auth.NopLogger{},
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetDebug(cfg.Debug)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func withDefaultEndpoints(e Endpoints) Endpoints {
	def := DefaultEndpoints()
	if e.Verify == "" {
		e.Verify = def.Verify
	}
	if e.UserLogin == "" {
		e.UserLogin = def.UserLogin
	}
	if e.PeerLogin == "" {
		e.PeerLogin = def.PeerLogin
	}
	if e.AdminLogin == "" {
		e.AdminLogin = def.AdminLogin
	}
	if e.Logout == "" {
		e.Logout = def.Logout
	}
	if e.BalanceLog == "" {
		e.BalanceLog = def.BalanceLog
	}
	if e.Transaction == "" {
		e.Transaction = def.Transaction
	}
	return e
}

// Verify asks the API who owns the current session cookie
func (c *Client) Verify(ctx context.Context) (*auth.User, error) {
	var payload map[string]any
	apiErr := &apiError{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(apiErr).
		Get(c.endpoints.Verify)
	if err != nil {
		return nil, transportError(opVerify, c.endpoints.Verify, err)
	}

	if resp.IsError() {
		return nil, responseError(opVerify, c.endpoints.Verify, resp.StatusCode(), apiErr)
	}

	return auth.ParseUser(unwrapIdentity(payload))
}

// Login posts the credentials to the endpoint matching their role
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (*auth.User, error) {
	endpoint := c.loginEndpoint(creds.Role)

	var payload map[string]any
	apiErr := &apiError{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(loginRequest{
			Username: creds.Identifier,
			Password: creds.Password,
			Remember: creds.Remember,
		}).
		SetResult(&payload).
		SetError(apiErr).
		Post(endpoint)
	if err != nil {
		return nil, transportError(opLogin, endpoint, err)
	}

	if resp.IsError() {
		return nil, responseError(opLogin, endpoint, resp.StatusCode(), apiErr)
	}

	user, err := auth.ParseUser(unwrapIdentity(payload))
	if err != nil {
		return nil, err
	}

	if user.Role == auth.RoleUnknown {
		user.Role = creds.Role
	}

	c.logger.Debug("login accepted", "role", user.Role, "user", user.ID)
	return user, nil
}

// Logout tells the API to end the session
func (c *Client) Logout(ctx context.Context) error {
	apiErr := &apiError{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetError(apiErr).
		Post(c.endpoints.Logout)
	if err != nil {
		return transportError(opLogout, c.endpoints.Logout, err)
	}

	if resp.IsError() {
		return responseError(opLogout, c.endpoints.Logout, resp.StatusCode(), apiErr)
	}

	return nil
}

// ClearSession drops the session cookie held by the client
func (c *Client) ClearSession() {
	c.jar.Reset()
}

func (c *Client) loginEndpoint(role auth.Role) string {
	switch role {
	case auth.RolePeer:
		return c.endpoints.PeerLogin
	case auth.RoleSA:
		return c.endpoints.AdminLogin
	default:
		return c.endpoints.UserLogin
	}
}

// unwrapIdentity accepts both a bare identity and one nested under
// "user" or "data".
func unwrapIdentity(payload map[string]any) map[string]any {
	for _, key := range []string{"user", "data"} {
		if nested, ok := payload[key].(map[string]any); ok && len(nested) > 0 {
			return nested
		}
	}
	return payload
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

const (
	opVerify      = "verify"
	opLogin       = "login"
	opLogout      = "logout"
	opBalanceLog  = "balance_log"
	opTransaction = "transaction"
)

type apiError struct {
	Message string `json:"message"`
	Detail  string `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

func transportError(op, endpoint string, err error) error {
	richErr := auth.ErrRemoteUnavailable.Clone()
	if richErr == nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "wallet api request failed")
	}
	richErr.Source = err
	return richErr.WithMetadata(map[string]any{
		"operation": op,
		"endpoint":  endpoint,
		"error":     err.Error(),
	})
}

func responseError(op, endpoint string, status int, apiErr *apiError) error {
	message := apiErr.text()
	if message == "" {
		message = http.StatusText(status)
	}

	var base *goerrors.Error
	switch {
	case auth.IsSupersededMessage(message):
		base = auth.ErrSessionSuperseded
	case op == opLogin && (status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest):
		base = auth.ErrInvalidCredentials
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		base = auth.ErrVerificationFailed
	case status == http.StatusNotFound:
		base = goerrors.New("resource not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	default:
		base = goerrors.New("wallet api request failed", goerrors.CategoryOperation).
			WithCode(status)
	}

	richErr := base.Clone()
	if richErr == nil {
		richErr = base
	}
	richErr.Message = message

	return richErr.WithMetadata(map[string]any{
		"operation": op,
		"endpoint":  endpoint,
		"status":    status,
	})
}
