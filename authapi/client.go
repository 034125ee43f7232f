package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	routeLogin    = "/auth/login.php"
	routeLogout   = "/auth/logout.php"
	routeValidate = "/auth/validate-session.php"
	routeGetRole  = "/auth/get-role.php"
	routeRegister = "/auth/register.php"

	defaultTimeout  = 10 * time.Second
	contentTypeJSON = "application/json; charset=utf-8"
)

// Client is the HTTP binding of Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger
}

var _ Service = (*Client)(nil)

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each call that does not already carry a deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		log:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	body, err := c.do(ctx, http.MethodPost, routeLogin, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var sess session.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if !sess.Consistent() {
		return nil, &MalformedResponseError{Err: errors.New("login response missing token or user")}
	}
	return &sess, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, routeLogout, token, nil)
	return err
}

func (c *Client) ValidateSession(ctx context.Context, token string) (*session.User, error) {
	body, err := c.do(ctx, http.MethodGet, routeValidate, token, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status string       `json:"status"`
		User   session.User `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if resp.Status != "valid" || resp.User.IsZero() {
		return nil, &MalformedResponseError{Err: errors.Errorf("unexpected validation status %q", resp.Status)}
	}
	return &resp.User, nil
}

func (c *Client) Role(ctx context.Context, token string) (session.Role, error) {
	body, err := c.do(ctx, http.MethodGet, routeGetRole, token, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Role session.Role `json:"role"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &MalformedResponseError{Err: err}
	}
	if resp.Role == "" {
		return "", &MalformedResponseError{Err: errors.New("role missing from response")}
	}
	return resp.Role, nil
}

// Registration is the payload for creating a new account.
type Registration struct {
	FirstName string       `json:"firstname"`
	LastName  string       `json:"lastname"`
	Email     string       `json:"email"`
	Password  string       `json:"password"`
	Role      session.Role `json:"role"`
}

// Register creates a new account. It does not establish a session; the
// new user logs in separately afterwards.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	_, err := c.do(ctx, http.MethodPost, routeRegister, "", reg)
	return err
}

// do issues one request and classifies the outcome. A nil error means a
// 2xx response; body is the raw response payload.
func (c *Client) do(ctx context.Context, method, route, token string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.do] marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.do] build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("route", route).Msg("auth endpoint unreachable")
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if err := ClassifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// ClassifyStatus maps a non-2xx response to the error taxonomy. Shared
// with the catalog client so every backend call reports rejections the
// same way.
func ClassifyStatus(statusCode int, body []byte) error {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return &TransportError{Err: errors.Errorf("server error (%d)", statusCode)}
	case statusCode >= http.StatusBadRequest:
		var structured struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &structured)
		return &RejectedError{StatusCode: statusCode, Message: structured.Error}
	default:
		return nil
	}
}
