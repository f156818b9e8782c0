// Package shuttle is the HTTP client for the campus shuttle reservation service.
package shuttle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const (
	DefaultIdentityURL = "https://iaaa.pku.edu.cn/iaaa/oauthlogin.do"
	DefaultBaseURL     = "https://wproc.pku.edu.cn"
	DefaultAppID       = "wproc"

	defaultUA      = "Mozilla/5.0 (X11; Linux x86_64) shuttle-pass/1.0"
	maxBodyBytes   = 4 << 20
	defaultTimeout = 15 * time.Second
)

const (
	handshakePath    = "/site/login/cas-login"
	listPath         = "/site/reservation/list-page"
	qrCodePath       = "/site/reservation/get-sign-qrcode"
	launchPath       = "/site/reservation/launch"
	reservationsPath = "/site/reservation/my-list-time"
	reservePagePath  = "/v2/reserve/"
)

// Config points the client at the identity and reservation endpoints.
type Config struct {
	IdentityURL string
	BaseURL     string
	AppID       string
	HallID      int
	Timeout     time.Duration
	UserAgent   string
}

func (c Config) withDefaults() Config {
	if c.IdentityURL == "" {
		c.IdentityURL = DefaultIdentityURL
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AppID == "" {
		c.AppID = DefaultAppID
	}
	if c.HallID == 0 {
		c.HallID = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUA
	}
	return c
}

// redirectURL is where the identity provider sends the browser after login.
func (c Config) redirectURL() string {
	return c.BaseURL + handshakePath + "?redirect_url=" + url.QueryEscape(c.BaseURL+reservePagePath)
}

// Client talks to the shuttle service. The handshake leaves a server side
// session cookie in the client's jar, so one Client serves one user.
type Client struct {
	hc     *http.Client
	cfg    Config
	logger *slog.Logger
}

var _ reservation.Provider = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	jar, _ := cookiejar.New(nil)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		hc:     &http.Client{Timeout: cfg.Timeout, Jar: jar},
		cfg:    cfg,
		logger: logger,
	}
}

// NewWithHTTPClient lets tests inject an httptest client.
func NewWithHTTPClient(cfg Config, hc *http.Client, logger *slog.Logger) *Client {
	c := New(cfg, logger)
	if hc.Jar == nil {
		hc.Jar = c.hc.Jar
	}
	c.hc = hc
	return c
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	body := e.body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("http %d: %s", e.code, body)
}

func (c *Client) do(ctx context.Context, method, rawURL string, query, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("user-agent", c.cfg.UserAgent)
	req.Header.Set("accept", "application/json, text/plain, */*")
	if form != nil {
		req.Header.Set("content-type", "application/x-www-form-urlencoded")
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, req.URL.Path, reservation.ErrTransport, err)
	}
	defer func() { _ = res.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	c.logger.Debug("shuttle request", "method", method, "path", req.URL.Path, "status", res.StatusCode, "elapsed", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %w", method, req.URL.Path, reservation.ErrTransport, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return b, fmt.Errorf("%s %s: %w: %w", method, req.URL.Path, reservation.ErrTransport, &statusError{code: res.StatusCode, body: string(b)})
	}
	return b, nil
}

func (c *Client) endpoint(path string) string {
	return c.cfg.BaseURL + path
}

// envelope is the {"d": ...} wrapper every reservation endpoint uses.
type envelope[T any] struct {
	D *T `json:"d"`
}

func decodeData[T any](op string, body []byte) (T, error) {
	var env envelope[T]
	var zero T
	if err := json.Unmarshal(bytes.TrimSpace(body), &env); err != nil {
		return zero, fmt.Errorf("%s: %w: %w", op, reservation.ErrDecode, err)
	}
	if env.D == nil {
		return zero, fmt.Errorf("%s: %w: missing \"d\"", op, reservation.ErrDecode)
	}
	return *env.D, nil
}

func bearer(s reservation.Session) (string, error) {
	if s.Token == "" {
		return "", fmt.Errorf("%w: empty session token", reservation.ErrAuthInvalid)
	}
	return s.Token, nil
}
