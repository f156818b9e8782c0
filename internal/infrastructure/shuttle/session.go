package shuttle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

type loginResponse struct {
	Success *bool  `json:"success"`
	Token   string `json:"token"`
	Errors  struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

// Login exchanges a username and password for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (reservation.Session, error) {
	form := url.Values{}
	form.Set("appid", c.cfg.AppID)
	form.Set("userName", username)
	form.Set("password", password)
	form.Set("redirUrl", c.cfg.redirectURL())

	body, err := c.do(ctx, http.MethodPost, c.cfg.IdentityURL, nil, form)
	if err != nil {
		return reservation.Session{}, fmt.Errorf("login: %w", err)
	}

	var res loginResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return reservation.Session{}, fmt.Errorf("login: %w: %w", reservation.ErrDecode, err)
	}
	if res.Success == nil {
		return reservation.Session{}, fmt.Errorf("login: %w: missing \"success\"", reservation.ErrDecode)
	}
	if !*res.Success {
		if res.Errors.Msg != "" {
			return reservation.Session{}, fmt.Errorf("login: %w: %s", reservation.ErrAuthInvalid, res.Errors.Msg)
		}
		return reservation.Session{}, fmt.Errorf("login: %w", reservation.ErrAuthInvalid)
	}
	if res.Token == "" {
		return reservation.Session{}, fmt.Errorf("login: %w: missing \"token\"", reservation.ErrDecode)
	}
	return reservation.Session{Token: res.Token, IssuedAt: time.Now()}, nil
}

// handshake hands the token to the reservation site so it sets its session
// cookie. The body is ignored.
func (c *Client) handshake(ctx context.Context, s reservation.Session) error {
	token, err := bearer(s)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("token", token)
	q.Set("redirect_url", c.endpoint(reservePagePath))
	q.Set("_rand", fmt.Sprintf("%d", time.Now().UnixMilli()))
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(handshakePath), q, nil); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}
