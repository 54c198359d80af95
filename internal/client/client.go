// Package client is the HTTP and websocket SDK for a chatline server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

// Client holds the session cookie between calls.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

func New(serverURL string, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url must be http or https: %q", serverURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar, Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

type userEnvelope struct {
	User *model.Identity `json:"user"`
}

func (c *Client) Signup(ctx context.Context, fullName, email, password string) (*model.Identity, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"fullName": fullName, "email": email, "password": password,
	}, &out)
	return out.User, err
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	return out.User, err
}

// CheckAuth returns the identity behind the current cookie.
func (c *Client) CheckAuth(ctx context.Context) (*model.Identity, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &out)
	return out.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, profilePic string) (*model.Identity, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPut, "/api/auth/update-profile", map[string]string{"profilePic": profilePic}, &out)
	return out.User, err
}

func (c *Client) ListUsers(ctx context.Context, page, limit int) (*model.UserPage, error) {
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	var out model.UserPage
	if err := c.do(ctx, http.MethodGet, "/api/messages/users?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context, with string) ([]model.Message, error) {
	var out []model.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(with), nil, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, to, text, image string) (*model.Message, error) {
	var out model.Message
	body := map[string]string{"text": text}
	if image != "" {
		body["image"] = image
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages/send/"+url.PathEscape(to), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return apperr.New(apperr.FromStatus(resp.StatusCode), e.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
