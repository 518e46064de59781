package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
)

// HTTPClient talks JSON over HTTP to the ragchat backend.
//
// Two underlying http.Clients are used: a bare one for the auth surface
// (login/register/refresh/logout) and a session-aware one for everything
// else. Routing the auth surface past the authorized transport keeps the
// refresh call itself out of the refresh-and-retry path.
type HTTPClient struct {
	baseURL string
	auth    *http.Client
	authz   *http.Client
	now     func() time.Time
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	hc := &http.Client{Timeout: timeout}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    hc,
		authz:   hc,
		now:     time.Now,
	}
}

// UseAuthorizedTransport routes authorized calls through rt. Called once
// during composition, after the session transport has been built around
// this client's Refresh.
func (c *HTTPClient) UseAuthorizedTransport(rt http.RoundTripper) {
	c.authz = &http.Client{Transport: rt, Timeout: c.auth.Timeout}
}

func (c *HTTPClient) Close() error {
	c.auth.CloseIdleConnections()
	c.authz.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, emailOrUsername, password string) (*models.Session, *models.Identity, error) {
	var tr tokenResponse
	err := c.do(ctx, c.auth, http.MethodPost, "/auth/login", loginRequest{EmailOrUsername: emailOrUsername, Password: password}, &tr)
	if err != nil {
		return nil, nil, err
	}
	return tr.session(c.now()), &tr.User, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, username, password string) (*models.Session, *models.Identity, error) {
	var tr tokenResponse
	err := c.do(ctx, c.auth, http.MethodPost, "/auth/register", registerRequest{Email: email, Username: username, Password: password}, &tr)
	if err != nil {
		return nil, nil, err
	}
	return tr.session(c.now()), &tr.User, nil
}

// Refresh exchanges the refresh token for a rotated session. A 401 here
// means the token is invalid, expired or revoked; that is terminal and
// reported as common.ErrRefreshRejected.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.Identity, error) {
	var tr tokenResponse
	err := c.do(ctx, c.auth, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &tr)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, nil, fmt.Errorf("%w: %s", common.ErrRefreshRejected, err)
		}
		return nil, nil, err
	}
	return tr.session(c.now()), &tr.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, c.auth, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: refreshToken}, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.Identity, error) {
	var id models.Identity
	if err := c.do(ctx, c.authz, http.MethodGet, "/auth/me", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) UpdateMe(ctx context.Context, upd models.ProfileUpdate) (*models.Identity, error) {
	var id models.Identity
	if err := c.do(ctx, c.authz, http.MethodPut, "/auth/me", upd, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *HTTPClient) Chat(ctx context.Context, query string) (*models.ChatAnswer, error) {
	var ans models.ChatAnswer
	if err := c.do(ctx, c.authz, http.MethodPost, "/api/chat", chatRequest{Query: query}, &ans); err != nil {
		return nil, err
	}
	return &ans, nil
}

func (c *HTTPClient) History(ctx context.Context) ([]models.HistoryItem, error) {
	var items []models.HistoryItem
	if err := c.do(ctx, c.authz, http.MethodGet, "/auth/history", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) DeleteHistory(ctx context.Context, id int64) error {
	return c.do(ctx, c.authz, http.MethodDelete, fmt.Sprintf("/auth/history/%d", id), nil, nil)
}

func (c *HTTPClient) BookmarkHistory(ctx context.Context, id int64, bookmarked bool) error {
	return c.do(ctx, c.authz, http.MethodPost, fmt.Sprintf("/auth/history/%d/bookmark", id), bookmarkRequest{IsBookmarked: bookmarked}, nil)
}

func (c *HTTPClient) AdminStats(ctx context.Context) (*models.IndexStats, error) {
	var stats models.IndexStats
	if err := c.do(ctx, c.authz, http.MethodGet, "/api/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", method, path, common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w: %s", method, path, common.ErrUnavailable, err)
		}
		return nil
	}

	return c.mapStatus(resp)
}

// errorResponse mirrors the backend's error body, {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *HTTPClient) mapStatus(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er)
	detail := er.Detail
	if detail == "" {
		detail = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, detail)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", common.ErrValidation, detail)
	default:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, detail)
	}
}
