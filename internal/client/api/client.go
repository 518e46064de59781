// Package api implements the HTTP transport for the ragchat backend.
// It knows nothing about token lifecycle beyond exchanging credential
// payloads; authorized dispatch is delegated to the http.Client injected
// via UseAuthorizedTransport.
package api

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
)

// Client is the full API surface consumed by the CLI.
type Client interface {
	Close() error

	// Auth surface: dispatched on the bare transport, never auto-retried.
	Login(ctx context.Context, emailOrUsername string, password string) (*models.Session, *models.Identity, error)
	Register(ctx context.Context, email, username, password string) (*models.Session, *models.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.Identity, error)
	Logout(ctx context.Context, refreshToken string) error

	// Authorized calls: dispatched through the session-aware transport.
	Me(ctx context.Context) (*models.Identity, error)
	UpdateMe(ctx context.Context, upd models.ProfileUpdate) (*models.Identity, error)
	Chat(ctx context.Context, query string) (*models.ChatAnswer, error)
	History(ctx context.Context) ([]models.HistoryItem, error)
	DeleteHistory(ctx context.Context, id int64) error
	BookmarkHistory(ctx context.Context, id int64, bookmarked bool) error
	AdminStats(ctx context.Context) (*models.IndexStats, error)
}

// tokenResponse mirrors the server's TokenResponse schema.
type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         models.Identity `json:"user"`
}

// session converts the wire response into a Session. The expiry instant
// is computed from the issue time and the declared lifetime; the token
// itself is never decoded.
func (t *tokenResponse) session(now time.Time) *models.Session {
	return &models.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(t.ExpiresIn) * time.Second),
	}
}

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username"`
	Password        string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type chatRequest struct {
	Query string `json:"query"`
}

type bookmarkRequest struct {
	IsBookmarked bool `json:"is_bookmarked"`
}
