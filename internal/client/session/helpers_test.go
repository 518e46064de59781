package session

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// ---- helpers ----

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// setupDB opens a named in-memory database shared by every connection in
// the test, with the same schema the goose migration creates.
func setupDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS auth_session (
  slot TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  seq INTEGER NOT NULL DEFAULT 0,
  origin TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM auth_session`)
	require.NoError(t, err)
	return db
}

func validSession(access string, ttl time.Duration) *models.Session {
	return &models.Session{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		ExpiresAt:    time.Now().Add(ttl),
	}
}

func testIdentity(username string) *models.Identity {
	return &models.Identity{
		ID:        1,
		Email:     username + "@example.com",
		Username:  username,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
}

// ---- fake API ----

// fakeAPI satisfies both session.API and session.Refresher.
type fakeAPI struct {
	mu sync.Mutex

	RefreshCalls int
	RefreshErr   error
	RefreshSess  *models.Session
	RefreshIdent *models.Identity
	// RefreshBlock, when non-nil, holds every refresh call open until the
	// channel is closed. RefreshStarted (when non-nil) receives one value
	// per call as it enters.
	RefreshBlock   chan struct{}
	RefreshStarted chan struct{}
	LastRefreshTok string

	LoginCalls    int
	LoginErr      error
	LoginSess     *models.Session
	LoginIdent    *models.Identity
	LastLoginUser string
	LastLoginPass string

	RegisterErr   error
	RegisterSess  *models.Session
	RegisterIdent *models.Identity

	LogoutCalls     int
	LogoutErr       error
	LastLogoutToken string

	MeCalls int
	MeErr   error
	MeIdent *models.Identity

	UpdateErr   error
	UpdateIdent *models.Identity
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.Identity, error) {
	f.mu.Lock()
	f.RefreshCalls++
	f.LastRefreshTok = refreshToken
	started, block := f.RefreshStarted, f.RefreshBlock
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RefreshErr != nil {
		return nil, nil, f.RefreshErr
	}
	return f.RefreshSess, f.RefreshIdent, nil
}

func (f *fakeAPI) Login(ctx context.Context, emailOrUsername, password string) (*models.Session, *models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	f.LastLoginUser = emailOrUsername
	f.LastLoginPass = password
	if f.LoginErr != nil {
		return nil, nil, f.LoginErr
	}
	return f.LoginSess, f.LoginIdent, nil
}

func (f *fakeAPI) Register(ctx context.Context, email, username, password string) (*models.Session, *models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterErr != nil {
		return nil, nil, f.RegisterErr
	}
	return f.RegisterSess, f.RegisterIdent, nil
}

func (f *fakeAPI) Logout(ctx context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LogoutCalls++
	f.LastLogoutToken = refreshToken
	return f.LogoutErr
}

func (f *fakeAPI) Me(ctx context.Context) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MeCalls++
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	return f.MeIdent, nil
}

func (f *fakeAPI) UpdateMe(ctx context.Context, upd models.ProfileUpdate) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return f.UpdateIdent, nil
}

func (f *fakeAPI) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RefreshCalls
}

func (f *fakeAPI) meCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.MeCalls
}
