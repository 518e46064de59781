package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

const defaultRefreshTimeout = 15 * time.Second

// Refresher exchanges a refresh token for a rotated session.
// *api.HTTPClient satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.Identity, error)
}

type refreshOutcome struct {
	sess  *models.Session
	ident *models.Identity
}

// RefreshCoordinator performs the refresh network call with single-flight
// semantics: concurrent callers collapse into one in-flight attempt and
// all receive its outcome. The server rotates refresh tokens, so two
// parallel refresh calls would leave the loser holding dead tokens; the
// gate makes that impossible within this process.
type RefreshCoordinator struct {
	store *Store
	api   Refresher
	log   logging.Logger

	group   singleflight.Group
	timeout time.Duration

	// OnEstablished and OnCleared are invoked from inside a successful or
	// terminally failed flight, exactly once per flight. Set during
	// composition, before any call to Refresh.
	OnEstablished func(sess *models.Session, ident *models.Identity)
	OnCleared     func()
}

func NewRefreshCoordinator(store *Store, api Refresher, log logging.Logger) *RefreshCoordinator {
	return &RefreshCoordinator{
		store:   store,
		api:     api,
		log:     log,
		timeout: defaultRefreshTimeout,
	}
}

// Refresh obtains a fresh session. If a flight is already running, the
// caller joins it and shares its result; otherwise a new flight starts.
// Outcomes:
//   - success: the rotated session is stored and returned;
//   - common.ErrRefreshRejected: the stored session is cleared, terminal;
//   - common.ErrUnavailable: the stored session is left untouched so a
//     later attempt can retry with the same refresh token.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (*models.Session, *models.Identity, error) {
	v, err, shared := c.group.Do(sessionSlot, func() (any, error) {
		return c.attempt(ctx)
	})
	if err != nil {
		return nil, nil, err
	}
	out := v.(refreshOutcome)
	if shared {
		c.log.Debug(ctx, "joined in-flight token refresh")
	}
	return out.sess, out.ident, nil
}

func (c *RefreshCoordinator) attempt(outer context.Context) (any, error) {
	// The flight is shared by every concurrent caller, so it must not die
	// with whichever caller happened to start it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(outer), c.timeout)
	defer cancel()

	cur, err := c.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if !cur.Valid() {
		c.notifyCleared()
		return nil, fmt.Errorf("%w: no stored refresh token", common.ErrRefreshRejected)
	}

	sess, ident, err := c.api.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshRejected) {
			c.log.Info(ctx, "refresh token rejected, dropping session")
			if cerr := c.store.Clear(ctx); cerr != nil {
				c.log.Error(ctx, "failed to clear rejected session", "error", cerr)
			}
			c.notifyCleared()
			return nil, err
		}
		// Transient failure: keep the stored pair for a later attempt.
		c.log.Warn(ctx, "token refresh failed", "error", err)
		return nil, err
	}

	if err := c.store.Write(ctx, sess); err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "session refreshed", "expires_at", sess.ExpiresAt)
	c.notifyEstablished(sess, ident)
	return refreshOutcome{sess: sess, ident: ident}, nil
}

func (c *RefreshCoordinator) notifyEstablished(sess *models.Session, ident *models.Identity) {
	if c.OnEstablished != nil {
		c.OnEstablished(sess, ident)
	}
}

func (c *RefreshCoordinator) notifyCleared() {
	if c.OnCleared != nil {
		c.OnCleared()
	}
}
