package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// API is the slice of the transport the session manager drives.
// *api.HTTPClient satisfies it.
type API interface {
	Login(ctx context.Context, emailOrUsername, password string) (*models.Session, *models.Identity, error)
	Register(ctx context.Context, email, username, password string) (*models.Session, *models.Identity, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*models.Identity, error)
	UpdateMe(ctx context.Context, upd models.ProfileUpdate) (*models.Identity, error)
}

// Options tune the composed lifecycle components. Zero values fall back
// to the package defaults.
type Options struct {
	Margin          time.Duration
	RescheduleFloor time.Duration
	WatchInterval   time.Duration
}

// Manager is the composition root for the session lifecycle. It sequences
// login/register/logout/profile updates, owns the observable identity,
// and wires the coordinator's outcomes into the scheduler and the
// identity broadcast. It performs no lifecycle logic of its own.
type Manager struct {
	api         API
	store       *Store
	coordinator *RefreshCoordinator
	scheduler   *Scheduler
	watcher     *Watcher
	log         logging.Logger

	mu       sync.RWMutex
	identity *models.Identity
	subs     []func(*models.Identity)
}

func NewManager(apiClient API, store *Store, coordinator *RefreshCoordinator, opts Options, log logging.Logger) *Manager {
	m := &Manager{
		api:         apiClient,
		store:       store,
		coordinator: coordinator,
		log:         log,
	}
	m.scheduler = NewScheduler(store, m.probe, opts.Margin, opts.RescheduleFloor, log)
	m.watcher = NewWatcher(store, opts.WatchInterval, m.handleExternal, log)

	coordinator.OnEstablished = func(sess *models.Session, ident *models.Identity) {
		m.scheduler.OnSessionEstablished(sess)
		m.setIdentity(ident)
	}
	coordinator.OnCleared = func() {
		m.scheduler.Cancel()
		m.setIdentity(nil)
	}
	return m
}

// Scheduler exposes the composed scheduler, mainly for tests.
func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

// Start restores any stored session and begins watching for changes made
// by other contexts. A transient restore failure is logged, not fatal:
// the scheduler keeps the session warm and retries.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.restore(ctx); err != nil {
		m.log.Warn(ctx, "session restore failed", "error", err)
	}
	return m.watcher.Start(ctx)
}

// Stop halts the watcher and disarms the scheduler. It does not log the
// user out; the stored session survives for the next run.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.scheduler.Cancel()
}

func (m *Manager) restore(ctx context.Context) error {
	sess, err := m.store.Read(ctx)
	if err != nil {
		return err
	}
	if !sess.Valid() {
		return nil
	}

	// Goes through the authorized transport, so an expired access token
	// is refreshed on the way.
	ident, err := m.api.Me(ctx)
	if err != nil {
		if errors.Is(err, common.ErrRefreshRejected) || errors.Is(err, common.ErrUnauthorized) {
			// Unusable stored session; a rejection has already cleared it.
			return nil
		}
		// Transient: keep the session armed so the scheduler retries.
		m.scheduler.OnSessionEstablished(sess)
		return err
	}
	m.setIdentity(ident)

	// The identity fetch may have rotated the pair; arm from current state.
	if cur, rerr := m.store.Read(ctx); rerr == nil && cur.Valid() {
		m.scheduler.OnSessionEstablished(cur)
	}
	return nil
}

func (m *Manager) Login(ctx context.Context, emailOrUsername, password string) (*models.Identity, error) {
	sess, ident, err := m.api.Login(ctx, emailOrUsername, password)
	if err != nil {
		return nil, err
	}
	return ident, m.establish(ctx, sess, ident)
}

func (m *Manager) Register(ctx context.Context, email, username, password string) (*models.Identity, error) {
	sess, ident, err := m.api.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	return ident, m.establish(ctx, sess, ident)
}

func (m *Manager) establish(ctx context.Context, sess *models.Session, ident *models.Identity) error {
	if err := m.store.Write(ctx, sess); err != nil {
		return err
	}
	m.scheduler.OnSessionEstablished(sess)
	m.setIdentity(ident)
	return nil
}

// Logout revokes the refresh token server-side on a best-effort basis
// (failures are logged and ignored), then drops all local session state.
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.store.Read(ctx)
	if err == nil && sess.Valid() {
		if lerr := m.api.Logout(ctx, sess.RefreshToken); lerr != nil {
			m.log.Warn(ctx, "server-side logout failed", "error", lerr)
		}
	}

	m.scheduler.Cancel()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.setIdentity(nil)
	return nil
}

func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Identity, error) {
	ident, err := m.api.UpdateMe(ctx, upd)
	if err != nil {
		return nil, err
	}
	m.setIdentity(ident)
	return ident, nil
}

// Identity returns a copy of the current identity, or nil when logged out.
func (m *Manager) Identity() *models.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

// Subscribe registers fn to be called on every identity change, including
// the drop to nil on logout or forced logout.
func (m *Manager) Subscribe(fn func(*models.Identity)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) setIdentity(ident *models.Identity) {
	m.mu.Lock()
	m.identity = ident
	subs := slices.Clone(m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ident)
	}
}

// probe is the scheduler's liveness check: any authorized call keeps the
// session warm and triggers the transport's refresh path when needed.
func (m *Manager) probe(ctx context.Context) error {
	ident, err := m.api.Me(ctx)
	if err != nil {
		return err
	}
	m.setIdentity(ident)
	return nil
}

// handleExternal reconciles state after another context mutated the
// shared store: a fresh login elsewhere adopts that session, a clear
// elsewhere logs this context out too.
func (m *Manager) handleExternal(ctx context.Context, ev ChangeEvent, sess *models.Session) {
	if sess == nil {
		m.log.Info(ctx, "session cleared by another context", "origin", ev.Origin)
		m.scheduler.Cancel()
		m.setIdentity(nil)
		return
	}

	m.log.Info(ctx, "session updated by another context", "origin", ev.Origin)
	ident, err := m.api.Me(ctx)
	if err != nil {
		m.log.Warn(ctx, "failed to fetch identity for adopted session", "error", err)
		return
	}
	m.setIdentity(ident)
	m.scheduler.OnSessionEstablished(sess)
}
