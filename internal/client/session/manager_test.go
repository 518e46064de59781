package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
)

func newManager(t *testing.T, name string, fake *fakeAPI) (*Manager, *Store) {
	t.Helper()
	db := setupDB(t, name)
	store := NewStore(db, "ctx-a", testLogger())
	coord := NewRefreshCoordinator(store, fake, testLogger())
	m := NewManager(fake, store, coord, Options{
		Margin:          50 * time.Millisecond,
		RescheduleFloor: 20 * time.Millisecond,
		WatchInterval:   20 * time.Millisecond,
	}, testLogger())
	return m, store
}

func TestManager_LoginEstablishesSession(t *testing.T) {
	fake := &fakeAPI{
		LoginSess:  validSession("a", time.Hour),
		LoginIdent: testIdentity("alice"),
	}
	m, store := newManager(t, "mgr_login", fake)
	t.Cleanup(m.Scheduler().Cancel)
	ctx := context.Background()

	ident, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, "alice", ident.Username)
	require.Equal(t, "alice", fake.LastLoginUser)
	require.Equal(t, "secret", fake.LastLoginPass)

	got := m.Identity()
	require.NotNil(t, got)
	require.Equal(t, "alice", got.Username)

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", sess.AccessToken)
}

func TestManager_LoginFailureLeavesStateUntouched(t *testing.T) {
	fake := &fakeAPI{LoginErr: common.ErrValidation}
	m, store := newManager(t, "mgr_login_fail", fake)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, common.ErrValidation)
	require.Nil(t, m.Identity())

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestManager_RegisterEstablishesSession(t *testing.T) {
	fake := &fakeAPI{
		RegisterSess:  validSession("r", time.Hour),
		RegisterIdent: testIdentity("bob"),
	}
	m, store := newManager(t, "mgr_register", fake)
	t.Cleanup(m.Scheduler().Cancel)
	ctx := context.Background()

	ident, err := m.Register(ctx, "bob@example.com", "bob", "secret")
	require.NoError(t, err)
	require.Equal(t, "bob", ident.Username)

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "r", sess.AccessToken)
}

func TestManager_LogoutRevokesAndClears(t *testing.T) {
	fake := &fakeAPI{
		LoginSess:  validSession("a", time.Hour),
		LoginIdent: testIdentity("alice"),
	}
	m, store := newManager(t, "mgr_logout", fake)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	require.Equal(t, 1, fake.LogoutCalls)
	require.Equal(t, "refresh-a", fake.LastLogoutToken)
	require.Nil(t, m.Identity())

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestManager_LogoutIsBestEffort(t *testing.T) {
	fake := &fakeAPI{
		LoginSess:  validSession("a", time.Hour),
		LoginIdent: testIdentity("alice"),
		LogoutErr:  common.ErrUnavailable,
	}
	m, store := newManager(t, "mgr_logout_be", fake)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// Revocation fails but local state is dropped regardless.
	require.NoError(t, m.Logout(ctx))
	require.Nil(t, m.Identity())

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestManager_LogoutWhenNotLoggedIn(t *testing.T) {
	fake := &fakeAPI{}
	m, _ := newManager(t, "mgr_logout_empty", fake)

	require.NoError(t, m.Logout(context.Background()))
	require.Equal(t, 0, fake.LogoutCalls)
}

func TestManager_ForcedLogoutOnRefreshRejection(t *testing.T) {
	fake := &fakeAPI{
		LoginSess:  validSession("a", time.Hour),
		LoginIdent: testIdentity("alice"),
		RefreshErr: common.ErrRefreshRejected,
	}
	m, store := newManager(t, "mgr_forced", fake)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	var mu sync.Mutex
	var dropped bool
	m.Subscribe(func(ident *models.Identity) {
		mu.Lock()
		defer mu.Unlock()
		if ident == nil {
			dropped = true
		}
	})

	// The server has revoked the pair; the coordinated refresh is
	// terminally rejected.
	_, _, err = m.coordinator.Refresh(ctx)
	require.ErrorIs(t, err, common.ErrRefreshRejected)

	require.Nil(t, m.Identity())
	mu.Lock()
	require.True(t, dropped, "subscribers observe the drop to logged-out")
	mu.Unlock()

	sess, err := store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)

	// No session left, so nothing keeps attempting the network.
	require.Equal(t, 1, fake.refreshCount())
	_, _, err = m.coordinator.Refresh(ctx)
	require.ErrorIs(t, err, common.ErrRefreshRejected)
	require.Equal(t, 1, fake.refreshCount())
}

func TestManager_CoordinatedRefreshRearmsScheduler(t *testing.T) {
	fake := &fakeAPI{
		LoginSess:    validSession("a", time.Hour),
		LoginIdent:   testIdentity("alice"),
		RefreshSess:  validSession("b", 150*time.Millisecond),
		RefreshIdent: testIdentity("alice"),
		MeIdent:      testIdentity("alice"),
	}
	m, _ := newManager(t, "mgr_rearm", fake)
	t.Cleanup(m.Scheduler().Cancel)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// The refreshed session expires soon, so the re-armed probe fires.
	_, _, err = m.coordinator.Refresh(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fake.meCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestManager_UpdateProfile(t *testing.T) {
	updated := testIdentity("alice")
	updated.Email = "new@example.com"
	fake := &fakeAPI{
		LoginSess:   validSession("a", time.Hour),
		LoginIdent:  testIdentity("alice"),
		UpdateIdent: updated,
	}
	m, _ := newManager(t, "mgr_profile", fake)
	t.Cleanup(m.Scheduler().Cancel)
	ctx := context.Background()

	_, err := m.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	email := "new@example.com"
	ident, err := m.UpdateProfile(ctx, models.ProfileUpdate{Email: &email})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", ident.Email)
	require.Equal(t, "new@example.com", m.Identity().Email)
}

func TestManager_StartRestoresStoredSession(t *testing.T) {
	fake := &fakeAPI{MeIdent: testIdentity("alice")}
	m, store := newManager(t, "mgr_restore", fake)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, validSession("persisted", time.Hour)))

	require.NoError(t, m.Start(ctx))
	t.Cleanup(m.Stop)

	got := m.Identity()
	require.NotNil(t, got)
	require.Equal(t, "alice", got.Username)
	require.Equal(t, 1, fake.meCount())
}

func TestManager_StartWithEmptyStore(t *testing.T) {
	fake := &fakeAPI{}
	m, _ := newManager(t, "mgr_restore_empty", fake)

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Stop)

	require.Nil(t, m.Identity())
	require.Equal(t, 0, fake.meCount())
}

func TestManager_StartWithUnusableSession(t *testing.T) {
	fake := &fakeAPI{MeErr: common.ErrUnauthorized}
	m, store := newManager(t, "mgr_restore_unusable", fake)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, validSession("dead", time.Hour)))

	require.NoError(t, m.Start(ctx))
	t.Cleanup(m.Stop)

	require.Nil(t, m.Identity())
}

func TestManager_AdoptsSessionFromAnotherContext(t *testing.T) {
	db := setupDB(t, "mgr_adopt")
	ctx := context.Background()

	mkManager := func(origin string, fake *fakeAPI) *Manager {
		store := NewStore(db, origin, testLogger())
		coord := NewRefreshCoordinator(store, fake, testLogger())
		return NewManager(fake, store, coord, Options{
			Margin:          50 * time.Millisecond,
			RescheduleFloor: 20 * time.Millisecond,
			WatchInterval:   20 * time.Millisecond,
		}, testLogger())
	}

	fakeA := &fakeAPI{MeIdent: testIdentity("alice")}
	a := mkManager("ctx-a", fakeA)
	require.NoError(t, a.Start(ctx))
	t.Cleanup(a.Stop)
	require.Nil(t, a.Identity())

	// A second context logs in against the same database.
	fakeB := &fakeAPI{
		LoginSess:  validSession("b", time.Hour),
		LoginIdent: testIdentity("alice"),
	}
	b := mkManager("ctx-b", fakeB)
	_, err := b.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	b.Scheduler().Cancel()

	// The first context notices and adopts the session.
	require.Eventually(t, func() bool { return a.Identity() != nil },
		2*time.Second, 10*time.Millisecond)
	require.Equal(t, "alice", a.Identity().Username)
	require.Equal(t, 1, fakeA.meCount())
}

func TestManager_FollowsLogoutFromAnotherContext(t *testing.T) {
	db := setupDB(t, "mgr_follow_logout")
	ctx := context.Background()

	fakeA := &fakeAPI{
		LoginSess:  validSession("a", time.Hour),
		LoginIdent: testIdentity("alice"),
	}
	storeA := NewStore(db, "ctx-a", testLogger())
	coordA := NewRefreshCoordinator(storeA, fakeA, testLogger())
	a := NewManager(fakeA, storeA, coordA, Options{
		Margin:          50 * time.Millisecond,
		RescheduleFloor: 20 * time.Millisecond,
		WatchInterval:   20 * time.Millisecond,
	}, testLogger())

	_, err := a.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	t.Cleanup(a.Stop)

	// Another context clears the shared slot.
	storeB := NewStore(db, "ctx-b", testLogger())
	require.NoError(t, storeB.Clear(ctx))

	require.Eventually(t, func() bool { return a.Identity() == nil },
		2*time.Second, 10*time.Millisecond)
}
