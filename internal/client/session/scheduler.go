package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

const (
	// DefaultRescheduleFloor is the minimum delay before a liveness probe,
	// so a nearly expired session does not cause a hot loop.
	DefaultRescheduleFloor = 5 * time.Second

	probeTimeout = 10 * time.Second
)

// Scheduler arms a one-shot task shortly before access-token expiry. The
// task runs a liveness probe (any authorized call) which implicitly
// drives the transport's refresh path, then reschedules itself from the
// then-current session. Cancel guarantees that no armed task acts after
// logout, even one that has already started running.
type Scheduler struct {
	store  *Store
	probe  func(ctx context.Context) error
	margin time.Duration
	floor  time.Duration
	now    func() time.Time
	log    logging.Logger

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewScheduler(store *Store, probe func(ctx context.Context) error, margin, floor time.Duration, log logging.Logger) *Scheduler {
	if margin <= 0 {
		margin = DefaultMargin
	}
	if floor <= 0 {
		floor = DefaultRescheduleFloor
	}
	return &Scheduler{
		store:  store,
		probe:  probe,
		margin: margin,
		floor:  floor,
		now:    time.Now,
		log:    log,
	}
}

// OnSessionEstablished (re)arms the probe for the given session,
// superseding any previously armed task.
func (s *Scheduler) OnSessionEstablished(sess *models.Session) {
	if !sess.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.armLocked(s.gen, sess.ExpiresAt)
}

// Cancel stops any armed task and invalidates tasks that already fired
// but have not yet acted. Idempotent.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) armLocked(gen uint64, expiresAt time.Time) {
	if s.timer != nil {
		s.timer.Stop()
	}
	d := expiresAt.Sub(s.now()) - s.margin
	if d < s.floor {
		d = s.floor
	}
	s.timer = time.AfterFunc(d, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	live := gen == s.gen
	s.mu.Unlock()
	if !live {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	// Validity is checked at fire time, not only at schedule time: the
	// session may have been cleared while the timer was pending.
	sess, err := s.store.Read(ctx)
	if err != nil || !sess.Valid() {
		return
	}

	if err := s.probe(ctx); err != nil {
		s.log.Warn(ctx, "session liveness probe failed", "error", err)
	}

	cur, err := s.store.Read(ctx)
	if err != nil || !cur.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// Cancelled or superseded while the probe was running.
		return
	}
	s.armLocked(gen, cur.ExpiresAt)
}
