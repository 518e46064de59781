package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// DefaultWatchInterval is how often the watcher polls the store for
// mutations made by other processes.
const DefaultWatchInterval = 2 * time.Second

// ChangeEvent describes an externally observed mutation of the session
// slot. Old and New carry the previous and new raw record values; New is
// empty when the slot was cleared.
type ChangeEvent struct {
	Old    []byte
	New    []byte
	Origin string
	Seq    int64
}

// Watcher observes the shared store for changes made by other execution
// contexts (other processes holding the same database). Mutations made
// through this context's own store advance the cursor silently and are
// never reported.
type Watcher struct {
	store    *Store
	interval time.Duration
	onChange func(ctx context.Context, ev ChangeEvent, sess *models.Session)
	log      logging.Logger

	lastSeq int64
	lastRaw []byte

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher that invokes onChange for every external
// mutation. sess is the decoded new session, or nil when the slot was
// cleared or holds an unusable record.
func NewWatcher(store *Store, interval time.Duration, onChange func(ctx context.Context, ev ChangeEvent, sess *models.Session), log logging.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		store:    store,
		interval: interval,
		onChange: onChange,
		log:      log,
	}
}

// Start primes the cursor with the slot's current state (pre-existing
// records are not reported as changes) and begins polling until Stop is
// called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	rec, err := w.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	if rec != nil {
		w.lastSeq, w.lastRaw = rec.Seq, rec.Value
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
	return nil
}

// Stop halts polling and waits for the poll loop to exit. Safe to call
// only after a successful Start.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	rec, err := w.store.Snapshot(ctx)
	if err != nil {
		w.log.Warn(ctx, "session watch poll failed", "error", err)
		return
	}

	var (
		seq    int64
		raw    []byte
		origin string
	)
	if rec != nil {
		seq, raw, origin = rec.Seq, rec.Value, rec.Origin
	}
	if seq == w.lastSeq {
		return
	}

	old := w.lastRaw
	w.lastSeq, w.lastRaw = seq, raw

	if origin == w.store.Origin() {
		// Our own write; already handled in-process.
		return
	}

	ev := ChangeEvent{Old: old, New: raw, Origin: origin, Seq: seq}

	var sess *models.Session
	if len(raw) > 0 {
		var decoded models.Session
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Valid() {
			sess = &decoded
		}
	}
	w.onChange(ctx, ev, sess)
}
