package session

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ragchat/internal/client/models"
	"github.com/dmitrijs2005/ragchat/internal/common"
	"github.com/dmitrijs2005/ragchat/internal/logging"
)

// DefaultMargin is the safety window before actual expiry during which an
// access token is treated as already expired, so it never expires
// mid-flight.
const DefaultMargin = 30 * time.Second

// refreshDriver is the coordinator as seen by the transport.
type refreshDriver interface {
	Refresh(ctx context.Context) (*models.Session, *models.Identity, error)
}

// Transport is an http.RoundTripper that attaches the current access
// token to outbound requests and retries exactly once after a
// coordinated refresh when the server answers 401.
//
// Per call it either uses the stored token directly (outside the margin),
// or refreshes proactively first (inside the margin), or dispatches
// unauthenticated when no usable token can be obtained — the call may
// still succeed against a public endpoint.
type Transport struct {
	base      http.RoundTripper
	store     *Store
	refresher refreshDriver
	margin    time.Duration
	now       func() time.Time
	log       logging.Logger
}

func NewTransport(base http.RoundTripper, store *Store, refresher refreshDriver, margin time.Duration, log logging.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Transport{
		base:      base,
		store:     store,
		refresher: refresher,
		margin:    margin,
		now:       time.Now,
		log:       log,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.base.RoundTrip(t.authorize(req, t.currentToken(ctx)))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One coordinated refresh, one retry. On any failure the original
	// 401 response is returned unchanged.
	sess, _, rerr := t.refresher.Refresh(ctx)
	if rerr != nil {
		t.log.Debug(ctx, "not retrying unauthorized call", "error", rerr)
		return resp, nil
	}
	retry, ok := t.rewind(req)
	if !ok {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return t.base.RoundTrip(t.authorize(retry, sess.AccessToken))
}

// currentToken resolves the access token to attach. Inside the expiry
// margin it drives a proactive refresh; if that fails the request goes
// out unauthenticated.
func (t *Transport) currentToken(ctx context.Context) string {
	sess, err := t.store.Read(ctx)
	if err != nil || !sess.Valid() {
		return ""
	}
	if !sess.ExpiringWithin(t.margin, t.now()) {
		return sess.AccessToken
	}

	fresh, _, err := t.refresher.Refresh(ctx)
	if err != nil {
		t.log.Debug(ctx, "proactive refresh failed, dispatching unauthenticated", "error", err)
		return ""
	}
	return fresh.AccessToken
}

// authorize clones req (RoundTrippers must not mutate the original) and
// attaches the bearer credential when a token is available.
func (t *Transport) authorize(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	return clone
}

// rewind produces a request whose body can be sent again. Requests with a
// consumed one-shot body cannot be retried.
func (t *Transport) rewind(req *http.Request) (*http.Request, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, true
}
