// Package models defines client-side data models for the ragchat CLI.
package models

import "time"

// Session is the access/refresh token pair issued by the auth server,
// together with the absolute access-token expiry instant. Tokens are
// opaque strings; ExpiresAt is always computed as issue time plus the
// server-declared lifetime, never by decoding the token.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether s is a usable session. The pair is atomic: a
// session missing either token, or without an expiry, counts as no
// session at all.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != "" && !s.ExpiresAt.IsZero()
}

// ExpiringWithin reports whether the access token is inside the safety
// margin before its expiry at the given instant. A token inside the
// margin is treated as already expired so it is never used mid-flight.
func (s *Session) ExpiringWithin(margin time.Duration, now time.Time) bool {
	return !now.Add(margin).Before(s.ExpiresAt)
}
