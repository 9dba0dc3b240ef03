// Package gateway implements the authenticated proxy tier: browser
// sessions in Redis, the OAuth2/OIDC login flow, and request forwarding
// to the backend API.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Session is the state held for a logged-in browser.  Tokens are stored
// server-side only; the cookie carries nothing but the opaque id.
type Session struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenExpiry  time.Time `json:"tokenExpiry"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionStore persists sessions in Redis as JSON under session:<id> with
// the configured TTL.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore builds a SessionStore.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

// newSessionID returns 32 bytes of randomness, URL-safe encoded.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create stores a new session and returns it with a fresh id.
func (s *SessionStore) Create(ctx context.Context, sess Session) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	sess.ID = id
	sess.CreatedAt = time.Now().UTC()
	if err := s.save(ctx, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) save(ctx context.Context, sess *Session) error {
	body, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a session by id; ErrNoSession when absent or expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	body, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Update rewrites an existing session, refreshing its TTL.  Used after a
// token refresh.
func (s *SessionStore) Update(ctx context.Context, sess *Session) error {
	return s.save(ctx, sess)
}

// Delete removes a session.  Deleting an unknown id is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}
