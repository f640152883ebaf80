package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepo holds the single identity claim of a client-server session
// in Redis, keyed by the opaque session identifier the client carries in a
// cookie. Expiry is owned by Redis via the TTL set at establishment; this
// adapter only reads and writes the one claim value.
type SessionRepo struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewSessionRepo(rdb *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{RDB: rdb, TTL: ttl}
}

func sessionKey(sessionID string) string { return "session:" + sessionID }

// Establish records handle as the authenticated identity for sessionID.
// Re-establishing overwrites the previous claim and refreshes the TTL.
func (r *SessionRepo) Establish(ctx context.Context, sessionID, handle string) error {
	return r.RDB.Set(ctx, sessionKey(sessionID), handle, r.TTL).Err()
}

// CurrentHandle returns the identity claim of sessionID. A missing or
// expired claim is reported as ErrNoSession.
func (r *SessionRepo) CurrentHandle(ctx context.Context, sessionID string) (string, error) {
	handle, err := r.RDB.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return handle, nil
}

// Clear removes the identity claim. Clearing an absent session is not an
// error; DEL on a missing key is a no-op.
func (r *SessionRepo) Clear(ctx context.Context, sessionID string) error {
	return r.RDB.Del(ctx, sessionKey(sessionID)).Err()
}
