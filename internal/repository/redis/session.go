// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session does not exist or has
// expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is a server-side login session. The session ID doubles as the
// bearer token for cookie-based clients.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessAt time.Time `json:"last_access_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore persists sessions in Redis with a sliding TTL. Alongside each
// session, the store maintains a per-user set of session IDs so that all of a
// user's sessions can be revoked at once.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a session store with the given session lifetime.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Create stores a new session for the user and returns it.
func (s *SessionStore) Create(ctx context.Context, userID, username, role, userAgent, ipAddress string) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		Role:         role,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		CreatedAt:    now,
		LastAccessAt: now,
		ExpiresAt:    now.Add(s.ttl),
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	rdb := s.client.Redis()
	userKey := s.client.UserSessionsKey(userID)
	if err := rdb.SAdd(ctx, userKey, session.ID).Err(); err != nil {
		return nil, fmt.Errorf("track session: %w", err)
	}
	// The set lives as long as the longest session in it.
	if err := rdb.Expire(ctx, userKey, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("expire session set: %w", err)
	}

	return session, nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Redis().Get(ctx, s.client.SessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Touch updates the session's last-access time and extends its TTL.
func (s *SessionStore) Touch(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	now := time.Now()
	session.LastAccessAt = now
	session.ExpiresAt = now.Add(s.ttl)
	return s.save(ctx, session)
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	session, err := s.Get(ctx, sessionID)
	if err == ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	rdb := s.client.Redis()
	if err := rdb.Del(ctx, s.client.SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return rdb.SRem(ctx, s.client.UserSessionsKey(session.UserID), sessionID).Err()
}

// DeleteAllForUser revokes every session belonging to the user.
func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	rdb := s.client.Redis()
	userKey := s.client.UserSessionsKey(userID)

	ids, err := rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	for _, id := range ids {
		if err := rdb.Del(ctx, s.client.SessionKey(id)).Err(); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return rdb.Del(ctx, userKey).Err()
}

// GetAllForUser returns the user's live sessions. Expired entries are pruned
// from the tracking set as a side effect.
func (s *SessionStore) GetAllForUser(ctx context.Context, userID string) ([]*Session, error) {
	rdb := s.client.Redis()
	userKey := s.client.UserSessionsKey(userID)

	ids, err := rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	var sessions []*Session
	for _, id := range ids {
		session, err := s.Get(ctx, id)
		if err == ErrSessionNotFound {
			_ = rdb.SRem(ctx, userKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// CountForUser returns the number of live sessions the user has.
func (s *SessionStore) CountForUser(ctx context.Context, userID string) (int, error) {
	sessions, err := s.GetAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// PruneExpired walks the per-user tracking sets and removes session IDs whose
// session key has expired. Redis drops the session payloads itself; this only
// keeps the tracking sets honest. Returns the number of entries removed.
func (s *SessionStore) PruneExpired(ctx context.Context) (int, error) {
	rdb := s.client.Redis()
	pruned := 0

	iter := rdb.Scan(ctx, 0, "user_sessions:*", 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		ids, err := rdb.SMembers(ctx, userKey).Result()
		if err != nil {
			return pruned, fmt.Errorf("list sessions for %s: %w", userKey, err)
		}
		for _, id := range ids {
			exists, err := rdb.Exists(ctx, s.client.SessionKey(id)).Result()
			if err != nil {
				return pruned, fmt.Errorf("check session %s: %w", id, err)
			}
			if exists == 0 {
				if err := rdb.SRem(ctx, userKey, id).Err(); err != nil {
					return pruned, fmt.Errorf("prune session %s: %w", id, err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("scan session sets: %w", err)
	}
	return pruned, nil
}

func (s *SessionStore) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	key := s.client.SessionKey(session.ID)
	if err := s.client.Redis().Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
