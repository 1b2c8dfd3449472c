package redis

// Package redis provides the key-value session-record store. The two logical
// tables of the session model map onto key prefixes in one Redis keyspace;
// all operations touch a single username key, matching the per-key atomicity
// the arbiter relies on.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/ports"
)

// defaultRecordTTL is a safety net against abandoned records. Session
// validity itself is governed by lastActivityTime, not this TTL.
const defaultRecordTTL = 24 * time.Hour

// SessionStore is a Redis-backed ports.SessionStore.
type SessionStore struct {
	client   redis.UniversalClient
	prefixes map[ports.Table]string
	ttl      time.Duration
}

// NewSessionStore creates a session store with the default key prefixes.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefixes: map[ports.Table]string{
			ports.TableTokenMapping:      "tokenmap:",
			ports.TableSessionManagement: "sessmgmt:",
		},
		ttl: defaultRecordTTL,
	}
}

// NewSessionStoreWithTTL creates a session store with a custom record TTL.
func NewSessionStoreWithTTL(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	s := NewSessionStore(client)
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

func (s *SessionStore) key(table ports.Table, username string) (string, error) {
	prefix, ok := s.prefixes[table]
	if !ok {
		return "", fmt.Errorf("unknown session table %q", table)
	}
	if username == "" {
		return "", errors.New("username cannot be empty")
	}
	return prefix + username, nil
}

func (s *SessionStore) Get(ctx context.Context, table ports.Table, username string) (domainauth.SessionRecord, error) {
	key, err := s.key(table, username)
	if err != nil {
		return domainauth.SessionRecord{}, err
	}

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.SessionRecord{}, ports.ErrNotFound
		}
		return domainauth.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainauth.SessionRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("unmarshal session record: %w", unmarshalErr)
	}
	return rec, nil
}

func (s *SessionStore) Put(ctx context.Context, table ports.Table, record domainauth.SessionRecord) error {
	key, err := s.key(table, record.Username)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	if setErr := s.client.Set(ctx, key, data, s.ttl).Err(); setErr != nil {
		return fmt.Errorf("redis set: %w", setErr)
	}
	return nil
}

// PutIfSessionID writes the record only while the stored session id still
// equals expectedSessionID, using an optimistic WATCH transaction so that
// concurrent takeovers for the same username have at most one winner.
func (s *SessionStore) PutIfSessionID(ctx context.Context, table ports.Table, record domainauth.SessionRecord, expectedSessionID string) error {
	key, err := s.key(table, record.Username)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	txErr := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, getErr := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(getErr, redis.Nil):
			if expectedSessionID != "" {
				return ports.ErrOwnershipConflict
			}
		case getErr != nil:
			return fmt.Errorf("redis get: %w", getErr)
		default:
			var stored domainauth.SessionRecord
			if unmarshalErr := json.Unmarshal([]byte(current), &stored); unmarshalErr != nil {
				return fmt.Errorf("unmarshal session record: %w", unmarshalErr)
			}
			if stored.SessionID != expectedSessionID {
				return ports.ErrOwnershipConflict
			}
		}

		_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return pipeErr
	}, key)

	if errors.Is(txErr, redis.TxFailedErr) {
		// The key changed between read and write; the other writer won.
		return ports.ErrOwnershipConflict
	}
	return txErr
}

func (s *SessionStore) Delete(ctx context.Context, table ports.Table, username string) error {
	key, err := s.key(table, username)
	if err != nil {
		return err
	}

	if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
		return fmt.Errorf("redis del: %w", delErr)
	}
	return nil
}
