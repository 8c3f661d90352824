// Package redis backs the ledger with Redis hashes so registrations survive
// process restarts. Wire format: one hash per user under ledger:<userID>,
// plus a set of known user ids for List.
package redis

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"opsconsole/internal/identity"
	"opsconsole/pkg/platform/sentinel"
)

const (
	recordKeyPrefix = "ledger:"
	usersKey        = "ledger:users"
)

// Store implements identity.Store on a go-redis client.
type Store struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

func (s *Store) Save(ctx context.Context, rec identity.Record) error {
	fields := map[string]any{
		"key_binding":  base64.StdEncoding.EncodeToString(rec.KeyBinding),
		"current_code": rec.CurrentCode,
	}
	if rec.CodeIssuedAt.IsZero() {
		fields["code_issued_at"] = ""
	} else {
		fields["code_issued_at"] = rec.CodeIssuedAt.UTC().Format(time.RFC3339Nano)
	}

	pipe := s.client.TxPipeline()
	// Delete first so a re-registration cannot leave a stale code field.
	pipe.Del(ctx, recordKeyPrefix+rec.UserID)
	pipe.HSet(ctx, recordKeyPrefix+rec.UserID, fields)
	pipe.SAdd(ctx, usersKey, rec.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save ledger record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, userID string) (identity.Record, error) {
	// HGetAll never returns redis.Nil for a missing key, so any error here
	// is a transport failure.
	fields, err := s.client.HGetAll(ctx, recordKeyPrefix+userID).Result()
	if err != nil {
		return identity.Record{}, fmt.Errorf("load ledger record: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return identity.Record{}, sentinel.ErrNotFound
	}

	binding, err := base64.StdEncoding.DecodeString(fields["key_binding"])
	if err != nil {
		return identity.Record{}, fmt.Errorf("decode key binding: %w", err)
	}

	rec := identity.Record{
		UserID:      userID,
		KeyBinding:  binding,
		CurrentCode: fields["current_code"],
	}
	if raw := fields["code_issued_at"]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return identity.Record{}, fmt.Errorf("parse code_issued_at: %w", err)
		}
		rec.CodeIssuedAt = t
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	users, err := s.client.SMembers(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list ledger users: %w: %w", sentinel.ErrUnavailable, err)
	}
	sort.Strings(users)
	return users, nil
}
