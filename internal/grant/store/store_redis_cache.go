package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/internal/grant"
	"vouch/pkg/domain"
)

const (
	// Redis key prefix for active (grantee, attestation) pairs
	pairKeyPrefix = "vouch:grant:pair:"

	defaultPairTTL = 30 * time.Second
)

// RedisCachedStore decorates a Store with a Redis read-through cache on the
// active-pair lookup, the hot path of access checks. The cache is never
// authoritative: entries carry a short TTL and every redis failure falls
// through to the inner store, so a cold or broken cache only costs latency.
type RedisCachedStore struct {
	Store

	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisCacheOption configures a RedisCachedStore.
type RedisCacheOption func(*RedisCachedStore)

// WithPairTTL overrides the cache entry lifetime.
func WithPairTTL(ttl time.Duration) RedisCacheOption {
	return func(s *RedisCachedStore) {
		s.ttl = ttl
	}
}

// NewRedisCached wraps inner with a Redis pair cache.
func NewRedisCached(inner Store, client *redis.Client, logger *slog.Logger, opts ...RedisCacheOption) *RedisCachedStore {
	s := &RedisCachedStore{
		Store:  inner,
		client: client,
		ttl:    defaultPairTTL,
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func pairCacheKey(grantee domain.Identity, attestationID domain.AttestationID) string {
	return pairKeyPrefix + string(grantee) + ":" + attestationID.String()
}

func (s *RedisCachedStore) Save(ctx context.Context, rec *grant.Record) error {
	if err := s.Store.Save(ctx, rec); err != nil {
		return err
	}
	s.put(ctx, rec)
	return nil
}

func (s *RedisCachedStore) Deactivate(ctx context.Context, id domain.GrantID) error {
	// Fetch before the write so we know which pair key to drop.
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Deactivate(ctx, id); err != nil {
		return err
	}
	if err := s.client.Del(ctx, pairCacheKey(rec.Grantee, rec.AttestationID)).Err(); err != nil {
		s.logger.Warn("grant pair cache invalidation failed", "grant_id", id.String(), "error", err)
	}
	return nil
}

func (s *RedisCachedStore) ActiveGrant(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (*grant.Record, error) {
	key := pairCacheKey(grantee, attestationID)
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var rec grant.Record
		if err := json.Unmarshal(payload, &rec); err == nil {
			return &rec, nil
		}
		// Poisoned entry; drop it and fall through.
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("grant pair cache read failed", "error", err)
	}

	rec, err := s.Store.ActiveGrant(ctx, grantee, attestationID)
	if err != nil {
		return nil, err
	}
	s.put(ctx, rec)
	return rec, nil
}

func (s *RedisCachedStore) put(ctx context.Context, rec *grant.Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, pairCacheKey(rec.Grantee, rec.AttestationID), payload, s.ttl).Err(); err != nil {
		s.logger.Warn("grant pair cache write failed", "grant_id", rec.ID.String(), "error", err)
	}
}
