//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/store"
	"idlookup/pkg/platform/sentinel"
	"idlookup/pkg/testutil/containers"
)

type cacheCounter map[string]int

func (c cacheCounter) RecordCacheLookup(result string) { c[result]++ }

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *store.InMemoryStore
	cached  *store.CachedStore
	lookups cacheCounter
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = store.NewInMemoryStore()
	s.lookups = cacheCounter{}
	s.cached = store.NewCachedStore(s.backing, s.redis.Client,
		store.WithCacheTTL(time.Minute),
		store.WithCacheMetrics(s.lookups),
	)
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()

	_, err := s.cached.Find(ctx, pgIDNumber)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(1, s.lookups[store.CacheMiss])

	_, _, err = s.backing.Upsert(ctx, pgIDNumber, pgFields, []holidays.Holiday{{Name: "H", Description: "d", Type: "t", Date: "1990-01-01"}})
	s.Require().NoError(err)

	first, err := s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(2, s.lookups[store.CacheMiss])

	second, err := s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(1, s.lookups[store.CacheHit])
	s.Equal(first.SearchCount, second.SearchCount)
	s.Equal(first.Holidays, second.Holidays)
	s.Equal(first.Fields, second.Fields)
}

func (s *CachedStoreSuite) TestUpsertPublishesSnapshot() {
	ctx := context.Background()

	_, created, err := s.cached.Upsert(ctx, pgIDNumber, pgFields, nil)
	s.Require().NoError(err)
	s.True(created)
	identity, _, err := s.cached.Upsert(ctx, pgIDNumber, pgFields, []holidays.Holiday{{Name: "H", Description: "d", Type: "t", Date: "1990-01-01"}})
	s.Require().NoError(err)
	s.Equal(int64(2), identity.SearchCount)

	found, err := s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(1, s.lookups[store.CacheHit])
	s.Equal(int64(2), found.SearchCount)
	s.Len(found.Holidays, 1)

	ttl, err := s.redis.Client.PTTL(ctx, "identity:"+pgIDNumber.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

// Justification: a writer that finishes late must not replace a snapshot
// carrying a higher search count.
func (s *CachedStoreSuite) TestStaleSnapshotIsNotPublished() {
	ctx := context.Background()
	key := "identity:" + pgIDNumber.String()

	fresh, err := json.Marshal(map[string]any{
		"id_number":       pgIDNumber.String(),
		"birth_date":      pgFields.BirthDate,
		"gender":          string(pgFields.Gender),
		"resident_status": string(pgFields.ResidentStatus),
		"search_count":    5,
		"holidays":        []holidays.Holiday{},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.redis.Client.Set(ctx, key, fresh, time.Minute).Err())

	_, _, err = s.cached.Upsert(ctx, pgIDNumber, pgFields, nil)
	s.Require().NoError(err)

	found, err := s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(int64(5), found.SearchCount)
}

func (s *CachedStoreSuite) TestUndecodableSnapshotFallsBack() {
	ctx := context.Background()
	key := "identity:" + pgIDNumber.String()

	_, _, err := s.backing.Upsert(ctx, pgIDNumber, pgFields, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.redis.Client.Set(ctx, key, "not-json", time.Minute).Err())

	found, err := s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(int64(1), found.SearchCount)
	s.Equal(1, s.lookups[store.CacheError])

	_, err = s.cached.Find(ctx, pgIDNumber)
	s.Require().NoError(err)
	s.Equal(1, s.lookups[store.CacheHit])
}

