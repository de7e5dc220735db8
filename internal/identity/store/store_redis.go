package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/models"
	"idlookup/pkg/domain"
	"idlookup/pkg/platform/privacy"
)

const (
	identityKeyPrefix = "identity:"

	// DefaultCacheTTL bounds how long a snapshot outlives its last write.
	DefaultCacheTTL = 10 * time.Minute
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// publishSnapshotScript replaces the cached snapshot only when the incoming
// search_count is higher than the cached one, so a slow writer cannot roll
// the projection back. ARGV: snapshot, search_count, ttl in milliseconds.
var publishSnapshotScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
  local ok, decoded = pcall(cjson.decode, current)
  if ok and tonumber(decoded.search_count) >= tonumber(ARGV[2]) then
    return 0
  end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// identityJSON is the cached snapshot layout.
type identityJSON struct {
	IDNumber       string             `json:"id_number"`
	BirthDate      string             `json:"birth_date"`
	Gender         string             `json:"gender"`
	ResidentStatus string             `json:"resident_status"`
	SearchCount    int64              `json:"search_count"`
	Holidays       []holidays.Holiday `json:"holidays"`
	CreatedAt      int64              `json:"created_at"` // Unix nano
	UpdatedAt      int64              `json:"updated_at"` // Unix nano
}

func identityToJSON(i *models.Identity) *identityJSON {
	hs := i.Holidays
	if hs == nil {
		hs = []holidays.Holiday{}
	}
	return &identityJSON{
		IDNumber:       i.IDNumber.String(),
		BirthDate:      i.BirthDate,
		Gender:         string(i.Gender),
		ResidentStatus: string(i.ResidentStatus),
		SearchCount:    i.SearchCount,
		Holidays:       hs,
		CreatedAt:      i.CreatedAt.UnixNano(),
		UpdatedAt:      i.UpdatedAt.UnixNano(),
	}
}

func identityFromJSON(j *identityJSON) *models.Identity {
	return &models.Identity{
		IDNumber: domain.IDNumber(j.IDNumber),
		Fields: models.Fields{
			BirthDate:      j.BirthDate,
			Gender:         domain.Gender(j.Gender),
			ResidentStatus: domain.ResidentStatus(j.ResidentStatus),
		},
		SearchCount: j.SearchCount,
		Holidays:    append(make([]holidays.Holiday, 0, len(j.Holidays)), j.Holidays...),
		CreatedAt:   time.Unix(0, j.CreatedAt),
		UpdatedAt:   time.Unix(0, j.UpdatedAt),
	}
}

// CacheRecorder receives cache lookup results.
type CacheRecorder interface {
	RecordCacheLookup(result string)
}

// CachedStore is a read-through Redis projection in front of an
// authoritative Store. Redis never decides an outcome: read failures fall
// through to the backing store and write failures drop the key.
type CachedStore struct {
	backing Store
	client  RedisClient
	ttl     time.Duration
	logger  *slog.Logger
	metrics CacheRecorder
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CachedStoreOption {
	return func(s *CachedStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CachedStoreOption {
	return func(s *CachedStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCacheMetrics(m CacheRecorder) CachedStoreOption {
	return func(s *CachedStore) {
		s.metrics = m
	}
}

// RedisClient is the subset of go-redis the projection needs.
type RedisClient interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewCachedStore(backing Store, client RedisClient, opts ...CachedStoreOption) *CachedStore {
	s := &CachedStore{
		backing: backing,
		client:  client,
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CachedStore) key(idNumber domain.IDNumber) string {
	return identityKeyPrefix + idNumber.String()
}

func (s *CachedStore) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(result)
	}
}

func (s *CachedStore) Find(ctx context.Context, idNumber domain.IDNumber) (*models.Identity, error) {
	key := s.key(idNumber)
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var j identityJSON
		if jerr := json.Unmarshal(data, &j); jerr == nil && j.IDNumber == idNumber.String() {
			s.record(CacheHit)
			return identityFromJSON(&j), nil
		}
		s.record(CacheError)
		s.logger.WarnContext(ctx, "dropping undecodable identity snapshot",
			"id_hash", privacy.HashIDNumber(idNumber.String()),
		)
		s.drop(ctx, idNumber)
	case errors.Is(err, redis.Nil):
		s.record(CacheMiss)
	default:
		s.record(CacheError)
		s.logger.WarnContext(ctx, "identity cache read failed, using backing store",
			"id_hash", privacy.HashIDNumber(idNumber.String()),
			"error", err,
		)
	}

	identity, err := s.backing.Find(ctx, idNumber)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, identity)
	return identity, nil
}

func (s *CachedStore) Upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (*models.Identity, bool, error) {
	identity, created, err := s.backing.Upsert(ctx, idNumber, fields, hs)
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, identity)
	return identity, created, nil
}

// publish writes the snapshot through the compare-and-set script. Any
// failure removes the key so the next read goes to the backing store.
func (s *CachedStore) publish(ctx context.Context, identity *models.Identity) {
	data, err := json.Marshal(identityToJSON(identity))
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal identity snapshot", "error", err)
		s.drop(ctx, identity.IDNumber)
		return
	}
	err = publishSnapshotScript.Run(ctx, s.client, []string{s.key(identity.IDNumber)},
		data, identity.SearchCount, s.ttl.Milliseconds(),
	).Err()
	if err != nil {
		s.logger.WarnContext(ctx, "identity cache write failed, dropping snapshot",
			"id_hash", privacy.HashIDNumber(identity.IDNumber.String()),
			"error", err,
		)
		s.drop(ctx, identity.IDNumber)
	}
}

func (s *CachedStore) drop(ctx context.Context, idNumber domain.IDNumber) {
	if err := s.client.Del(ctx, s.key(idNumber)).Err(); err != nil {
		s.logger.WarnContext(ctx, "identity cache delete failed",
			"id_hash", privacy.HashIDNumber(idNumber.String()),
			"error", err,
		)
	}
}

var _ Store = (*CachedStore)(nil)
