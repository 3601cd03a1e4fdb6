package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/obs"
)

const redisKeyPrefix = "location:"

// Refresh last_accessed (and the idle TTL) only when the hash already exists,
// so a touch racing an expiry never leaves a half-written entry behind.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('HSET', KEYS[1], 'last_accessed', ARGV[1])
	if tonumber(ARGV[2]) > 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 1
end
return 0
`)

// RedisLocationCache stores each postcode as a hash. With a positive TTL an
// entry expires after TTL without access.
type RedisLocationCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisLocationCache(client *redis.Client, ttl time.Duration) *RedisLocationCache {
	return &RedisLocationCache{client: client, ttl: ttl, now: time.Now}
}

func redisKey(postcode string) string { return redisKeyPrefix + postcode }

func (r *RedisLocationCache) Get(ctx context.Context, postcode string) (_ domain.CacheEntry, _ bool, err error) {
	defer obs.Time(ctx, "location.cache.redis.Get")(&err)

	if r.client == nil {
		return domain.CacheEntry{}, false, errors.New("location cache: redis client is nil")
	}

	fields, err := r.client.HGetAll(ctx, redisKey(postcode)).Result()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get location cache: hgetall %q: %w", postcode, err)
	}
	if len(fields) == 0 {
		return domain.CacheEntry{}, false, nil
	}

	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get location cache: parse lat for %q: %w", postcode, err)
	}
	lon, err := strconv.ParseFloat(fields["lon"], 64)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get location cache: parse lon for %q: %w", postcode, err)
	}
	accessed, err := strconv.ParseInt(fields["last_accessed"], 10, 64)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("get location cache: parse last_accessed for %q: %w", postcode, err)
	}

	return domain.CacheEntry{
		Location: domain.ResolvedLocation{
			Postcode:    postcode,
			Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
			Region:      fields["region"],
			District:    fields["district"],
		},
		LastAccessed: time.UnixMilli(accessed),
	}, true, nil
}

func (r *RedisLocationCache) Upsert(ctx context.Context, loc domain.ResolvedLocation) error {
	if r.client == nil {
		return errors.New("location cache: redis client is nil")
	}
	if loc.Postcode == "" {
		return errors.New("insert location cache: empty postcode key")
	}

	key := redisKey(loc.Postcode)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"lat":           strconv.FormatFloat(loc.Lat, 'f', -1, 64),
			"lon":           strconv.FormatFloat(loc.Lon, 'f', -1, 64),
			"region":        loc.Region,
			"district":      loc.District,
			"last_accessed": r.now().UnixMilli(),
		})
		if r.ttl > 0 {
			pipe.PExpire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert location cache postcode=%q: %w", loc.Postcode, err)
	}

	return nil
}

func (r *RedisLocationCache) Touch(ctx context.Context, postcode string) error {
	if r.client == nil {
		return errors.New("location cache: redis client is nil")
	}

	err := touchScript.Run(ctx, r.client,
		[]string{redisKey(postcode)},
		r.now().UnixMilli(), r.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("touch location cache postcode=%q: %w", postcode, err)
	}

	return nil
}
