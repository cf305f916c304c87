package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)
var ctx = context.Background()

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

func GetRedisObject(key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	err = json.Unmarshal([]byte(val), &dest)
	if err != nil {
		return false, err
	}
	return true, nil
}

func GetRedisValue(key string) (string, bool, error) {
	if rdb == nil {
		return "", false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func SetRedisObject(key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err = rdb.Set(ctx, key, objInByte, exp).Err(); err != nil {
		return err
	}
	return nil
}

// store key in a set for faster adding & retrieving
func AddRedisSet(setKey string, member string) error {
	if rdb == nil {
		return nil
	}
	if err := rdb.SAdd(ctx, setKey, member).Err(); err != nil {
		return err
	}
	return nil
}

func RemoveRedisSetMember(setKey string, member string) error {
	if rdb == nil {
		return nil
	}
	return rdb.SRem(ctx, setKey, member).Err()
}

func SetRedisValue(key string, value string, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx, key, value, exp).Err()
}

func RemoveRedisKey(keys ...string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, keys...).Result()
	return err
}

// add one and returns it, while storing the updated value.
// ok is false when redis is not connected; callers fall back to the database.
func GetRedisCounter(ctx context.Context, key string) (n int64, ok bool, err error) {
	if rdb == nil {
		return 0, false, nil
	}
	n, err = rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SeedRedisCounter raises the counter to at least floor. It never lowers it, so
// concurrent seeders and incrementers cannot hand out a value twice.
func SeedRedisCounter(ctx context.Context, key string, floor int64) error {
	if rdb == nil {
		return nil
	}
	const script = `
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call("SET", KEYS[1], floor)
end
return 1`
	return rdb.Eval(ctx, script, []string{key}, floor).Err()
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// redisOptionsFromEnv reads REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB and
// REDIS_POOL_SIZE. The address defaults to a local instance.
func redisOptionsFromEnv() *redis.Options {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intFromEnv("REDIS_DB", 0),
		PoolSize: intFromEnv("REDIS_POOL_SIZE", 100),
	}
}

// NewRedisClient builds an unconnected client from the same settings as the
// global one, for components that start before ConnectRedisWithRetry.
func NewRedisClient() *redis.Client {
	return redis.NewClient(redisOptionsFromEnv())
}

// ConnectRedisWithRetry blocks until redis answers a PING, then sets the
// global client and lock client. Call it after the HTTP listener is up.
func ConnectRedisWithRetry() {
	opts := redisOptionsFromEnv()
	entry := GetLogger().WithFields(logrus.Fields{"module": "config", "addr": opts.Addr})
	for attempt := 1; ; attempt++ {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			sleep := backoff(attempt)
			entry.WithField("attempt", attempt).Warnf("redis connect failed: %v; retrying in %s", err, sleep)
			time.Sleep(sleep)
			continue
		}
		rdb = client
		locker = redislock.New(client)
		entry.WithField("attempt", attempt).Info("connected to redis")
		return
	}
}
