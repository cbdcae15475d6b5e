package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hazfactura/console/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the record as one Redis hash whose two fields are the
// entry names. Save and Clear run inside MULTI/EXEC.
type RedisStorage struct {
	rdb  redis.UniversalClient
	key  string
	keys Keys
	ttl  time.Duration
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis-backed storage. The hash lives at
// "<prefix>:session"; ttl of zero keeps it until cleared.
func NewRedisStorage(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	keys := NewKeys(prefix)
	if prefix == "" {
		prefix = "haz_factura"
	}
	return &RedisStorage{
		rdb:  rdb,
		key:  prefix + ":session",
		keys: keys,
		ttl:  ttl,
	}
}

// Key returns the hash key
func (r *RedisStorage) Key() string {
	return r.key
}

func (r *RedisStorage) Load(ctx context.Context) (Record, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Record{}, fmt.Errorf("[RedisStorage Load] %w: %v", errors.ErrStorage, err)
	}

	var record Record
	if tok, ok := fields[r.keys.Token]; ok {
		record.Token = tok
		record.HasToken = true
	}
	if user, ok := fields[r.keys.User]; ok {
		record.User = []byte(user)
	}
	return record, nil
}

func (r *RedisStorage) Save(ctx context.Context, record Record) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		values := make([]any, 0, 4)
		if record.HasToken {
			values = append(values, r.keys.Token, record.Token)
		}
		if record.User != nil {
			values = append(values, r.keys.User, string(record.User))
		}
		if len(values) == 0 {
			return nil
		}
		pipe.HSet(ctx, r.key, values...)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[RedisStorage Save] %w: %v", errors.ErrStorage, err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("[RedisStorage Clear] %w: %v", errors.ErrStorage, err)
	}
	return nil
}
