package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cardroom/tabled/internal/game"
)

// RedisStore keeps each table's hand history in a Redis list, newest first.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// key convention: history:table:{tableID} -> List(JSON record, ...)
func historyKey(tableID string) string {
	return fmt.Sprintf("history:table:%s", tableID)
}

// SaveHand implements Store.
func (s *RedisStore) SaveHand(ctx context.Context, rec game.HandRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal hand record: %w", err)
	}
	if err := s.rdb.LPush(ctx, historyKey(rec.TableID), payload).Err(); err != nil {
		return fmt.Errorf("push hand record: %w", err)
	}
	return nil
}

// Hands implements Store. limit <= 0 returns everything.
func (s *RedisStore) Hands(ctx context.Context, tableID string, limit int) ([]game.HandRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.rdb.LRange(ctx, historyKey(tableID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read hand records: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	out := make([]game.HandRecord, 0, len(raw))
	for _, item := range raw {
		var rec game.HandRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode hand record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
