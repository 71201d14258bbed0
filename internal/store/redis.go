package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gomoku_arena/internal/domain"
)

const (
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms"
)

// RedisStore - сетевое хранилище сессий: одна комната = один ключ с JSON
// записью и TTL, плюс set-индекс для каталога. Несколько экземпляров
// координатора могут разделять одно такое хранилище.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func roomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

func (s *RedisStore) Load(ctx context.Context, roomID string) (*domain.RoomRecord, error) {
	data, err := s.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", roomID, err)
	}

	var rec domain.RoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", roomID, err)
	}
	return &rec, nil
}

// Save пишет запись одним SET (атомарно для комнаты) и обновляет индекс.
// TTL освежается при каждой записи.
func (s *RedisStore) Save(ctx context.Context, rec *domain.RoomRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", rec.ID, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(rec.ID), data, s.ttl)
		pipe.SAdd(ctx, roomIndexKey, rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(roomID))
		pipe.SRem(ctx, roomIndexKey, roomID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", roomID, err)
	}
	return nil
}

// List собирает каталог по индексу. Записи, у которых истек TTL, лениво
// выметаются из индекса здесь же.
func (s *RedisStore) List(ctx context.Context) ([]domain.RoomSummary, error) {
	ids, err := s.rdb.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}

	summaries := make([]domain.RoomSummary, 0, len(ids))
	var stale []interface{}

	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			stale = append(stale, id)
			continue
		}
		summaries = append(summaries, domain.RoomSummary{
			ID:     rec.ID,
			Count:  len(rec.Seats),
			Status: rec.Status(),
		})
	}

	if len(stale) > 0 {
		s.rdb.SRem(ctx, roomIndexKey, stale...)
	}
	return summaries, nil
}
