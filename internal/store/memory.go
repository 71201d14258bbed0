package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gomoku_arena/internal/domain"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore - встроенное хранилище сессий: используется в тестах и как
// запасной вариант при пустом REDIS_ADDR. Записи хранятся уже
// сериализованными, поэтому регидрация через Load проходит тот же
// JSON round-trip, что и у RedisStore.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]memoryEntry
	ttl   time.Duration

	// подменяется в тестах истечения TTL
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		rooms: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, roomID string) (*domain.RoomRecord, error) {
	s.mu.RLock()
	entry, ok := s.rooms[roomID]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}

	var rec domain.RoomRecord
	if err := json.Unmarshal(entry.data, &rec); err != nil {
		return nil, fmt.Errorf("memory decode %s: %w", roomID, err)
	}
	return &rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec *domain.RoomRecord) error {
	rec.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("memory encode %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	s.rooms[rec.ID] = memoryEntry{
		data:      data,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.RoomSummary, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	summaries := make([]domain.RoomSummary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			// истекла - выметаем лениво
			s.mu.Lock()
			delete(s.rooms, id)
			s.mu.Unlock()
			continue
		}
		summaries = append(summaries, domain.RoomSummary{
			ID:     rec.ID,
			Count:  len(rec.Seats),
			Status: rec.Status(),
		})
	}
	return summaries, nil
}
