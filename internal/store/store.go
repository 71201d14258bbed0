package store

import (
	"context"
	"time"

	"gomoku_arena/internal/domain"
)

// TTL комнаты по умолчанию: брошенные комнаты доживают сутки
const DefaultTTL = 24 * time.Hour

// Store - хранилище сессий комнат. Запись комнаты (состояние движка +
// состав) сохраняется целиком одной атомарной операцией; частичных записей
// не бывает. Load обязан восстанавливать состояние бит-в-бит эквивалентным
// последнему Save.
type Store interface {
	// возвращает nil, nil если комнаты нет (или она истекла)
	Load(ctx context.Context, roomID string) (*domain.RoomRecord, error)
	Save(ctx context.Context, rec *domain.RoomRecord) error
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]domain.RoomSummary, error)
}
