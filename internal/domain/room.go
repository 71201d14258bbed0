package domain

import (
	"time"

	"gomoku_arena/internal/game"
)

// Статусы комнаты в каталоге (строки идут прямо в room_list)
const (
	RoomStatusWaiting = "Waiting"
	RoomStatusPlaying = "Playing"
)

// Seat - место игрока в комнате. PlayerID стабилен между реконнектами,
// привязка к живому соединению живет только в координаторе.
type Seat struct {
	PlayerID  string    `json:"playerId"`
	Role      game.Role `json:"role"`
	Connected bool      `json:"connected"`
}

// RoomRecord - полная персистентная запись комнаты: состояние движка плюс
// состав игроков. Сохраняется и читается целиком, одной атомарной записью.
type RoomRecord struct {
	ID        string       `json:"id"`
	State     *game.Engine `json:"state"`
	Seats     []Seat       `json:"players"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func NewRoomRecord(id string) *RoomRecord {
	return &RoomRecord{
		ID:    id,
		State: game.NewEngine(),
	}
}

// SeatOf находит место по стабильному идентификатору игрока
func (r *RoomRecord) SeatOf(playerID string) *Seat {
	for i := range r.Seats {
		if r.Seats[i].PlayerID == playerID {
			return &r.Seats[i]
		}
	}
	return nil
}

func (r *RoomRecord) SeatByRole(role game.Role) *Seat {
	for i := range r.Seats {
		if r.Seats[i].Role == role {
			return &r.Seats[i]
		}
	}
	return nil
}

func (r *RoomRecord) RemoveSeat(playerID string) bool {
	for i := range r.Seats {
		if r.Seats[i].PlayerID == playerID {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			return true
		}
	}
	return false
}

func (r *RoomRecord) Full() bool {
	return len(r.Seats) >= 2
}

// FreeRole возвращает роль для следующего места: первый попавший играет
// черными, второй получает ту роль, которую первый не занял
func (r *RoomRecord) FreeRole() game.Role {
	if len(r.Seats) == 0 {
		return game.RoleBlack
	}
	if r.Seats[0].Role == game.RoleBlack {
		return game.RoleWhite
	}
	return game.RoleBlack
}

func (r *RoomRecord) Status() string {
	if r.Full() {
		return RoomStatusPlaying
	}
	return RoomStatusWaiting
}

// RoomSummary - строка каталога комнат для discovery
type RoomSummary struct {
	ID     string `json:"id"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}
