package domain

import "time"

// Match - запись о завершенной партии для истории. Пишется best-effort
// после game_over, ядро от нее не зависит.
type Match struct {
	ID         int64     `db:"id" json:"id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	BlackID    string    `db:"black_id" json:"black_id"`
	WhiteID    string    `db:"white_id" json:"white_id"`
	WinnerID   *string   `db:"winner_id" json:"winner_id"` // nil - партия брошена
	Reason     string    `db:"reason" json:"reason"`       // line / opponent_left
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
