package ws

import (
	"gomoku_arena/internal/domain"
	"gomoku_arena/internal/game"
)

// Message - исходящий кадр: тип события + полезная нагрузка
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Intent - входящий кадр от клиента. Одна структура на все типы,
// лишние поля у конкретного намерения просто нулевые.
type Intent struct {
	Type      string       `json:"type"`
	RoomID    string       `json:"roomId"`
	X         int          `json:"x"`
	Y         int          `json:"y"`
	X1        int          `json:"x1"`
	Y1        int          `json:"y1"`
	X2        int          `json:"x2"`
	Y2        int          `json:"y2"`
	SkillType game.Ability `json:"skillType"`
	Message   string       `json:"message"`
}

// типы входящих намерений
const (
	IntentJoinRoom = "join_room"
	IntentMakeMove = "make_move"
	IntentUseSkill = "use_skill"
	IntentRestart  = "restart_game"
	IntentSendChat = "send_chat"
)

// типы исходящих событий
const (
	EventRoomJoined   = "room_joined"
	EventGameStart    = "game_start"
	EventGameSync     = "game_sync"
	EventGameUpdate   = "game_update"
	EventGameOver     = "game_over"
	EventGameRestart  = "game_restart"
	EventPlayerUpdate = "player_update"
	EventPlayerLeft   = "player_left"
	EventRoomList     = "room_list"
	EventChatMessage  = "chat_message"
	EventError        = "error_message"
)

// коды отклоненных намерений: код уходит только действующему клиенту,
// состояние и рассылки не меняются
const (
	ReasonRoomFull    = "Room is full"
	ReasonNotYourTurn = "not_your_turn"
	ReasonNoSuchSkill = "skill_not_assigned"
	ReasonInvalid     = "invalid_action"
	ReasonStoreFailed = "transient_store_failure"
)

// statePayload собирает полный снимок партии глазами viewer: чужие скрытые
// камни замаскированы. Используется для game_start/game_sync/game_restart.
func statePayload(rec *domain.RoomRecord, viewer game.Role) map[string]any {
	board, hidden := rec.State.VisibleTo(viewer)
	return map[string]any{
		"board":         board,
		"currentPlayer": rec.State.CurrentPlayer,
		"hiddenPieces":  hidden,
		"abilities":     rec.State.Abilities,
		"cooldowns":     rec.State.Cooldowns,
		"winner":        rec.State.Winner,
	}
}

// updatePayload - дельта после принятого действия, тоже глазами viewer
func updatePayload(rec *domain.RoomRecord, viewer game.Role, extra map[string]any) map[string]any {
	board, hidden := rec.State.VisibleTo(viewer)
	payload := map[string]any{
		"board":         board,
		"currentPlayer": rec.State.CurrentPlayer,
		"hiddenPieces":  hidden,
		"cooldowns":     rec.State.Cooldowns,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

func rosterPayload(rec *domain.RoomRecord) map[string]any {
	players := make([]map[string]any, 0, len(rec.Seats))
	for _, s := range rec.Seats {
		players = append(players, map[string]any{
			"role":      s.Role,
			"connected": s.Connected,
		})
	}
	return map[string]any{
		"count":   len(rec.Seats),
		"players": players,
	}
}
