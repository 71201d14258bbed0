package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"gomoku_arena/internal/domain"
	"gomoku_arena/internal/game"
	"gomoku_arena/internal/repository"
	"gomoku_arena/internal/store"
)

// политика рестарта: кто из сидящих может перезапустить партию
const (
	RestartAny       = "any"   // любой сидящий
	RestartFirstSeat = "first" // только первый занявший место
)

// Config - настройки координатора
type Config struct {
	// 0 - место освобождается сразу при разрыве, иначе за игроком
	// держится место на время грейса
	DisconnectGrace time.Duration
	RestartPolicy   string
	// потолок удержания токена комнаты на один вызов стора - зависшая
	// запись не должна навсегда заблокировать комнату
	OpTimeout time.Duration
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// Coordinator - владелец протокола join/reconnect/disconnect и конвейера
// load→apply→persist→broadcast. Все операции над одной комнатой
// сериализуются ее токеном (per-room mutex), разные комнаты идут
// полностью параллельно. Персист строго до рассылки.
type Coordinator struct {
	store   store.Store
	matches *repository.MatchRepository // nil - история отключена
	cfg     Config

	mu          sync.Mutex
	locks       map[string]*roomLock
	clients     map[*Client]struct{}          // все живые соединения (для room_list)
	members     map[string]map[string]*Client // roomID -> playerID -> соединение
	graceTimers map[string]*time.Timer        // roomID/playerID -> таймер освобождения места
}

func NewCoordinator(st store.Store, matches *repository.MatchRepository, cfg Config) *Coordinator {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	if cfg.RestartPolicy == "" {
		cfg.RestartPolicy = RestartAny
	}
	return &Coordinator{
		store:       st,
		matches:     matches,
		cfg:         cfg,
		locks:       make(map[string]*roomLock),
		clients:     make(map[*Client]struct{}),
		members:     make(map[string]map[string]*Client),
		graceTimers: make(map[string]*time.Timer),
	}
}

// lockRoom берет токен комнаты. Возвращенная функция отдает токен и
// подчищает запись, когда комнатой больше никто не интересуется.
func (co *Coordinator) lockRoom(roomID string) func() {
	co.mu.Lock()
	l := co.locks[roomID]
	if l == nil {
		l = &roomLock{}
		co.locks[roomID] = l
	}
	l.refs++
	co.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		co.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(co.locks, roomID)
		}
		co.mu.Unlock()
	}
}

func (co *Coordinator) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), co.cfg.OpTimeout)
}

// Register учитывает новое соединение и отдает ему текущий каталог комнат
func (co *Coordinator) Register(c *Client) {
	co.mu.Lock()
	co.clients[c] = struct{}{}
	co.mu.Unlock()
	metricClientsConnected.Inc()

	ctx, cancel := co.opCtx()
	defer cancel()
	if list, err := co.store.List(ctx); err == nil {
		co.sendMsg(c, Message{Type: EventRoomList, Payload: list})
	} else {
		log.Printf("Coordinator.Register: room list failed: %v", err)
	}
}

// Directory - read-only перечисление комнат для discovery (REST и ws)
func (co *Coordinator) Directory(ctx context.Context) ([]domain.RoomSummary, error) {
	return co.store.List(ctx)
}

// HandleIntent разбирает входящий кадр и ведет его через конвейер комнаты
func (co *Coordinator) HandleIntent(c *Client, raw []byte) {
	var intent Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		log.Printf("Coordinator.HandleIntent: player=%s bad frame: %v", c.PlayerID, err)
		return
	}

	var outcome string
	switch intent.Type {
	case IntentJoinRoom:
		outcome = co.Join(c, intent.RoomID)
	case IntentMakeMove:
		outcome = co.handleMove(c, intent)
	case IntentUseSkill:
		outcome = co.handleSkill(c, intent)
	case IntentRestart:
		outcome = co.handleRestart(c, intent)
	case IntentSendChat:
		outcome = co.handleChat(c, intent)
	default:
		log.Printf("Coordinator.HandleIntent: player=%s unknown intent %q", c.PlayerID, intent.Type)
		return
	}

	metricIntents.WithLabelValues(intent.Type, outcome).Inc()
}

// Join обслуживает и первый вход, и реконнект. Идемпотентен: повторный
// join сидящего игрока лишь перепривязывает соединение и заново отдает
// полное состояние.
func (co *Coordinator) Join(c *Client, roomID string) string {
	if roomID == "" {
		co.sendError(c, ReasonInvalid)
		return outcomeRejected
	}

	unlock := co.lockRoom(roomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, err := co.store.Load(ctx, roomID)
	if err != nil {
		log.Printf("Coordinator.Join: load %s failed: %v", roomID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	created := false
	if rec == nil {
		rec = domain.NewRoomRecord(roomID)
		created = true
	}

	if seat := rec.SeatOf(c.PlayerID); seat != nil {
		return co.rejoin(ctx, c, rec, seat)
	}

	if rec.Full() {
		log.Printf("Coordinator.Join: room=%s full, rejecting player=%s", roomID, c.PlayerID)
		co.sendError(c, ReasonRoomFull)
		return outcomeRejected
	}

	role := rec.FreeRole()
	rec.Seats = append(rec.Seats, domain.Seat{
		PlayerID:  c.PlayerID,
		Role:      role,
		Connected: true,
	})

	// решение при заполнении второго места: свежий старт или резюме
	// залежавшейся комнаты, где навыки уже розданы
	started, resumed := false, false
	if rec.Full() {
		if rec.State.HasAssignedAbilities() {
			resumed = true
		} else {
			rec.State.AssignRandomAbilities()
			started = true
		}
	}

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.Join: save %s failed: %v", roomID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	co.bindMember(roomID, c)
	if created {
		metricRoomsActive.Inc()
	}

	log.Printf("Coordinator.Join: room=%s player=%s role=%d seats=%d", roomID, c.PlayerID, role, len(rec.Seats))

	co.sendMsg(c, Message{Type: EventRoomJoined, Payload: map[string]any{
		"roomId": roomID,
		"role":   role,
	}})
	co.broadcastRoom(rec, Message{Type: EventPlayerUpdate, Payload: rosterPayload(rec)})

	switch {
	case started:
		co.broadcastState(rec, EventGameStart)
	case resumed:
		co.broadcastState(rec, EventGameSync)
	}

	co.broadcastRoomList()
	return outcomeAccepted
}

// rejoin перепривязывает соединение к занятому месту и высылает полный
// снимок. Вызывается под токеном комнаты.
func (co *Coordinator) rejoin(ctx context.Context, c *Client, rec *domain.RoomRecord, seat *domain.Seat) string {
	co.cancelGrace(rec.ID, c.PlayerID)

	wasDisconnected := !seat.Connected
	seat.Connected = true

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.rejoin: save %s failed: %v", rec.ID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	co.bindMember(rec.ID, c)

	log.Printf("Coordinator.rejoin: room=%s player=%s role=%d", rec.ID, c.PlayerID, seat.Role)

	co.sendMsg(c, Message{Type: EventRoomJoined, Payload: map[string]any{
		"roomId": rec.ID,
		"role":   seat.Role,
	}})
	co.sendMsg(c, Message{Type: EventGameSync, Payload: statePayload(rec, seat.Role)})

	if wasDisconnected {
		co.broadcastRoom(rec, Message{Type: EventChatMessage, Payload: map[string]any{
			"sender":  "System",
			"message": "Player reconnected.",
		}})
	}
	co.broadcastRoom(rec, Message{Type: EventPlayerUpdate, Payload: rosterPayload(rec)})
	return outcomeAccepted
}

// loadForAction - общая голова конвейера действий: токен уже взят,
// проверяем комнату, место и очередность
func (co *Coordinator) loadForAction(ctx context.Context, c *Client, roomID string, needTurn bool) (*domain.RoomRecord, *domain.Seat, string) {
	rec, err := co.store.Load(ctx, roomID)
	if err != nil {
		log.Printf("Coordinator.loadForAction: load %s failed: %v", roomID, err)
		co.sendError(c, ReasonStoreFailed)
		return nil, nil, outcomeFailed
	}
	if rec == nil {
		// действие в несуществующую комнату просто роняем
		return nil, nil, outcomeRejected
	}

	seat := rec.SeatOf(c.PlayerID)
	if seat == nil {
		return nil, nil, outcomeRejected
	}
	if needTurn && rec.State.CurrentPlayer != seat.Role {
		co.sendError(c, ReasonNotYourTurn)
		return nil, nil, outcomeRejected
	}
	return rec, seat, ""
}

func (co *Coordinator) handleMove(c *Client, intent Intent) string {
	unlock := co.lockRoom(intent.RoomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, seat, fail := co.loadForAction(ctx, c, intent.RoomID, true)
	if rec == nil {
		return fail
	}

	if !rec.State.PlaceStone(intent.X, intent.Y) {
		co.sendError(c, ReasonInvalid)
		return outcomeRejected
	}

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.handleMove: save %s failed: %v", rec.ID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	move := map[string]any{
		"type":   "move",
		"x":      intent.X,
		"y":      intent.Y,
		"player": seat.Role,
	}
	co.broadcastUpdate(rec, func(game.Role) map[string]any { return move })
	co.afterStateChange(rec)
	return outcomeAccepted
}

func (co *Coordinator) handleSkill(c *Client, intent Intent) string {
	unlock := co.lockRoom(intent.RoomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, seat, fail := co.loadForAction(ctx, c, intent.RoomID, true)
	if rec == nil {
		return fail
	}

	if !intent.SkillType.Valid() || !rec.State.HasAbility(seat.Role, intent.SkillType) {
		co.sendError(c, ReasonNoSuchSkill)
		return outcomeRejected
	}

	var (
		ok      bool
		removed []game.RemovedPiece
	)
	switch intent.SkillType {
	case game.AbilitySand:
		removed, ok = rec.State.UseSand(intent.X, intent.Y)
	case game.AbilityMist:
		ok = rec.State.PlaceHiddenStone(intent.X, intent.Y)
	case game.AbilitySkip:
		ok = rec.State.PlaceStoneAndSkip(intent.X, intent.Y)
	case game.AbilitySwap:
		ok = rec.State.SwapCells(intent.X1, intent.Y1, intent.X2, intent.Y2)
	}
	if !ok {
		co.sendError(c, ReasonInvalid)
		return outcomeRejected
	}

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.handleSkill: save %s failed: %v", rec.ID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	actor := seat.Role
	co.broadcastUpdate(rec, func(viewer game.Role) map[string]any {
		extra := map[string]any{
			"type":      "skill",
			"skillType": intent.SkillType,
			"player":    actor,
		}
		switch intent.SkillType {
		case game.AbilitySwap:
			extra["x1"], extra["y1"] = intent.X1, intent.Y1
			extra["x2"], extra["y2"] = intent.X2, intent.Y2
		case game.AbilityMist:
			// координаты скрытого камня видит только поставивший,
			// пока партия не окончена
			if viewer == actor || rec.State.GameOver {
				extra["x"], extra["y"] = intent.X, intent.Y
			}
		default:
			extra["x"], extra["y"] = intent.X, intent.Y
		}
		if intent.SkillType == game.AbilitySand {
			extra["removedPieces"] = removed
		}
		return extra
	})
	co.afterStateChange(rec)
	return outcomeAccepted
}

// handleRestart принимается от сидящего игрока в любой момент партии
// (очередность не проверяется), состав мест сохраняется
func (co *Coordinator) handleRestart(c *Client, intent Intent) string {
	unlock := co.lockRoom(intent.RoomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, _, fail := co.loadForAction(ctx, c, intent.RoomID, false)
	if rec == nil {
		return fail
	}

	if co.cfg.RestartPolicy == RestartFirstSeat && rec.Seats[0].PlayerID != c.PlayerID {
		co.sendError(c, ReasonInvalid)
		return outcomeRejected
	}

	rec.State.Reset()
	rec.State.AssignRandomAbilities()

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.handleRestart: save %s failed: %v", rec.ID, err)
		co.sendError(c, ReasonStoreFailed)
		return outcomeFailed
	}

	log.Printf("Coordinator.handleRestart: room=%s by player=%s", rec.ID, c.PlayerID)
	co.broadcastState(rec, EventGameRestart)
	return outcomeAccepted
}

// handleChat - сквозной канал без правил, стор не трогаем
func (co *Coordinator) handleChat(c *Client, intent Intent) string {
	if intent.RoomID == "" || c.RoomID() != intent.RoomID {
		return outcomeRejected
	}

	msg := Message{Type: EventChatMessage, Payload: map[string]any{
		"sender":  c.PlayerID,
		"message": intent.Message,
	}}
	for _, member := range co.roomClients(intent.RoomID) {
		co.sendMsg(member, msg)
	}
	return outcomeAccepted
}

// afterStateChange шлет game_over и пишет историю, если партия кончилась
func (co *Coordinator) afterStateChange(rec *domain.RoomRecord) {
	if !rec.State.GameOver {
		return
	}

	co.broadcastRoom(rec, Message{Type: EventGameOver, Payload: map[string]any{
		"winner": rec.State.Winner,
	}})
	co.saveMatch(rec)
}

// saveMatch пишет запись истории best-effort: ядро не ждет и не
// зависит от успеха вставки
func (co *Coordinator) saveMatch(rec *domain.RoomRecord) {
	if co.matches == nil || rec.State.Winner == nil {
		return
	}

	black := rec.SeatByRole(game.RoleBlack)
	white := rec.SeatByRole(game.RoleWhite)
	if black == nil || white == nil {
		return
	}

	var winnerID *string
	if *rec.State.Winner == game.RoleBlack {
		winnerID = &black.PlayerID
	} else {
		winnerID = &white.PlayerID
	}

	m := &domain.Match{
		RoomID:     rec.ID,
		BlackID:    black.PlayerID,
		WhiteID:    white.PlayerID,
		WinnerID:   winnerID,
		Reason:     "line",
		FinishedAt: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := co.matches.Create(ctx, m); err != nil {
			log.Printf("Coordinator.saveMatch: room=%s history insert failed: %v", m.RoomID, err)
		}
	}()
}

// OnDisconnect вызывается из readPump при разрыве соединения. Ищем место
// по самому соединению: устаревший разрыв после перепривязки (реконнект
// успел раньше) место не трогает.
func (co *Coordinator) OnDisconnect(c *Client) {
	co.mu.Lock()
	_, known := co.clients[c]
	delete(co.clients, c)
	co.mu.Unlock()
	if known {
		metricClientsConnected.Dec()
	}

	roomID := c.RoomID()
	if roomID == "" {
		return
	}

	co.mu.Lock()
	current := co.members[roomID][c.PlayerID]
	if current == c {
		delete(co.members[roomID], c.PlayerID)
		if len(co.members[roomID]) == 0 {
			delete(co.members, roomID)
		}
	}
	co.mu.Unlock()

	if current != c {
		// место уже привязано к новому соединению
		return
	}

	log.Printf("Coordinator.OnDisconnect: room=%s player=%s handle=%s grace=%s", roomID, c.PlayerID, c.Handle, co.cfg.DisconnectGrace)

	if co.cfg.DisconnectGrace <= 0 {
		co.removeSeat(roomID, c.PlayerID)
		return
	}
	co.beginGrace(roomID, c.PlayerID)
}

// beginGrace помечает место отключенным и взводит таймер освобождения;
// rejoin в пределах грейса таймер снимает
func (co *Coordinator) beginGrace(roomID, playerID string) {
	unlock := co.lockRoom(roomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, err := co.store.Load(ctx, roomID)
	if err != nil || rec == nil {
		return
	}
	seat := rec.SeatOf(playerID)
	if seat == nil {
		return
	}
	seat.Connected = false

	if err := co.store.Save(ctx, rec); err != nil {
		log.Printf("Coordinator.beginGrace: save %s failed: %v", roomID, err)
		// место все равно освободим по таймеру
	}

	co.broadcastRoom(rec, Message{Type: EventChatMessage, Payload: map[string]any{
		"sender":  "System",
		"message": "Opponent disconnected.",
	}})
	co.broadcastRoom(rec, Message{Type: EventPlayerUpdate, Payload: rosterPayload(rec)})

	key := graceKey(roomID, playerID)
	co.mu.Lock()
	if old := co.graceTimers[key]; old != nil {
		old.Stop()
	}
	co.graceTimers[key] = time.AfterFunc(co.cfg.DisconnectGrace, func() {
		co.expireSeat(roomID, playerID)
	})
	co.mu.Unlock()
}

func graceKey(roomID, playerID string) string {
	return roomID + "/" + playerID
}

func (co *Coordinator) cancelGrace(roomID, playerID string) {
	key := graceKey(roomID, playerID)
	co.mu.Lock()
	if t := co.graceTimers[key]; t != nil {
		t.Stop()
		delete(co.graceTimers, key)
	}
	co.mu.Unlock()
}

// expireSeat срабатывает по таймеру грейса: если игрок так и не вернулся,
// место освобождается
func (co *Coordinator) expireSeat(roomID, playerID string) {
	co.cancelGrace(roomID, playerID)

	unlock := co.lockRoom(roomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, err := co.store.Load(ctx, roomID)
	if err != nil || rec == nil {
		return
	}
	seat := rec.SeatOf(playerID)
	if seat == nil || seat.Connected {
		// успел вернуться
		return
	}
	co.dropSeatLocked(ctx, rec, playerID)
}

// removeSeat - немедленное освобождение места (грейс нулевой)
func (co *Coordinator) removeSeat(roomID, playerID string) {
	unlock := co.lockRoom(roomID)
	defer unlock()

	ctx, cancel := co.opCtx()
	defer cancel()

	rec, err := co.store.Load(ctx, roomID)
	if err != nil || rec == nil {
		return
	}
	if rec.SeatOf(playerID) == nil {
		return
	}
	co.dropSeatLocked(ctx, rec, playerID)
}

// dropSeatLocked выполняет само освобождение: вызывается под токеном
// комнаты. Пустая комната удаляется из стора целиком.
func (co *Coordinator) dropSeatLocked(ctx context.Context, rec *domain.RoomRecord, playerID string) {
	rec.RemoveSeat(playerID)

	if len(rec.Seats) == 0 {
		if err := co.store.Delete(ctx, rec.ID); err != nil {
			log.Printf("Coordinator.dropSeatLocked: delete %s failed: %v", rec.ID, err)
		}
		metricRoomsActive.Dec()
		log.Printf("Coordinator.dropSeatLocked: room=%s deleted (empty)", rec.ID)
	} else {
		if err := co.store.Save(ctx, rec); err != nil {
			log.Printf("Coordinator.dropSeatLocked: save %s failed: %v", rec.ID, err)
		}
		co.broadcastRoom(rec, Message{Type: EventPlayerLeft})
		co.broadcastRoom(rec, Message{Type: EventChatMessage, Payload: map[string]any{
			"sender":  "System",
			"message": "Opponent disconnected.",
		}})
		co.broadcastRoom(rec, Message{Type: EventPlayerUpdate, Payload: rosterPayload(rec)})
		log.Printf("Coordinator.dropSeatLocked: room=%s player=%s removed, %d left", rec.ID, playerID, len(rec.Seats))
	}

	co.broadcastRoomList()
}

// --- привязка соединений и рассылки ---

func (co *Coordinator) bindMember(roomID string, c *Client) {
	co.mu.Lock()
	if co.members[roomID] == nil {
		co.members[roomID] = make(map[string]*Client)
	}
	co.members[roomID][c.PlayerID] = c
	co.mu.Unlock()
	c.setRoomID(roomID)
}

func (co *Coordinator) memberClient(roomID, playerID string) *Client {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.members[roomID][playerID]
}

func (co *Coordinator) roomClients(roomID string) []*Client {
	co.mu.Lock()
	defer co.mu.Unlock()
	out := make([]*Client, 0, len(co.members[roomID]))
	for _, c := range co.members[roomID] {
		out = append(out, c)
	}
	return out
}

func (co *Coordinator) sendMsg(c *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Coordinator.sendMsg: marshal error: %v", err)
		return
	}
	c.push(data)
}

func (co *Coordinator) sendError(c *Client, reason string) {
	co.sendMsg(c, Message{Type: EventError, Payload: reason})
}

// broadcastRoom шлет один и тот же кадр всем членам комнаты
func (co *Coordinator) broadcastRoom(rec *domain.RoomRecord, msg Message) {
	for _, c := range co.roomClients(rec.ID) {
		co.sendMsg(c, msg)
	}
}

// broadcastState шлет каждому сидящему персональный полный снимок
// (скрытые камни маскируются по зрителю)
func (co *Coordinator) broadcastState(rec *domain.RoomRecord, event string) {
	for _, seat := range rec.Seats {
		if c := co.memberClient(rec.ID, seat.PlayerID); c != nil {
			co.sendMsg(c, Message{Type: event, Payload: statePayload(rec, seat.Role)})
		}
	}
}

// broadcastUpdate шлет каждому сидящему персональную дельту game_update;
// extraFor дает возможность скрыть детали навыка от противника
func (co *Coordinator) broadcastUpdate(rec *domain.RoomRecord, extraFor func(viewer game.Role) map[string]any) {
	for _, seat := range rec.Seats {
		if c := co.memberClient(rec.ID, seat.PlayerID); c != nil {
			co.sendMsg(c, Message{Type: EventGameUpdate, Payload: updatePayload(rec, seat.Role, extraFor(seat.Role))})
		}
	}
}

// broadcastRoomList обновляет каталог у всех живых соединений - комнаты
// создаются, заполняются и умирают на глазах у лобби
func (co *Coordinator) broadcastRoomList() {
	ctx, cancel := co.opCtx()
	defer cancel()

	list, err := co.store.List(ctx)
	if err != nil {
		log.Printf("Coordinator.broadcastRoomList: %v", err)
		return
	}

	co.mu.Lock()
	targets := make([]*Client, 0, len(co.clients))
	for c := range co.clients {
		targets = append(targets, c)
	}
	co.mu.Unlock()

	msg := Message{Type: EventRoomList, Payload: list}
	for _, c := range targets {
		co.sendMsg(c, msg)
	}
}
