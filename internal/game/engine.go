package game

// Engine - чистая машина состояний одной партии: доска, очередность ходов,
// навыки, выигрыш. Никакого I/O и никаких блокировок - доступ сериализует
// координатор комнаты. Все поля экспортированы ради сквозной JSON
// сериализации (персист в стор + game_sync при реконнекте).
type Engine struct {
	Board         Board                    `json:"board"`
	CurrentPlayer Role                     `json:"currentPlayer"`
	GameOver      bool                     `json:"gameOver"`
	Winner        *Role                    `json:"winner"`
	Cooldowns     map[Role]map[Ability]int `json:"cooldowns"`
	Abilities     map[Role][]Ability       `json:"abilities"`
	Hidden        []HiddenPiece            `json:"hiddenPieces"`
}

func NewEngine() *Engine {
	e := &Engine{
		Abilities: map[Role][]Ability{
			RoleBlack: {},
			RoleWhite: {},
		},
	}
	e.Reset()
	return e
}

// Reset переинициализирует доску, очередность, кулдауны и скрытые камни.
// Раздача навыков - отдельный шаг (как и при старте партии), поэтому
// Abilities здесь не трогаем.
func (e *Engine) Reset() {
	e.Board = NewBoard()
	e.CurrentPlayer = RoleBlack
	e.GameOver = false
	e.Winner = nil
	e.Hidden = nil
	e.Cooldowns = map[Role]map[Ability]int{
		RoleBlack: zeroCooldowns(),
		RoleWhite: zeroCooldowns(),
	}
}

func zeroCooldowns() map[Ability]int {
	cd := make(map[Ability]int, len(AllAbilities))
	for _, a := range AllAbilities {
		cd[a] = 0
	}
	return cd
}

// AssignRandomAbilities раздает каждому игроку по 2 различных навыка из
// пула. Розыгрыши независимые - навыки могут совпасть.
func (e *Engine) AssignRandomAbilities() {
	e.Abilities[RoleBlack] = drawAbilities()
	e.Abilities[RoleWhite] = drawAbilities()
}

// HasAssignedAbilities сообщает, была ли уже раздача (решение start/resume
// при заполнении второго места)
func (e *Engine) HasAssignedAbilities() bool {
	return len(e.Abilities[RoleBlack]) > 0
}

func (e *Engine) HasAbility(player Role, a Ability) bool {
	for _, have := range e.Abilities[player] {
		if have == a {
			return true
		}
	}
	return false
}

func (e *Engine) CooldownOf(player Role, a Ability) int {
	return e.Cooldowns[player][a]
}

func (e *Engine) IsHidden(x, y int) bool {
	for _, p := range e.Hidden {
		if p.X == x && p.Y == y {
			return true
		}
	}
	return false
}

func (e *Engine) isValidMove(x, y int) bool {
	return e.Board.InBounds(x, y) && e.Board[y][x] == RoleNone
}

func (e *Engine) finish(winner Role) {
	e.GameOver = true
	w := winner
	e.Winner = &w
}

// PlaceStone - обычный ход текущего игрока. Возвращает false для
// невалидного хода (клетка занята/вне доски/партия окончена), состояние
// при этом не меняется.
func (e *Engine) PlaceStone(x, y int) bool {
	if e.GameOver || !e.isValidMove(x, y) {
		return false
	}

	e.Board[y][x] = e.CurrentPlayer

	if e.Board.CheckWin(x, y, e.CurrentPlayer) {
		e.finish(e.CurrentPlayer)
	} else {
		e.advanceTurn()
	}
	return true
}

// UseSand убирает камень в клетке (x,y), чей бы он ни был. Ход расходуется
// и кулдаун взводится даже если клетка была пуста или вне доски - промах
// навыком тоже стоит хода. Линии после удаления не пересчитываются.
func (e *Engine) UseSand(x, y int) ([]RemovedPiece, bool) {
	if e.GameOver || e.Cooldowns[e.CurrentPlayer][AbilitySand] > 0 {
		return nil, false
	}

	removed := []RemovedPiece{}
	if e.Board.InBounds(x, y) && e.Board[y][x] != RoleNone {
		removed = append(removed, RemovedPiece{X: x, Y: y, Player: e.Board[y][x]})
		e.Board[y][x] = RoleNone
		e.dropHiddenAt(x, y)
	}

	e.Cooldowns[e.CurrentPlayer][AbilitySand] = AbilitySand.Cooldown()
	e.advanceTurn()
	return removed, true
}

// PlaceHiddenStone ставит камень, невидимый противнику HiddenDuration
// полуходов. Скрытый камень полноценно участвует в проверке победы.
func (e *Engine) PlaceHiddenStone(x, y int) bool {
	if e.GameOver || e.Cooldowns[e.CurrentPlayer][AbilityMist] > 0 || !e.isValidMove(x, y) {
		return false
	}

	e.Board[y][x] = e.CurrentPlayer
	e.Hidden = append(e.Hidden, HiddenPiece{
		X:         x,
		Y:         y,
		Player:    e.CurrentPlayer,
		TurnsLeft: HiddenDuration,
	})
	e.Cooldowns[e.CurrentPlayer][AbilityMist] = AbilityMist.Cooldown()

	if e.Board.CheckWin(x, y, e.CurrentPlayer) {
		e.finish(e.CurrentPlayer)
	} else {
		e.advanceTurn()
	}
	return true
}

// PlaceStoneAndSkip ставит камень и лишает противника следующего хода:
// два переключения подряд возвращают ход действующему игроку. Тикание
// кулдаунов при обоих переключениях идет как при обычной паре ходов.
func (e *Engine) PlaceStoneAndSkip(x, y int) bool {
	if e.GameOver || e.Cooldowns[e.CurrentPlayer][AbilitySkip] > 0 || !e.isValidMove(x, y) {
		return false
	}

	e.Board[y][x] = e.CurrentPlayer
	e.Cooldowns[e.CurrentPlayer][AbilitySkip] = AbilitySkip.Cooldown()

	if e.Board.CheckWin(x, y, e.CurrentPlayer) {
		e.finish(e.CurrentPlayer)
	} else {
		e.advanceTurn()
		e.advanceTurn()
	}
	return true
}

// SwapCells меняет местами содержимое двух различных клеток (любая
// комбинация пусто/камень - покрывает и "переставить", и "поменять").
// Записи скрытых камней следуют за перемещенным камнем. Победа сначала
// проверяется для действующего игрока в обеих клетках, затем для
// противника - неосторожный swap может достроить чужую линию.
func (e *Engine) SwapCells(x1, y1, x2, y2 int) bool {
	if e.GameOver || e.Cooldowns[e.CurrentPlayer][AbilitySwap] > 0 {
		return false
	}
	if !e.Board.InBounds(x1, y1) || !e.Board.InBounds(x2, y2) {
		return false
	}
	if x1 == x2 && y1 == y2 {
		return false
	}

	e.Board[y1][x1], e.Board[y2][x2] = e.Board[y2][x2], e.Board[y1][x1]

	// ищем обе записи до правки координат, иначе двойной перенос
	h1 := e.hiddenAt(x1, y1)
	h2 := e.hiddenAt(x2, y2)
	if h1 != nil {
		h1.X, h1.Y = x2, y2
	}
	if h2 != nil {
		h2.X, h2.Y = x1, y1
	}

	e.Cooldowns[e.CurrentPlayer][AbilitySwap] = AbilitySwap.Cooldown()

	me := e.CurrentPlayer
	opp := me.Opponent()
	switch {
	case e.Board.CheckWin(x1, y1, me) || e.Board.CheckWin(x2, y2, me):
		e.finish(me)
	case e.Board.CheckWin(x1, y1, opp) || e.Board.CheckWin(x2, y2, opp):
		e.finish(opp)
	default:
		e.advanceTurn()
	}
	return true
}

// advanceTurn - атомарный полуход: переключение активного игрока, затем
// тикают ненулевые кулдауны НОВОГО текущего игрока, затем видимость всех
// скрытых камней независимо от владельца. Двойная семантика намеренная:
// кулдауны считаются по ходам владельца, видимость по полуходам.
func (e *Engine) advanceTurn() {
	e.CurrentPlayer = e.CurrentPlayer.Opponent()

	cd := e.Cooldowns[e.CurrentPlayer]
	for _, a := range AllAbilities {
		if cd[a] > 0 {
			cd[a]--
		}
	}

	kept := e.Hidden[:0]
	for i := range e.Hidden {
		e.Hidden[i].TurnsLeft--
		if e.Hidden[i].TurnsLeft > 0 {
			kept = append(kept, e.Hidden[i])
		}
	}
	e.Hidden = kept
}

func (e *Engine) hiddenAt(x, y int) *HiddenPiece {
	for i := range e.Hidden {
		if e.Hidden[i].X == x && e.Hidden[i].Y == y {
			return &e.Hidden[i]
		}
	}
	return nil
}

func (e *Engine) dropHiddenAt(x, y int) {
	for i := range e.Hidden {
		if e.Hidden[i].X == x && e.Hidden[i].Y == y {
			e.Hidden = append(e.Hidden[:i], e.Hidden[i+1:]...)
			return
		}
	}
}

// VisibleTo возвращает доску и список скрытых камней глазами viewer: чужие
// скрытые камни маскируются под пустые клетки, в списке остаются только
// свои. После окончания партии скрывать больше нечего.
func (e *Engine) VisibleTo(viewer Role) (Board, []HiddenPiece) {
	if e.GameOver || viewer == RoleNone {
		return e.Board, e.Hidden
	}

	board := e.Board.Clone()
	own := []HiddenPiece{}
	for _, p := range e.Hidden {
		if p.Player == viewer {
			own = append(own, p)
		} else {
			board[p.Y][p.X] = RoleNone
		}
	}
	return board, own
}
