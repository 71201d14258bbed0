package game

import (
	"encoding/json"
	"reflect"
	"testing"
)

// выдает навык с обнуленным кулдауном, чтобы тест мог его применить
func giveAbility(e *Engine, player Role, a Ability) {
	e.Abilities[player] = append(e.Abilities[player], a)
	e.Cooldowns[player][a] = 0
}

func TestCheckWin_HorizontalLine(t *testing.T) {
	e := NewEngine()

	// A: (0,0)..(3,0), B отвечает на другой строке
	for i := 0; i < 4; i++ {
		if !e.PlaceStone(i, 0) {
			t.Fatalf("ход A (%d,0) должен быть принят", i)
		}
		if !e.PlaceStone(i, 10) {
			t.Fatalf("ход B (%d,10) должен быть принят", i)
		}
	}

	if !e.PlaceStone(4, 0) {
		t.Fatalf("пятый ход A должен быть принят")
	}
	if !e.GameOver {
		t.Fatalf("после пяти в ряд партия должна быть окончена")
	}
	if e.Winner == nil || *e.Winner != RoleBlack {
		t.Fatalf("победителем должен быть черный, получили %v", e.Winner)
	}
}

func TestCheckWin_Directions(t *testing.T) {
	cases := []struct {
		name   string
		dx, dy int
	}{
		{"горизонталь", 1, 0},
		{"вертикаль", 0, 1},
		{"диагональ вниз", 1, 1},
		{"диагональ вверх", 1, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			x0, y0 := 7, 7
			for i := 0; i < 5; i++ {
				e.Board[y0+tc.dy*i][x0+tc.dx*i] = RoleWhite
			}
			if !e.Board.CheckWin(x0+tc.dx*2, y0+tc.dy*2, RoleWhite) {
				t.Fatalf("линия по направлению (%d,%d) не обнаружена", tc.dx, tc.dy)
			}
			if e.Board.CheckWin(x0, y0, RoleBlack) {
				t.Fatalf("ложная победа чужого игрока")
			}
		})
	}
}

func TestCheckWin_FourIsNotEnough(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 4; i++ {
		e.Board[3][i] = RoleBlack
	}
	if e.Board.CheckWin(0, 3, RoleBlack) {
		t.Fatalf("четыре в ряд не должны считаться победой")
	}
}

func TestPlaceStone_Rejections(t *testing.T) {
	e := NewEngine()

	if e.PlaceStone(-1, 0) || e.PlaceStone(0, BoardSize) {
		t.Fatalf("ход вне доски должен отклоняться")
	}
	if !e.PlaceStone(7, 7) {
		t.Fatalf("валидный ход отклонен")
	}
	if e.PlaceStone(7, 7) {
		t.Fatalf("ход в занятую клетку должен отклоняться")
	}

	e.GameOver = true
	if e.PlaceStone(8, 8) {
		t.Fatalf("после окончания партии ходы должны отклоняться")
	}
}

func TestAdvanceTurn_FlipAndDecay(t *testing.T) {
	e := NewEngine()
	e.Cooldowns[RoleBlack][AbilitySwap] = 3
	e.Cooldowns[RoleWhite][AbilitySand] = 2
	e.Hidden = []HiddenPiece{{X: 1, Y: 1, Player: RoleBlack, TurnsLeft: 2}}
	e.Board[1][1] = RoleBlack

	e.advanceTurn()
	e.advanceTurn()

	// два полухода возвращают очередь, но распады не отыгрываются назад
	if e.CurrentPlayer != RoleBlack {
		t.Fatalf("после двух полуходов очередь должна вернуться к черному")
	}
	if got := e.Cooldowns[RoleBlack][AbilitySwap]; got != 2 {
		t.Fatalf("кулдаун черного должен тикнуть один раз (на его полуходе): %d", got)
	}
	if got := e.Cooldowns[RoleWhite][AbilitySand]; got != 1 {
		t.Fatalf("кулдаун белого должен тикнуть один раз: %d", got)
	}
	if len(e.Hidden) != 0 {
		t.Fatalf("видимость скрытого камня тикает на каждом полуходе, запись должна истечь")
	}
}

func TestSand_EmptyTargetStillConsumesTurn(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySand)

	removed, ok := e.UseSand(7, 7)
	if !ok {
		t.Fatalf("sand по пустой клетке должен приниматься")
	}
	if len(removed) != 0 {
		t.Fatalf("с пустой клетки нечего убирать: %v", removed)
	}
	if e.CurrentPlayer != RoleWhite {
		t.Fatalf("sand обязан расходовать ход")
	}
	if got := e.Cooldowns[RoleBlack][AbilitySand]; got != AbilitySand.Cooldown() {
		t.Fatalf("кулдаун должен взводиться даже при промахе: %d", got)
	}
}

func TestSand_RemovesStoneAndHiddenRecord(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleWhite, AbilitySand)

	// черный ставит скрытый камень, белый его сносит
	giveAbility(e, RoleBlack, AbilityMist)
	if !e.PlaceHiddenStone(5, 5) {
		t.Fatalf("mist должен приниматься")
	}

	removed, ok := e.UseSand(5, 5)
	if !ok {
		t.Fatalf("sand должен приниматься")
	}
	if len(removed) != 1 || removed[0].Player != RoleBlack {
		t.Fatalf("должен быть убран черный камень: %v", removed)
	}
	if e.Board[5][5] != RoleNone {
		t.Fatalf("клетка должна опустеть")
	}
	if e.IsHidden(5, 5) {
		t.Fatalf("запись скрытого камня должна удаляться вместе с камнем")
	}
}

func TestSand_OnCooldownRejected(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySand)
	e.Cooldowns[RoleBlack][AbilitySand] = 1

	if _, ok := e.UseSand(0, 0); ok {
		t.Fatalf("sand на кулдауне должен отклоняться")
	}
	if e.CurrentPlayer != RoleBlack {
		t.Fatalf("отклоненный навык не должен менять состояние")
	}
}

func TestMist_VisibilityDecay(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilityMist)

	if !e.PlaceHiddenStone(5, 5) {
		t.Fatalf("mist должен приниматься")
	}
	// mist уже потратил один полуход; осталось HiddenDuration-1
	for i := 0; i < HiddenDuration-2; i++ {
		e.advanceTurn()
	}
	if !e.IsHidden(5, 5) {
		t.Fatalf("после %d полуходов камень еще должен быть скрыт", HiddenDuration-1)
	}
	e.advanceTurn()
	if e.IsHidden(5, 5) {
		t.Fatalf("после %d полуходов запись должна исчезнуть", HiddenDuration)
	}
	if e.Board[5][5] != RoleBlack {
		t.Fatalf("сам камень остается на доске")
	}
}

func TestMist_HiddenStoneCanWin(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilityMist)
	for i := 0; i < 4; i++ {
		e.Board[0][i] = RoleBlack
	}

	if !e.PlaceHiddenStone(4, 0) {
		t.Fatalf("mist должен приниматься")
	}
	if !e.GameOver || e.Winner == nil || *e.Winner != RoleBlack {
		t.Fatalf("скрытый камень должен достраивать победную линию")
	}
}

func TestSkip_OpponentTurnForfeited(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySkip)

	if !e.PlaceStoneAndSkip(6, 6) {
		t.Fatalf("skip должен приниматься")
	}
	// управление вернулось к действующему игроку
	if e.CurrentPlayer != RoleBlack {
		t.Fatalf("после skip ход должен остаться у черного, сейчас %v", e.CurrentPlayer)
	}
	// второй полуход тикнул свежевзведенный кулдаун skip у черного
	if got := e.Cooldowns[RoleBlack][AbilitySkip]; got != AbilitySkip.Cooldown()-1 {
		t.Fatalf("кулдаун skip должен тикнуть на обратном полуходе: %d", got)
	}
}

func TestSwap_MoveStoneAndWin(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySwap)

	// 4 в ряд у черного, пятый камень стоит в стороне: swap довозит его
	for x := 0; x < 4; x++ {
		e.Board[3][x] = RoleBlack
	}
	e.Board[2][2] = RoleBlack

	if !e.SwapCells(2, 2, 4, 3) {
		t.Fatalf("swap должен приниматься")
	}
	if e.Board[2][2] != RoleNone || e.Board[3][4] != RoleBlack {
		t.Fatalf("камень должен переехать в (4,3)")
	}
	if !e.GameOver || e.Winner == nil || *e.Winner != RoleBlack {
		t.Fatalf("swap должен фиксировать победу действующего игрока")
	}
}

func TestSwap_CanCompleteOpponentLine(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySwap)

	for x := 0; x < 4; x++ {
		e.Board[9][x] = RoleWhite
	}
	e.Board[12][12] = RoleWhite

	if !e.SwapCells(12, 12, 4, 9) {
		t.Fatalf("swap должен приниматься")
	}
	if e.Winner == nil || *e.Winner != RoleWhite {
		t.Fatalf("достроенная линия противника отдает победу ему")
	}
}

func TestSwap_HiddenRecordsFollowStones(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySwap)
	giveAbility(e, RoleBlack, AbilityMist)

	if !e.PlaceHiddenStone(2, 2) {
		t.Fatalf("mist должен приниматься")
	}
	// ход белого чтобы очередь вернулась к черному
	if !e.PlaceStone(10, 10) {
		t.Fatalf("ход белого должен приниматься")
	}

	if !e.SwapCells(2, 2, 3, 2) {
		t.Fatalf("swap должен приниматься")
	}
	if e.IsHidden(2, 2) {
		t.Fatalf("старая координата не должна числиться скрытой")
	}
	if !e.IsHidden(3, 2) {
		t.Fatalf("запись скрытого камня должна следовать за камнем")
	}
}

func TestSwap_Rejections(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilitySwap)

	if e.SwapCells(1, 1, 1, 1) {
		t.Fatalf("swap одной и той же клетки должен отклоняться")
	}
	if e.SwapCells(-1, 0, 1, 1) || e.SwapCells(1, 1, 0, BoardSize) {
		t.Fatalf("swap вне доски должен отклоняться")
	}
	if e.CurrentPlayer != RoleBlack {
		t.Fatalf("отклоненный swap не должен расходовать ход")
	}
}

func TestAssignRandomAbilities(t *testing.T) {
	for i := 0; i < 50; i++ {
		e := NewEngine()
		e.AssignRandomAbilities()

		for _, role := range []Role{RoleBlack, RoleWhite} {
			got := e.Abilities[role]
			if len(got) != AbilitiesPerPlayer {
				t.Fatalf("игроку %v роздано %d навыков", role, len(got))
			}
			if got[0] == got[1] {
				t.Fatalf("навыки одного игрока должны различаться: %v", got)
			}
			for _, a := range got {
				if !a.Valid() {
					t.Fatalf("неизвестный навык %q", a)
				}
			}
		}
	}
}

func TestSerialization_RoundTrip(t *testing.T) {
	e := NewEngine()
	e.AssignRandomAbilities()
	giveAbility(e, RoleBlack, AbilityMist)
	e.PlaceHiddenStone(5, 5)
	e.PlaceStone(6, 6)
	e.PlaceStone(7, 7)
	e.Cooldowns[RoleWhite][AbilitySwap] = 4

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("ошибка сериализации: %v", err)
	}

	restored := &Engine{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("ошибка десериализации: %v", err)
	}

	if !reflect.DeepEqual(e, restored) {
		t.Fatalf("состояние после round-trip не совпало:\nбыло:  %+v\nстало: %+v", e, restored)
	}
}

func TestVisibleTo_MasksForeignHiddenStones(t *testing.T) {
	e := NewEngine()
	giveAbility(e, RoleBlack, AbilityMist)
	if !e.PlaceHiddenStone(5, 5) {
		t.Fatalf("mist должен приниматься")
	}

	board, hidden := e.VisibleTo(RoleWhite)
	if board[5][5] != RoleNone {
		t.Fatalf("белый не должен видеть скрытый камень черного")
	}
	if len(hidden) != 0 {
		t.Fatalf("в списке белого не должно быть чужих записей: %v", hidden)
	}
	// оригинальная доска не затронута
	if e.Board[5][5] != RoleBlack {
		t.Fatalf("маскировка не должна менять настоящую доску")
	}

	board, hidden = e.VisibleTo(RoleBlack)
	if board[5][5] != RoleBlack || len(hidden) != 1 {
		t.Fatalf("владелец видит свой скрытый камень")
	}
}

func TestRestart_ClearsStateKeepsNothingStale(t *testing.T) {
	e := NewEngine()
	e.AssignRandomAbilities()
	e.PlaceStone(1, 1)
	e.PlaceStone(2, 2)
	e.Cooldowns[RoleBlack][AbilitySand] = 3
	e.Hidden = []HiddenPiece{{X: 1, Y: 1, Player: RoleBlack, TurnsLeft: 4}}

	e.Reset()
	e.AssignRandomAbilities()

	if e.CurrentPlayer != RoleBlack || e.GameOver || e.Winner != nil {
		t.Fatalf("после рестарта партия должна начинаться заново")
	}
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if e.Board[y][x] != RoleNone {
				t.Fatalf("доска должна быть пустой в (%d,%d)", x, y)
			}
		}
	}
	if len(e.Hidden) != 0 {
		t.Fatalf("скрытые камни должны сбрасываться")
	}
	for _, a := range AllAbilities {
		if e.Cooldowns[RoleBlack][a] != 0 || e.Cooldowns[RoleWhite][a] != 0 {
			t.Fatalf("кулдауны должны обнуляться")
		}
	}
}
