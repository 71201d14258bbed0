package game

import "math/rand"

// Ability - закрытое перечисление навыков. Строковые значения совпадают
// с протоколом клиента (use_skill.skillType).
type Ability string

const (
	AbilitySand Ability = "sand" // убирает любой камень с доски
	AbilityMist Ability = "mist" // ставит скрытый камень
	AbilitySkip Ability = "skip" // ставит камень и пропускает ход противника
	AbilitySwap Ability = "swap" // меняет местами содержимое двух клеток
)

var AllAbilities = []Ability{AbilitySand, AbilityMist, AbilitySkip, AbilitySwap}

// полный кулдаун в ходах владельца
func (a Ability) Cooldown() int {
	switch a {
	case AbilitySand:
		return 5
	case AbilityMist:
		return 5
	case AbilitySkip:
		return 3
	case AbilitySwap:
		return 7
	}
	return 0
}

func (a Ability) Valid() bool {
	return a == AbilitySand || a == AbilityMist || a == AbilitySkip || a == AbilitySwap
}

const (
	// сколько навыков раздается каждому игроку
	AbilitiesPerPlayer = 2

	// сколько переключений хода скрытый камень остается невидимым
	// (6 полуходов = 3 полных круга)
	HiddenDuration = 6
)

// HiddenPiece - учетная запись скрытого камня. Координаты всегда указывают
// на занятую клетку доски; при swap запись следует за камнем.
type HiddenPiece struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Player    Role `json:"player"`
	TurnsLeft int  `json:"turnsLeft"`
}

// RemovedPiece - камень, убранный навыком sand
type RemovedPiece struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Player Role `json:"player"`
}

// drawAbilities вытягивает AbilitiesPerPlayer различных навыков из пула
// без возврата. Розыгрыш для каждого игрока независимый, поэтому навыки
// игроков могут пересекаться.
func drawAbilities() []Ability {
	pool := append([]Ability(nil), AllAbilities...)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:AbilitiesPerPlayer]
}
