package game

// Размер стандартной доски гомоку
const BoardSize = 15

// Role - сторона игрока (и одновременно значение клетки доски)
type Role int

const (
	RoleNone  Role = 0 // пустая клетка
	RoleBlack Role = 1 // черные ходят первыми
	RoleWhite Role = 2
)

// Opponent возвращает противоположную сторону
func (r Role) Opponent() Role {
	switch r {
	case RoleBlack:
		return RoleWhite
	case RoleWhite:
		return RoleBlack
	}
	return RoleNone
}

func (r Role) Valid() bool {
	return r == RoleBlack || r == RoleWhite
}

// Board - доска [y][x], как в клиентском протоколе
type Board [][]Role

func NewBoard() Board {
	b := make(Board, BoardSize)
	for y := range b {
		b[y] = make([]Role, BoardSize)
	}
	return b
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

func (b Board) At(x, y int) Role {
	return b[y][x]
}

// Clone возвращает глубокую копию доски (для персонализированных рассылок)
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for y := range b {
		out[y] = append([]Role(nil), b[y]...)
	}
	return out
}

// CheckWin проверяет, проходит ли через (x,y) линия из >=5 камней игрока.
// Единственный предикат победы - все операции движка используют только его.
func (b Board) CheckWin(x, y int, player Role) bool {
	if !b.InBounds(x, y) || b[y][x] != player {
		return false
	}

	directions := [4][2]int{
		{1, 0},  // горизонталь
		{0, 1},  // вертикаль
		{1, 1},  // диагональ \
		{1, -1}, // диагональ /
	}

	for _, d := range directions {
		dx, dy := d[0], d[1]
		count := 1

		// вперед
		for i := 1; ; i++ {
			nx, ny := x+dx*i, y+dy*i
			if !b.InBounds(nx, ny) || b[ny][nx] != player {
				break
			}
			count++
		}

		// назад
		for i := 1; ; i++ {
			nx, ny := x-dx*i, y-dy*i
			if !b.InBounds(nx, ny) || b[ny][nx] != player {
				break
			}
			count++
		}

		if count >= 5 {
			return true
		}
	}
	return false
}
