package snakeladder

const (
	BoardFinish = 100
	DieSides    = 6
)

// remapTable maps a landing cell to its destination. Snakes map down,
// ladders map up; keyed by the cell landed on before the remap.
var remapTable = map[int]int{
	3:  16,
	9:  5,
	20: 38,
	29: 33,
	36: 98,
	41: 61,
	42: 24,
	46: 34,
	50: 51,
	55: 72,
	74: 30,
	85: 58,
	88: 95,
	91: 71,
	99: 80,
}

// resolveLanding applies the die to a position. Overshooting 100 leaves
// the player in place; a remap fires at most once per roll.
func resolveLanding(pos, die int) (final int, remap *RemapEvent) {
	next := pos + die
	if next > BoardFinish {
		return pos, nil
	}
	if dest, ok := remapTable[next]; ok {
		kind := RemapLadder
		if dest < next {
			kind = RemapSnake
		}
		return dest, &RemapEvent{Kind: kind, From: next, To: dest}
	}
	return next, nil
}

// Remaps exposes a copy of the board table for rendering.
func Remaps() map[int]int {
	out := make(map[int]int, len(remapTable))
	for k, v := range remapTable {
		out[k] = v
	}
	return out
}
