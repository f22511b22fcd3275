package domain

import "fmt"

const (
	DiagonalDown = "Diagonal (↘)"
	DiagonalUp   = "Diagonal (↙)"
)

// HasWinningPattern returns the first fully marked line in priority order:
// rows top to bottom, columns left to right, then the two diagonals.
func HasWinningPattern(c *Card) (string, bool) {
	for r := range GridSize {
		if lineMarked(c, func(i int) (int, int) { return r, i }) {
			return fmt.Sprintf("Row %d", r+1), true
		}
	}
	for k := range GridSize {
		if lineMarked(c, func(i int) (int, int) { return i, k }) {
			return "Column " + Columns[k], true
		}
	}
	if lineMarked(c, func(i int) (int, int) { return i, i }) {
		return DiagonalDown, true
	}
	if lineMarked(c, func(i int) (int, int) { return i, GridSize - 1 - i }) {
		return DiagonalUp, true
	}
	return "", false
}

func lineMarked(c *Card, at func(i int) (int, int)) bool {
	for i := range GridSize {
		r, k := at(i)
		cell := c.Cells[r][k]
		if !cell.Free && !cell.Marked {
			return false
		}
	}
	return true
}

// IsCardConsistent reports whether every marked non-free cell holds a called number.
func IsCardConsistent(c *Card, called []int) bool {
	calledSet := make(map[int]struct{}, len(called))
	for _, n := range called {
		calledSet[n] = struct{}{}
	}
	for r := range GridSize {
		for k := range GridSize {
			cell := c.Cells[r][k]
			if cell.Free || !cell.Marked {
				continue
			}
			if _, ok := calledSet[cell.Number]; !ok {
				return false
			}
		}
	}
	return true
}
