package domain

import (
	"encoding/json"
	"fmt"
)

const (
	GridSize   = 5
	PoolSize   = 75
	ColumnSpan = PoolSize / GridSize

	FreeRow = 2
	FreeCol = 2
)

// Columns are the column letters, left to right.
var Columns = [GridSize]string{"B", "I", "N", "G", "O"}

// ColumnRange returns the inclusive number band of column col.
func ColumnRange(col int) (lo, hi int) {
	lo = col*ColumnSpan + 1
	return lo, lo + ColumnSpan - 1
}

// ColumnOf returns the column index a pool number belongs to, or -1.
func ColumnOf(n int) int {
	if n < 1 || n > PoolSize {
		return -1
	}
	return (n - 1) / ColumnSpan
}

// CallLabel formats a drawn number for announcement, e.g. "B 12".
func CallLabel(n int) string {
	col := ColumnOf(n)
	if col < 0 {
		return fmt.Sprint(n)
	}
	return fmt.Sprintf("%s %d", Columns[col], n)
}

// Cell is one square of a card. The free cell has no number and is always marked.
type Cell struct {
	Number int
	Free   bool
	Marked bool
}

type cellJSON struct {
	Number *int   `json:"number"`
	Marked bool   `json:"marked"`
	Column string `json:"column,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	w := cellJSON{Marked: c.Marked}
	if !c.Free {
		n := c.Number
		w.Number = &n
		if col := ColumnOf(n); col >= 0 {
			w.Column = Columns[col]
		}
	}
	return json.Marshal(w)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var w cellJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Cell{Marked: w.Marked}
	if w.Number == nil {
		c.Free = true
		c.Marked = true
	} else {
		c.Number = *w.Number
	}
	return nil
}

// Card is a 5x5 grid indexed [row][col].
type Card struct {
	Cells [GridSize][GridSize]Cell `json:"cells"`
}

// Find returns the position of n on the card.
func (c *Card) Find(n int) (row, col int, ok bool) {
	for r := range GridSize {
		for k := range GridSize {
			cell := c.Cells[r][k]
			if !cell.Free && cell.Number == n {
				return r, k, true
			}
		}
	}
	return 0, 0, false
}

// Mark sets the mark on the cell holding n. It reports whether n is on the card.
func (c *Card) Mark(n int) bool {
	r, k, ok := c.Find(n)
	if !ok {
		return false
	}
	c.Cells[r][k].Marked = true
	return true
}

// Numbers returns the 24 card numbers in row-major order.
func (c *Card) Numbers() []int {
	out := make([]int, 0, GridSize*GridSize-1)
	for r := range GridSize {
		for k := range GridSize {
			if !c.Cells[r][k].Free {
				out = append(out, c.Cells[r][k].Number)
			}
		}
	}
	return out
}

// CardGenerator produces fresh cards.
type CardGenerator interface {
	Generate() Card
}

// RandomCards generates cards from a Source.
type RandomCards struct {
	src Source
}

func NewRandomCards(src Source) *RandomCards {
	return &RandomCards{src: src}
}

// Generate samples five distinct numbers per column band and places them top to bottom,
// then overwrites the centre with the free cell.
func (g *RandomCards) Generate() Card {
	var card Card
	for col := range GridSize {
		lo, _ := ColumnRange(col)
		band := make([]int, ColumnSpan)
		for i := range band {
			band[i] = lo + i
		}
		// partial Fisher-Yates: the first GridSize slots end up a uniform sample.
		for i := range GridSize {
			j := i + g.src.IntN(ColumnSpan-i)
			band[i], band[j] = band[j], band[i]
		}
		for row := range GridSize {
			card.Cells[row][col] = Cell{Number: band[row]}
		}
	}
	card.Cells[FreeRow][FreeCol] = Cell{Free: true, Marked: true}
	return card
}
