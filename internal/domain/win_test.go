package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/Bingo/internal/domain"
)

func markCells(c *domain.Card, cells ...[2]int) {
	for _, rc := range cells {
		c.Cells[rc[0]][rc[1]].Marked = true
	}
}

func TestHasWinningPattern(t *testing.T) {
	tests := []struct {
		name    string
		marks   [][2]int
		want    string
		wantWin bool
	}{
		{name: "nothing marked", wantWin: false},
		{name: "row 3 through free cell", marks: [][2]int{{2, 0}, {2, 1}, {2, 3}, {2, 4}}, want: "Row 3", wantWin: true},
		{name: "row 3 reversed order", marks: [][2]int{{2, 4}, {2, 3}, {2, 1}, {2, 0}}, want: "Row 3", wantWin: true},
		{name: "column B", marks: [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}, want: "Column B", wantWin: true},
		{name: "diagonal down", marks: [][2]int{{0, 0}, {1, 1}, {3, 3}, {4, 4}}, want: domain.DiagonalDown, wantWin: true},
		{name: "diagonal up", marks: [][2]int{{0, 4}, {1, 3}, {3, 1}, {4, 0}}, want: domain.DiagonalUp, wantWin: true},
		{name: "four of a row", marks: [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, wantWin: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sequentialCard()
			markCells(&c, tt.marks...)
			got, ok := domain.HasWinningPattern(&c)
			assert.Equal(t, tt.wantWin, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasWinningPatternPriority(t *testing.T) {
	c := sequentialCard()
	for r := range domain.GridSize {
		for k := range domain.GridSize {
			c.Cells[r][k].Marked = true
		}
	}
	got, ok := domain.HasWinningPattern(&c)
	assert.True(t, ok)
	assert.Equal(t, "Row 1", got)

	c = sequentialCard()
	markCells(&c, [2]int{0, 4}, [2]int{1, 4}, [2]int{2, 4}, [2]int{3, 4}, [2]int{4, 4}, [2]int{0, 0}, [2]int{1, 1}, [2]int{3, 3})
	got, _ = domain.HasWinningPattern(&c)
	assert.Equal(t, "Column O", got, "columns beat diagonals")
}

func TestIsCardConsistent(t *testing.T) {
	fresh := domain.NewRandomCards(domain.NewSource(1)).Generate()
	assert.True(t, domain.IsCardConsistent(&fresh, nil))

	c := sequentialCard()
	assert.True(t, domain.IsCardConsistent(&c, []int{}))

	c.Mark(1)
	c.Mark(16)
	assert.True(t, domain.IsCardConsistent(&c, []int{16, 1, 60}))
	assert.False(t, domain.IsCardConsistent(&c, []int{1}))
}
