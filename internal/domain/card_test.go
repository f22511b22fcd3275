package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Bingo/internal/domain"
)

// sequentialCard puts col*15+row+1 in every cell: B 1-5, I 16-20 and so on.
func sequentialCard() domain.Card {
	var c domain.Card
	for r := range domain.GridSize {
		for k := range domain.GridSize {
			c.Cells[r][k] = domain.Cell{Number: k*domain.ColumnSpan + r + 1}
		}
	}
	c.Cells[domain.FreeRow][domain.FreeCol] = domain.Cell{Free: true, Marked: true}
	return c
}

func TestGenerateCardRules(t *testing.T) {
	gen := domain.NewRandomCards(domain.NewSource(42))
	for range 500 {
		card := gen.Generate()

		center := card.Cells[domain.FreeRow][domain.FreeCol]
		assert.True(t, center.Free)
		assert.True(t, center.Marked)

		for col := range domain.GridSize {
			lo, hi := domain.ColumnRange(col)
			seen := map[int]bool{}
			for row := range domain.GridSize {
				cell := card.Cells[row][col]
				if cell.Free {
					continue
				}
				assert.False(t, cell.Marked)
				assert.GreaterOrEqual(t, cell.Number, lo)
				assert.LessOrEqual(t, cell.Number, hi)
				assert.False(t, seen[cell.Number], "duplicate %d in column %d", cell.Number, col)
				seen[cell.Number] = true
			}
		}
		assert.Len(t, card.Numbers(), 24)
	}
}

func TestColumnRangesPartitionPool(t *testing.T) {
	covered := map[int]int{}
	for col := range domain.GridSize {
		lo, hi := domain.ColumnRange(col)
		for n := lo; n <= hi; n++ {
			covered[n]++
			assert.Equal(t, col, domain.ColumnOf(n))
		}
	}
	assert.Len(t, covered, domain.PoolSize)
	for n := 1; n <= domain.PoolSize; n++ {
		assert.Equal(t, 1, covered[n], "number %d", n)
	}
	assert.Equal(t, -1, domain.ColumnOf(0))
	assert.Equal(t, -1, domain.ColumnOf(76))
}

func TestCallLabel(t *testing.T) {
	assert.Equal(t, "B 12", domain.CallLabel(12))
	assert.Equal(t, "N 31", domain.CallLabel(31))
	assert.Equal(t, "O 75", domain.CallLabel(75))
}

func TestCardFindAndMark(t *testing.T) {
	c := sequentialCard()

	row, col, ok := c.Find(17)
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	_, _, ok = c.Find(33)
	assert.False(t, ok, "the centre number is replaced by the free cell")

	assert.True(t, c.Mark(17))
	assert.True(t, c.Cells[1][1].Marked)
	assert.False(t, c.Mark(70))
}

func TestCellJSON(t *testing.T) {
	c := sequentialCard()
	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var wire struct {
		Cells [5][5]map[string]any `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Nil(t, wire.Cells[2][2]["number"])
	assert.Equal(t, true, wire.Cells[2][2]["marked"])
	assert.Equal(t, "G", wire.Cells[0][3]["column"])

	var back domain.Card
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c, back)
}
