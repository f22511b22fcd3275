package domain

// DrawEngine picks the next number of a round.
type DrawEngine interface {
	// DrawNext returns a value from the pool that is not in called.
	// It fails with ErrPoolExhausted once all PoolSize values are drawn.
	DrawNext(called []int) (int, error)
}

// RandomDraws draws uniformly from the undrawn remainder of the pool.
type RandomDraws struct {
	src Source
}

func NewRandomDraws(src Source) *RandomDraws {
	return &RandomDraws{src: src}
}

func (d *RandomDraws) DrawNext(called []int) (int, error) {
	remaining := Remaining(called)
	if len(remaining) == 0 {
		return 0, ErrPoolExhausted
	}
	return remaining[d.src.IntN(len(remaining))], nil
}

// Remaining returns the pool values absent from called, ascending.
func Remaining(called []int) []int {
	var seen [PoolSize + 1]bool
	for _, n := range called {
		if n >= 1 && n <= PoolSize {
			seen[n] = true
		}
	}
	out := make([]int, 0, PoolSize)
	for n := 1; n <= PoolSize; n++ {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}
