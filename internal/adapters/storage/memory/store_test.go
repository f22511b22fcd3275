package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Bingo/internal/adapters/storage/memory"
	"github.com/dkeye/Bingo/internal/domain"
)

func newSession(t *testing.T, code string) *domain.Session {
	t.Helper()
	host, err := domain.NewPlayer("Alice", time.Now())
	require.NoError(t, err)
	s, err := domain.NewSession(code, "Friday Game", host, time.Now())
	require.NoError(t, err)
	return s
}

func TestInsertAndLookup(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := newSession(t, "ABCDEF")
	require.NoError(t, st.Insert(ctx, s))
	assert.Equal(t, uint64(1), s.Version)

	sid, err := st.LookupCode(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, s.ID, sid)

	seat, err := st.LookupToken(ctx, s.Players[0].Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Seat{SessionID: s.ID, PlayerID: s.HostID}, seat)

	_, err = st.LookupCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = st.LookupToken(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, st.Insert(ctx, newSession(t, "ABCDEF")), domain.ErrCodeTaken)
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := newSession(t, "ABCDEF")
	require.NoError(t, st.Insert(ctx, s))

	loaded, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	loaded.Name = "changed"
	loaded.Players[0].Wins = 9

	again, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Friday Game", again.Name)
	assert.Equal(t, 0, again.Players[0].Wins)

	_, err = st.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := newSession(t, "ABCDEF")
	require.NoError(t, st.Insert(ctx, s))

	a, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	b, err := st.Load(ctx, s.ID)
	require.NoError(t, err)

	a.Name = "first"
	require.NoError(t, st.CompareAndSwap(ctx, a, a.Version))
	assert.Equal(t, uint64(2), a.Version)

	b.Name = "second"
	assert.ErrorIs(t, st.CompareAndSwap(ctx, b, b.Version), domain.ErrVersionConflict)

	cur, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", cur.Name)
}

func TestCompareAndSwapDropsLeftTokens(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := newSession(t, "ABCDEF")
	bob, err := domain.NewPlayer("Bob", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Join(bob, nil))
	require.NoError(t, st.Insert(ctx, s))

	cur, err := st.Load(ctx, s.ID)
	require.NoError(t, err)
	_, err = cur.Leave(bob.ID)
	require.NoError(t, err)
	require.NoError(t, st.CompareAndSwap(ctx, cur, cur.Version))

	_, err = st.LookupToken(ctx, bob.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.NewStore().Load(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
