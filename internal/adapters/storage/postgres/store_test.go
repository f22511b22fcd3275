package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dkeye/Bingo/internal/adapters/storage/postgres"
	"github.com/dkeye/Bingo/internal/domain"
)

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bingo"),
		tcpostgres.WithUsername("bingo"),
		tcpostgres.WithPassword("bingo"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	st, err := postgres.Open(dsn, 200*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type fixedCards struct{}

func (fixedCards) Generate() domain.Card {
	return domain.NewRandomCards(domain.NewSource(5)).Generate()
}

func newSession(t *testing.T, code string) *domain.Session {
	t.Helper()
	host, err := domain.NewPlayer("Alice", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, err)
	s, err := domain.NewSession(code, "Friday Game", host, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, err)
	return s
}

func TestPostgresStore(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	s := newSession(t, "ABCDEF")
	bob, err := domain.NewPlayer("Bob", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Join(bob, fixedCards{}))

	t.Run("Insert", func(t *testing.T) {
		require.NoError(t, st.Insert(ctx, s))
		assert.Equal(t, uint64(1), s.Version)
	})

	t.Run("Insert_DuplicateCode", func(t *testing.T) {
		err := st.Insert(ctx, newSession(t, "ABCDEF"))
		assert.ErrorIs(t, err, domain.ErrCodeTaken)
	})

	t.Run("Lookups", func(t *testing.T) {
		sid, err := st.LookupCode(ctx, "ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, s.ID, sid)

		seat, err := st.LookupToken(ctx, bob.Token)
		require.NoError(t, err)
		assert.Equal(t, domain.Seat{SessionID: s.ID, PlayerID: bob.ID}, seat)

		_, err = st.LookupCode(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
		_, err = st.LookupToken(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CompareAndSwap_RoundTrip", func(t *testing.T) {
		cur, err := st.Load(ctx, s.ID)
		require.NoError(t, err)
		require.NoError(t, cur.Start(cur.HostID, fixedCards{}))
		_, err = cur.Draw(cur.HostID, domain.NewRandomDraws(domain.NewSource(1)))
		require.NoError(t, err)
		require.NoError(t, st.CompareAndSwap(ctx, cur, cur.Version))
		assert.Equal(t, uint64(2), cur.Version)

		got, err := st.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPlaying, got.Game.Status)
		assert.Equal(t, cur.Game.CalledNumbers, got.Game.CalledNumbers)
		require.NotNil(t, got.Game.CurrentNumber)
		require.Len(t, got.Players, 2)
		assert.Equal(t, "Alice", got.Players[0].Name)
		require.NotNil(t, got.Players[1].Card)
		assert.Equal(t, *cur.Players[1].Card, *got.Players[1].Card)
	})

	t.Run("CompareAndSwap_Conflict", func(t *testing.T) {
		a, err := st.Load(ctx, s.ID)
		require.NoError(t, err)
		b, err := st.Load(ctx, s.ID)
		require.NoError(t, err)

		_, err = a.Leave(bob.ID)
		require.NoError(t, err)
		require.NoError(t, st.CompareAndSwap(ctx, a, a.Version))
		assert.ErrorIs(t, st.CompareAndSwap(ctx, b, b.Version), domain.ErrVersionConflict)

		got, err := st.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, got.Players, 1)
		_, err = st.LookupToken(ctx, bob.Token)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CompareAndSwap_OneWinnerUnderRace", func(t *testing.T) {
		base, err := st.Load(ctx, s.ID)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cp := base.Clone()
				cp.Name = "racer"
				errs[i] = st.CompareAndSwap(ctx, cp, base.Version)
			}()
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrVersionConflict)
		}
		assert.Equal(t, 1, ok)
	})
}
