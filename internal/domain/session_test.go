package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Bingo/internal/domain"
)

type fixedCards struct{}

func (fixedCards) Generate() domain.Card { return sequentialCard() }

type scriptedDraws struct{ next []int }

func (d *scriptedDraws) DrawNext(called []int) (int, error) {
	if len(d.next) == 0 {
		return 0, domain.ErrPoolExhausted
	}
	n := d.next[0]
	d.next = d.next[1:]
	return n, nil
}

var epoch = time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T) (*domain.Session, *domain.Player, *domain.Player) {
	t.Helper()
	alice, err := domain.NewPlayer("Alice", epoch)
	require.NoError(t, err)
	s, err := domain.NewSession("ABCDEF", "Friday Game", alice, epoch)
	require.NoError(t, err)
	bob, err := domain.NewPlayer("Bob", epoch)
	require.NoError(t, err)
	require.NoError(t, s.Join(bob, fixedCards{}))
	return s, alice, bob
}

func TestNewSession(t *testing.T) {
	alice, err := domain.NewPlayer("  Alice ", epoch)
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.NotEmpty(t, alice.Token)
	assert.NotEqual(t, alice.ID, alice.Token)

	s, err := domain.NewSession("ABCDEF", "Friday Game", alice, epoch)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, s.HostID)
	assert.True(t, alice.IsHost)
	assert.Nil(t, alice.Card)
	assert.Equal(t, domain.StatusWaiting, s.Game.Status)
	assert.Equal(t, 1, s.Game.Round)
	assert.Empty(t, s.Game.CalledNumbers)

	_, err = domain.NewSession("ABCDEF", "  ", alice, epoch)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = domain.NewPlayer("", epoch)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestJoin(t *testing.T) {
	s, _, _ := newTestSession(t)

	dup, err := domain.NewPlayer("BOB", epoch)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Join(dup, fixedCards{}), domain.ErrDuplicateName)
	assert.Len(t, s.Players, 2)

	carol, err := domain.NewPlayer("Carol", epoch)
	require.NoError(t, err)
	require.NoError(t, s.Join(carol, fixedCards{}))
	assert.Nil(t, carol.Card, "no card before the game starts")
	assert.False(t, carol.IsHost)
}

func TestLateJoinerGetsUnmarkedCard(t *testing.T) {
	s, alice, _ := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	_, err := s.Draw(alice.ID, &scriptedDraws{next: []int{1}})
	require.NoError(t, err)

	dave, err := domain.NewPlayer("Dave", epoch)
	require.NoError(t, err)
	require.NoError(t, s.Join(dave, fixedCards{}))
	require.NotNil(t, dave.Card)
	assert.False(t, dave.Card.Cells[0][0].Marked)

	changed, err := s.Mark(dave.ID, 1)
	require.NoError(t, err)
	assert.True(t, changed, "late joiners may mark numbers called before they arrived")
}

func TestHostOnlyTransitions(t *testing.T) {
	s, alice, bob := newTestSession(t)

	assert.ErrorIs(t, s.Start(bob.ID, fixedCards{}), domain.ErrForbidden)
	_, err := s.Draw(alice.ID, &scriptedDraws{next: []int{5}})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "cannot draw while waiting")

	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	assert.ErrorIs(t, s.Start(alice.ID, fixedCards{}), domain.ErrInvalidState)

	_, err = s.Draw(bob.ID, &scriptedDraws{next: []int{5}})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, s.NewRound(alice.ID, fixedCards{}), domain.ErrInvalidState)
	assert.ErrorIs(t, s.End(bob.ID), domain.ErrForbidden)

	require.NoError(t, s.End(alice.ID))
	assert.Equal(t, domain.StatusFinished, s.Game.Status)
	assert.Empty(t, s.Game.WinnerID)
	_, err = s.Draw(alice.ID, &scriptedDraws{next: []int{5}})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "no draws after the round ended")
}

func TestDrawPoolExhausted(t *testing.T) {
	s, alice, _ := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	_, err := s.Draw(alice.ID, &scriptedDraws{})
	assert.ErrorIs(t, err, domain.ErrPoolExhausted)
	assert.Empty(t, s.Game.CalledNumbers)
}

func TestDrawRejectsRepeatedValue(t *testing.T) {
	s, alice, _ := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	draws := &scriptedDraws{next: []int{9, 9}}
	_, err := s.Draw(alice.ID, draws)
	require.NoError(t, err)
	_, err = s.Draw(alice.ID, draws)
	assert.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	assert.Equal(t, []int{9}, s.Game.CalledNumbers)
}

func TestMark(t *testing.T) {
	s, alice, bob := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	draws := &scriptedDraws{next: []int{7, 2}}
	for range 2 {
		_, err := s.Draw(alice.ID, draws)
		require.NoError(t, err)
	}

	_, err := s.Mark(bob.ID, 9)
	assert.ErrorIs(t, err, domain.ErrNotCalled)

	_, err = s.Mark(bob.ID, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound, "7 is not on the sequential card")

	changed, err := s.Mark(bob.ID, 2)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Mark(bob.ID, 2)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Mark("nobody", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaim(t *testing.T) {
	s, alice, bob := newTestSession(t)

	_, err := s.Claim(bob.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	_, err = s.Claim(bob.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidClaim)

	// forged mark on a number never drawn
	bob.Card.Cells[0][0].Marked = true
	bob.Card.Cells[0][1].Marked = true
	bob.Card.Cells[0][2].Marked = true
	bob.Card.Cells[0][3].Marked = true
	bob.Card.Cells[0][4].Marked = true
	_, err = s.Claim(bob.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidClaim)

	draws := &scriptedDraws{next: []int{1, 16, 31, 46, 61}}
	for range 5 {
		_, err := s.Draw(alice.ID, draws)
		require.NoError(t, err)
	}
	pattern, err := s.Claim(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Row 1", pattern)
	assert.Equal(t, domain.StatusFinished, s.Game.Status)
	assert.Equal(t, bob.ID, s.Game.WinnerID)
	assert.Equal(t, "Bob", s.Game.WinnerName)
	assert.Equal(t, "Row 1", s.Game.WinPattern)
	assert.Equal(t, 1, bob.Wins)

	_, err = s.Claim(alice.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinished)
	_, err = s.Claim(bob.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinished)
	assert.Equal(t, 1, bob.Wins)
}

func TestNewRound(t *testing.T) {
	s, alice, bob := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	_, err := s.Draw(alice.ID, &scriptedDraws{next: []int{3}})
	require.NoError(t, err)
	_, err = s.Mark(bob.ID, 3)
	require.NoError(t, err)
	require.NoError(t, s.End(alice.ID))

	require.NoError(t, s.NewRound(alice.ID, fixedCards{}))
	assert.Equal(t, domain.StatusPlaying, s.Game.Status)
	assert.Equal(t, 2, s.Game.Round)
	assert.Empty(t, s.Game.CalledNumbers)
	assert.Nil(t, s.Game.CurrentNumber)
	assert.False(t, bob.Card.Cells[2][0].Marked)
}

func TestStartAfterFinishedKeepsRound(t *testing.T) {
	s, alice, _ := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	require.NoError(t, s.End(alice.ID))
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	assert.Equal(t, 1, s.Game.Round)
}

func TestLeaveKeepsHostVacant(t *testing.T) {
	s, alice, bob := newTestSession(t)

	_, err := s.Leave(alice.ID)
	require.NoError(t, err)
	assert.Len(t, s.Players, 1)
	assert.False(t, bob.IsHost)
	assert.Equal(t, alice.ID, s.HostID)
	assert.ErrorIs(t, s.Start(bob.ID, fixedCards{}), domain.ErrForbidden)

	_, err = s.Leave(alice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloneIsDeep(t *testing.T) {
	s, alice, bob := newTestSession(t)
	require.NoError(t, s.Start(alice.ID, fixedCards{}))
	_, err := s.Draw(alice.ID, &scriptedDraws{next: []int{1}})
	require.NoError(t, err)

	cp := s.Clone()
	_, err = cp.Mark(bob.ID, 1)
	require.NoError(t, err)
	cp.Game.CalledNumbers[0] = 2
	*cp.Game.CurrentNumber = 2

	assert.False(t, bob.Card.Cells[0][0].Marked)
	assert.Equal(t, []int{1}, s.Game.CalledNumbers)
	assert.Equal(t, 1, *s.Game.CurrentNumber)
}

func TestLeaderboard(t *testing.T) {
	s, _, bob := newTestSession(t)
	bob.Wins = 2
	board := s.Leaderboard()
	require.Len(t, board, 2)
	assert.Equal(t, "Bob", board[0].Name)
	assert.Equal(t, "Alice", board[1].Name)
}

func TestSetConnected(t *testing.T) {
	s, _, bob := newTestSession(t)
	changed, err := s.SetConnected(bob.ID, false)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.SetConnected(bob.ID, false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRoomCode(t *testing.T) {
	src := domain.NewSource(3)
	for range 100 {
		code := domain.NewRoomCode(src)
		assert.Len(t, code, domain.CodeLen)
		assert.True(t, domain.ValidCode(code))
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "0")
	}
	assert.Equal(t, "ABC234", domain.NormalizeCode("  abc234 "))
	assert.False(t, domain.ValidCode("ABCDE1"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, domain.KindRoomNotFound, domain.KindOf(domain.ErrRoomNotFound))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(domain.ErrNotFound))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(domain.ErrForbidden))
	assert.Equal(t, domain.KindCollaboratorUnavailable, domain.KindOf(assert.AnError))
	assert.ErrorIs(t, domain.ErrorForKind(domain.KindAlreadyFinished), domain.ErrAlreadyFinished)
	assert.Equal(t, "Number has not been called yet!", domain.Message(domain.KindNotCalled))
	assert.Equal(t, domain.KindRateLimited, domain.KindOf(fmt.Errorf("mark: %w", domain.ErrRateLimited)))
	assert.ErrorIs(t, domain.ErrorForKind(domain.KindRateLimited), domain.ErrRateLimited)
	assert.NotEmpty(t, domain.Message(domain.KindRateLimited))
}
