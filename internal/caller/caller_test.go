package caller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Bingo/internal/domain"
)

type scriptedDrawer struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (d *scriptedDrawer) Draw(context.Context) (Call, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) == 0 {
		return Call{Number: d.calls, Label: domain.CallLabel(d.calls)}, nil
	}
	err := d.results[0]
	d.results = d.results[1:]
	if err != nil {
		return Call{}, err
	}
	return Call{Number: d.calls, Label: domain.CallLabel(d.calls)}, nil
}

func fastCaller(d Drawer) *Caller {
	c := New(d)
	c.InitialDelay = time.Millisecond
	c.MinDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	c.Rand = domain.NewSource(1)
	return c
}

func TestRunStopsOnTerminalKinds(t *testing.T) {
	for _, terminal := range []error{
		domain.ErrPoolExhausted,
		domain.ErrForbidden,
		domain.ErrInvalidState,
		domain.ErrRoomNotFound,
	} {
		t.Run(terminal.Error(), func(t *testing.T) {
			d := &scriptedDrawer{results: []error{nil, nil, terminal}}
			c := fastCaller(d)
			var calls []Call
			c.OnCall = func(call Call) { calls = append(calls, call) }

			err := c.Run(context.Background())
			require.ErrorIs(t, err, terminal)
			assert.Len(t, calls, 2)
			assert.Equal(t, 3, d.calls)
		})
	}
}

func TestRunRetriesTransient(t *testing.T) {
	d := &scriptedDrawer{results: []error{
		domain.ErrVersionConflict,
		domain.ErrCollaboratorUnavailable,
		domain.ErrRateLimited,
		nil,
		domain.ErrPoolExhausted,
	}}
	err := fastCaller(d).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrPoolExhausted)
	assert.Equal(t, 5, d.calls)
}

func TestRunHonorsContext(t *testing.T) {
	d := &scriptedDrawer{}
	c := New(d)
	c.InitialDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, d.calls)
}

func TestNextDelayWithinBounds(t *testing.T) {
	c := New(nil)
	c.Rand = domain.NewSource(7)
	for range 200 {
		d := c.nextDelay()
		assert.GreaterOrEqual(t, d, DefaultMinDelay)
		assert.LessOrEqual(t, d, DefaultMaxDelay)
	}

	c.MaxDelay = c.MinDelay
	assert.Equal(t, DefaultMinDelay, c.nextDelay())
}

func TestHTTPDrawer(t *testing.T) {
	var (
		mu     sync.Mutex
		status int
		body   any
	)
	set := func(s int, b any) {
		mu.Lock()
		defer mu.Unlock()
		status, body = s, b
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/rooms/ABC234/draw", r.URL.Path)
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "host-1", req["playerId"])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	d := NewHTTPDrawer(srv.URL+"/", "abc234", "host-1")

	set(http.StatusOK, map[string]any{"number": 12, "label": "B 12", "remaining": 74})
	call, err := d.Draw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Call{Number: 12, Label: "B 12", Remaining: 74}, call)

	tests := []struct {
		status int
		body   any
		want   error
	}{
		{http.StatusGone, map[string]string{"kind": "PoolExhausted", "message": "done"}, domain.ErrPoolExhausted},
		{http.StatusForbidden, map[string]string{"kind": "Forbidden"}, domain.ErrForbidden},
		{http.StatusNotFound, map[string]string{"kind": "RoomNotFound"}, domain.ErrNotFound},
		{http.StatusConflict, map[string]string{"kind": "VersionConflict"}, domain.ErrVersionConflict},
		{http.StatusBadGateway, "oops", domain.ErrCollaboratorUnavailable},
	}
	for _, tc := range tests {
		set(tc.status, tc.body)
		_, err := d.Draw(context.Background())
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestHTTPDrawerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewHTTPDrawer(srv.URL, "ABC234", "host-1").Draw(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCollaboratorUnavailable))
	assert.True(t, transient(err))
}
