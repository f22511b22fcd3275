package signal

import (
	"context"
	"fmt"

	"github.com/dkeye/Bingo/internal/domain"
)

var (
	errBadPayload  = fmt.Errorf("%w: bad payload", domain.ErrValidation)
	errUnknownType = fmt.Errorf("%w: unknown message type", domain.ErrValidation)
)

type errorReply struct {
	Type    string      `json:"type"`
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

func (ctl *SignalWSController) sendError(conn *WsSignalConn, err error) {
	kind := domain.KindOf(err)
	ctl.sendJSON(conn, errorReply{Type: "error", Kind: kind, Message: domain.Message(kind)})
}

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, reply{Type: "pong"})
}

func (ctl *SignalWSController) handleState(ctx context.Context, sub *wsSubscriber) {
	view, err := ctl.Orch.State(ctx, sub.code, sub.player)
	if err != nil {
		ctl.sendError(sub.conn, err)
		return
	}
	ctl.sendJSON(sub.conn, reply{Type: "state", Payload: view})
}
