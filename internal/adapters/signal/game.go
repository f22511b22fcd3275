package signal

import (
	"context"

	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleMark(ctx context.Context, sub *wsSubscriber, number int) {
	res, err := ctl.Orch.Mark(ctx, sub.code, sub.player, number)
	if err != nil {
		ctl.sendError(sub.conn, err)
		return
	}
	ctl.sendJSON(sub.conn, reply{Type: "marked", Payload: res})
}

func (ctl *SignalWSController) handleClaim(ctx context.Context, sub *wsSubscriber) {
	res, err := ctl.Orch.Claim(ctx, sub.code, sub.player)
	if err != nil {
		ctl.sendError(sub.conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("room", sub.code).Str("player", sub.player).Str("pattern", res.Pattern).Msg("claim accepted")
	ctl.sendJSON(sub.conn, reply{Type: "claimed", Payload: res})
}

func (ctl *SignalWSController) handleDraw(ctx context.Context, sub *wsSubscriber) {
	res, err := ctl.Orch.Draw(ctx, sub.code, sub.player)
	if err != nil {
		ctl.sendError(sub.conn, err)
		return
	}
	ctl.sendJSON(sub.conn, reply{Type: "drawn", Payload: res})
}
