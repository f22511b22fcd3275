package caller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkeye/Bingo/internal/domain"
)

// HTTPDrawer asks the server to draw on behalf of the host.
type HTTPDrawer struct {
	Server   string
	Room     string
	PlayerID string
	Client   *http.Client
}

func NewHTTPDrawer(server, room, playerID string) *HTTPDrawer {
	return &HTTPDrawer{
		Server:   strings.TrimRight(server, "/"),
		Room:     domain.NormalizeCode(room),
		PlayerID: playerID,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type wireError struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

func (d *HTTPDrawer) Draw(ctx context.Context) (Call, error) {
	body, err := json.Marshal(map[string]string{"playerId": d.PlayerID})
	if err != nil {
		return Call{}, err
	}
	endpoint := d.Server + "/api/rooms/" + url.PathEscape(d.Room) + "/draw"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Call{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Call{}, ctx.Err()
		}
		return Call{}, fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var we wireError
		if err := json.NewDecoder(resp.Body).Decode(&we); err != nil || we.Kind == "" {
			return Call{}, fmt.Errorf("%w: status %d", domain.ErrCollaboratorUnavailable, resp.StatusCode)
		}
		return Call{}, fmt.Errorf("%w: %s", domain.ErrorForKind(we.Kind), we.Message)
	}

	var call Call
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return Call{}, fmt.Errorf("%w: decode draw: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return call, nil
}
