// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/jason-s-yu/ginrummy/internal/middleware"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

// stateMessage carries a fresh GameState to the client after every action.
type stateMessage struct {
	Type  string         `json:"type"`
	State game.GameState `json:"state"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for the caller's game.
// The client receives every GameEvent of the game and may send the same moves
// as the table links.
func (gs *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid game_id format", http.StatusBadRequest)
		return
	}
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	if sessionID, err := sessionGameID(r); err != nil || sessionID != gameID {
		http.Error(w, "Not your game", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: gs.OriginPatterns,
	})
	if err != nil {
		gs.Logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
		return
	}

	sub := gs.hub.subscribe(gameID)
	defer gs.hub.unsubscribe(gameID, sub)
	middleware.LogWebSocketConnect(gs.Logger, r.RemoteAddr, gameID.String())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go gs.writeGameMessages(ctx, cancel, c, sub)

	human := humanPlayer(g)
	g.Mu.Lock()
	st := g.GetGameState(human.ID)
	g.Mu.Unlock()
	gs.sendJSON(sub, stateMessage{Type: "game_state", State: st})

	err = gs.readGameMessages(ctx, c, g, human, sub)
	middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, gameID.String(), err)
}

// readGameMessages reads actions until the connection closes.
func (gs *GameServer) readGameMessages(ctx context.Context, c *websocket.Conn, g *game.GinGame, human *game.Player, sub *subscriber) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var action models.GameAction
		if err := json.Unmarshal(data, &action); err != nil {
			gs.sendJSON(sub, errorMessage{Type: "error", Message: "Invalid JSON format."})
			continue
		}
		if action.ActionType == models.ActionPing {
			gs.sendJSON(sub, map[string]string{"type": "pong"})
			continue
		}
		gs.Logger.Debugf("Received action '%s' for game %s.", action.ActionType, g.ID)

		g.Mu.Lock()
		err = gs.applyAction(g, human, action)
		st := g.GetGameState(human.ID)
		g.Mu.Unlock()

		if err != nil {
			if !isClientError(err) {
				gs.Logger.Errorf("Game %s: %v", g.ID, err)
			}
			gs.sendJSON(sub, errorMessage{Type: "error", Message: err.Error()})
		}
		gs.sendJSON(sub, stateMessage{Type: "game_state", State: st})
	}
}

// writeGameMessages is the connection's only writer. It stops when the hub
// closes the subscriber or a write fails.
func (gs *GameServer) writeGameMessages(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, sub *subscriber) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.ch:
			if !ok {
				c.Close(GameClosedError, "Game closed.")
				return
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				gs.Logger.Warnf("Failed to write websocket message: %v", err)
				return
			}
		}
	}
}

func (gs *GameServer) sendJSON(sub *subscriber, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		gs.Logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	if !sub.send(data) {
		gs.Logger.Warn("Dropped websocket reply.")
	}
}
