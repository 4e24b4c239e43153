// internal/handlers/web.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

// Mount registers the table's routes on r.
func (gs *GameServer) Mount(r chi.Router) {
	r.Get("/", gs.IndexHandler)
	r.Get("/draw", gs.actionHandler(func(r *http.Request) models.GameAction {
		return models.GameAction{
			ActionType: models.ActionDraw,
			Payload:    map[string]interface{}{"source": r.URL.Query().Get("source")},
		}
	}))
	r.Get("/discard", gs.actionHandler(func(r *http.Request) models.GameAction {
		return models.GameAction{
			ActionType: models.ActionDiscard,
			Payload:    map[string]interface{}{"card": r.URL.Query().Get("card")},
		}
	}))
	r.Get("/sort", gs.actionHandler(func(*http.Request) models.GameAction {
		return models.GameAction{ActionType: models.ActionSort}
	}))
	r.Get("/reset", gs.ResetHandler)
	r.Get("/state", gs.StateHandler)
	r.Get("/game/ws/{id}", gs.GameWSHandler)
}

// IndexHandler renders the table for the caller's game.
func (gs *GameServer) IndexHandler(w http.ResponseWriter, r *http.Request) {
	g, err := gs.sessionGame(w, r)
	if err != nil {
		gs.Logger.Errorf("Could not start a game: %v", err)
		http.Error(w, "could not start a game", http.StatusInternalServerError)
		return
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	gs.writeTable(w, http.StatusOK, g, "")
}

// actionHandler applies the move built from the request and redirects back to
// the table. A rejected move is shown on the table with status 400.
func (gs *GameServer) actionHandler(build func(r *http.Request) models.GameAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := gs.sessionGame(w, r)
		if err != nil {
			gs.Logger.Errorf("Could not start a game: %v", err)
			http.Error(w, "could not start a game", http.StatusInternalServerError)
			return
		}

		g.Mu.Lock()
		defer g.Mu.Unlock()
		if err := gs.applyAction(g, humanPlayer(g), build(r)); err != nil {
			status := http.StatusBadRequest
			if !isClientError(err) {
				status = http.StatusInternalServerError
				gs.Logger.Errorf("Game %s: %v", g.ID, err)
			}
			gs.writeTable(w, status, g, err.Error())
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// ResetHandler drops the caller's game and deals a new one.
func (gs *GameServer) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if id, err := sessionGameID(r); err == nil {
		if g, ok := gs.GameStore.GetGame(id); ok {
			gs.EndGame(g)
		}
	}
	if _, err := gs.startSession(w); err != nil {
		gs.Logger.Errorf("Could not start a game: %v", err)
		http.Error(w, "could not start a game", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// StateHandler returns the caller's view of the game as JSON.
func (gs *GameServer) StateHandler(w http.ResponseWriter, r *http.Request) {
	g, err := gs.sessionGame(w, r)
	if err != nil {
		gs.Logger.Errorf("Could not start a game: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not start a game"})
		return
	}
	g.Mu.Lock()
	st := g.GetGameState(humanPlayer(g).ID)
	g.Mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

// writeTable renders g for its human player.
// Assumes lock is held.
func (gs *GameServer) writeTable(w http.ResponseWriter, status int, g *game.GinGame, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderTable(w, buildTableView(g, humanPlayer(g), message)); err != nil {
		gs.Logger.Errorf("Game %s: %v", g.ID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
