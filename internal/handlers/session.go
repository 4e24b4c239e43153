// internal/handlers/session.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/auth"
	"github.com/jason-s-yu/ginrummy/internal/game"
)

const sessionCookie = "game_session"

// sessionGameID returns the game named by the request's session cookie.
func sessionGameID(r *http.Request) (uuid.UUID, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return uuid.Nil, err
	}
	return auth.AuthenticateGameSession(c.Value)
}

// sessionGame returns the caller's game. A request without a valid session,
// or whose game is gone, gets a new game and cookie.
func (gs *GameServer) sessionGame(w http.ResponseWriter, r *http.Request) (*game.GinGame, error) {
	id, err := sessionGameID(r)
	if err == nil {
		if g, ok := gs.GameStore.GetGame(id); ok {
			return g, nil
		}
		gs.Logger.Debugf("Session names unknown game %s, starting a new one.", id)
	} else if !errors.Is(err, http.ErrNoCookie) {
		gs.Logger.Debugf("Ignoring bad session: %v", err)
	}
	return gs.startSession(w)
}

func (gs *GameServer) startSession(w http.ResponseWriter) (*game.GinGame, error) {
	g, err := gs.NewGame()
	if err != nil {
		return nil, err
	}
	token, err := auth.CreateGameSession(g.ID)
	if err != nil {
		gs.EndGame(g)
		return nil, fmt.Errorf("create session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return g, nil
}
