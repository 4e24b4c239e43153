// internal/handlers/web_test.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/ginrummy/internal/auth"
	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := auth.Init(0); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// table is a running server plus a browser-like client for it.
type table struct {
	gs     *GameServer
	srv    *httptest.Server
	client *http.Client
}

func newTable(t *testing.T) *table {
	t.Helper()
	logger, _ := test.NewNullLogger()
	gs := NewGameServer(logger)
	gs.Seed = 21

	r := chi.NewRouter()
	gs.Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &table{gs: gs, srv: srv, client: &http.Client{Jar: jar}}
}

func (tb *table) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := tb.client.Get(tb.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (tb *table) state(t *testing.T) game.GameState {
	t.Helper()
	code, body := tb.get(t, "/state")
	require.Equal(t, http.StatusOK, code)
	var st game.GameState
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	return st
}

func (tb *table) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	u, err := url.Parse(tb.srv.URL)
	require.NoError(t, err)
	for _, c := range tb.client.Jar.Cookies(u) {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (tb *table) game(t *testing.T) *game.GinGame {
	t.Helper()
	id, err := auth.AuthenticateGameSession(tb.sessionCookie(t).Value)
	require.NoError(t, err)
	g, ok := tb.gs.GameStore.GetGame(id)
	require.True(t, ok)
	return g
}

func TestIndexStartsSession(t *testing.T) {
	tb := newTable(t)

	code, body := tb.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Your hand:")
	assert.Contains(t, body, "Cards left in deck: 32")
	assert.Contains(t, body, `href="/draw?source=deck"`)
	assert.NotContains(t, body, "source=discard", "discard draws are off by default")
	assert.Equal(t, 1, tb.gs.GameStore.Len())

	first := tb.game(t).ID
	tb.get(t, "/")
	assert.Equal(t, first, tb.game(t).ID, "same session, same game")
	assert.Equal(t, 1, tb.gs.GameStore.Len())
}

func TestDrawAndDiscard(t *testing.T) {
	tb := newTable(t)
	tb.get(t, "/")

	code, body := tb.get(t, "/draw?source=deck")
	require.Equal(t, http.StatusOK, code, "redirected back to the table")

	st := tb.state(t)
	if st.GameOver {
		// drew gin
		assert.Contains(t, body, "wins with hand:")
		return
	}
	require.True(t, st.AwaitingDiscard)
	assert.Equal(t, 31, st.StockpileSize)
	require.Len(t, st.Players[0].Hand, 11)
	assert.Contains(t, body, "Select a card to discard:")

	discard := st.Players[0].Hand[0].Code
	code, _ = tb.get(t, "/discard?card="+discard)
	require.Equal(t, http.StatusOK, code)

	st = tb.state(t)
	require.NotNil(t, st.DiscardTop)
	if st.GameOver {
		return
	}
	// the computer has already answered
	assert.Equal(t, st.Players[0].PlayerID, st.CurrentPlayerID)
	assert.Equal(t, 3, st.TurnID)
	assert.Len(t, st.Players[0].Hand, 10)
	assert.Equal(t, 10, st.Players[1].HandSize)
	assert.Empty(t, st.Players[1].Hand, "computer hand hidden")
	assert.Equal(t, 30, st.StockpileSize)
	require.NoError(t, tb.game(t).CheckInvariant())
}

func TestInvalidActionsRenderMessage(t *testing.T) {
	tb := newTable(t)
	tb.get(t, "/")
	before := tb.state(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"discard before draw", "/discard?card=QH", "must draw before discarding"},
		{"bad card code", "/discard?card=ZZ", "invalid"},
		{"missing card", "/discard", "invalid card"},
		{"discard pile not allowed", "/draw?source=discard", "not allowed"},
		{"unknown source", "/draw?source=floor", "unknown draw source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := tb.get(t, tt.path)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, body, `class="message"`)
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, "Your hand:", "the table is still shown")
		})
	}

	after := tb.state(t)
	assert.Equal(t, before.StockpileSize, after.StockpileSize)
	assert.Equal(t, before.Players[0].Hand, after.Players[0].Hand)
	assert.Equal(t, before.TurnID, after.TurnID)
}

func TestDiscardCardNotHeld(t *testing.T) {
	tb := newTable(t)
	tb.get(t, "/")
	tb.get(t, "/draw")
	st := tb.state(t)
	if st.GameOver {
		t.Skip("drew gin")
	}

	held := map[string]bool{}
	for _, c := range st.Players[0].Hand {
		held[c.Code] = true
	}
	var missing string
	for _, code := range []string{"AC", "AD", "AH", "AS", "2C", "2D", "2H", "2S", "3C", "3D", "3H", "3S"} {
		if !held[code] {
			missing = code
			break
		}
	}
	code, body := tb.get(t, "/discard?card="+missing)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "card not in hand")
	assert.Len(t, tb.state(t).Players[0].Hand, 11)
}

func TestBadSessionGetsNewGame(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gs := NewGameServer(logger)
	r := chi.NewRouter()
	gs.Mount(r)

	for _, cookie := range []*http.Cookie{
		{Name: sessionCookie, Value: "garbage"},
		{Name: sessionCookie, Value: mustSession(t, uuid.New())},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, w.Result().Cookies(), 1)
		assert.Equal(t, sessionCookie, w.Result().Cookies()[0].Name)
	}
	assert.Equal(t, 2, gs.GameStore.Len())
}

func mustSession(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := auth.CreateGameSession(id)
	require.NoError(t, err)
	return token
}

func TestSortAndReset(t *testing.T) {
	tb := newTable(t)
	tb.get(t, "/")
	old := tb.game(t)

	code, _ := tb.get(t, "/sort")
	assert.Equal(t, http.StatusOK, code)
	old.Mu.Lock()
	hand := old.Players[0].Hand.Cards()
	old.Mu.Unlock()
	for i := 1; i < len(hand); i++ {
		prev, cur := hand[i-1], hand[i]
		assert.True(t, prev.Suit < cur.Suit || (prev.Suit == cur.Suit && prev.Rank < cur.Rank))
	}

	code, body := tb.get(t, "/reset")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Cards left in deck: 32")
	assert.NotEqual(t, old.ID, tb.game(t).ID)
	assert.Equal(t, 1, tb.gs.GameStore.Len())
	_, ok := tb.gs.GameStore.GetGame(old.ID)
	assert.False(t, ok)
}

func TestPlayToTheEnd(t *testing.T) {
	tb := newTable(t)
	tb.get(t, "/")

	var body string
	for i := 0; i < 60; i++ {
		st := tb.state(t)
		if st.GameOver {
			break
		}
		_, body = tb.get(t, "/draw?source=deck")
		st = tb.state(t)
		if st.GameOver {
			break
		}
		_, body = tb.get(t, "/discard?card="+st.Players[0].Hand[0].Code)
	}

	st := tb.state(t)
	require.True(t, st.GameOver)
	assert.Len(t, st.Players[1].Hand, st.Players[1].HandSize, "computer hand revealed")
	if st.Phase == game.PhaseDeckExhausted {
		assert.Contains(t, body, "Round ended in a draw (deck exhausted).")
	} else {
		assert.Contains(t, body, st.WinnerName+" wins with hand:")
	}

	code, _ := tb.get(t, "/draw")
	assert.Equal(t, http.StatusBadRequest, code, "no moves after the end")
}

func TestStateJSON(t *testing.T) {
	tb := newTable(t)
	resp, err := tb.client.Get(tb.srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var st game.GameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, game.PhaseInProgress, st.Phase)
	assert.Equal(t, 10, st.Players[0].HandSize)
}
