// internal/handlers/table.go
package handlers

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/jason-s-yu/ginrummy/internal/game"
	"github.com/jason-s-yu/ginrummy/internal/models"
)

var tableTemplate = template.Must(template.New("table").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Gin Rummy</title>
<style>
.card { display: inline-block; border: 1px solid #444; border-radius: 4px; padding: 4px 6px; margin: 2px; font-family: monospace; }
.red { color: #c00; }
.message { color: #a00; font-weight: bold; }
</style>
</head>
<body data-game="{{.State.GameID}}">
<h2>Your hand: {{range .Hand}}{{template "card" .}}{{end}}</h2>
{{range .Melds}}<p>Meld: {{range .}}{{template "card" .}}{{end}}</p>
{{end}}<p>{{.OpponentName}} holds {{.OpponentCount}} cards{{if .OpponentHand}}: {{range .OpponentHand}}{{template "card" .}}{{end}}{{end}}</p>
<p>Top of discard pile: {{with .DiscardTop}}{{template "card" .}}{{else}}None{{end}}</p>
<p>Cards left in deck: {{.State.StockpileSize}}</p>
{{with .Message}}<p class="message">{{.}}</p>
{{end}}{{if .Result}}<p class="result">{{.Result}}</p>
{{else if .CanDiscard}}<p>Select a card to discard:</p>
{{range .Hand}}<a href="/discard?card={{.Code}}">{{template "card" .}}</a>{{end}}
{{else if .CanDraw}}<p>Draw a card:</p>
<a href="/draw?source=deck">Deck</a>{{if .CanDrawDiscard}} <a href="/draw?source=discard">Discard ({{.DiscardTop.Code}})</a>{{end}}
{{else}}<p>{{.OpponentName}}'s turn...</p>
{{end}}<p><a href="/sort">Sort hand</a> <a href="/reset">Restart</a></p>
</body>
</html>
{{define "card"}}<span class="card{{if .Red}} red{{end}}" title="{{.Name}}">{{.Code}}</span>{{end}}`))

type pageCard struct {
	Code string
	Name string
	Red  bool
}

// tableView is everything the table template renders.
type tableView struct {
	State   game.GameState
	Message string
	Result  string

	Hand  []pageCard
	Melds [][]pageCard

	OpponentName  string
	OpponentCount int
	OpponentHand  []pageCard

	DiscardTop     *pageCard
	CanDraw        bool
	CanDrawDiscard bool
	CanDiscard     bool
}

func toPageCard(c models.Card) pageCard {
	return pageCard{
		Code: c.String(),
		Name: c.Name(),
		Red:  c.Suit == models.Hearts || c.Suit == models.Diamonds,
	}
}

func toPageCards(cards []models.Card) []pageCard {
	out := make([]pageCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, toPageCard(c))
	}
	return out
}

// buildTableView describes g as seen by human.
// Assumes lock is held.
func buildTableView(g *game.GinGame, human *game.Player, message string) tableView {
	st := g.GetGameState(human.ID)
	v := tableView{
		State:   st,
		Message: message,
		Hand:    toPageCards(human.Hand.Cards()),
	}
	for _, meld := range human.Hand.Melds() {
		v.Melds = append(v.Melds, toPageCards(meld))
	}
	if opp := g.Opponent(human.ID); opp != nil {
		v.OpponentName = opp.Name
		v.OpponentCount = opp.Hand.Len()
		if st.GameOver {
			v.OpponentHand = toPageCards(opp.Hand.Cards())
		}
	}
	if top := g.DiscardTop(); top != nil {
		pc := toPageCard(*top)
		v.DiscardTop = &pc
	}

	yourTurn := !st.GameOver && st.CurrentPlayerID == human.ID
	v.CanDiscard = yourTurn && st.AwaitingDiscard
	v.CanDraw = yourTurn && !st.AwaitingDiscard
	v.CanDrawDiscard = v.CanDraw && st.DiscardAllowed && v.DiscardTop != nil
	v.Result = resultLine(g)
	return v
}

// resultLine announces a finished game, or returns "".
func resultLine(g *game.GinGame) string {
	switch g.Phase {
	case game.PhaseGinWin:
		return fmt.Sprintf("%s wins with hand: %s", g.Winner.Name, g.Winner.Hand)
	case game.PhaseDeckExhausted:
		return "Round ended in a draw (deck exhausted)."
	}
	return ""
}

func renderTable(w io.Writer, v tableView) error {
	var sb strings.Builder
	if err := tableTemplate.Execute(&sb, v); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
