package commands

import (
	"fmt"
	"strings"

	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/geoscore"
)

// Discord message content limit.
const maxMessageLen = 2000

var medals = [...]string{"🥇", "🥈", "🥉"}

// FormatResult renders a revealed round as a Discord message.
func FormatResult(res *game.Result) string {
	var b strings.Builder
	t := res.Tweet
	place := strings.Join(nonEmpty(t.City, t.Department, t.Province), ", ")
	fmt.Fprintf(&b, "📍 **Respuesta**: %s (%.4f, %.4f)\n", place, res.Round.AnswerLat, res.Round.AnswerLng)
	if res.Answer.Pole {
		fmt.Fprintf(&b, "Marcador en el mapa %s: polo\n", res.MapID)
	} else {
		fmt.Fprintf(&b, "Marcador en el mapa %s: (%.0f, %.0f)\n", res.MapID, res.Answer.X, res.Answer.Y)
	}

	if len(res.Guesses) == 0 {
		b.WriteString("\nNadie respondió en esta ronda")
		return b.String()
	}

	fmt.Fprintf(&b, "\n🏆 **Resultados** (%d)\n", len(res.Guesses))
	for _, g := range res.Guesses {
		medal := ""
		if g.Rank <= len(medals) {
			medal = medals[g.Rank-1] + " "
		}
		line := fmt.Sprintf("%s%d. %s: **%d pts** (%s)\n", medal, g.Rank, mention(g.Guess), g.Score, geoscore.FormatDistance(g.DistanceMeters))
		if b.Len()+len(line) > maxMessageLen-8 {
			b.WriteString("…")
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// mention tags Discord players; web players are shown by name.
func mention(g game.Guess) string {
	if g.PlayerID != "" && strings.Trim(g.PlayerID, "0123456789") == "" {
		return "<@" + g.PlayerID + ">"
	}
	if g.PlayerName != "" {
		return g.PlayerName
	}
	return g.PlayerID
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
