package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/geourl"
	"github.com/susu3304/tweetguessr/internal/maps"
	"github.com/susu3304/tweetguessr/internal/tweets"
)

// Resolver turns a /tweetguess guess argument into coordinates.
type Resolver func(ctx context.Context, input string) (lat, lng float64, finalURL string, err error)

// GoogleMapsResolver follows short links with client.
func GoogleMapsResolver(client *http.Client) Resolver {
	return func(ctx context.Context, input string) (float64, float64, string, error) {
		return geourl.Resolve(ctx, client, input)
	}
}

// TweetGuess handles the /tweetguess command.
type TweetGuess struct {
	Game    *game.Service
	Resolve Resolver
	Log     logrus.FieldLogger
}

func (h *TweetGuess) Handle(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		h.respond(s, i, "No se indicó ningún subcomando")
		return
	}

	sub := data.Options[0]
	switch sub.Name {
	case "start":
		h.start(ctx, s, i, sub)
	case "clue":
		h.clue(ctx, s, i)
	case "guess":
		h.guess(ctx, s, i, sub)
	case "answer":
		h.answer(ctx, s, i, true)
	case "stop":
		h.answer(ctx, s, i, false)
	default:
		h.respond(s, i, "Subcomando desconocido")
	}
}

func (h *TweetGuess) respond(s Session, i *discordgo.InteractionCreate, content string) {
	if err := respondText(s, i, content); err != nil {
		h.Log.WithError(err).Warn("Failed to respond to interaction")
	}
}

func (h *TweetGuess) edit(s Session, i *discordgo.InteractionCreate, content string) {
	if err := editText(s, i, content); err != nil {
		h.Log.WithError(err).Warn("Failed to edit interaction response")
	}
}

func (h *TweetGuess) start(ctx context.Context, s Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	req := game.StartRequest{ChannelID: i.ChannelID}
	if u := interactionUser(i); u != nil {
		req.PlayerID = u.ID
	}
	if m := getStringOption(sub.Options, "map"); m != nil {
		req.MapID = *m
	}

	r, err := h.Game.StartRound(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrRoundAlreadyActive):
			h.respond(s, i, "Ya hay una ronda activa en este canal")
		case errors.Is(err, maps.ErrMapNotFound):
			h.respond(s, i, "Ese mapa no existe")
		case errors.Is(err, tweets.ErrEmptyCatalog):
			h.respond(s, i, "No hay tweets cargados")
		default:
			h.Log.WithError(err).Error("Failed to start round")
			h.respond(s, i, "No se pudo empezar la ronda: "+err.Error())
		}
		return
	}

	t, err := h.Game.Tweet(r)
	if err != nil {
		h.Log.WithError(err).WithField("round", r.ID).Error("Failed to load tweet of round")
		h.respond(s, i, "No se pudo cargar el tweet de la ronda")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "¿Desde dónde se publicó este tweet?",
		Description: t.Text,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Ronda %s · %d pistas · /tweetguess guess <link de Google Maps>", r.ID, game.MaxClues),
		},
	}
	if t.ImgSrc != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: t.ImgSrc}
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "✅ ¡Empezó una ronda!",
			Embeds:  []*discordgo.MessageEmbed{embed},
		},
	}); err != nil {
		h.Log.WithError(err).Warn("Failed to respond to interaction")
	}
}

func (h *TweetGuess) clue(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	r, err := h.Game.ActiveRound(ctx, i.ChannelID)
	if err != nil {
		h.respondRoundError(s, i, err)
		return
	}
	c, err := h.Game.RevealClue(ctx, r.ID)
	if err != nil {
		if errors.Is(err, game.ErrNoMoreClues) {
			h.respond(s, i, "Ya se mostraron todas las pistas")
			return
		}
		h.respondRoundError(s, i, err)
		return
	}
	h.respond(s, i, fmt.Sprintf("🔎 Pista %d/%d: **%s**", c.Index, c.Total, c.Text))
}

func (h *TweetGuess) guess(ctx context.Context, s Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	urlOpt := getStringOption(sub.Options, "url")
	if urlOpt == nil || *urlOpt == "" {
		h.respond(s, i, "Falta el link de Google Maps")
		return
	}
	user := interactionUser(i)
	if user == nil {
		h.respond(s, i, "No se pudo identificar al jugador")
		return
	}

	// Defer the response since URL expansion might take time
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		h.Log.WithError(err).Warn("Failed to defer interaction")
		return
	}

	r, err := h.Game.ActiveRound(ctx, i.ChannelID)
	if err != nil {
		h.edit(s, i, roundErrorText(err))
		return
	}

	lat, lng, _, err := h.Resolve(ctx, *urlOpt)
	if err != nil {
		h.Log.WithError(err).WithField("input", *urlOpt).Debug("Failed to resolve guess")
		h.edit(s, i, "No se pudieron obtener coordenadas del link: "+err.Error())
		return
	}

	if _, err := h.Game.GuessLatLng(ctx, r.ID, user.ID, displayName(i), lat, lng, game.SourceMapsURL); err != nil {
		if errors.Is(err, game.ErrAlreadyGuessed) {
			h.edit(s, i, "Ya respondiste en esta ronda")
			return
		}
		h.edit(s, i, roundErrorText(err))
		return
	}
	h.edit(s, i, fmt.Sprintf("✅ Se registró la respuesta de <@%s>", user.ID))
}

// answer reveals the active round. stop posts only the answer.
func (h *TweetGuess) answer(ctx context.Context, s Session, i *discordgo.InteractionCreate, full bool) {
	r, err := h.Game.ActiveRound(ctx, i.ChannelID)
	if err != nil {
		h.respondRoundError(s, i, err)
		return
	}
	res, err := h.Game.Reveal(ctx, r.ID)
	if err != nil {
		h.respondRoundError(s, i, err)
		return
	}
	if full {
		h.respond(s, i, FormatResult(res))
		return
	}
	t := res.Tweet
	h.respond(s, i, fmt.Sprintf("✅ Ronda terminada. Era %s", strings.Join(nonEmpty(t.City, t.Department, t.Province), ", ")))
}

func (h *TweetGuess) respondRoundError(s Session, i *discordgo.InteractionCreate, err error) {
	if !errors.Is(err, game.ErrNoActiveRound) && !errors.Is(err, game.ErrRoundClosed) {
		h.Log.WithError(err).Error("Round command failed")
	}
	h.respond(s, i, roundErrorText(err))
}

func roundErrorText(err error) string {
	switch {
	case errors.Is(err, game.ErrNoActiveRound):
		return "No hay una ronda activa en este canal\nEmpezá una con `/tweetguess start`"
	case errors.Is(err, game.ErrRoundClosed):
		return "La ronda ya terminó"
	case errors.Is(err, game.ErrInvalidGuess):
		return "Respuesta inválida: " + err.Error()
	default:
		return "Ocurrió un error: " + err.Error()
	}
}
