package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/tweetguessr/internal/maps"
)

// Discord allows at most 25 choices per option.
const maxChoices = 25

func GetCommands(registry *maps.Registry) []*discordgo.ApplicationCommand {
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, m := range registry.List() {
		if len(choices) == maxChoices {
			break
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: m.ID})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:         "tweetguess",
			Description:  "Adiviná desde dónde se publicó el tweet",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Empieza una ronda en este canal",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "map",
							Description: "Mapa",
							Required:    false,
							Choices:     choices,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clue",
					Description: "Muestra la siguiente pista",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guess",
					Description: "Envía tu respuesta",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "url",
							Description: "Link de Google Maps o lat,lng",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "answer",
					Description: "Revela la respuesta y los puntajes",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "Termina la ronda",
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
