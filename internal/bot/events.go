package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/tweetguessr/internal/commands"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.log.Infof("%s is connected!", event.User.Username)

	// Register commands for all guilds
	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			b.log.WithError(err).WithField("guild", guild.ID).Error("Failed to register commands")
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.log.WithField("guild", event.ID).Infof("Guild available/joined: %s, ensuring commands", event.Name)
	if err := b.registerGuildCommands(event.ID); err != nil {
		b.log.WithError(err).WithField("guild", event.ID).Error("Failed to register commands")
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	cmds := commands.GetCommands(b.registry)
	// Delete existing commands and register new ones
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, cmds)
	if err != nil {
		return err
	}

	b.log.WithField("guild", guildID).Debug("Registered application commands")
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.ApplicationCommandData().Name == "tweetguess" {
		b.handler.Handle(b.ctx, s, i)
	}
}
