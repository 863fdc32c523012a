// Package bot runs the Discord side of the game.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/commands"
	"github.com/susu3304/tweetguessr/internal/game"
	"github.com/susu3304/tweetguessr/internal/geourl"
	"github.com/susu3304/tweetguessr/internal/maps"
)

type Bot struct {
	session  *discordgo.Session
	registry *maps.Registry
	handler  *commands.TweetGuess
	expiry   *expiryWorker
	log      logrus.FieldLogger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a bot; rounds idle for longer than roundTTL are revealed
// automatically.
func New(token string, svc *game.Service, registry *maps.Registry, roundTTL time.Duration, log logrus.FieldLogger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		session:  session,
		registry: registry,
		handler: &commands.TweetGuess{
			Game:    svc,
			Resolve: commands.GoogleMapsResolver(geourl.NewClient()),
			Log:     log,
		},
		expiry: newExpiryWorker(session, svc, roundTTL, log),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.expiry.start(b.ctx)
	b.log.Info("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.cancel()
	b.expiry.stop()
	return b.session.Close()
}
