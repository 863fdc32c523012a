package bot

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/commands"
	"github.com/susu3304/tweetguessr/internal/game"
)

// expiryWorker periodically reveals rounds nobody answered and posts the
// result to their channel.
type expiryWorker struct {
	game     *game.Service
	session  expirySession
	log      logrus.FieldLogger
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
	ticker   *time.Ticker
}

// Minimal session interface for sending channel messages.
type expirySession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newExpiryWorker(session expirySession, svc *game.Service, ttl time.Duration, log logrus.FieldLogger) *expiryWorker {
	return &expiryWorker{
		game:     svc,
		session:  session,
		log:      log,
		ttl:      ttl,
		interval: time.Minute,
		stopChan: make(chan struct{}),
	}
}

// RunExpiry reveals stale rounds until ctx is done without posting
// anywhere. It serves deployments that run without the bot.
func RunExpiry(ctx context.Context, svc *game.Service, ttl time.Duration, log logrus.FieldLogger) {
	w := newExpiryWorker(nil, svc, ttl, log)
	w.start(ctx)
	<-ctx.Done()
	w.stop()
}

func (w *expiryWorker) start(ctx context.Context) {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop(ctx)
}

func (w *expiryWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *expiryWorker) loop(ctx context.Context) {
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *expiryWorker) tick(ctx context.Context) {
	results, err := w.game.ExpireStale(ctx, w.ttl)
	if err != nil {
		// Rounds that did close are still in results.
		w.log.WithError(err).Error("expiry: failed to reveal stale rounds")
	}

	for _, res := range results {
		if w.session == nil || res.Round.ChannelID == "" {
			continue
		}
		msg := "⏰ Se acabó el tiempo de la ronda\n\n" + commands.FormatResult(res)
		if err := w.sendWithRetry(ctx, res.Round.ChannelID, msg); err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"round":   res.Round.ID,
				"channel": res.Round.ChannelID,
			}).Warn("expiry: failed to post result")
		}
	}
}

func (w *expiryWorker) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) || attempt == maxAttempts {
			return err
		}
		select {
		case <-time.After(time.Duration(300+rand.Intn(500)) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
