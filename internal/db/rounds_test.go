package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/tweetguessr/internal/game"
)

// Runs against a scratch database named by TEST_DATABASE_URL.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.RunMigrations(ctx))
	return NewStore(database)
}

func TestStoreRoundLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	channel := "test-" + uuid.NewString()
	r := &game.Round{
		ID:        uuid.New(),
		MapID:     "argentina",
		ChannelID: channel,
		Status:    game.StatusActive,
		AnswerLat: -38.95,
		AnswerLng: -68.06,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateRound(ctx, r))
	assert.ErrorIs(t, s.CreateRound(ctx, &game.Round{ID: uuid.New(), ChannelID: channel, Status: game.StatusActive}), game.ErrRoundAlreadyActive)

	active, err := s.ActiveRound(ctx, channel)
	require.NoError(t, err)
	assert.Equal(t, r.ID, active.ID)
	assert.True(t, r.CreatedAt.Equal(active.CreatedAt))

	n, err := s.RevealClue(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = s.RevealClue(ctx, r.ID, 1)
	assert.ErrorIs(t, err, game.ErrNoMoreClues)

	g := &game.Guess{RoundID: r.ID, PlayerID: "p1", Lat: -40, Lng: -65, PixelX: 1, PixelY: 2, HasPixel: true, Source: game.SourceMap, CreatedAt: time.Now()}
	require.NoError(t, s.AddGuess(ctx, g))
	assert.ErrorIs(t, s.AddGuess(ctx, g), game.ErrAlreadyGuessed)

	scored, err := s.CloseRound(ctx, r.ID, time.Now(), func(g game.Guess) game.Guess {
		g.Score = 1234
		g.DistanceMeters = 5678
		return g
	})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, 1234, scored[0].Score)

	_, err = s.CloseRound(ctx, r.ID, time.Now(), func(g game.Guess) game.Guess { return g })
	assert.ErrorIs(t, err, game.ErrRoundClosed)
	assert.ErrorIs(t, s.AddGuess(ctx, &game.Guess{RoundID: r.ID, PlayerID: "p2"}), game.ErrRoundClosed)

	stored, err := s.Guesses(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].HasPixel)
	assert.Equal(t, 5678.0, stored[0].DistanceMeters)

	_, err = s.ActiveRound(ctx, channel)
	assert.ErrorIs(t, err, game.ErrNoActiveRound)
	_, err = s.GetRound(ctx, uuid.New())
	assert.ErrorIs(t, err, game.ErrRoundNotFound)
}
