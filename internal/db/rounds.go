package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/susu3304/tweetguessr/internal/game"
)

// Store is a game.Store backed by Postgres.
type Store struct {
	db *DB
}

var _ game.Store = (*Store)(nil)

func NewStore(database *DB) *Store {
	return &Store{db: database}
}

const roundColumns = `id, map_id, channel_id, player_id, tweet_index, clues_revealed,
	status, answer_lat, answer_lng, created_at, closed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*game.Round, error) {
	var r game.Round
	var status string
	err := row.Scan(&r.ID, &r.MapID, &r.ChannelID, &r.PlayerID, &r.TweetIndex, &r.CluesRevealed,
		&status, &r.AnswerLat, &r.AnswerLng, &r.CreatedAt, &r.ClosedAt)
	if err != nil {
		return nil, err
	}
	r.Status = game.Status(status)
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateRound(ctx context.Context, r *game.Round) error {
	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO rounds (id, map_id, channel_id, player_id, tweet_index, clues_revealed,
			status, answer_lat, answer_lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.MapID, r.ChannelID, r.PlayerID, r.TweetIndex, r.CluesRevealed,
		string(r.Status), r.AnswerLat, r.AnswerLng, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return game.ErrRoundAlreadyActive
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, id uuid.UUID) (*game.Round, error) {
	r, err := scanRound(s.db.pool.QueryRow(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrRoundNotFound
	}
	return r, err
}

func (s *Store) ActiveRound(ctx context.Context, channelID string) (*game.Round, error) {
	if channelID == "" {
		return nil, game.ErrNoActiveRound
	}
	r, err := scanRound(s.db.pool.QueryRow(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE channel_id = $1 AND status = 'active'`, channelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrNoActiveRound
	}
	return r, err
}

// lockRound locks the round row for the rest of tx and returns its state.
func lockRound(ctx context.Context, tx pgx.Tx, id uuid.UUID, mode string) (clues int, status string, err error) {
	err = tx.QueryRow(ctx, `SELECT clues_revealed, status FROM rounds WHERE id = $1 FOR `+mode, id).
		Scan(&clues, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", game.ErrRoundNotFound
	}
	return clues, status, err
}

func (s *Store) RevealClue(ctx context.Context, id uuid.UUID, max int) (int, error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	clues, status, err := lockRound(ctx, tx, id, "UPDATE")
	if err != nil {
		return 0, err
	}
	if status != string(game.StatusActive) {
		return 0, game.ErrRoundClosed
	}
	if clues >= max {
		return clues, game.ErrNoMoreClues
	}
	if _, err := tx.Exec(ctx, `UPDATE rounds SET clues_revealed = $1 WHERE id = $2`, clues+1, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return clues + 1, nil
}

func (s *Store) AddGuess(ctx context.Context, g *game.Guess) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// FOR SHARE waits for a concurrent CloseRound.
	_, status, err := lockRound(ctx, tx, g.RoundID, "SHARE")
	if err != nil {
		return err
	}
	if status != string(game.StatusActive) {
		return game.ErrRoundClosed
	}

	var px, py *float64
	if g.HasPixel {
		px, py = &g.PixelX, &g.PixelY
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO guesses (round_id, player_id, player_name, lat, lng, pixel_x, pixel_y, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, g.RoundID, g.PlayerID, g.PlayerName, g.Lat, g.Lng, px, py, g.Source, g.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return game.ErrAlreadyGuessed
		}
		return fmt.Errorf("failed to add guess: %w", err)
	}
	return tx.Commit(ctx)
}

func queryGuesses(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, roundID uuid.UUID) ([]game.Guess, error) {
	rows, err := q.Query(ctx, `
		SELECT player_id, player_name, lat, lng, pixel_x, pixel_y, source,
		       COALESCE(score, 0), COALESCE(distance_meters, 0), created_at
		FROM guesses
		WHERE round_id = $1
		ORDER BY created_at ASC
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Guess
	for rows.Next() {
		g := game.Guess{RoundID: roundID}
		var px, py *float64
		if err := rows.Scan(&g.PlayerID, &g.PlayerName, &g.Lat, &g.Lng, &px, &py, &g.Source,
			&g.Score, &g.DistanceMeters, &g.CreatedAt); err != nil {
			return nil, err
		}
		if px != nil && py != nil {
			g.PixelX, g.PixelY, g.HasPixel = *px, *py, true
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) Guesses(ctx context.Context, roundID uuid.UUID) ([]game.Guess, error) {
	if _, err := s.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	return queryGuesses(ctx, s.db.pool, roundID)
}

func (s *Store) CloseRound(ctx context.Context, id uuid.UUID, closedAt time.Time, score game.ScoreFunc) ([]game.Guess, error) {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, status, err := lockRound(ctx, tx, id, "UPDATE")
	if err != nil {
		return nil, err
	}
	if status != string(game.StatusActive) {
		return nil, game.ErrRoundClosed
	}

	guesses, err := queryGuesses(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	batch := &pgx.Batch{}
	for i := range guesses {
		guesses[i] = score(guesses[i])
		batch.Queue(`UPDATE guesses SET score = $1, distance_meters = $2 WHERE round_id = $3 AND player_id = $4`,
			guesses[i].Score, guesses[i].DistanceMeters, id, guesses[i].PlayerID)
	}
	batch.Queue(`UPDATE rounds SET status = 'closed', closed_at = $1 WHERE id = $2`, closedAt, id)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("failed to close round: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return guesses, nil
}

func (s *Store) ActiveRoundsBefore(ctx context.Context, t time.Time) ([]*game.Round, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE status = 'active' AND created_at < $1
		ORDER BY created_at ASC
	`, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
