package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScoreFunc fills Score and DistanceMeters of a guess.
type ScoreFunc func(Guess) Guess

// Store persists rounds and guesses. Implementations must make each method
// atomic with respect to the others.
type Store interface {
	// CreateRound fails with ErrRoundAlreadyActive when r.ChannelID is not
	// empty and already has an active round.
	CreateRound(ctx context.Context, r *Round) error
	GetRound(ctx context.Context, id uuid.UUID) (*Round, error)
	ActiveRound(ctx context.Context, channelID string) (*Round, error)
	// RevealClue increments CluesRevealed up to max and returns the new count.
	RevealClue(ctx context.Context, id uuid.UUID, max int) (int, error)
	// AddGuess fails with ErrRoundClosed or ErrAlreadyGuessed.
	AddGuess(ctx context.Context, g *Guess) error
	Guesses(ctx context.Context, roundID uuid.UUID) ([]Guess, error)
	// CloseRound scores all guesses with score and closes the round in one
	// step. It fails with ErrRoundClosed when the round was already closed.
	CloseRound(ctx context.Context, id uuid.UUID, closedAt time.Time, score ScoreFunc) ([]Guess, error)
	// ActiveRoundsBefore lists active rounds created before t.
	ActiveRoundsBefore(ctx context.Context, t time.Time) ([]*Round, error)
}

// MemoryStore keeps rounds in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	rounds  map[uuid.UUID]*Round
	active  map[string]uuid.UUID
	guesses map[uuid.UUID][]Guess
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:  make(map[uuid.UUID]*Round),
		active:  make(map[string]uuid.UUID),
		guesses: make(map[uuid.UUID][]Guess),
	}
}

func copyRound(r *Round) *Round {
	c := *r
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}

func (m *MemoryStore) CreateRound(_ context.Context, r *Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ChannelID != "" {
		if _, ok := m.active[r.ChannelID]; ok {
			return ErrRoundAlreadyActive
		}
		m.active[r.ChannelID] = r.ID
	}
	m.rounds[r.ID] = copyRound(r)
	return nil
}

func (m *MemoryStore) GetRound(_ context.Context, id uuid.UUID) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return copyRound(r), nil
}

func (m *MemoryStore) ActiveRound(_ context.Context, channelID string) (*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.active[channelID]
	if !ok || channelID == "" {
		return nil, ErrNoActiveRound
	}
	return copyRound(m.rounds[id]), nil
}

func (m *MemoryStore) RevealClue(_ context.Context, id uuid.UUID, max int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rounds[id]
	if !ok {
		return 0, ErrRoundNotFound
	}
	if !r.Active() {
		return 0, ErrRoundClosed
	}
	if r.CluesRevealed >= max {
		return r.CluesRevealed, ErrNoMoreClues
	}
	r.CluesRevealed++
	return r.CluesRevealed, nil
}

func (m *MemoryStore) AddGuess(_ context.Context, g *Guess) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rounds[g.RoundID]
	if !ok {
		return ErrRoundNotFound
	}
	if !r.Active() {
		return ErrRoundClosed
	}
	for _, existing := range m.guesses[g.RoundID] {
		if existing.PlayerID == g.PlayerID {
			return ErrAlreadyGuessed
		}
	}
	m.guesses[g.RoundID] = append(m.guesses[g.RoundID], *g)
	return nil
}

func (m *MemoryStore) Guesses(_ context.Context, roundID uuid.UUID) ([]Guess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rounds[roundID]; !ok {
		return nil, ErrRoundNotFound
	}
	out := make([]Guess, len(m.guesses[roundID]))
	copy(out, m.guesses[roundID])
	return out, nil
}

func (m *MemoryStore) CloseRound(_ context.Context, id uuid.UUID, closedAt time.Time, score ScoreFunc) ([]Guess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	if !r.Active() {
		return nil, ErrRoundClosed
	}

	gs := m.guesses[id]
	for i := range gs {
		gs[i] = score(gs[i])
	}
	r.Status = StatusClosed
	r.ClosedAt = &closedAt
	if r.ChannelID != "" && m.active[r.ChannelID] == id {
		delete(m.active, r.ChannelID)
	}

	out := make([]Guess, len(gs))
	copy(out, gs)
	return out, nil
}

func (m *MemoryStore) ActiveRoundsBefore(_ context.Context, t time.Time) ([]*Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Round
	for _, r := range m.rounds {
		if r.Active() && r.CreatedAt.Before(t) {
			out = append(out, copyRound(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
