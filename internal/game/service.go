package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/susu3304/tweetguessr/internal/geoscore"
	"github.com/susu3304/tweetguessr/internal/mapproj"
	"github.com/susu3304/tweetguessr/internal/maps"
	"github.com/susu3304/tweetguessr/internal/tweets"
)

// Service runs rounds on top of a Store.
type Service struct {
	store   Store
	maps    *maps.Registry
	catalog *tweets.Catalog
	log     logrus.FieldLogger
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	events broker
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand replaces the tweet picker's random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a Service drawing tweets from catalog.
func NewService(store Store, registry *maps.Registry, catalog *tweets.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		maps:    registry,
		catalog: catalog,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events.init()
	return s
}

type StartRequest struct {
	// MapID defaults to maps.DefaultMapID.
	MapID     string
	ChannelID string
	PlayerID  string
}

// StartRound draws a random tweet and opens a round on it.
func (s *Service) StartRound(ctx context.Context, req StartRequest) (*Round, error) {
	if req.MapID == "" {
		req.MapID = maps.DefaultMapID
	}
	if _, err := s.maps.Get(req.MapID); err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	idx, tweet, err := s.catalog.Random(s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	r := &Round{
		ID:         uuid.New(),
		MapID:      req.MapID,
		ChannelID:  req.ChannelID,
		PlayerID:   req.PlayerID,
		TweetIndex: idx,
		Status:     StatusActive,
		AnswerLat:  tweet.Lat,
		AnswerLng:  tweet.Lon,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateRound(ctx, r); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"round":   r.ID,
		"map":     r.MapID,
		"channel": r.ChannelID,
		"tweet":   idx,
	}).Info("Round started")
	return r, nil
}

func (s *Service) Round(ctx context.Context, id uuid.UUID) (*Round, error) {
	return s.store.GetRound(ctx, id)
}

func (s *Service) ActiveRound(ctx context.Context, channelID string) (*Round, error) {
	return s.store.ActiveRound(ctx, channelID)
}

// Tweet returns the tweet a round was drawn from.
func (s *Service) Tweet(r *Round) (tweets.Tweet, error) {
	return s.catalog.Get(r.TweetIndex)
}

// Map returns the map a round is played on.
func (s *Service) Map(r *Round) (maps.Map, error) {
	return s.maps.Get(r.MapID)
}

// Clues returns the clues revealed so far.
func (s *Service) Clues(r *Round) ([]Clue, error) {
	t, err := s.Tweet(r)
	if err != nil {
		return nil, err
	}
	all := t.Clues()
	out := make([]Clue, 0, r.CluesRevealed)
	for i := 0; i < r.CluesRevealed && i < len(all); i++ {
		out = append(out, Clue{Index: i + 1, Total: MaxClues, Text: all[i]})
	}
	return out, nil
}

// RevealClue reveals the next clue: city, then department, then province.
func (s *Service) RevealClue(ctx context.Context, id uuid.UUID) (Clue, error) {
	r, err := s.store.GetRound(ctx, id)
	if err != nil {
		return Clue{}, err
	}
	t, err := s.Tweet(r)
	if err != nil {
		return Clue{}, err
	}
	n, err := s.store.RevealClue(ctx, id, MaxClues)
	if err != nil {
		return Clue{}, err
	}
	clue := Clue{Index: n, Total: MaxClues, Text: t.Clues()[n-1]}
	s.events.publish(Event{Type: EventClue, RoundID: id, Clue: &clue})
	return clue, nil
}

// Click is a click on the displayed map image in browser pixels.
type Click struct {
	BrowserX        float64
	BrowserY        float64
	DisplayedWidth  float64
	DisplayedHeight float64
	// Natural size of the image file; zero uses the map's configured size.
	NaturalWidth  float64
	NaturalHeight float64
}

// GuessPixel converts a map click to coordinates and records it.
func (s *Service) GuessPixel(ctx context.Context, id uuid.UUID, player, name string, c Click) (*Guess, error) {
	r, err := s.store.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.maps.Get(r.MapID)
	if err != nil {
		return nil, err
	}

	natW, natH := c.NaturalWidth, c.NaturalHeight
	if natW <= 0 || natH <= 0 {
		natW, natH = float64(m.Width), float64(m.Height)
	}
	scale, err := mapproj.NewImageScale(natW, natH, c.DisplayedWidth, c.DisplayedHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGuess, err)
	}
	if c.BrowserX < 0 || c.BrowserY < 0 || c.BrowserX > c.DisplayedWidth || c.BrowserY > c.DisplayedHeight {
		return nil, fmt.Errorf("%w: click outside the image", ErrInvalidGuess)
	}

	px, py := scale.ToActual(c.BrowserX, c.BrowserY)
	geo := mapproj.Unproject(px, py, m.Projection())
	g := &Guess{
		RoundID:    id,
		PlayerID:   player,
		PlayerName: name,
		Lat:        geo.Latitude,
		Lng:        geo.Longitude,
		PixelX:     px,
		PixelY:     py,
		HasPixel:   true,
		Source:     SourceMap,
	}
	return g, s.addGuess(ctx, g)
}

// GuessLatLng records a guess given directly as coordinates.
func (s *Service) GuessLatLng(ctx context.Context, id uuid.UUID, player, name string, lat, lng float64, source string) (*Guess, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidGuess)
	}
	if source == "" {
		source = SourceLatLng
	}
	g := &Guess{
		RoundID:    id,
		PlayerID:   player,
		PlayerName: name,
		Lat:        lat,
		Lng:        lng,
		Source:     source,
	}
	return g, s.addGuess(ctx, g)
}

func (s *Service) addGuess(ctx context.Context, g *Guess) error {
	g.CreatedAt = s.now()
	if err := s.store.AddGuess(ctx, g); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"round":  g.RoundID,
		"player": g.PlayerID,
		"source": g.Source,
	}).Debug("Guess recorded")
	s.events.publish(Event{Type: EventGuess, RoundID: g.RoundID, PlayerID: g.PlayerID})
	return nil
}

// Reveal closes a round and scores its guesses. Revealing a closed round
// returns the stored result.
func (s *Service) Reveal(ctx context.Context, id uuid.UUID) (*Result, error) {
	r, err := s.store.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.maps.Get(r.MapID)
	if err != nil {
		return nil, err
	}

	if !r.Active() {
		guesses, err := s.store.Guesses(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.result(r, m, guesses), nil
	}

	maxErr := m.MaxErrorMeters()
	closedAt := s.now()
	guesses, err := s.store.CloseRound(ctx, id, closedAt, func(g Guess) Guess {
		g.DistanceMeters = geoscore.DistanceKm(r.AnswerLat, r.AnswerLng, g.Lat, g.Lng) * 1000
		g.Score = geoscore.ScoreForDistance(g.DistanceMeters, maxErr)
		return g
	})
	if errors.Is(err, ErrRoundClosed) {
		// Closed concurrently; the stored result is final.
		return s.Reveal(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	r.Status = StatusClosed
	r.ClosedAt = &closedAt
	res := s.result(r, m, guesses)
	s.log.WithFields(logrus.Fields{
		"round":   r.ID,
		"guesses": len(guesses),
	}).Info("Round revealed")
	s.events.publish(Event{Type: EventReveal, RoundID: id, Result: res})
	return res, nil
}

// ExpireStale reveals active rounds older than olderThan.
func (s *Service) ExpireStale(ctx context.Context, olderThan time.Duration) ([]*Result, error) {
	stale, err := s.store.ActiveRoundsBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	var (
		out  []*Result
		errs []error
	)
	for _, r := range stale {
		res, err := s.Reveal(ctx, r.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("round %s: %w", r.ID, err))
			continue
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}

// ScoredGuess is a guess in a result with its marker on the map image.
type ScoredGuess struct {
	Guess
	Rank   int
	Marker mapproj.PixelResult
}

// Result is the outcome of a revealed round.
type Result struct {
	Round  *Round
	Tweet  tweets.Tweet
	MapID  string
	Answer mapproj.PixelResult
	// Guesses ordered by score, best first.
	Guesses        []ScoredGuess
	MaxErrorMeters float64
}

func (s *Service) result(r *Round, m maps.Map, guesses []Guess) *Result {
	cfg := m.Projection()
	t, err := s.catalog.Get(r.TweetIndex)
	if err != nil {
		s.log.WithError(err).WithField("round", r.ID).Warn("Tweet of round is missing from catalog")
		t = tweets.Tweet{Lat: r.AnswerLat, Lon: r.AnswerLng}
	}

	res := &Result{
		Round:          r,
		Tweet:          t,
		MapID:          m.ID,
		Answer:         mapproj.Project(r.AnswerLat, r.AnswerLng, cfg),
		Guesses:        make([]ScoredGuess, 0, len(guesses)),
		MaxErrorMeters: m.MaxErrorMeters(),
	}
	for _, g := range guesses {
		sg := ScoredGuess{Guess: g}
		if g.HasPixel {
			sg.Marker = mapproj.PixelResult{X: g.PixelX, Y: g.PixelY}
		} else {
			sg.Marker = mapproj.Project(g.Lat, g.Lng, cfg)
		}
		res.Guesses = append(res.Guesses, sg)
	}
	sort.SliceStable(res.Guesses, func(i, j int) bool {
		a, b := res.Guesses[i], res.Guesses[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.DistanceMeters < b.DistanceMeters
	})
	for i := range res.Guesses {
		res.Guesses[i].Rank = i + 1
	}
	return res
}
