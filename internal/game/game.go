// Package game runs guessing rounds: a tweet is drawn, clues are revealed
// one by one, players click the map or send coordinates, and the reveal
// scores every guess against the tweet's location.
package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoundNotFound      = errors.New("round not found")
	ErrNoActiveRound      = errors.New("no active round in this channel")
	ErrRoundAlreadyActive = errors.New("a round is already active in this channel")
	ErrRoundClosed        = errors.New("round is closed")
	ErrAlreadyGuessed     = errors.New("player already guessed in this round")
	ErrNoMoreClues        = errors.New("all clues are revealed")
	ErrInvalidGuess       = errors.New("invalid guess")
)

// MaxClues is the number of clues of a tweet.
const MaxClues = 3

// Status is the lifecycle state of a round.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Guess sources.
const (
	SourceMap     = "map"
	SourceLatLng  = "latlng"
	SourceMapsURL = "maps_url"
)

// Round is one tweet to be guessed, in a channel or owned by a web player.
type Round struct {
	ID    uuid.UUID
	MapID string
	// ChannelID is the Discord channel of the round, empty for web rounds.
	ChannelID     string
	PlayerID      string
	TweetIndex    int
	CluesRevealed int
	Status        Status
	AnswerLat     float64
	AnswerLng     float64
	CreatedAt     time.Time
	ClosedAt      *time.Time
}

func (r *Round) Active() bool { return r.Status == StatusActive }

// Guess is a player's answer; Score and DistanceMeters are set on reveal.
type Guess struct {
	RoundID    uuid.UUID
	PlayerID   string
	PlayerName string
	Lat        float64
	Lng        float64
	// Actual image pixel of the click, set when HasPixel.
	PixelX   float64
	PixelY   float64
	HasPixel bool
	Source   string
	// Filled in on reveal.
	Score          int
	DistanceMeters float64
	CreatedAt      time.Time
}

// Clue is a revealed hint. Index is 1-based.
type Clue struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Text  string `json:"text"`
}
