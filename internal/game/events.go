package game

import (
	"sync"

	"github.com/google/uuid"
)

type EventType string

const (
	EventGuess  EventType = "guess"
	EventClue   EventType = "clue"
	EventReveal EventType = "reveal"
)

// Event is published after a state change of a round.
type Event struct {
	Type     EventType
	RoundID  uuid.UUID
	PlayerID string
	Clue     *Clue
	Result   *Result
}

const subscriberBuffer = 16

type broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func (b *broker) init() {
	b.subs = make(map[int]chan Event)
}

// publish never blocks; slow subscribers miss events.
func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel receiving every round event and a function
// that unsubscribes and closes it.
func (s *Service) Subscribe() (<-chan Event, func()) {
	b := &s.events
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}
