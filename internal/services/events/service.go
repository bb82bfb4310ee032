// Package events provides the in-process pub/sub hub that feeds
// progress updates to WebSocket clients.
package events

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
)

const subscriberBuffer = 64

// Service implements EventService with buffered per-subscriber
// channels. Slow subscribers drop events instead of blocking the
// publisher.
type Service struct {
	mu          sync.Mutex
	subscribers map[int]chan interfaces.Event
	nextID      int
	logger      arbor.ILogger
}

// NewService creates an event hub.
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[int]chan interfaces.Event),
		logger:      logger,
	}
}

// Publish fans an event out to every subscriber.
func (s *Service) Publish(eventType string, payload interface{}) {
	event := interfaces.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Debug().
				Int("subscriber", id).
				Str("event", eventType).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel.
func (s *Service) Subscribe() (<-chan interfaces.Event, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan interfaces.Event, subscriberBuffer)
	s.subscribers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}
