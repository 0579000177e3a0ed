// Package fanout composes the history store and the broker: every
// accepted event is cached for its city and for the universe channel,
// then announced once on the live topic.
package fanout

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/devaloi/picstream/internal/broker"
	"github.com/devaloi/picstream/internal/domain"
	"github.com/devaloi/picstream/internal/store"
)

// TopicPics is the single broker topic carrying live events. Each event
// is tagged with its city; subscribers filter by room membership.
const TopicPics = "pics"

// Service wires the history store to the broker.
type Service struct {
	store  store.Store
	broker broker.Broker
	log    zerolog.Logger
}

// New creates a fan-out service.
func New(s store.Store, b broker.Broker, log zerolog.Logger) *Service {
	return &Service{store: s, broker: b, log: log}
}

// Publish caches the pic for the city and the universe channel, then
// emits one broker event. Fire-and-forget: store or broker failures are
// logged and never surface to the caller.
func (s *Service) Publish(city, pic string) {
	if err := s.store.Push(city, pic); err != nil {
		s.log.Error().Err(err).Str("channel", city).Msg("history push failed")
	}
	if err := s.store.Push(domain.Universe, pic); err != nil {
		s.log.Error().Err(err).Str("channel", domain.Universe).Msg("history push failed")
	}
	s.broker.Publish(TopicPics, broker.Event{City: city, Pic: pic, Time: time.Now().UTC()})
	s.log.Debug().Str("city", city).Msg("pic published")
}

// Replay returns the cached history for a channel, oldest first, for
// delivery to a newly joined connection. Read failures are logged and
// yield an empty replay.
func (s *Service) Replay(city string) []string {
	pics, err := s.store.Range(city)
	if err != nil {
		s.log.Error().Err(err).Str("channel", city).Msg("history read failed")
		return nil
	}
	return pics
}
