package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/devaloi/picstream/internal/broker"
	"github.com/devaloi/picstream/internal/domain"
	"github.com/devaloi/picstream/internal/fanout"
)

// Conn is the interface the registry expects from a viewer connection.
type Conn interface {
	Send(data []byte)
}

// Registry tracks live viewer connections and their room memberships,
// and multiplexes broker deliveries to the matching connections.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
	conns map[Conn]map[string]struct{}

	svc    *fanout.Service
	events <-chan broker.Event
	unsub  func()
	log    zerolog.Logger
	quit   chan struct{}
}

// New creates a registry subscribed to the live pics topic.
func New(svc *fanout.Service, b broker.Broker, log zerolog.Logger) *Registry {
	events, unsub := b.Subscribe(fanout.TopicPics, 256)
	return &Registry{
		rooms:  make(map[string]map[Conn]struct{}),
		conns:  make(map[Conn]map[string]struct{}),
		svc:    svc,
		events: events,
		unsub:  unsub,
		log:    log,
		quit:   make(chan struct{}),
	}
}

// Run starts the dispatch loop. Should be called as a goroutine.
func (r *Registry) Run() {
	for {
		select {
		case e, ok := <-r.events:
			if !ok {
				return
			}
			r.dispatch(e)
		case <-r.quit:
			return
		}
	}
}

// Stop exits the dispatch loop, releases the broker subscription and
// drops all memberships.
func (r *Registry) Stop() {
	close(r.quit)
	r.unsub()
	r.mu.Lock()
	r.rooms = make(map[string]map[Conn]struct{})
	r.conns = make(map[Conn]map[string]struct{})
	r.mu.Unlock()
}

// Join replays the channel history to the connection, then registers it
// for live delivery. The replay snapshot is taken before registration,
// so an event published in between may be missed, or delivered twice if
// registration wins; there is no gap-closing or de-duplication. A repeat
// join of the same city re-replays but does not duplicate membership.
func (r *Registry) Join(c Conn, city string) {
	for _, pic := range r.svc.Replay(city) {
		data, err := domain.Encode(domain.PicMessage{Type: domain.MsgHistory, City: city, Pic: pic})
		if err != nil {
			r.log.Error().Err(err).Msg("encode history item")
			continue
		}
		c.Send(data)
	}

	r.mu.Lock()
	room, ok := r.rooms[city]
	if !ok {
		room = make(map[Conn]struct{})
		r.rooms[city] = room
		r.log.Info().Str("channel", city).Msg("channel opened")
	}
	room[c] = struct{}{}
	if r.conns[c] == nil {
		r.conns[c] = make(map[string]struct{})
	}
	r.conns[c][city] = struct{}{}
	r.mu.Unlock()

	r.log.Debug().Str("channel", city).Msg("viewer joined")
}

// Disconnect removes the connection from all rooms. Empty rooms are
// deleted inline.
func (r *Registry) Disconnect(c Conn) {
	r.mu.Lock()
	for city := range r.conns[c] {
		delete(r.rooms[city], c)
		if len(r.rooms[city]) == 0 {
			delete(r.rooms, city)
			r.log.Info().Str("channel", city).Msg("channel closed")
		}
	}
	delete(r.conns, c)
	r.mu.Unlock()
}

// ViewerCount returns the number of connections in a room.
func (r *Registry) ViewerCount(city string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[city])
}

// ListChannels returns info about all rooms with at least one viewer.
func (r *Registry) ListChannels() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]domain.Channel, 0, len(r.rooms))
	for city, room := range r.rooms {
		channels = append(channels, domain.Channel{
			Name:        city,
			ViewerCount: len(room),
		})
	}
	return channels
}

// ChannelInfo returns details about one channel, including its cached
// history length, or nil when the channel has no viewers and no history.
func (r *Registry) ChannelInfo(city string) *domain.Channel {
	r.mu.RLock()
	viewers := len(r.rooms[city])
	r.mu.RUnlock()

	cached := len(r.svc.Replay(city))
	if viewers == 0 && cached == 0 {
		return nil
	}
	return &domain.Channel{Name: city, ViewerCount: viewers, CachedPics: cached}
}

// dispatch delivers one live event to every connection in the city room
// and the universe room, at most once per connection.
func (r *Registry) dispatch(e broker.Event) {
	data, err := domain.Encode(domain.PicMessage{Type: domain.MsgPic, City: e.City, Pic: e.Pic})
	if err != nil {
		r.log.Error().Err(err).Msg("encode live item")
		return
	}

	r.mu.RLock()
	targets := make([]Conn, 0, len(r.rooms[e.City])+len(r.rooms[domain.Universe]))
	for c := range r.rooms[e.City] {
		targets = append(targets, c)
	}
	for c := range r.rooms[domain.Universe] {
		if _, ok := r.rooms[e.City][c]; ok {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Send(data)
	}
}
