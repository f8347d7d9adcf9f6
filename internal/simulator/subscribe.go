package simulator

import (
	"sync"

	"smartclassroom/internal/models"
)

// Subscribe returns a channel receiving the snapshot produced by every tick.
// Delivery never blocks the tick: when the channel buffer is full the
// snapshot is dropped for that subscriber. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (s *Store) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.Snapshot, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(snap models.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.logger.Debug("subscriber lagging, snapshot dropped")
		}
	}
}
