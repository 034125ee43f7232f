// Package memstore is an in-memory credstore backend. A Hub models the
// browser origin's shared storage; each Open call hands out a Store that
// behaves like one tab's view of it. Saving or clearing through one
// store notifies watchers registered on every other store of the same
// hub, which is how a logout in one tab reaches the rest.
package memstore

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bookshelf-client/credstore"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/pkg/errors"
)

// Hub holds the serialized session shared by all of its stores.
type Hub struct {
	mu     sync.RWMutex
	data   []byte // nil when empty
	stores map[string]*Store
}

func NewHub() *Hub {
	return &Hub{stores: make(map[string]*Store)}
}

// Open returns a new handle onto the hub.
func (h *Hub) Open() *Store {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Store{hub: h, id: uuid.New().String()}
	h.stores[s.id] = s
	return s
}

func (h *Hub) set(data []byte, writer string) {
	h.mu.Lock()
	h.data = data
	others := make([]*Store, 0, len(h.stores))
	for id, s := range h.stores {
		if id != writer {
			others = append(others, s)
		}
	}
	h.mu.Unlock()

	for _, s := range others {
		s.watchers.Notify()
	}
}

// Store is one handle's view of the hub.
type Store struct {
	hub      *Hub
	id       string
	watchers credstore.Broadcaster
}

var _ credstore.Store = (*Store)(nil)

func (s *Store) Save(sess *session.Session) error {
	if sess == nil {
		return errors.New("[Store.Save] nil session")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] json.Marshal")
	}
	s.hub.set(data, s.id)
	return nil
}

func (s *Store) Load() (*session.Session, error) {
	s.hub.mu.RLock()
	data := s.hub.data
	s.hub.mu.RUnlock()

	if len(data) == 0 {
		return nil, nil
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// Unparseable contents read as empty and are removed so the
		// next reader starts clean.
		_ = s.Clear()
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Clear() error {
	s.hub.set(nil, s.id)
	return nil
}

func (s *Store) Watch(fn func()) (cancel func()) {
	return s.watchers.Watch(fn)
}
