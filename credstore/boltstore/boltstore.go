// Package boltstore is a durable credstore backend on top of bbolt, so a
// CLI session survives process restarts. bbolt holds an exclusive file
// lock, so cross-process change notification is out of reach here;
// within a process, handles of the same DB notify each other the same
// way memstore hub handles do.
package boltstore

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bookshelf-client/credstore"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("credentials")
	sessionKey = []byte("session")
)

// DB wraps an open bbolt database holding the credential bucket.
type DB struct {
	bolt   *bolt.DB
	mu     sync.Mutex
	stores map[string]*Store
}

// Open opens (creating if needed) the credential database at path.
func Open(path string) (*DB, error) {
	b, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] bolt.Open")
	}
	err = b.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = b.Close()
		return nil, errors.Wrap(err, "[boltstore.Open] create bucket")
	}
	return &DB{bolt: b, stores: make(map[string]*Store)}, nil
}

func (d *DB) Close() error {
	return d.bolt.Close()
}

// Store returns a new handle onto the database.
func (d *DB) Store() *Store {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &Store{db: d, id: uuid.New().String()}
	d.stores[s.id] = s
	return s
}

func (d *DB) notifyOthers(writer string) {
	d.mu.Lock()
	others := make([]*Store, 0, len(d.stores))
	for id, s := range d.stores {
		if id != writer {
			others = append(others, s)
		}
	}
	d.mu.Unlock()

	for _, s := range others {
		s.watchers.Notify()
	}
}

// Store is one handle's view of the credential database.
type Store struct {
	db       *DB
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
	err = s.db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(sessionKey, data)
	})
	if err != nil {
		return errors.Wrap(err, "[Store.Save] bolt.Update")
	}
	s.db.notifyOthers(s.id)
	return nil
}

func (s *Store) Load() (*session.Session, error) {
	var data []byte
	err := s.db.bolt.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(sessionKey); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Load] bolt.View")
	}
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
	err := s.db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(sessionKey)
	})
	if err != nil {
		return errors.Wrap(err, "[Store.Clear] bolt.Update")
	}
	s.db.notifyOthers(s.id)
	return nil
}

func (s *Store) Watch(fn func()) (cancel func()) {
	return s.watchers.Watch(fn)
}
