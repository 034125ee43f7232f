// Package cryptstore is a file-backed credstore backend that seals the
// serialized session at rest. The key is derived from a passphrase with
// scrypt and the payload sealed with XChaCha20-Poly1305, so a stolen
// credential file alone does not yield a usable bearer token.
//
// The file is shared plain filesystem state, so external changes are
// detected by polling: a background ticker hashes the file and fires
// watchers when the digest moves under someone else's pen.
package cryptstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrsteele09/go-bookshelf-client/credstore"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	defaultPollInterval = 500 * time.Millisecond

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// envelope is the on-disk layout. A fresh salt and nonce are generated
// on every save.
type envelope struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

type Store struct {
	path         string
	passphrase   []byte
	pollInterval time.Duration

	mu         sync.Mutex
	lastDigest [sha256.Size]byte
	pollOnce   sync.Once
	stopCh     chan struct{}
	stopOnce   sync.Once

	watchers credstore.Broadcaster
}

var _ credstore.Store = (*Store)(nil)

type Option func(*Store)

// WithPollInterval overrides how often the watcher checks the file for
// external changes.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		s.pollInterval = d
	}
}

// New creates a store persisting to path, sealed with passphrase.
func New(path, passphrase string, options ...Option) (*Store, error) {
	if passphrase == "" {
		return nil, errors.New("[cryptstore.New] passphrase is required")
	}
	s := &Store{
		path:         path,
		passphrase:   []byte(passphrase),
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.lastDigest = s.digest()
	return s, nil
}

// Close stops the change poller, if one was started.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Store) Save(sess *session.Session) error {
	if sess == nil {
		return errors.New("[Store.Save] nil session")
	}
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] json.Marshal")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(err, "[Store.Save] rand salt")
	}
	key, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] scrypt.Key")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] chacha20poly1305.NewX")
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "[Store.Save] rand nonce")
	}

	raw, err := json.Marshal(envelope{
		Version: 1,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal envelope")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, raw); err != nil {
		return errors.Wrap(err, "[Store.Save] write")
	}
	s.lastDigest = sha256.Sum256(raw)
	return nil
}

func (s *Store) Load() (*session.Session, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Load] read file")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Structurally corrupt files are removed so the next reader
		// starts clean.
		_ = s.Clear()
		return nil, nil
	}
	key, err := scrypt.Key(s.passphrase, env.Salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, nil
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX {
		_ = s.Clear()
		return nil, nil
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		// Indistinguishable from a wrong passphrase, so the file is
		// kept: another reader holding the right one can still open it.
		return nil, nil
	}
	var sess session.Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		_ = s.Clear()
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[Store.Clear] remove")
	}
	s.lastDigest = sha256.Sum256(nil)
	return nil
}

func (s *Store) Watch(fn func()) (cancel func()) {
	s.pollOnce.Do(func() { go s.pollLoop() })
	return s.watchers.Watch(fn)
}

func (s *Store) pollLoop() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// Digest under the lock so a save in progress cannot be
			// misread as an external change.
			s.mu.Lock()
			d := s.digest()
			changed := d != s.lastDigest
			if changed {
				s.lastDigest = d
			}
			s.mu.Unlock()
			if changed {
				s.watchers.Notify()
			}
		}
	}
}

// digest hashes the current file contents; a missing file hashes as
// empty, so create and delete both register as changes.
func (s *Store) digest() [sha256.Size]byte {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		raw = nil
	}
	return sha256.Sum256(raw)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".credstore-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
