package cryptstore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-bookshelf-client/credstore/cryptstore"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "correct horse battery staple"

func testSession() *session.Session {
	return &session.Session{
		Token: "tok-789",
		User: session.User{
			ID:        9,
			FirstName: "Alan",
			LastName:  "Turing",
			Email:     "alan@example.com",
			Role:      session.RoleStudent,
		},
	}
}

func newTestStore(t *testing.T, path string) *cryptstore.Store {
	t.Helper()
	s, err := cryptstore.New(path, testPassphrase, cryptstore.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRoundTrip(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "creds"))

	want := testSession()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "creds"))

	got, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	store := newTestStore(t, path)

	require.NoError(t, store.Save(testSession()))
	require.NoError(t, store.Clear())

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
	require.NoError(t, store.Clear(), "clearing twice is a no-op")
}

// The file on disk must not contain the token in the clear.
func TestCiphertextAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	store := newTestStore(t, path)
	require.NoError(t, store.Save(testSession()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "tok-789")
	require.NotContains(t, string(raw), "alan@example.com")
}

// A wrong passphrase reads as an empty store, never as an error — and
// the file must survive, because the holder of the right passphrase can
// still open it.
func TestWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	store := newTestStore(t, path)
	require.NoError(t, store.Save(testSession()))

	other, err := cryptstore.New(path, "wrong passphrase")
	require.NoError(t, err)
	defer other.Close()

	got, err := other.Load()
	require.NoError(t, err)
	require.Nil(t, got)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "file must survive a wrong-passphrase read")

	got, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)
}

// A structurally corrupt file reads as empty and is removed, so the
// next load starts clean instead of tripping over the same garbage.
func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	store := newTestStore(t, path)
	require.NoError(t, os.WriteFile(path, []byte("not an envelope"), 0o600))

	got, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, got)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "corrupt file must be removed")
}

func TestEmptyPassphraseRejected(t *testing.T) {
	_, err := cryptstore.New(filepath.Join(t.TempDir(), "creds"), "")
	require.Error(t, err)
}

// Two stores on the same path model two processes; the poller must see
// the other writer's change, and a store must not be woken by its own
// writes.
func TestWatchSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	writer := newTestStore(t, path)
	reader := newTestStore(t, path)

	fired := make(chan struct{}, 4)
	defer reader.Watch(func() { fired <- struct{}{} })()

	require.NoError(t, writer.Save(testSession()))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not observe external write")
	}

	got, err := reader.Load()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)
}

func TestWatchIgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	store := newTestStore(t, path)

	fired := make(chan struct{}, 4)
	defer store.Watch(func() { fired <- struct{}{} })()

	require.NoError(t, store.Save(testSession()))

	select {
	case <-fired:
		t.Fatal("store notified itself of its own write")
	case <-time.After(100 * time.Millisecond):
	}
}
