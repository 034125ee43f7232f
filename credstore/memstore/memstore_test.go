package memstore_test

import (
	"testing"

	"github.com/jrsteele09/go-bookshelf-client/credstore/memstore"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/stretchr/testify/require"
)

func testSession() *session.Session {
	return &session.Session{
		Token: "tok-123",
		User: session.User{
			ID:        7,
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Role:      session.RoleStudent,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	store := memstore.NewHub().Open()

	want := testSession()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadEmpty(t *testing.T) {
	store := memstore.NewHub().Open()

	got, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClear(t *testing.T) {
	store := memstore.NewHub().Open()
	require.NoError(t, store.Save(testSession()))
	require.NoError(t, store.Clear())

	got, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.Clear(), "clearing an empty store is a no-op")
}

func TestSaveNil(t *testing.T) {
	store := memstore.NewHub().Open()
	require.Error(t, store.Save(nil))
}

// A write through one handle must notify watchers on every other handle
// of the hub, but never the writer's own.
func TestWatchAcrossHandles(t *testing.T) {
	hub := memstore.NewHub()
	writer := hub.Open()
	reader := hub.Open()

	var writerFired, readerFired int
	cancelWriter := writer.Watch(func() { writerFired++ })
	defer cancelWriter()
	cancelReader := reader.Watch(func() { readerFired++ })
	defer cancelReader()

	require.NoError(t, writer.Save(testSession()))
	require.Equal(t, 0, writerFired)
	require.Equal(t, 1, readerFired)

	got, err := reader.Load()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)

	require.NoError(t, writer.Clear())
	require.Equal(t, 2, readerFired)
}

func TestWatchCancel(t *testing.T) {
	hub := memstore.NewHub()
	writer := hub.Open()
	reader := hub.Open()

	var fired int
	cancel := reader.Watch(func() { fired++ })
	cancel()

	require.NoError(t, writer.Save(testSession()))
	require.Zero(t, fired)
}

func TestMultipleWatchers(t *testing.T) {
	hub := memstore.NewHub()
	writer := hub.Open()
	reader := hub.Open()

	var a, b int
	defer reader.Watch(func() { a++ })()
	defer reader.Watch(func() { b++ })()

	require.NoError(t, writer.Save(testSession()))
	require.Equal(t, 1, a)
	require.Equal(t, 1, b)
}
