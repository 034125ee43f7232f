package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/catalog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testToken = "t1"

// newCatalogServer scripts the book endpoints, requiring the bearer
// token on the authenticated ones.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	books := sampleBooks()
	library := []catalog.Book{books[0]}

	requireAuth := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "session expired"})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/search.php", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		matches := make([]catalog.Book, 0, len(books))
		for _, b := range books {
			if q == "" || b.Title == q || b.Author == q {
				matches = append(matches, b)
			}
		}
		_ = json.NewEncoder(w).Encode(matches)
	})
	mux.HandleFunc("GET /books/get-books.php", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		require.NoError(t, err)
		for _, b := range books {
			if b.ID == id {
				_ = json.NewEncoder(w).Encode(b)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "book not found"})
	})
	mux.HandleFunc("POST /books/add.php", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		var book catalog.Book
		require.NoError(t, json.NewDecoder(r.Body).Decode(&book))
		book.ID = 42
		_ = json.NewEncoder(w).Encode(book)
	})
	mux.HandleFunc("POST /books/delete-book.php", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /books/get-library.php", func(w http.ResponseWriter, r *http.Request) {
		if !requireAuth(w, r) {
			return
		}
		_ = json.NewEncoder(w).Encode(library)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) *catalog.Client {
	t.Helper()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: testToken, TokenType: "Bearer"})
	return catalog.NewClient(newCatalogServer(t).URL, ts)
}

func TestSearchAll(t *testing.T) {
	client := newTestClient(t)

	books, err := client.Search(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, books, 3)
}

func TestSearchQuery(t *testing.T) {
	client := newTestClient(t)

	books, err := client.Search(context.Background(), "Orwell")
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "Animal Farm", books[0].Title)
}

func TestGet(t *testing.T) {
	client := newTestClient(t)

	book, err := client.Get(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "Brave New World", book.Title)
}

func TestGetNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Get(context.Background(), 99)
	require.True(t, authapi.IsRejected(err))
	require.EqualError(t, err, "book not found")
}

func TestAdd(t *testing.T) {
	client := newTestClient(t)

	created, err := client.Add(context.Background(), &catalog.Book{Title: "Dune", Author: "Herbert"})
	require.NoError(t, err)
	require.Equal(t, int64(42), created.ID)
	require.Equal(t, "Dune", created.Title)
}

func TestDelete(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Delete(context.Background(), 2))
}

func TestLibrary(t *testing.T) {
	client := newTestClient(t)

	books, err := client.Library(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
}

func TestInLibrary(t *testing.T) {
	client := newTestClient(t)

	in, err := client.InLibrary(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, in)

	in, err = client.InLibrary(context.Background(), 3)
	require.NoError(t, err)
	require.False(t, in)
}

// Authenticated endpoints answer 401 to a stale token; the client must
// surface that as the session-expired signal, not a generic failure.
func TestStaleTokenReportsUnauthorized(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "stale", TokenType: "Bearer"})
	client := catalog.NewClient(newCatalogServer(t).URL, ts)

	_, err := client.Library(context.Background())
	require.True(t, authapi.IsUnauthorized(err))
}

// An anonymous client can still browse the public catalog.
func TestAnonymousSearch(t *testing.T) {
	client := catalog.NewClient(newCatalogServer(t).URL, nil)

	books, err := client.Search(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, books, 3)
}
