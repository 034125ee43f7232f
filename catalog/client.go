package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	routeSearch        = "/books/search.php"
	routeGet           = "/books/get-books.php"
	routeAdd           = "/books/add.php"
	routeUpdate        = "/books/update-book.php"
	routeDelete        = "/books/delete-book.php"
	routeLibrary       = "/books/get-library.php"
	routeLibraryAdd    = "/books/my-library.php"
	routeLibraryRemove = "/books/remove-from-library.php"

	defaultTimeout = 10 * time.Second
)

// Client calls the book endpoints. Authenticated calls carry the bearer
// token through the oauth2 transport; a nil token source gives an
// anonymous client limited to public browsing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(baseURL string, ts oauth2.TokenSource, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		log:        zerolog.Nop(),
	}
	if ts != nil {
		c.httpClient = oauth2.NewClient(context.Background(), ts)
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Search returns the books matching query; an empty query returns the
// whole catalog.
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	route := routeSearch
	if query != "" {
		route += "?q=" + url.QueryEscape(query)
	}
	body, err := c.do(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooks(body)
}

func (c *Client) Get(ctx context.Context, id int64) (*Book, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s?id=%d", routeGet, id), nil)
	if err != nil {
		return nil, err
	}
	var book Book
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, &authapi.MalformedResponseError{Err: err}
	}
	return &book, nil
}

// Add creates a catalog entry. Teacher role required; the server
// enforces it and a 403 comes back as a RejectedError.
func (c *Client) Add(ctx context.Context, book *Book) (*Book, error) {
	if book == nil {
		return nil, errors.New("[Client.Add] nil book")
	}
	body, err := c.do(ctx, http.MethodPost, routeAdd, book)
	if err != nil {
		return nil, err
	}
	created := *book
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &authapi.MalformedResponseError{Err: err}
	}
	return &created, nil
}

func (c *Client) Update(ctx context.Context, book *Book) error {
	if book == nil || book.ID == 0 {
		return errors.New("[Client.Update] book with id is required")
	}
	_, err := c.do(ctx, http.MethodPost, routeUpdate, book)
	return err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, routeDelete, map[string]int64{"id": id})
	return err
}

// Library returns the current user's saved books.
func (c *Client) Library(ctx context.Context) ([]Book, error) {
	body, err := c.do(ctx, http.MethodGet, routeLibrary, nil)
	if err != nil {
		return nil, err
	}
	return decodeBooks(body)
}

func (c *Client) AddToLibrary(ctx context.Context, book *Book) error {
	if book == nil {
		return errors.New("[Client.AddToLibrary] nil book")
	}
	_, err := c.do(ctx, http.MethodPost, routeLibraryAdd, book)
	return err
}

func (c *Client) RemoveFromLibrary(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, routeLibraryRemove, map[string]int64{"id": id})
	return err
}

// InLibrary reports whether the book is in the user's library. The
// backend has no membership endpoint, so this scans the library list.
func (c *Client) InLibrary(ctx context.Context, id int64) (bool, error) {
	books, err := c.Library(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range books {
		if b.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// do issues one request; non-2xx responses map to the authapi error
// taxonomy so a 401 anywhere triggers the same session-expired handling
// as the auth endpoints.
func (c *Client) do(ctx context.Context, method, route string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.do] marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.do] build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("route", route).Msg("catalog endpoint unreachable")
		return nil, &authapi.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &authapi.TransportError{Err: err}
	}
	if err := authapi.ClassifyStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func decodeBooks(body []byte) ([]Book, error) {
	var books []Book
	if err := json.Unmarshal(body, &books); err != nil {
		return nil, &authapi.MalformedResponseError{Err: err}
	}
	return books, nil
}
