// Package auth is the single source of truth for who the current actor
// is and what they may do. It owns the credential store: login, logout
// and revalidation are the only writers, and every auth-dependent view
// subscribes here rather than reading storage directly.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/credstore"
	"github.com/jrsteele09/go-bookshelf-client/internal/utils"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is the auth machine's position. Authenticated and Anonymous are
// both re-enterable; the machine cycles between them for the lifetime
// of the process.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Core is the client-side authentication state machine.
//
// Revalidation is fail-closed: any failure to confirm the session —
// explicit rejection, transport failure or malformed response — ends it
// and clears the store. One policy, one code path.
type Core struct {
	api     authapi.Service
	store   credstore.Store
	log     zerolog.Logger
	nowTime func() time.Time

	mu            sync.Mutex
	state         State
	session       *session.Session
	lastErr       error
	opSeq         uint64 // bumped per state-affecting operation; stale responses are discarded
	loginInFlight bool
	subscribers   map[string]func(State)
	cancelWatch   func()
}

// Option modifies a Core at construction.
type Option func(*Core)

func WithLogger(log zerolog.Logger) Option {
	return func(c *Core) {
		c.log = log
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Core) {
		c.nowTime = nowFunc
	}
}

// New creates a Core over the remote endpoint and credential store.
func New(api authapi.Service, store credstore.Store, options ...Option) (*Core, error) {
	if api == nil {
		return nil, errors.New("[auth.New] api service is required")
	}
	if store == nil {
		return nil, errors.New("[auth.New] credential store is required")
	}

	c := &Core{
		api:         api,
		store:       store,
		log:         zerolog.Nop(),
		nowTime:     time.Now,
		state:       StateUninitialized,
		subscribers: make(map[string]func(State)),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Initialize resolves the startup state from the credential store. It
// always lands on a determinate state: a consistent stored session means
// Authenticated, everything else — empty, partial, unparseable or
// locally expired — means Anonymous with the store cleared. Runs once.
func (c *Core) Initialize() error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.state = StateLoading
	c.mu.Unlock()

	sess, loadErr := c.store.Load()
	stale := loadErr == nil && sess.Consistent() && tokenExpired(sess.Token, c.nowTime())

	c.mu.Lock()
	if loadErr == nil && sess.Consistent() && !stale {
		c.session = sess
		c.state = StateAuthenticated
	} else {
		c.session = nil
		c.state = StateAnonymous
	}
	state := c.state
	c.mu.Unlock()

	if state == StateAnonymous && (loadErr != nil || sess != nil || stale) {
		if err := c.store.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("could not clear stale credentials")
		}
	}

	c.cancelWatch = c.store.Watch(c.reconcile)
	c.notify(state)
	c.log.Info().Str("state", string(state)).Msg("auth core initialized")
	return nil
}

// Close cancels the store subscription.
func (c *Core) Close() {
	if c.cancelWatch != nil {
		c.cancelWatch()
	}
}

// Login exchanges credentials for a session. On failure nothing is
// mutated and the endpoint's reason is returned; on success the session
// is persisted before the transition so the store and the in-memory
// state never disagree. A logout racing this call wins: the login
// response is discarded and ErrSuperseded returned.
func (c *Core) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingCredentials
	}

	c.mu.Lock()
	if c.state == StateUninitialized || c.state == StateLoading {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if c.loginInFlight {
		c.mu.Unlock()
		return ErrLoginInFlight
	}
	c.loginInFlight = true
	c.opSeq++
	seq := c.opSeq
	c.mu.Unlock()

	sess, err := c.api.Login(ctx, email, password)

	c.mu.Lock()
	c.loginInFlight = false
	if c.opSeq != seq {
		c.mu.Unlock()
		c.log.Debug().Msg("login response discarded: superseded")
		return ErrSuperseded
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	if !sess.Consistent() {
		err := &authapi.MalformedResponseError{Err: errors.New("login response missing token or user")}
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	if err := c.store.Save(sess); err != nil {
		err = errors.Wrap(err, "[Core.Login] store.Save")
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	c.session = sess
	c.state = StateAuthenticated
	c.lastErr = nil
	c.mu.Unlock()

	c.notify(StateAuthenticated)
	c.log.Info().Str("email", sess.User.Email).Str("role", string(sess.User.Role)).Msg("logged in")
	return nil
}

// Logout ends the session unconditionally and never fails from the
// caller's perspective. It is authoritative over any operation still in
// flight. The server-side notification is best-effort.
func (c *Core) Logout(ctx context.Context) {
	c.mu.Lock()
	token := utils.Deref(c.session).Token
	c.opSeq++
	c.session = nil
	c.state = StateAnonymous
	c.lastErr = nil
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("could not clear credential store on logout")
	}
	c.notify(StateAnonymous)

	if token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			c.log.Debug().Err(err).Msg("server logout notification failed")
		}
	}
	c.log.Info().Msg("logged out")
}

// RefreshSession revalidates the stored token against the endpoint.
// Fail-closed: rejection, transport failure and malformed response all
// end the session. On success the stored profile is refreshed. A no-op
// when anonymous.
func (c *Core) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return nil
	}
	token := c.session.Token
	c.opSeq++
	seq := c.opSeq
	c.mu.Unlock()

	user, err := c.api.ValidateSession(ctx, token)

	c.mu.Lock()
	if c.opSeq != seq {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		c.session = nil
		c.state = StateAnonymous
		if authapi.IsRejected(err) {
			err = ErrSessionExpired
		}
		c.lastErr = err
		c.mu.Unlock()

		if cerr := c.store.Clear(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("could not clear credential store after failed revalidation")
		}
		c.notify(StateAnonymous)
		c.log.Info().Err(err).Msg("session revalidation failed, logged out")
		return err
	}

	c.session.User = *user
	sess := *c.session
	c.lastErr = nil
	c.mu.Unlock()

	if err := c.store.Save(&sess); err != nil {
		c.log.Warn().Err(err).Msg("could not persist refreshed profile")
	}
	c.notify(StateAuthenticated)
	return nil
}

// IsAuthenticated reports whether the current state is Authenticated.
func (c *Core) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticated
}

// RoleIs reports whether the actor is authenticated with the given role.
func (c *Core) RoleIs(role session.Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticated && utils.Deref(c.session).User.Role == role
}

// CurrentUser returns a copy of the authenticated profile, or nil.
func (c *Core) CurrentUser() *session.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

// Token returns the current bearer token, empty when anonymous.
func (c *Core) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return utils.Deref(c.session).Token
}

func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent operation failure. It is cleared by
// any successful transition and by logout.
func (c *Core) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LoginInFlight reports whether a login call is outstanding, letting
// the view layer disable the submit affordance.
func (c *Core) LoginInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginInFlight
}

// Subscribe registers fn to run after every settled state transition,
// including those caused by other tabs mutating the store. The returned
// function cancels the subscription.
func (c *Core) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// reconcile re-reads the store after an external change and applies its
// truth. This is how a logout in one tab lands in every other tab.
func (c *Core) reconcile() {
	c.mu.Lock()
	if c.state == StateUninitialized || c.state == StateLoading {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	sess, err := c.store.Load()

	c.mu.Lock()
	var changed bool
	if err != nil || !sess.Consistent() {
		changed = c.state != StateAnonymous
		c.session = nil
		c.state = StateAnonymous
	} else {
		changed = c.state != StateAuthenticated ||
			c.session.Token != sess.Token || c.session.User != sess.User
		c.session = sess
		c.state = StateAuthenticated
	}
	if changed {
		// The other tab's transition is authoritative, like a local
		// logout: any operation still in flight here is stale now.
		c.opSeq++
	}
	state := c.state
	c.mu.Unlock()

	if err == nil && sess != nil && !sess.Consistent() {
		if cerr := c.store.Clear(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("could not clear inconsistent credentials")
		}
	}
	if changed {
		c.log.Debug().Str("state", string(state)).Msg("external store change applied")
		c.notify(state)
	}
}

func (c *Core) notify(state State) {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// tokenExpired performs a best-effort local expiry check. Tokens that
// are JWTs with an exp claim in the past are stale without asking the
// server; opaque tokens pass through untouched.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
