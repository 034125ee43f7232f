package apifakes

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/session"
)

var _ authapi.Service = (*FakeService)(nil)

// FakeService is a scripted authapi.Service for tests. Each operation
// delegates to its Fn field when set; otherwise it behaves like an
// endpoint that knows nothing about the caller.
type FakeService struct {
	LoginFn    func(ctx context.Context, email, password string) (*session.Session, error)
	LogoutFn   func(ctx context.Context, token string) error
	ValidateFn func(ctx context.Context, token string) (*session.User, error)
	RoleFn     func(ctx context.Context, token string) (session.Role, error)

	// LoginGate and ValidateGate, when non-nil, block the operation
	// after it has been invoked until the gate is closed (or the
	// context ends). Used to hold a call in flight while the test
	// races other operations against it.
	LoginGate    chan struct{}
	ValidateGate chan struct{}

	mu            sync.Mutex
	loginCalls    int
	logoutCalls   int
	validateCalls int
	roleCalls     int
}

func NewFakeService() *FakeService {
	return &FakeService{}
}

func (f *FakeService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	f.mu.Lock()
	f.loginCalls++
	gate := f.LoginGate
	fn := f.LoginFn
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &authapi.TransportError{Err: ctx.Err()}
		}
	}
	if fn != nil {
		return fn(ctx, email, password)
	}
	return nil, &authapi.RejectedError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
}

func (f *FakeService) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.logoutCalls++
	fn := f.LogoutFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	return nil
}

func (f *FakeService) ValidateSession(ctx context.Context, token string) (*session.User, error) {
	f.mu.Lock()
	f.validateCalls++
	gate := f.ValidateGate
	fn := f.ValidateFn
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &authapi.TransportError{Err: ctx.Err()}
		}
	}
	if fn != nil {
		return fn(ctx, token)
	}
	return nil, &authapi.RejectedError{StatusCode: http.StatusUnauthorized, Message: "session expired"}
}

func (f *FakeService) Role(ctx context.Context, token string) (session.Role, error) {
	f.mu.Lock()
	f.roleCalls++
	fn := f.RoleFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	return "", &authapi.RejectedError{StatusCode: http.StatusUnauthorized, Message: "session expired"}
}

func (f *FakeService) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

func (f *FakeService) LogoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCalls
}

func (f *FakeService) ValidateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateCalls
}
