package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sakif/portfolio/internal/apiclient"
	"github.com/sakif/portfolio/internal/apiclient/apitest"
	"github.com/sakif/portfolio/internal/model"
)

// =========================================================================
// MOCK KEY-VALUE STORE
// =========================================================================
//
// memStore stands in for sqlite/redis. failSet makes every write fail, which
// a real backend only does when the disk is full or the server is down.

type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newMemStore(seed map[string]string) *memStore {
	m := &memStore{data: map[string]string{}}
	for k, v := range seed {
		m.data[k] = v
	}
	return m
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// =========================================================================
// FIXTURE
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the real services to the fake API, exactly as main does.
type fixture struct {
	api      *apitest.Server
	client   *apiclient.Client
	store    *memStore
	notifier *NotificationService
	session  *SessionStore
}

var (
	adminUser = model.User{ID: 1, Name: "Admin", Role: model.RoleAdmin}
	plainUser = model.User{ID: 2, Name: "Ann", Role: model.RoleUser}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := apitest.New(t)
	api.AddUser("tok-admin", adminUser, "admin@example.com", "secret")
	api.AddUser("tok-user", plainUser, "ann@example.com", "hunter2")

	f := &fixture{
		api:      api,
		store:    newMemStore(nil),
		notifier: NewNotificationService(testLogger()),
	}
	t.Cleanup(f.notifier.Close)

	session, err := NewSessionStore(context.Background(), f.store, nil, f.notifier, testLogger())
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	f.session = session
	f.client = apiclient.New(api.BaseURL(), session, apiclient.WithLogger(testLogger()))
	f.session.api = f.client
	t.Cleanup(session.Close)

	return f
}

// loginAs establishes a session directly, skipping the login call.
func (f *fixture) loginAs(token string, user model.User) {
	f.session.SetSession(model.AuthResponse{Token: token, User: user, ExpiresIn: 3600000})
}

// messages returns the text of every live notification of type typ.
func (f *fixture) messages(typ model.NotificationType) []string {
	var out []string
	for _, n := range f.notifier.Notifications().Get() {
		if n.Type == typ {
			out = append(out, n.Message)
		}
	}
	return out
}
