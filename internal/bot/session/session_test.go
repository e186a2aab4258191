package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"jobmarket-bot/internal/api/marketplace"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[int64]models.LinkedAccount
	loads    int
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[int64]models.LinkedAccount)}
}

func (m *memoryAccounts) GetAccount(_ context.Context, telegramID int64) (*models.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	acc, ok := m.accounts[telegramID]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *memoryAccounts) LinkAccount(_ context.Context, acc *models.LinkedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[acc.TelegramID] = *acc
	return nil
}

func (m *memoryAccounts) UnlinkAccount(_ context.Context, telegramID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.accounts, telegramID)
	return nil
}

func newTestRegistry(t *testing.T, handler http.HandlerFunc) (*Registry, *memoryAccounts) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	accounts := newMemoryAccounts()
	client := marketplace.New(srv.URL, 5*time.Second, zap.NewNop())

	return NewRegistry(client, accounts, store.Options{RejectStaleFetches: true}, zap.NewNop()), accounts
}

func TestRegistry_GetNotLinked(t *testing.T) {
	reg, _ := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := reg.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestRegistry_Link(t *testing.T) {
	reg, accounts := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"id":"r1","name":"Rae","role":"recruiter","status":"active"}`))
	})

	sess, err := reg.Link(context.Background(), 42, "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "r1", sess.UserID())
	assert.Equal(t, models.RoleRecruiter, sess.Role)
	assert.Equal(t, store.ScopeRecruiter, sess.Scope())
	require.NotNil(t, sess.Stores)

	stored, err := accounts.GetAccount(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "r1", stored.MarketplaceUserID)
	assert.Equal(t, "tok-1", stored.APIToken)
	assert.True(t, stored.NotifyEnabled)

	got, err := reg.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestRegistry_LinkRejectedToken(t *testing.T) {
	reg, accounts := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid token"}`))
	})

	_, err := reg.Link(context.Background(), 42, "bad")
	require.Error(t, err)

	var apiErr *marketplace.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Empty(t, accounts.accounts)
}

func TestRegistry_GetLoadsOnce(t *testing.T) {
	reg, accounts := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	accounts.accounts[7] = models.LinkedAccount{
		TelegramID:        7,
		MarketplaceUserID: "a1",
		Role:              string(models.RoleAdmin),
		APIToken:          "tok",
	}

	first, err := reg.Get(context.Background(), 7)
	require.NoError(t, err)
	second, err := reg.Get(context.Background(), 7)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, accounts.loads)
	assert.Equal(t, store.ScopeAdmin, first.Scope())
}

func TestRegistry_Unlink(t *testing.T) {
	reg, accounts := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","role":"user"}`))
	})

	_, err := reg.Link(context.Background(), 42, "tok")
	require.NoError(t, err)

	require.NoError(t, reg.Unlink(context.Background(), 42))

	_, err = reg.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotLinked)
	assert.Empty(t, accounts.accounts)
}

func TestSession_FetchByRole(t *testing.T) {
	tests := []struct {
		role     string
		jobsPath string
		appsPath string
	}{
		{"admin", "/jobs", "/applications"},
		{"recruiter", "/jobs/recruiter/x1", "/applications/recruiter/x1"},
		{"user", "/jobs/user", "/applications/user/x1"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			var paths []string
			var mu sync.Mutex

			reg, accounts := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				paths = append(paths, r.URL.Path)
				mu.Unlock()
				_, _ = w.Write([]byte(`[]`))
			})
			accounts.accounts[1] = models.LinkedAccount{TelegramID: 1, MarketplaceUserID: "x1", Role: tt.role}

			sess, err := reg.Get(context.Background(), 1)
			require.NoError(t, err)

			_, err = sess.FetchJobs(context.Background())
			require.NoError(t, err)
			_, err = sess.FetchApplications(context.Background())
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []string{tt.jobsPath, tt.appsPath}, paths)
		})
	}
}
