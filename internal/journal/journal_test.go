package journal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/store"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	s, err := store.New(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	repo, err := NewRepository(context.Background(), s)
	require.NoError(t, err)
	return repo
}

func entry(id, iface string, at time.Time, ok bool) Entry {
	return Entry{
		ID:         id,
		Operation:  "set",
		Interface:  iface,
		Servers:    []string{"1.1.1.1", "9.9.9.9"},
		DohEnabled: true,
		Template:   "https://dns.example/dns-query",
		Success:    ok,
		Message:    "Done",
		StartedAt:  at,
		FinishedAt: at.Add(1500 * time.Millisecond),
	}
}

func TestRepository_RecordAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, entry("a", "Ethernet", at, true)))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1", "9.9.9.9"}, got.Servers)
	assert.True(t, got.Success)
	assert.True(t, got.DohEnabled)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.True(t, got.StartedAt.Equal(at))

	_, err = repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_RecordDuplicateID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	e := entry("dup", "Ethernet", time.Now(), true)
	require.NoError(t, repo.Record(ctx, e))
	assert.Error(t, repo.Record(ctx, e))
}

func TestRepository_List(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, entry("1", "Ethernet", base, true)))
	require.NoError(t, repo.Record(ctx, entry("2", "Wi-Fi", base.Add(time.Minute), false)))
	reset := entry("3", "Ethernet", base.Add(2*time.Minute), true)
	reset.Operation, reset.Servers, reset.Template, reset.DohEnabled = "reset", nil, "", false
	require.NoError(t, repo.Record(ctx, reset))

	all, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"3", "2", "1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Nil(t, all[0].Servers)

	eth, err := repo.List(ctx, ListOptions{Interface: "Ethernet", Limit: 1})
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, "3", eth[0].ID)
}

func TestNormalizeListOptions(t *testing.T) {
	tests := []struct {
		in   ListOptions
		want ListOptions
	}{
		{ListOptions{}, ListOptions{Limit: 50}},
		{ListOptions{Limit: 5000, Offset: -3}, ListOptions{Limit: 1000}},
		{ListOptions{Limit: 10, Offset: 20}, ListOptions{Limit: 10, Offset: 20}},
	}
	for _, tt := range tests {
		if got := normalizeListOptions(tt.in); got != tt.want {
			t.Errorf("normalizeListOptions(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Record(ctx, entry("abc", "Ethernet", time.Now(), true)))

	mux := http.NewServeMux()
	NewHandler(repo, zap.NewNop()).RegisterRoutes(mux)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/history", http.StatusOK},
		{"/api/v1/history?interface=Ethernet&limit=5", http.StatusOK},
		{"/api/v1/history?limit=zero", http.StatusBadRequest},
		{"/api/v1/history/abc", http.StatusOK},
		{"/api/v1/history/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?interface=Wi-Fi", nil))
	var got []Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
