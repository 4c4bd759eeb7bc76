package settings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/server"
	"github.com/HerbHall/dnsswitch/internal/settings"
	"github.com/HerbHall/dnsswitch/internal/testutil"
)

func setupHandlerEnv(t *testing.T) (*settings.SQLiteRepository, *http.ServeMux) {
	t.Helper()

	repo, err := settings.NewSQLiteRepository(context.Background(), testutil.NewStore(t))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	dir := netif.NewDirectory(testutil.NewFakeEnumerator(testutil.NewInterface()), zap.NewNop())
	handler := settings.NewHandler(repo, dir, zap.NewNop())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return repo, mux
}

func doRequest(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeName(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp settings.InterfaceRequest
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode response: %v", err)
	}
	return resp.InterfaceName
}

func TestHandleGetDefaultInterface_NotConfigured(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	w := doRequest(mux, "GET", "/api/v1/settings/default-interface", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeName(t, w); got != "" {
		t.Errorf("InterfaceName = %q, want empty string", got)
	}
}

func TestHandleSetDefaultInterface(t *testing.T) {
	repo, mux := setupHandlerEnv(t)

	w := doRequest(mux, "PUT", "/api/v1/settings/default-interface", settings.InterfaceRequest{InterfaceName: "Ethernet"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	got, err := settings.DefaultInterface(context.Background(), repo)
	if err != nil || got != "Ethernet" {
		t.Fatalf("DefaultInterface() = %q, %v; want Ethernet", got, err)
	}

	w = doRequest(mux, "GET", "/api/v1/settings/default-interface", nil)
	if name := decodeName(t, w); name != "Ethernet" {
		t.Errorf("InterfaceName = %q, want Ethernet", name)
	}

	w = doRequest(mux, "GET", "/api/v1/settings", nil)
	var all []settings.Setting
	if err := json.NewDecoder(w.Body).Decode(&all); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(all) != 1 || all[0].Key != settings.KeyDefaultInterface {
		t.Errorf("settings = %+v", all)
	}
}

func TestHandleSetDefaultInterface_Unknown(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	w := doRequest(mux, "PUT", "/api/v1/settings/default-interface", settings.InterfaceRequest{InterfaceName: "Wi-Fi 7"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var p server.Problem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("Decode problem: %v", err)
	}
	if p.Type != server.ProblemTypeBadRequest {
		t.Errorf("type = %q, want %q", p.Type, server.ProblemTypeBadRequest)
	}
	if p.Detail != "interface not found: Wi-Fi 7" {
		t.Errorf("detail = %q", p.Detail)
	}
}

func TestHandleSetDefaultInterface_EmptyClears(t *testing.T) {
	repo, mux := setupHandlerEnv(t)
	ctx := context.Background()
	if err := repo.Set(ctx, settings.KeyDefaultInterface, "Ethernet"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		w := doRequest(mux, "PUT", "/api/v1/settings/default-interface", settings.InterfaceRequest{})
		if w.Code != http.StatusOK {
			t.Errorf("attempt %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if _, err := repo.Get(ctx, settings.KeyDefaultInterface); !errors.Is(err, settings.ErrNotFound) {
		t.Errorf("Get after clear: err = %v, want ErrNotFound", err)
	}
}

func TestHandleSetDefaultInterface_InvalidBody(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	req := httptest.NewRequest("PUT", "/api/v1/settings/default-interface", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRepository_SetOverwritesAndDelete(t *testing.T) {
	repo, _ := setupHandlerEnv(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "k", "a"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "k", "b"); err != nil {
		t.Fatal(err)
	}
	s, err := repo.Get(ctx, "k")
	if err != nil || s.Value != "b" {
		t.Fatalf("Get = %+v, %v; want b", s, err)
	}
	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "k"); !errors.Is(err, settings.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
