package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/doumai/doumai-backend/api/responses"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func tenantRequest(method, url, body string, tenantID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	return req.WithContext(WithMembership(req.Context(), uuid.New(), tenantID, "admin"))
}

func TestMatchIdempotencyRule(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		ok       bool
		critical bool
	}{
		{"adjustment", http.MethodPost, "/api/v1/skus/" + uuid.NewString() + "/adjustments", true, false},
		{"batch", http.MethodPost, "/api/v1/inventory/batch", true, false},
		{"upgrade", http.MethodPost, "/api/v1/subscription/upgrade", true, true},
		{"adjustment list", http.MethodGet, "/api/v1/skus/abc/adjustments", false, false},
		{"nested too deep", http.MethodPost, "/api/v1/skus/abc/adjustments/extra", false, false},
		{"empty segment", http.MethodPost, "/api/v1/skus//adjustments", false, false},
	}

	for _, tt := range tests {
		rule, ok := matchIdempotencyRule(tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && rule.critical != tt.critical {
			t.Fatalf("%s: expected critical=%v", tt.name, tt.critical)
		}
	}
}

func TestIdempotencyRequiresHeaderOnCriticalRoutes(t *testing.T) {
	store := newFakeStore()
	called := false
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, tenantRequest(http.MethodPost, "/api/v1/subscription/upgrade", `{"plan":"pro"}`, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyOptionalHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), tenantRequest(http.MethodPost, "/api/v1/inventory/batch", `{}`, uuid.New()))
	}
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("expected both requests to run without records, calls=%d records=%d", calls, len(store.data))
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	tenantID := uuid.New()
	userID := uuid.New()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"total_quantity": 95})
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skus/abc/adjustments", strings.NewReader(body))
		req = req.WithContext(WithMembership(req.Context(), userID, tenantID, "admin"))
		req.Header.Set(IdempotencyHeader, "adj-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	first := send(`{"change_type":"order_deduct","quantity":5}`)
	second := send(`{"change_type":"order_deduct","quantity":5}`)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %q vs %q", second.Code, second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replay") != "true" {
		t.Fatalf("expected replay header")
	}

	conflict := send(`{"change_type":"order_deduct","quantity":6}`)
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", conflict.Code)
	}
	var body responses.ErrorEnvelope
	if err := json.NewDecoder(conflict.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestIdempotencyScopesKeysByTenant(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := tenantRequest(http.MethodPost, "/api/v1/returns", `{}`, uuid.New())
		req.Header.Set(IdempotencyHeader, "same-key")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("keys from different tenants must not collide, calls=%d", calls)
	}
}

func TestIdempotencySkipsServerErrorsAndExtendsCriticalTTL(t *testing.T) {
	store := newFakeStore()
	status := http.StatusServiceUnavailable
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	tenantID := uuid.New()
	req := tenantRequest(http.MethodPost, "/api/v1/subscription/upgrade", `{"plan":"pro"}`, tenantID)
	req.Header.Set(IdempotencyHeader, "upgrade-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(store.data) != 0 {
		t.Fatalf("5xx responses must not be stored")
	}

	status = http.StatusOK
	req = tenantRequest(http.MethodPost, "/api/v1/subscription/upgrade", `{"plan":"pro"}`, tenantID)
	req.Header.Set(IdempotencyHeader, "upgrade-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(store.ttls) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.ttls))
	}
	for _, ttl := range store.ttls {
		if ttl != criticalIdempotencyTTL {
			t.Fatalf("expected critical ttl, got %v", ttl)
		}
	}
}
