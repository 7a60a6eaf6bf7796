package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/api/middleware"
	"github.com/doumai/doumai-backend/pkg/enums"
)

var (
	testTenantID = uuid.MustParse("7c1c1b52-2a59-4a39-9b59-0d4d0c1e8b01")
	testUserID   = uuid.MustParse("2b8f6c44-5a0e-4b0d-8d6f-7f7a1f0f9c02")
)

// serve mounts handler on pattern so chi URL params resolve, then runs the
// request as a tenant admin.
func serve(t *testing.T, method, pattern, target, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithIdentity(req.Context(), "auth-user", "owner@shop.test")
	ctx = middleware.WithMembership(ctx, testUserID, testTenantID, enums.UserRoleAdmin)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return out
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dst}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&envelope); err != nil {
		t.Fatalf("decode data envelope: %v (body %s)", err, rec.Body.String())
	}
}
