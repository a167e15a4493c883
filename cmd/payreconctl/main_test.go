package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/http/auth"
)

var (
	recordID = uuid.MustParse("6f1c2a7e-0c1d-4a7e-9a43-0f2f6c1e8b10")
	letterID = uuid.MustParse("1b8d3c55-7e6a-4c4f-8f0e-2f6a1d9c7e21")
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") != "Bearer test-token" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/v1/records/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + recordID.String() + `","kind":"order","external_reference":"ORDER-42","status":"completed","amount":"349.90","currency":"MXN","billing_cycle":0,"version":2}`))
	})

	r.Post("/admin/records/{id}/transition", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)

		if body["reason"] == "" {
			http.Error(w, "reason is required", http.StatusBadRequest)
			return
		}

		_, _ = w.Write([]byte(`{"status":"applied","record":{"id":"` + recordID.String() + `","kind":"order","status":"` + body["status"] + `","amount":"349.90","currency":"MXN"}}`))
	})

	r.Get("/admin/dead-letters", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "unresolved", req.URL.Query().Get("reason"))
		_, _ = w.Write([]byte(`[{"id":"` + letterID.String() + `","provider":"mercadopago","provider_event_id":"evt-9","reason":"unresolved","retryable":true,"attempts":2,"created_at":"2026-05-01T10:00:00Z"}]`))
	})

	r.Post("/admin/dead-letters/sweep", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"retried":3}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestRecordsGet(t *testing.T) {
	srv := fakeAPI(t)

	out, err := execute(t, "records", "get", recordID.String(), "--api", srv.URL, "--token", "test-token")
	require.NoError(t, err)
	assert.Contains(t, out, "ORDER-42")
	assert.Contains(t, out, "349.90 MXN")

	out, err = execute(t, "records", "get", recordID.String(), "--api", srv.URL, "--token", "test-token", "--json")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "completed", rec["status"])
}

func TestRecordsForce(t *testing.T) {
	srv := fakeAPI(t)

	out, err := execute(t, "records", "force", recordID.String(), "cancelled",
		"--reason", "customer refund", "--api", srv.URL, "--token", "test-token")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "cancelled")

	_, err = execute(t, "records", "force", recordID.String(), "cancelled", "--api", srv.URL, "--token", "test-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason")
}

func TestRecordsGet_Errors(t *testing.T) {
	srv := fakeAPI(t)
	t.Setenv("ADMIN_TOKEN", "")

	_, err := execute(t, "records", "get", "not-a-uuid", "--api", srv.URL, "--token", "test-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record id")

	_, err = execute(t, "records", "get", recordID.String(), "--api", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no admin token")

	_, err = execute(t, "records", "get", recordID.String(), "--api", srv.URL, "--token", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestDeadLettersListAndSweep(t *testing.T) {
	srv := fakeAPI(t)

	out, err := execute(t, "dl", "list", "--reason", "unresolved", "--api", srv.URL, "--token", "test-token")
	require.NoError(t, err)
	assert.Contains(t, out, letterID.String())
	assert.Contains(t, out, "evt-9")

	out, err = execute(t, "sweep", "--api", srv.URL, "--token", "test-token")
	require.NoError(t, err)
	assert.Equal(t, "retried 3 dead letters\n", out)
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("ADMIN_JWT_SECRET", "cli-secret")

	out, err := execute(t, "token", "issue", "--email", "ops@example.com")
	require.NoError(t, err)

	claims, err := auth.NewAuthenticator("cli-secret").Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}
