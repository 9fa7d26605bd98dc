package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bloodbank-admin/internal/apiserver/auth"
	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage"
	sqlitedriver "bloodbank-admin/internal/shared/storage/driver/sqlite"
	"bloodbank-admin/internal/shared/storage/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRouter(t *testing.T, store storage.PersistentStore) http.Handler {
	t.Helper()
	h, err := NewHandler(store, auth.Config{JWTSecret: "server-test", BcryptCost: bcrypt.MinCost},
		Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)
	return h.Router()
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewHandler_RequiresSecret(t *testing.T) {
	_, err := NewHandler(newTestStore(t), auth.Config{}, Options{Registerer: prometheus.NewRegistry()})
	assert.Error(t, err)
}

// TestEndToEnd 注册 → 登录 → 当前用户 → 报表
func TestEndToEnd(t *testing.T) {
	store := newTestStore(t)
	router := newTestRouter(t, store)

	rec := call(t, router, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"email": "org@example.com", "password": "pw", "userType": "Organization", "organizationName": "Red Drop",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = call(t, router, http.MethodPost, "/register", "", map[string]any{
		"email": "donor@example.com", "password": "pw", "userType": "Donor", "name": "Ann",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodPost, "/login", "", map[string]any{
		"email": "org@example.com", "password": "pw", "userType": "Organization",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	token := body["token"].(string)
	orgID := body["user"].(map[string]any)["_id"].(string)

	donor, err := store.GetUserByEmail(context.Background(), "donor@example.com")
	require.NoError(t, err)
	now := time.Now().UTC()
	for _, id := range []string{"inv-1", "inv-2"} {
		require.NoError(t, store.CreateInventoryEntry(context.Background(), &model.InventoryEntry{
			ID: id, InventoryType: model.InventoryTypeDonationIn, Organization: orgID,
			Donor: &donor.ID, Quantity: 100, CreatedAt: now, UpdatedAt: now,
		}))
	}

	rec = call(t, router, http.MethodGet, "/get-current-user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orgID, decode(t, rec)["data"].(map[string]any)["_id"])

	rec = call(t, router, http.MethodPost, "/api/v1/users/get-all-donors", token, map[string]any{"page": 1, "limit": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["totalDocs"])
	row := data["results"].([]any)[0].(map[string]any)
	assert.Equal(t, donor.ID, row["_id"])
	assert.Equal(t, "Ann", row["user"].(map[string]any)["name"])

	rec = call(t, router, http.MethodPost, "/get-all-donors", "", map[string]any{"page": 1, "limit": 10})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, newTestStore(t))
	req := httptest.NewRequest(http.MethodOptions, "/get-all-donors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

// downStore Ping 失败的存储
type downStore struct {
	*repository.Store
}

func (downStore) Ping(context.Context) error { return errors.New("no reachable servers") }

func TestHealth(t *testing.T) {
	store := newTestStore(t)

	rec := call(t, newTestRouter(t, store), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = call(t, newTestRouter(t, downStore{store}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decode(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, newTestStore(t))

	call(t, router, http.MethodPost, "/login", "", map[string]any{
		"email": "nobody@example.com", "password": "x", "userType": "Donor",
	})

	rec := call(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, `bloodbank_http_requests_total{method="POST",path="/login",status="401"}`)
	assert.Contains(t, text, `bloodbank_logins_total{outcome="InvalidCredentials"}`)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/login", "/login"},
		{"/api/v1/users/login", "/login"},
		{"/get-all-donors", "/get-all-donors"},
		{"/api/v1/users/get-all-org-for-donor", "/get-all-org-for-donor"},
		{"/wp-admin/setup.php", "other"},
		{"/api/v1/users/unknown", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in), tt.in)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, newTestStore(t))
	rec := call(t, router, http.MethodGet, "/does-not-exist", "", nil)
	// 未知路由同样需要认证
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "authorization"))
}
