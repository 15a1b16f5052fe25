package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/repository"
	"go-pos-inventory/internal/service"
	"go-pos-inventory/internal/testutil"
	"go-pos-inventory/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, policy service.TransitionPolicy) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	m := metrics.New()
	env := service.Env{DB: db, Metrics: m, Log: log}

	products := repository.NewProductRepo(db)
	sales := repository.NewSaleRepo(db)
	requests := repository.NewRequestRepo(db)
	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)

	require.NoError(t, service.SeedDefaults(context.Background(),
		repository.NewPrivilegeRepo(db), roles, users, log))

	app := fiber.New()
	SetupRoutes(app, Services{
		Auth:     service.NewAuthService(users, jwt.NewManager("test-secret", time.Hour), log),
		Products: service.NewProductService(env, products, sales, requests, 10),
		Sales:    service.NewSaleService(env, products, sales),
		Requests: service.NewRequestService(env, requests, products, policy),
		Reports:  service.NewReportService(repository.NewReportRepo(db)),
		Users:    service.NewUserService(users, roles, log),
	}, nil, m, log)

	return &testServer{app: app, db: db}
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out struct{ Token string }
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestRecordSaleEndpoint(t *testing.T) {
	s := newTestServer(t, service.StrictTransitions)
	token := s.login(t, "staff", "staff123")
	p := testutil.SeedProduct(t, s.db, "Widget", 5, 10, "20.00")

	resp, body := s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"product_id": p.ID, "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	data := decode(t, body)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["remaining_stock"])
	assert.Equal(t, "Low stock", data["availability"])
	sale := data["sale"].(map[string]interface{})
	assert.Equal(t, "60", sale["total_price"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"product_id": p.ID, "quantity": 10,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decode(t, body)
	assert.Equal(t, "insufficient_stock", out["code"])
	assert.EqualValues(t, 2, out["available"])
	assert.EqualValues(t, 10, out["requested"])
	assert.Equal(t, 2, testutil.Stock(t, s.db, p.ID))

	resp, _ = s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"product_id": "00000000-0000-0000-0000-000000000001", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/sales", token, "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, service.StrictTransitions)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/products", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestWorkflowEndpoints(t *testing.T) {
	s := newTestServer(t, service.StrictTransitions)
	staff := s.login(t, "staff", "staff123")
	admin := s.login(t, "admin", "admin123")
	p := testutil.SeedProduct(t, s.db, "Widget", 2, 10, "20.00")

	resp, body := s.do(t, http.MethodPost, "/api/v1/requests", staff, map[string]interface{}{
		"product_id": p.ID, "requested_quantity": 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode(t, body)["data"].(map[string]interface{})
	assert.Equal(t, "Pending", created["status"])
	assert.Equal(t, "Staff", created["requested_by"])
	id := created["id"].(string)

	// Staff may not decide
	resp, _ = s.do(t, http.MethodPost, "/api/v1/requests/"+id+"/approve", staff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/requests/"+id+"/reject", admin, map[string]string{"note": "too many"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Rejected", decode(t, body)["data"].(map[string]interface{})["status"])

	resp, body = s.do(t, http.MethodPatch, "/api/v1/requests/"+id+"/status", admin, map[string]string{"status": "Approved"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", decode(t, body)["code"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/requests/pending-count", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decode(t, body)["pending"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/requests?mine=true", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine, 1)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/requests?status=Lost", staff, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 2, testutil.Stock(t, s.db, p.ID))
}

func TestLegacyPolicyEndpoint(t *testing.T) {
	s := newTestServer(t, service.LegacyTransitions)
	admin := s.login(t, "admin", "admin123")
	p := testutil.SeedProduct(t, s.db, "Widget", 2, 10, "20.00")

	_, body := s.do(t, http.MethodPost, "/api/v1/requests", admin, map[string]interface{}{
		"product_id": p.ID, "requested_quantity": 5,
	})
	id := decode(t, body)["data"].(map[string]interface{})["id"].(string)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/requests/"+id+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/api/v1/requests/"+id+"/reject", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPatch, "/api/v1/requests/"+id+"/status", admin, map[string]string{"status": "Pending"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProductAndReportEndpoints(t *testing.T) {
	s := newTestServer(t, service.StrictTransitions)
	admin := s.login(t, "admin", "admin123")
	staff := s.login(t, "staff", "staff123")

	resp, body := s.do(t, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{
		"name": "Tea", "buying_price": "1.00", "selling_price": "2.50", "stock_quantity": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	product := decode(t, body)["data"].(map[string]interface{})
	assert.Equal(t, "Low stock", product["availability"])
	id := product["id"].(string)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/products", staff, map[string]interface{}{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/products/"+id+"/restock", staff, map[string]int{"quantity": 16})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.EqualValues(t, 20, decode(t, body)["data"].(map[string]interface{})["stock_quantity"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/sales", staff, map[string]interface{}{"product_id": id, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.do(t, http.MethodDelete, "/api/v1/products/"+id, admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "product_in_use", decode(t, body)["code"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/reports/today", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	today := decode(t, body)
	assert.EqualValues(t, 1, today["sale_count"])
	assert.Equal(t, "5", today["revenue"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/reports/sales-summary?from=2024-01-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/v1/reports/top-products?n=1", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var top []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &top))
	require.Len(t, top, 1)
	assert.Equal(t, "Tea", top[0]["product_name"])

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/products/"+id, staff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/v1/reports/dashboard", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode(t, body)["total_products"])

	resp, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "inventory_sales_recorded_total 1")
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t, service.StrictTransitions)
	admin := s.login(t, "admin", "admin123")
	staff := s.login(t, "staff", "staff123")

	resp, _ := s.do(t, http.MethodGet, "/api/v1/users", staff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "cashier", "password": "cashier1", "full_name": "Front Cashier", "role": "staff",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode(t, body)
	assert.Equal(t, "STAFF", created["role"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "cashier", "password": "cashier1", "full_name": "Again", "role": "STAFF",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username_exists", decode(t, body)["code"])

	cashier := s.login(t, "cashier", "cashier1")
	resp, body = s.do(t, http.MethodPut, "/api/v1/users/"+created["id"].(string), admin, map[string]interface{}{
		"full_name": "Front Cashier", "role": "STAFF", "is_active": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, false, decode(t, body)["is_active"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/products", cashier, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "cashier", "password": "cashier1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodGet, "/api/v1/roles", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roles []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &roles))
	assert.Len(t, roles, 2)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrProductNotFound, http.StatusNotFound},
		{&service.InsufficientStockError{Requested: 3, Available: 1}, http.StatusConflict},
		{&service.ValidationError{Field: "quantity", Message: "must be positive"}, http.StatusBadRequest},
		{service.ErrInvalidTransition, http.StatusConflict},
		{service.ErrProductInUse, http.StatusConflict},
		{errors.Join(service.ErrTransientStore, &pgconn.PgError{Code: "55P03"}), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return writeError(c, zap.NewNop(), tc.err) })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		if tc.status == http.StatusServiceUnavailable {
			assert.Equal(t, "1", resp.Header.Get("Retry-After"))
		}
	}
}
