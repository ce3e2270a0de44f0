package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*testEnv, *httptest.Server) {
	t.Helper()
	env := newTestEnv(t)
	h := NewHTTPHandler(env.orders, env.customers, env.products, nil)
	srv := httptest.NewServer(h.Routes(0))
	t.Cleanup(srv.Close)
	return env, srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTP_CreateOrder(t *testing.T) {
	env, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/orders", CreateOrderHTTPRequest{
		CustomerID: "C1",
		Lines:      []LineHTTPRequest{{ProductID: "P1", Quantity: 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	order := decode[OrderHTTPResponse](t, resp)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "placed", order.Status)
	assert.Equal(t, "15.00", order.Total)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "5.00", order.Lines[0].UnitPrice)
	assert.Equal(t, 7, env.stock(t, "P1"))

	got := doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, order.ID, decode[OrderHTTPResponse](t, got).ID)
}

func TestHTTP_CreateOrderErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       CreateOrderHTTPRequest
		wantStatus int
		wantCode   string
		wantProdID string
	}{
		{
			name:       "unknown customer",
			body:       CreateOrderHTTPRequest{CustomerID: "nobody", Lines: []LineHTTPRequest{{ProductID: "P1", Quantity: 1}}},
			wantStatus: http.StatusNotFound,
			wantCode:   "customer_not_found",
		},
		{
			name:       "unknown product",
			body:       CreateOrderHTTPRequest{CustomerID: "C1", Lines: []LineHTTPRequest{{ProductID: "P1", Quantity: 1}, {ProductID: "PX", Quantity: 1}}},
			wantStatus: http.StatusNotFound,
			wantCode:   "product_not_found",
			wantProdID: "PX",
		},
		{
			name:       "no products",
			body:       CreateOrderHTTPRequest{CustomerID: "C1", Lines: []LineHTTPRequest{{ProductID: "PX", Quantity: 1}}},
			wantStatus: http.StatusNotFound,
			wantCode:   "no_products_found",
		},
		{
			name:       "insufficient stock",
			body:       CreateOrderHTTPRequest{CustomerID: "C1", Lines: []LineHTTPRequest{{ProductID: "P1", Quantity: 15}}},
			wantStatus: http.StatusGone,
			wantCode:   "insufficient_stock",
			wantProdID: "P1",
		},
		{
			name:       "zero quantity",
			body:       CreateOrderHTTPRequest{CustomerID: "C1", Lines: []LineHTTPRequest{{ProductID: "P1", Quantity: 0}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
			wantProdID: "P1",
		},
		{
			name:       "missing customer",
			body:       CreateOrderHTTPRequest{Lines: []LineHTTPRequest{{ProductID: "P1", Quantity: 1}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_fields",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, srv := newTestServer(t)

			resp := doJSON(t, http.MethodPost, srv.URL+"/api/orders", tc.body)
			require.Equal(t, tc.wantStatus, resp.StatusCode)

			body := decode[ErrorHTTPResponse](t, resp)
			assert.Equal(t, tc.wantCode, body.Error)
			assert.Equal(t, tc.wantProdID, body.ProductID)
			assert.Equal(t, 10, env.stock(t, "P1"))
		})
	}
}

func TestHTTP_CreateOrderInvalidBody(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/orders", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_DuplicateRequest(t *testing.T) {
	env, srv := newTestServer(t)
	req := CreateOrderHTTPRequest{
		RequestID:  "req-1",
		CustomerID: "C1",
		Lines:      []LineHTTPRequest{{ProductID: "P1", Quantity: 2}},
	}

	first := doJSON(t, http.MethodPost, srv.URL+"/api/orders", req)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	order := decode[OrderHTTPResponse](t, first)

	second := doJSON(t, http.MethodPost, srv.URL+"/api/orders", req)
	require.Equal(t, http.StatusConflict, second.StatusCode)
	body := decode[ErrorHTTPResponse](t, second)
	assert.Equal(t, "duplicate_request", body.Error)
	assert.Equal(t, order.ID, body.OrderID)

	assert.Equal(t, 8, env.stock(t, "P1"))
}

func TestHTTP_GetOrderNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTP_CreateCustomer(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/customers", CreateCustomerHTTPRequest{Name: "Ada", Email: "ada@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ada@example.com", decode[CustomerHTTPResponse](t, resp).Email)

	dup := doJSON(t, http.MethodPost, srv.URL+"/api/customers", CreateCustomerHTTPRequest{Name: "Ada", Email: "ada@example.com"})
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	invalid := doJSON(t, http.MethodPost, srv.URL+"/api/customers", CreateCustomerHTTPRequest{Name: "Ada"})
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
}

func TestHTTP_CreateProductAndUpdatePrice(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]interface{}{
		"name":     "Mouse",
		"price":    "2.5",
		"quantity": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[ProductHTTPResponse](t, resp)
	assert.Equal(t, "2.50", product.Price)

	updated := doJSON(t, http.MethodPatch, srv.URL+"/api/products/"+product.ID+"/price", map[string]string{"price": "3.75"})
	require.Equal(t, http.StatusOK, updated.StatusCode)
	assert.Equal(t, "3.75", decode[ProductHTTPResponse](t, updated).Price)

	missing := doJSON(t, http.MethodPatch, srv.URL+"/api/products/nope/price", map[string]string{"price": "1"})
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	dup := doJSON(t, http.MethodPost, srv.URL+"/api/products", map[string]interface{}{"name": "Mouse", "price": "1", "quantity": 1})
	assert.Equal(t, http.StatusConflict, dup.StatusCode)
}

func TestHTTP_HealthCheck(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}
