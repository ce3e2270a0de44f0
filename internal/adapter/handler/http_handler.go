package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type HTTPHandler struct {
	orderService    *service.OrderService
	customerService *service.CustomerService
	productService  *service.ProductService
	logger          *zap.Logger
}

type LineHTTPRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderHTTPRequest struct {
	RequestID  string            `json:"request_id"`
	CustomerID string            `json:"customer_id"`
	Lines      []LineHTTPRequest `json:"lines"`
}

type OrderLineHTTPResponse struct {
	ProductID string `json:"product_id"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderHTTPResponse struct {
	ID         string                  `json:"id"`
	CustomerID string                  `json:"customer_id"`
	Status     string                  `json:"status"`
	Lines      []OrderLineHTTPResponse `json:"lines"`
	Total      string                  `json:"total"`
	CreatedAt  time.Time               `json:"created_at"`
}

type CreateCustomerHTTPRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CustomerHTTPResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProductHTTPRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type UpdatePriceHTTPRequest struct {
	Price decimal.Decimal `json:"price"`
}

type ProductHTTPResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type ErrorHTTPResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
}

func NewHTTPHandler(
	orderService *service.OrderService,
	customerService *service.CustomerService,
	productService *service.ProductService,
	logger *zap.Logger,
) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		orderService:    orderService,
		customerService: customerService,
		productService:  productService,
		logger:          logger,
	}
}

// Routes builds the router. A zero requestTimeout disables the per-request
// deadline.
func (h *HTTPHandler) Routes(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.Post("/customers", h.CreateCustomer)
		r.Post("/products", h.CreateProduct)
		r.Patch("/products/{id}/price", h.UpdatePrice)
	})

	return r
}

// CreateOrder places an order. With a request_id the call is idempotent.
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "customer_id is required")
		return
	}

	lines := make([]domain.LineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	var (
		order *domain.Order
		err   error
	)
	if req.RequestID != "" {
		order, err = h.orderService.PlaceOrder(r.Context(), req.RequestID, req.CustomerID, lines)
	} else {
		order, err = h.orderService.CreateOrder(r.Context(), req.CustomerID, lines)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	customer, err := h.customerService.CreateCustomer(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CustomerHTTPResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		CreatedAt: customer.CreatedAt,
	})
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), req.Name, req.Price, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *HTTPHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req UpdatePriceHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	product, err := h.productService.UpdatePrice(r.Context(), chi.URLParam(r, "id"), req.Price)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)

	resp := ErrorHTTPResponse{Error: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
		resp.Message = "internal error"
	}

	var lineErr *service.LineError
	var stockErr *service.StockError
	var dupErr *service.DuplicateRequestError
	switch {
	case errors.As(err, &lineErr):
		resp.ProductID = lineErr.ProductID
	case errors.As(err, &stockErr):
		resp.ProductID = stockErr.ProductID
	case errors.As(err, &dupErr):
		resp.OrderID = dupErr.OrderID
	}

	writeJSON(w, status, resp)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound):
		return http.StatusNotFound, "customer_not_found"
	case errors.Is(err, service.ErrNoProductsFound):
		return http.StatusNotFound, "no_products_found"
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "product_not_found"
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusGone, "insufficient_stock"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request"
	case errors.Is(err, service.ErrCustomerAlreadyExists):
		return http.StatusConflict, "customer_exists"
	case errors.Is(err, service.ErrProductAlreadyExists):
		return http.StatusConflict, "product_exists"
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCustomer),
		errors.Is(err, service.ErrInvalidProduct):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrStockCommitFailed):
		return http.StatusInternalServerError, "stock_commit_failed"
	case errors.Is(err, service.ErrOrderPersistenceFailed):
		return http.StatusInternalServerError, "order_persistence_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func toOrderResponse(order *domain.Order) OrderHTTPResponse {
	lines := make([]OrderLineHTTPResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineHTTPResponse{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
		})
	}
	return OrderHTTPResponse{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		Lines:      lines,
		Total:      order.Total().StringFixed(2),
		CreatedAt:  order.CreatedAt,
	}
}

func toProductResponse(product *domain.Product) ProductHTTPResponse {
	return ProductHTTPResponse{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price.StringFixed(2),
		Quantity: product.Quantity,
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorHTTPResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
