package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	OrderServiceName      = "storefront.v1.OrderService"
	createOrderFullMethod = "/" + OrderServiceName + "/CreateOrder"
	getOrderFullMethod    = "/" + OrderServiceName + "/GetOrder"
)

type OrderLineMessage struct {
	ProductID string `json:"product_id"`
	UnitPrice string `json:"unit_price,omitempty"`
	Quantity  int32  `json:"quantity"`
}

type CreateOrderRequest struct {
	RequestID  string             `json:"request_id,omitempty"`
	CustomerID string             `json:"customer_id"`
	Lines      []OrderLineMessage `json:"lines"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type OrderResponse struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	Status     string             `json:"status"`
	Lines      []OrderLineMessage `json:"lines"`
	Total      string             `json:"total"`
	CreatedAt  time.Time          `json:"created_at"`
}

type OrderServiceServer interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error)
}

// OrderServiceDesc describes storefront.v1.OrderService. Messages travel as
// JSON, see JSONCodecName.
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: createOrderHandler},
		{MethodName: "GetOrder", Handler: getOrderHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

func createOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: createOrderFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServiceServer).CreateOrder(ctx, req.(*CreateOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getOrderFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderServiceClient calls storefront.v1.OrderService with the JSON codec.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, createOrderFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, getOrderFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type GRPCHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewGRPCHandler(orderService *service.OrderService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{orderService: orderService, logger: logger}
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}

	lines := make([]domain.LineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.LineRequest{ProductID: line.ProductID, Quantity: int(line.Quantity)})
	}

	var (
		order *domain.Order
		err   error
	)
	if req.RequestID != "" {
		order, err = h.orderService.PlaceOrder(ctx, req.RequestID, req.CustomerID, lines)
	} else {
		order, err = h.orderService.CreateOrder(ctx, req.CustomerID, lines)
	}
	if err != nil {
		return nil, h.toStatus(err)
	}

	return toOrderMessage(order), nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}

	order, err := h.orderService.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return toOrderMessage(order), nil
}

func (h *GRPCHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrNoProductsFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		var dupErr *service.DuplicateRequestError
		if errors.As(err, &dupErr) && dupErr.OrderID != "" {
			return status.Error(codes.AlreadyExists, fmt.Sprintf("%v: order %s", err, dupErr.OrderID))
		}
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrStockCommitFailed), errors.Is(err, service.ErrOrderPersistenceFailed):
		h.logger.Error("grpc order failed", zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		h.logger.Error("grpc request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

func toOrderMessage(order *domain.Order) *OrderResponse {
	lines := make([]OrderLineMessage, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineMessage{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  int32(line.Quantity),
		})
	}
	return &OrderResponse{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		Lines:      lines,
		Total:      order.Total().StringFixed(2),
		CreatedAt:  order.CreatedAt,
	}
}
