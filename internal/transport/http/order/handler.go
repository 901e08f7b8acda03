package order

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/autoservice/internal/dto"
	"github.com/Additional-Code/autoservice/internal/presentation/http/response"
	service "github.com/Additional-Code/autoservice/internal/service/order"
	"github.com/Additional-Code/autoservice/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/autoservice/transport/http/order")

// Module wires HTTP order handlers onto the shared Echo router.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	order, err := h.svc.Create(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}
	in, err := bindInput(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := service.ParseID(c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]int64{"id": id}).Build()
}

func bindInput(c echo.Context) (service.Input, error) {
	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return service.Input{}, errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	return service.Input{
		CustomerName: payload.CustomerName,
		CarInfo:      payload.CarInfo,
		Description:  payload.Description,
	}, nil
}
