package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

const tracerName = "github.com/DGSI-UPC/3d-printer-mrp/internal/adapter/otel"

// TracingStore wraps a domain.Store with OpenTelemetry tracing. Each method
// creates a span with semantic attributes and records errors.
type TracingStore struct {
	next   domain.Store
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

// finish records the error, if any, and ends the span.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *TracingStore) SaveMaterials(ctx context.Context, materials []domain.Material) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveMaterials",
		trace.WithAttributes(attribute.Int("materials.count", len(materials))),
	)
	err := s.next.SaveMaterials(ctx, materials)
	finish(span, err)
	return err
}

func (s *TracingStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveProducts",
		trace.WithAttributes(attribute.Int("products.count", len(products))),
	)
	err := s.next.SaveProducts(ctx, products)
	finish(span, err)
	return err
}

func (s *TracingStore) SaveProviders(ctx context.Context, providers []domain.Provider) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveProviders",
		trace.WithAttributes(attribute.Int("providers.count", len(providers))),
	)
	err := s.next.SaveProviders(ctx, providers)
	finish(span, err)
	return err
}

func (s *TracingStore) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListMaterials")
	materials, err := s.next.ListMaterials(ctx)
	finish(span, err)
	return materials, err
}

func (s *TracingStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListProducts")
	products, err := s.next.ListProducts(ctx)
	finish(span, err)
	return products, err
}

func (s *TracingStore) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListProviders")
	providers, err := s.next.ListProviders(ctx)
	finish(span, err)
	return providers, err
}

func (s *TracingStore) GetMaterial(ctx context.Context, id string) (domain.Material, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetMaterial",
		trace.WithAttributes(attribute.String("material.id", id)),
	)
	material, err := s.next.GetMaterial(ctx, id)
	finish(span, err)
	return material, err
}

func (s *TracingStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetProduct",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	product, err := s.next.GetProduct(ctx, id)
	finish(span, err)
	return product, err
}

func (s *TracingStore) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetProvider",
		trace.WithAttributes(attribute.String("provider.id", id)),
	)
	provider, err := s.next.GetProvider(ctx, id)
	finish(span, err)
	return provider, err
}

func (s *TracingStore) CreateOrder(ctx context.Context, order domain.ProductionOrder) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateOrder",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("order.product_id", order.ProductID),
			attribute.Int("order.quantity", order.Quantity),
		),
	)
	err := s.next.CreateOrder(ctx, order)
	finish(span, err)
	return err
}

func (s *TracingStore) GetOrder(ctx context.Context, id string) (domain.ProductionOrder, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetOrder",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	order, err := s.next.GetOrder(ctx, id)
	finish(span, err)
	return order, err
}

func (s *TracingStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.ProductionOrder, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOrders")
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	orders, err := s.next.ListOrders(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	finish(span, err)
	return orders, err
}

func (s *TracingStore) UpdateOrder(ctx context.Context, order domain.ProductionOrder) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateOrder",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		),
	)
	err := s.next.UpdateOrder(ctx, order)
	finish(span, err)
	return err
}

func (s *TracingStore) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreatePurchaseOrder",
		trace.WithAttributes(
			attribute.String("purchase.id", po.ID),
			attribute.String("purchase.material_id", po.MaterialID),
			attribute.Int("purchase.quantity", po.QuantityOrdered),
		),
	)
	err := s.next.CreatePurchaseOrder(ctx, po)
	finish(span, err)
	return err
}

func (s *TracingStore) GetPurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetPurchaseOrder",
		trace.WithAttributes(attribute.String("purchase.id", id)),
	)
	po, err := s.next.GetPurchaseOrder(ctx, id)
	finish(span, err)
	return po, err
}

func (s *TracingStore) ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListPurchaseOrders")
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	purchases, err := s.next.ListPurchaseOrders(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(purchases)))
	}
	finish(span, err)
	return purchases, err
}

func (s *TracingStore) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdatePurchaseOrder",
		trace.WithAttributes(
			attribute.String("purchase.id", po.ID),
			attribute.String("purchase.status", string(po.Status)),
		),
	)
	err := s.next.UpdatePurchaseOrder(ctx, po)
	finish(span, err)
	return err
}

func (s *TracingStore) LoadState(ctx context.Context) (domain.SimulationState, error) {
	ctx, span := s.tracer.Start(ctx, "Store.LoadState")
	state, err := s.next.LoadState(ctx)
	finish(span, err)
	return state, err
}

func (s *TracingStore) SaveState(ctx context.Context, state domain.SimulationState) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveState",
		trace.WithAttributes(attribute.Int("state.current_day", state.CurrentDay)),
	)
	err := s.next.SaveState(ctx, state)
	finish(span, err)
	return err
}

func (s *TracingStore) LoadConfig(ctx context.Context) (domain.SimulationConfig, error) {
	ctx, span := s.tracer.Start(ctx, "Store.LoadConfig")
	config, err := s.next.LoadConfig(ctx)
	finish(span, err)
	return config, err
}

func (s *TracingStore) SaveConfig(ctx context.Context, config domain.SimulationConfig) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveConfig")
	err := s.next.SaveConfig(ctx, config)
	finish(span, err)
	return err
}

func (s *TracingStore) AppendEvent(ctx context.Context, event domain.SimulationEvent) error {
	ctx, span := s.tracer.Start(ctx, "Store.AppendEvent",
		trace.WithAttributes(
			attribute.String("event.type", string(event.Type)),
			attribute.Int("event.day", event.Day),
		),
	)
	err := s.next.AppendEvent(ctx, event)
	finish(span, err)
	return err
}

func (s *TracingStore) ListEvents(ctx context.Context, limit int) ([]domain.SimulationEvent, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListEvents",
		trace.WithAttributes(attribute.Int("filter.limit", limit)),
	)
	events, err := s.next.ListEvents(ctx, limit)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(events)))
	}
	finish(span, err)
	return events, err
}

func (s *TracingStore) ListEventsByType(ctx context.Context, eventType domain.EventType) ([]domain.SimulationEvent, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListEventsByType",
		trace.WithAttributes(attribute.String("filter.event_type", string(eventType))),
	)
	events, err := s.next.ListEventsByType(ctx, eventType)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(events)))
	}
	finish(span, err)
	return events, err
}

func (s *TracingStore) ListFinancialEvents(ctx context.Context) ([]domain.SimulationEvent, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListFinancialEvents")
	events, err := s.next.ListFinancialEvents(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(events)))
	}
	finish(span, err)
	return events, err
}

func (s *TracingStore) Reset(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Store.Reset")
	err := s.next.Reset(ctx)
	finish(span, err)
	return err
}
