package domain

import "context"

// CatalogRepository persists the immutable per-run definitions.
type CatalogRepository interface {
	SaveMaterials(ctx context.Context, materials []Material) error
	SaveProducts(ctx context.Context, products []Product) error
	SaveProviders(ctx context.Context, providers []Provider) error
	ListMaterials(ctx context.Context) ([]Material, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListProviders(ctx context.Context) ([]Provider, error)
	GetMaterial(ctx context.Context, id string) (Material, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProvider(ctx context.Context, id string) (Provider, error)
}

// OrderFilter holds optional criteria for listing production orders.
type OrderFilter struct {
	Status *OrderStatus
}

// OrderRepository persists production orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order ProductionOrder) error
	GetOrder(ctx context.Context, id string) (ProductionOrder, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]ProductionOrder, error)
	UpdateOrder(ctx context.Context, order ProductionOrder) error
}

// PurchaseOrderFilter holds optional criteria for listing purchase orders.
type PurchaseOrderFilter struct {
	Status *PurchaseOrderStatus
}

// PurchaseOrderRepository persists purchase orders.
type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, po PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po PurchaseOrder) error
}

// StateRepository persists the singleton simulation state.
// LoadState returns ErrStateNotFound when no run has ever been saved.
type StateRepository interface {
	LoadState(ctx context.Context) (SimulationState, error)
	SaveState(ctx context.Context, state SimulationState) error
}

// ConfigRepository persists the per-run simulation configuration.
type ConfigRepository interface {
	LoadConfig(ctx context.Context) (SimulationConfig, error)
	SaveConfig(ctx context.Context, config SimulationConfig) error
}

// EventLog is the append-only simulation log. Entries are never updated or
// deleted; ListEvents returns newest first, the filtered listings oldest
// first so history can be replayed in order.
type EventLog interface {
	AppendEvent(ctx context.Context, event SimulationEvent) error
	ListEvents(ctx context.Context, limit int) ([]SimulationEvent, error)
	ListEventsByType(ctx context.Context, eventType EventType) ([]SimulationEvent, error)
	ListFinancialEvents(ctx context.Context) ([]SimulationEvent, error)
}

// Store aggregates every persistence port plus the destructive reset used by
// initialize and import.
type Store interface {
	CatalogRepository
	OrderRepository
	PurchaseOrderRepository
	StateRepository
	ConfigRepository
	EventLog

	// Reset wipes all persisted data for the current run.
	Reset(ctx context.Context) error
}

// EventPublisher defines the contract for mirroring simulation events to an
// external consumer (async fan-out, notifications). Publishing is best-effort
// with respect to the event log, which remains the source of truth.
type EventPublisher interface {
	Publish(ctx context.Context, event SimulationEvent) error
}

// TransitionValidator checks and applies order lifecycle transitions.
type TransitionValidator interface {
	Apply(ctx context.Context, current OrderStatus, event Event) (OrderStatus, error)
}
