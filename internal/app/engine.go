package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// SimulationEngine orchestrates the factory simulation: order lifecycle,
// procurement, the day-advance scheduler and the financial ledger. It is
// logically single-threaded; callers must not interleave mutating operations.
type SimulationEngine struct {
	store     domain.Store
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	rng       *rand.Rand
	now       func() time.Time
}

// Option customizes engine construction.
type Option func(*SimulationEngine)

// WithRand replaces the demand-generation random source. Tests use a fixed
// seed for reproducible demand.
func WithRand(rng *rand.Rand) Option {
	return func(e *SimulationEngine) { e.rng = rng }
}

// WithNow replaces the wall-clock source used for audit timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *SimulationEngine) { e.now = now }
}

// NewSimulationEngine creates an engine with the given adapters.
func NewSimulationEngine(store domain.Store, publisher domain.EventPublisher, validator domain.TransitionValidator, opts ...Option) *SimulationEngine {
	e := &SimulationEngine{
		store:     store,
		publisher: publisher,
		validator: validator,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the loaded context of one engine operation: the singleton state,
// the per-run configuration and the immutable catalog keyed by id.
type run struct {
	state     domain.SimulationState
	config    domain.SimulationConfig
	materials map[string]domain.Material
	products  map[string]domain.Product
	providers map[string]domain.Provider
}

// loadRun reads the current state, config and catalog, failing with
// ErrNotInitialized when no initialized run exists.
func (e *SimulationEngine) loadRun(ctx context.Context) (*run, error) {
	state, err := e.store.LoadState(ctx)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("loading simulation state: %w", err)
	}
	if !state.IsInitialized {
		return nil, domain.ErrNotInitialized
	}

	config, err := e.store.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading simulation config: %w", err)
	}

	materials, err := e.store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading materials: %w", err)
	}
	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	providers, err := e.store.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading providers: %w", err)
	}

	r := &run{
		state:     state,
		config:    config,
		materials: make(map[string]domain.Material, len(materials)),
		products:  make(map[string]domain.Product, len(products)),
		providers: make(map[string]domain.Provider, len(providers)),
	}
	for _, m := range materials {
		r.materials[m.ID] = m
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	for _, p := range providers {
		r.providers[p.ID] = p
	}
	return r, nil
}

// emit appends an event to the log and mirrors it to the publisher.
func (e *SimulationEngine) emit(ctx context.Context, event domain.SimulationEvent) error {
	if err := e.store.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("appending event %q: %w", event.Type, err)
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publishing event %q: %w", event.Type, err)
	}
	return nil
}

func (e *SimulationEngine) logEvent(ctx context.Context, day int, eventType domain.EventType, details map[string]any) error {
	return e.emit(ctx, domain.SimulationEvent{
		ID:        newID(),
		Day:       day,
		Timestamp: e.now(),
		Type:      eventType,
		Details:   details,
	})
}

func (e *SimulationEngine) logFinancialEvent(ctx context.Context, day int, eventType domain.EventType, details map[string]any, amount decimal.Decimal) error {
	return e.emit(ctx, domain.SimulationEvent{
		ID:        newID(),
		Day:       day,
		Timestamp: e.now(),
		Type:      eventType,
		Details:   details,
		Financial: true,
		Amount:    amount,
	})
}

// adjustPhysical moves an item's physical stock and logs the change.
func (e *SimulationEngine) adjustPhysical(ctx context.Context, state *domain.SimulationState, itemID string, delta int) error {
	newQty := state.AdjustPhysical(itemID, delta)
	return e.logEvent(ctx, state.CurrentDay, domain.EventTypeInventoryChange, map[string]any{
		"item_id":      itemID,
		"change":       delta,
		"new_quantity": newQty,
		"ledger":       string(domain.LedgerPhysical),
	})
}

// adjustCommitted moves an item's committed stock and logs the change.
func (e *SimulationEngine) adjustCommitted(ctx context.Context, state *domain.SimulationState, itemID string, delta int) error {
	newQty := state.AdjustCommitted(itemID, delta)
	return e.logEvent(ctx, state.CurrentDay, domain.EventTypeInventoryChange, map[string]any{
		"item_id":      itemID,
		"change":       delta,
		"new_quantity": newQty,
		"ledger":       string(domain.LedgerCommitted),
	})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Initialize starts a fresh run, destroying any previous one. The catalog is
// validated, persisted and the singleton state seeded with the initial
// inventory and balance.
func (e *SimulationEngine) Initialize(ctx context.Context, ic domain.InitialConditions) (domain.SimulationState, error) {
	if err := validateInitialConditions(ic); err != nil {
		return domain.SimulationState{}, err
	}

	if err := e.store.Reset(ctx); err != nil {
		return domain.SimulationState{}, fmt.Errorf("resetting store: %w", err)
	}

	if err := e.store.SaveMaterials(ctx, ic.Materials); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving materials: %w", err)
	}
	if err := e.store.SaveProducts(ctx, ic.Products); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving products: %w", err)
	}
	if err := e.store.SaveProviders(ctx, ic.Providers); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving providers: %w", err)
	}
	if err := e.store.SaveConfig(ctx, domain.SimulationConfig{Financial: ic.Financial, Demand: ic.Demand}); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving config: %w", err)
	}

	state := domain.NewSimulationState()
	for itemID, qty := range ic.InitialInventory {
		state.Inventory[itemID] = qty
	}
	state.StorageCapacity = ic.StorageCapacity
	state.DailyProductionCapacity = ic.DailyProductionCapacity
	state.CurrentBalance = ic.Financial.InitialBalance
	state.IsInitialized = true

	if err := e.store.SaveState(ctx, state); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving state: %w", err)
	}

	if err := e.logEvent(ctx, 0, domain.EventTypeSimulationInitialized, map[string]any{
		"storage_capacity":          ic.StorageCapacity,
		"daily_production_capacity": ic.DailyProductionCapacity,
		"initial_balance":           ic.Financial.InitialBalance.String(),
	}); err != nil {
		return domain.SimulationState{}, err
	}

	return state, nil
}

func validateInitialConditions(ic domain.InitialConditions) error {
	materials := make(map[string]bool, len(ic.Materials))
	for _, m := range ic.Materials {
		materials[m.ID] = true
	}
	for _, p := range ic.Products {
		if p.ProductionTime < 1 {
			return &domain.InvalidQuantityError{Quantity: p.ProductionTime}
		}
		for _, line := range p.BOM {
			if !materials[line.MaterialID] {
				return &domain.InvalidReferenceError{Kind: "material", ID: line.MaterialID}
			}
		}
	}
	for _, p := range ic.Providers {
		for _, o := range p.Catalog {
			if !materials[o.MaterialID] {
				return &domain.InvalidReferenceError{Kind: "material", ID: o.MaterialID}
			}
		}
	}
	return nil
}

// State returns the current singleton simulation state.
func (e *SimulationEngine) State(ctx context.Context) (domain.SimulationState, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.SimulationState{}, err
	}
	return r.state, nil
}

// Status is the high-level dashboard view of a run.
type Status struct {
	CurrentDay                 int
	TotalInventoryUnits        int
	StorageCapacity            int
	StorageUtilization         float64
	PendingProductionOrders    int
	AcceptedProductionOrders   int
	InProgressProductionOrders int
	PendingPurchaseOrders      int
	CurrentBalance             decimal.Decimal
}

// Status summarizes the current run for dashboards.
func (e *SimulationEngine) Status(ctx context.Context) (Status, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return Status{}, err
	}

	countByStatus := func(status domain.OrderStatus) (int, error) {
		orders, err := e.store.ListOrders(ctx, domain.OrderFilter{Status: &status})
		if err != nil {
			return 0, fmt.Errorf("listing %s orders: %w", status, err)
		}
		return len(orders), nil
	}

	pending, err := countByStatus(domain.StatusPending)
	if err != nil {
		return Status{}, err
	}
	accepted, err := countByStatus(domain.StatusAccepted)
	if err != nil {
		return Status{}, err
	}
	inProgress, err := countByStatus(domain.StatusInProgress)
	if err != nil {
		return Status{}, err
	}

	totalUnits := r.state.TotalPhysicalUnits()
	utilization := 0.0
	if r.state.StorageCapacity > 0 {
		utilization = float64(totalUnits) / float64(r.state.StorageCapacity) * 100
	}

	return Status{
		CurrentDay:                 r.state.CurrentDay,
		TotalInventoryUnits:        totalUnits,
		StorageCapacity:            r.state.StorageCapacity,
		StorageUtilization:         utilization,
		PendingProductionOrders:    pending,
		AcceptedProductionOrders:   accepted,
		InProgressProductionOrders: inProgress,
		PendingPurchaseOrders:      len(r.state.PendingPurchaseOrders),
		CurrentBalance:             r.state.CurrentBalance,
	}, nil
}
