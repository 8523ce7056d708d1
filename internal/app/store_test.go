package app_test

import (
	"context"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// memStore is an in-memory domain.Store for engine tests.
type memStore struct {
	materials []domain.Material
	products  []domain.Product
	providers []domain.Provider

	orders   map[string]domain.ProductionOrder
	orderSeq []string

	purchases map[string]domain.PurchaseOrder
	poSeq     []string

	state  *domain.SimulationState
	config *domain.SimulationConfig
	events []domain.SimulationEvent
}

func newMemStore() *memStore {
	return &memStore{
		orders:    make(map[string]domain.ProductionOrder),
		purchases: make(map[string]domain.PurchaseOrder),
	}
}

func (s *memStore) SaveMaterials(_ context.Context, materials []domain.Material) error {
	s.materials = append([]domain.Material(nil), materials...)
	return nil
}

func (s *memStore) SaveProducts(_ context.Context, products []domain.Product) error {
	s.products = append([]domain.Product(nil), products...)
	return nil
}

func (s *memStore) SaveProviders(_ context.Context, providers []domain.Provider) error {
	s.providers = append([]domain.Provider(nil), providers...)
	return nil
}

func (s *memStore) ListMaterials(_ context.Context) ([]domain.Material, error) {
	return append([]domain.Material(nil), s.materials...), nil
}

func (s *memStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), s.products...), nil
}

func (s *memStore) ListProviders(_ context.Context) ([]domain.Provider, error) {
	return append([]domain.Provider(nil), s.providers...), nil
}

func (s *memStore) GetMaterial(_ context.Context, id string) (domain.Material, error) {
	for _, m := range s.materials {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Material{}, &domain.InvalidReferenceError{Kind: "material", ID: id}
}

func (s *memStore) GetProduct(_ context.Context, id string) (domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &domain.InvalidReferenceError{Kind: "product", ID: id}
}

func (s *memStore) GetProvider(_ context.Context, id string) (domain.Provider, error) {
	for _, p := range s.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Provider{}, &domain.InvalidReferenceError{Kind: "provider", ID: id}
}

func (s *memStore) CreateOrder(_ context.Context, order domain.ProductionOrder) error {
	if _, exists := s.orders[order.ID]; !exists {
		s.orderSeq = append(s.orderSeq, order.ID)
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *memStore) GetOrder(_ context.Context, id string) (domain.ProductionOrder, error) {
	order, ok := s.orders[id]
	if !ok {
		return domain.ProductionOrder{}, &domain.InvalidReferenceError{Kind: "production order", ID: id}
	}
	return cloneOrder(order), nil
}

func (s *memStore) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.ProductionOrder, error) {
	var out []domain.ProductionOrder
	for _, id := range s.orderSeq {
		order := s.orders[id]
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		out = append(out, cloneOrder(order))
	}
	return out, nil
}

func (s *memStore) UpdateOrder(_ context.Context, order domain.ProductionOrder) error {
	if _, ok := s.orders[order.ID]; !ok {
		return &domain.InvalidReferenceError{Kind: "production order", ID: order.ID}
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *memStore) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) error {
	if _, exists := s.purchases[po.ID]; !exists {
		s.poSeq = append(s.poSeq, po.ID)
	}
	s.purchases[po.ID] = po
	return nil
}

func (s *memStore) GetPurchaseOrder(_ context.Context, id string) (domain.PurchaseOrder, error) {
	po, ok := s.purchases[id]
	if !ok {
		return domain.PurchaseOrder{}, &domain.InvalidReferenceError{Kind: "purchase order", ID: id}
	}
	return po, nil
}

func (s *memStore) ListPurchaseOrders(_ context.Context, filter domain.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	var out []domain.PurchaseOrder
	for _, id := range s.poSeq {
		po := s.purchases[id]
		if filter.Status != nil && po.Status != *filter.Status {
			continue
		}
		out = append(out, po)
	}
	return out, nil
}

func (s *memStore) UpdatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) error {
	if _, ok := s.purchases[po.ID]; !ok {
		return &domain.InvalidReferenceError{Kind: "purchase order", ID: po.ID}
	}
	s.purchases[po.ID] = po
	return nil
}

func (s *memStore) LoadState(_ context.Context) (domain.SimulationState, error) {
	if s.state == nil {
		return domain.SimulationState{}, domain.ErrStateNotFound
	}
	return cloneState(*s.state), nil
}

func (s *memStore) SaveState(_ context.Context, state domain.SimulationState) error {
	cloned := cloneState(state)
	s.state = &cloned
	return nil
}

func (s *memStore) LoadConfig(_ context.Context) (domain.SimulationConfig, error) {
	if s.config == nil {
		return domain.SimulationConfig{}, nil
	}
	return *s.config, nil
}

func (s *memStore) SaveConfig(_ context.Context, config domain.SimulationConfig) error {
	s.config = &config
	return nil
}

func (s *memStore) AppendEvent(_ context.Context, event domain.SimulationEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *memStore) ListEvents(_ context.Context, limit int) ([]domain.SimulationEvent, error) {
	out := make([]domain.SimulationEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		out = append(out, s.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) ListEventsByType(_ context.Context, eventType domain.EventType) ([]domain.SimulationEvent, error) {
	var out []domain.SimulationEvent
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *memStore) ListFinancialEvents(_ context.Context) ([]domain.SimulationEvent, error) {
	var out []domain.SimulationEvent
	for _, ev := range s.events {
		if ev.Financial {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *memStore) Reset(_ context.Context) error {
	s.materials = nil
	s.products = nil
	s.providers = nil
	s.orders = make(map[string]domain.ProductionOrder)
	s.orderSeq = nil
	s.purchases = make(map[string]domain.PurchaseOrder)
	s.poSeq = nil
	s.state = nil
	s.config = nil
	s.events = nil
	return nil
}

// eventsOfType filters the raw log for assertions.
func (s *memStore) eventsOfType(eventType domain.EventType) []domain.SimulationEvent {
	var out []domain.SimulationEvent
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func cloneOrder(order domain.ProductionOrder) domain.ProductionOrder {
	order.RequiredMaterials = cloneIntMap(order.RequiredMaterials)
	order.CommittedMaterials = cloneIntMap(order.CommittedMaterials)
	return order
}

func cloneState(state domain.SimulationState) domain.SimulationState {
	state.Inventory = cloneIntMap(state.Inventory)
	state.CommittedInventory = cloneIntMap(state.CommittedInventory)
	state.ActiveProductionOrders = append([]string(nil), state.ActiveProductionOrders...)
	state.PendingPurchaseOrders = append([]string(nil), state.PendingPurchaseOrders...)
	return state
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
