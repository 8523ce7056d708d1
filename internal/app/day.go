package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// AdvanceDay runs one simulated day: new customer demand, purchase order
// arrivals gated by storage capacity, production completions gated by daily
// capacity, and the operational cost charge. It must run to completion; a
// failure mid-day leaves the run in a partial-day condition.
func (e *SimulationEngine) AdvanceDay(ctx context.Context) (domain.SimulationState, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.SimulationState{}, err
	}

	r.state.CurrentDay++
	today := domain.SimulatedDate(r.state.CurrentDay)

	if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeDayStart, map[string]any{"day": r.state.CurrentDay}); err != nil {
		return domain.SimulationState{}, err
	}

	if err := e.generateDemand(ctx, r); err != nil {
		return domain.SimulationState{}, err
	}
	if err := e.processArrivals(ctx, r, today); err != nil {
		return domain.SimulationState{}, err
	}
	if err := e.processCompletions(ctx, r); err != nil {
		return domain.SimulationState{}, err
	}

	cost := operationalCost(r.config.Financial, len(r.state.ActiveProductionOrders))
	r.state.CurrentBalance = r.state.CurrentBalance.Sub(cost)
	if err := e.logFinancialEvent(ctx, r.state.CurrentDay, domain.EventTypeOperationalCost, map[string]any{
		"orders_in_production": len(r.state.ActiveProductionOrders),
	}, cost.Neg()); err != nil {
		return domain.SimulationState{}, err
	}

	if err := e.store.SaveState(ctx, r.state); err != nil {
		return domain.SimulationState{}, fmt.Errorf("saving state: %w", err)
	}
	if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeDayEnd, map[string]any{"day": r.state.CurrentDay}); err != nil {
		return domain.SimulationState{}, err
	}

	return r.state, nil
}

// generateDemand creates the day's random customer orders within the
// configured ranges.
func (e *SimulationEngine) generateDemand(ctx context.Context, r *run) error {
	if len(r.products) == 0 {
		return nil
	}

	productIDs := make([]string, 0, len(r.products))
	for id := range r.products {
		productIDs = append(productIDs, id)
	}
	// Map iteration order would make seeded runs irreproducible.
	sort.Strings(productIDs)

	cfg := r.config.Demand
	count := e.randBetween(cfg.MinOrdersPerDay, cfg.MaxOrdersPerDay)
	requested := domain.SimulatedDate(r.state.CurrentDay)

	for i := 0; i < count; i++ {
		product := r.products[productIDs[e.rng.Intn(len(productIDs))]]
		quantity := e.randBetween(cfg.MinQtyPerOrder, cfg.MaxQtyPerOrder)
		if quantity < 1 {
			quantity = 1
		}

		order := domain.NewProductionOrder(newID(), product, quantity, requested, e.now())
		if err := e.store.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("creating demand order: %w", err)
		}
		if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeOrderReceived, map[string]any{
			"order_id":   order.ID,
			"product_id": order.ProductID,
			"quantity":   order.Quantity,
		}); err != nil {
			return err
		}
	}
	return nil
}

// randBetween draws a uniform integer in [lo, hi]. A degenerate range
// collapses to lo.
func (e *SimulationEngine) randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Intn(hi-lo+1)
}

// processArrivals receives every due purchase order that fits in storage.
// Arrivals that do not fit stay pending and are retried every day until room
// exists; there is no retry cap.
func (e *SimulationEngine) processArrivals(ctx context.Context, r *run, today time.Time) error {
	pending := append([]string(nil), r.state.PendingPurchaseOrders...)
	for _, poID := range pending {
		po, err := e.store.GetPurchaseOrder(ctx, poID)
		if err != nil {
			var refErr *domain.InvalidReferenceError
			if errors.As(err, &refErr) {
				r.state.RemovePendingPurchase(poID)
				continue
			}
			return err
		}
		if po.Status != domain.PurchaseOrdered {
			r.state.RemovePendingPurchase(poID)
			continue
		}
		if po.ExpectedArrivalDate.After(today) {
			continue
		}

		if !r.state.HasStorageRoom(po.QuantityOrdered) {
			if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeArrivalDelayed, map[string]any{
				"po_id":       po.ID,
				"material_id": po.MaterialID,
				"quantity":    po.QuantityOrdered,
			}); err != nil {
				return err
			}
			continue
		}

		if err := e.adjustPhysical(ctx, &r.state, po.MaterialID, po.QuantityOrdered); err != nil {
			return err
		}
		arrived := today
		po.Status = domain.PurchaseArrived
		po.ActualArrivalDate = &arrived
		po.UnitsReceived = po.QuantityOrdered
		if err := e.store.UpdatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("updating purchase order %s: %w", po.ID, err)
		}
		r.state.RemovePendingPurchase(poID)

		if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeMaterialArrival, map[string]any{
			"po_id":       po.ID,
			"material_id": po.MaterialID,
			"quantity":    po.QuantityOrdered,
		}); err != nil {
			return err
		}
	}
	return nil
}

// processCompletions finishes due production runs in the order they entered
// the active list (FIFO). Orders past their production time that miss the
// daily capacity cut keep their elapsed time and are retried tomorrow.
func (e *SimulationEngine) processCompletions(ctx context.Context, r *run) error {
	completedToday := 0
	active := append([]string(nil), r.state.ActiveProductionOrders...)
	for _, orderID := range active {
		order, err := e.store.GetOrder(ctx, orderID)
		if err != nil {
			var refErr *domain.InvalidReferenceError
			if errors.As(err, &refErr) {
				r.state.RemoveActiveOrder(orderID)
				continue
			}
			return err
		}
		if order.Status != domain.StatusInProgress {
			r.state.RemoveActiveOrder(orderID)
			continue
		}
		product, ok := r.products[order.ProductID]
		if !ok || order.StartedAt == nil {
			continue
		}

		elapsed := r.state.CurrentDay - domain.DayOf(*order.StartedAt)
		if elapsed < product.ProductionTime {
			continue
		}

		if completedToday >= r.state.DailyProductionCapacity {
			if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeProductionDelayed, map[string]any{
				"order_id": order.ID,
			}); err != nil {
				return err
			}
			continue
		}

		if err := e.completeOrder(ctx, r, order); err != nil {
			return err
		}
		completedToday++
	}
	return nil
}
