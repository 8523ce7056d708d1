package app

import (
	"context"
	"fmt"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// AcceptOrder attempts to accept a pending production order. Finished-goods
// stock is used first: a full cover fulfills the order outright, a partial
// cover shrinks it. Whatever remains is accepted only if every required
// material is available once other orders' commitments are subtracted; the
// commitment is all-or-nothing.
func (e *SimulationEngine) AcceptOrder(ctx context.Context, orderID string) (domain.ProductionOrder, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.ProductionOrder{}, err
	}

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	if order.Status != domain.StatusPending {
		return domain.ProductionOrder{}, &domain.TransitionError{Event: domain.EventAccept, Current: order.Status}
	}
	product, ok := r.products[order.ProductID]
	if !ok {
		return domain.ProductionOrder{}, &domain.InvalidReferenceError{Kind: "product", ID: order.ProductID}
	}

	stock := r.state.Inventory[order.ProductID]
	if stock >= order.Quantity {
		return e.fulfillOrder(ctx, r, order)
	}

	if stock > 0 {
		// Partial fulfillment is a completed step in its own right: it is
		// persisted even when the acceptance of the remainder fails below.
		if err := e.adjustPhysical(ctx, &r.state, order.ProductID, -stock); err != nil {
			return domain.ProductionOrder{}, err
		}
		if err := e.creditSale(ctx, r, order, stock); err != nil {
			return domain.ProductionOrder{}, err
		}
		order.ReduceQuantity(product, stock)
		if err := e.store.UpdateOrder(ctx, order); err != nil {
			return domain.ProductionOrder{}, fmt.Errorf("updating order %s: %w", order.ID, err)
		}
		if err := e.store.SaveState(ctx, r.state); err != nil {
			return domain.ProductionOrder{}, fmt.Errorf("saving state: %w", err)
		}
		if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeOrderPartialFulfilled, map[string]any{
			"order_id":   order.ID,
			"product_id": order.ProductID,
			"fulfilled":  stock,
			"remaining":  order.Quantity,
		}); err != nil {
			return domain.ProductionOrder{}, err
		}
	}

	newStatus, err := e.validator.Apply(ctx, order.Status, domain.EventAccept)
	if err != nil {
		return domain.ProductionOrder{}, err
	}

	// Check every material before moving any: acceptance is all-or-nothing.
	for _, materialID := range product.BOMMaterialIDs() {
		needed := order.RequiredMaterials[materialID]
		available := r.state.AvailableFor(materialID, order.CommittedMaterials[materialID])
		if available < needed {
			insufficient := &domain.InsufficientMaterialError{
				OrderID:    order.ID,
				MaterialID: materialID,
				Needed:     needed,
				Available:  available,
			}
			if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeAcceptanceFailed, map[string]any{
				"order_id":    order.ID,
				"material_id": materialID,
				"needed":      needed,
				"available":   available,
			}); err != nil {
				return domain.ProductionOrder{}, err
			}
			return domain.ProductionOrder{}, insufficient
		}
	}

	for _, materialID := range product.BOMMaterialIDs() {
		needed := order.RequiredMaterials[materialID]
		if needed == 0 {
			continue
		}
		if err := e.adjustPhysical(ctx, &r.state, materialID, -needed); err != nil {
			return domain.ProductionOrder{}, err
		}
		if err := e.adjustCommitted(ctx, &r.state, materialID, needed); err != nil {
			return domain.ProductionOrder{}, err
		}
		order.CommittedMaterials[materialID] += needed
	}

	order.Status = newStatus
	if err := e.store.UpdateOrder(ctx, order); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	if err := e.store.SaveState(ctx, r.state); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("saving state: %w", err)
	}
	if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeOrderAccepted, map[string]any{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	}); err != nil {
		return domain.ProductionOrder{}, err
	}

	return order, nil
}

// FulfillFromStock serves an accepted order entirely from finished-goods
// stock, releasing its reserved materials back to the open pool.
func (e *SimulationEngine) FulfillFromStock(ctx context.Context, orderID string) (domain.ProductionOrder, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	return e.fulfillOrder(ctx, r, order)
}

// fulfillOrder deducts the order's full quantity from finished-goods stock,
// releases any committed materials, collects revenue and marks the order
// Fulfilled. Shared by direct acceptance fulfillment and late-stock
// fulfillment of accepted orders.
func (e *SimulationEngine) fulfillOrder(ctx context.Context, r *run, order domain.ProductionOrder) (domain.ProductionOrder, error) {
	newStatus, err := e.validator.Apply(ctx, order.Status, domain.EventFulfill)
	if err != nil {
		return domain.ProductionOrder{}, err
	}

	stock := r.state.Inventory[order.ProductID]
	if stock < order.Quantity {
		return domain.ProductionOrder{}, &domain.InsufficientMaterialError{
			OrderID:    order.ID,
			MaterialID: order.ProductID,
			Needed:     order.Quantity,
			Available:  stock,
		}
	}

	if err := e.adjustPhysical(ctx, &r.state, order.ProductID, -order.Quantity); err != nil {
		return domain.ProductionOrder{}, err
	}

	// Reserved materials are no longer needed: return them to the open pool.
	for _, materialID := range sortedKeys(order.CommittedMaterials) {
		qty := order.CommittedMaterials[materialID]
		if err := e.adjustCommitted(ctx, &r.state, materialID, -qty); err != nil {
			return domain.ProductionOrder{}, err
		}
		if err := e.adjustPhysical(ctx, &r.state, materialID, qty); err != nil {
			return domain.ProductionOrder{}, err
		}
	}
	order.CommittedMaterials = make(map[string]int)

	if err := e.collectRevenue(ctx, r, &order); err != nil {
		return domain.ProductionOrder{}, err
	}

	completedAt := domain.SimulatedDate(r.state.CurrentDay)
	order.CompletedAt = &completedAt
	order.Status = newStatus

	if err := e.store.UpdateOrder(ctx, order); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	if err := e.store.SaveState(ctx, r.state); err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("saving state: %w", err)
	}
	if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeOrderFulfilled, map[string]any{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	}); err != nil {
		return domain.ProductionOrder{}, err
	}

	return order, nil
}

// StartProduction moves accepted orders onto the factory floor. Materials are
// already reserved, so the transition is unconditional. Returns a per-order
// outcome message keyed by order id.
func (e *SimulationEngine) StartProduction(ctx context.Context, orderIDs []string) (map[string]string, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]string, len(orderIDs))
	startedAt := domain.SimulatedDate(r.state.CurrentDay)
	changed := false

	for _, orderID := range orderIDs {
		order, err := e.store.GetOrder(ctx, orderID)
		if err != nil {
			results[orderID] = err.Error()
			continue
		}
		newStatus, err := e.validator.Apply(ctx, order.Status, domain.EventStart)
		if err != nil {
			results[orderID] = err.Error()
			continue
		}

		order.Status = newStatus
		started := startedAt
		order.StartedAt = &started
		if err := e.store.UpdateOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("updating order %s: %w", order.ID, err)
		}
		r.state.ActiveProductionOrders = append(r.state.ActiveProductionOrders, order.ID)
		changed = true

		if err := e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeProductionStarted, map[string]any{
			"order_id":   order.ID,
			"product_id": order.ProductID,
			"quantity":   order.Quantity,
		}); err != nil {
			return nil, err
		}
		results[orderID] = "production started"
	}

	if changed {
		if err := e.store.SaveState(ctx, r.state); err != nil {
			return nil, fmt.Errorf("saving state: %w", err)
		}
	}
	return results, nil
}

// completeOrder finishes a production run: consumes the committed materials,
// books the finished goods into physical stock and collects revenue.
func (e *SimulationEngine) completeOrder(ctx context.Context, r *run, order domain.ProductionOrder) error {
	newStatus, err := e.validator.Apply(ctx, order.Status, domain.EventComplete)
	if err != nil {
		return err
	}

	for _, materialID := range sortedKeys(order.CommittedMaterials) {
		qty := order.CommittedMaterials[materialID]
		if r.state.CommittedInventory[materialID] < qty {
			return &domain.InconsistencyError{Detail: fmt.Sprintf(
				"committed pool of %s (%d) is below order %s commitment (%d)",
				materialID, r.state.CommittedInventory[materialID], order.ID, qty,
			)}
		}
	}
	for _, materialID := range sortedKeys(order.CommittedMaterials) {
		if err := e.adjustCommitted(ctx, &r.state, materialID, -order.CommittedMaterials[materialID]); err != nil {
			return err
		}
	}
	order.CommittedMaterials = make(map[string]int)

	if err := e.adjustPhysical(ctx, &r.state, order.ProductID, order.Quantity); err != nil {
		return err
	}
	if err := e.collectRevenue(ctx, r, &order); err != nil {
		return err
	}

	completedAt := domain.SimulatedDate(r.state.CurrentDay)
	order.CompletedAt = &completedAt
	order.Status = newStatus
	if err := e.store.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	r.state.RemoveActiveOrder(order.ID)

	return e.logEvent(ctx, r.state.CurrentDay, domain.EventTypeProductionCompleted, map[string]any{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	})
}
