package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// InventoryDetail is the per-item breakdown of the warehouse position.
type InventoryDetail struct {
	ItemID             string `json:"item_id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Physical           int    `json:"physical"`
	Committed          int    `json:"committed"`
	OnOrder            int    `json:"on_order"`
	ProjectedAvailable int    `json:"projected_available"`
}

// InventoryDetails returns the warehouse position of every catalog item:
// physical and committed stock, units still inbound on Ordered purchase
// orders, and projected availability (physical − committed + on order).
func (e *SimulationEngine) InventoryDetails(ctx context.Context) (map[string]InventoryDetail, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return nil, err
	}

	status := domain.PurchaseOrdered
	pending, err := e.store.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Status: &status})
	if err != nil {
		return nil, err
	}
	onOrder := make(map[string]int)
	for _, po := range pending {
		onOrder[po.MaterialID] += po.QuantityOrdered
	}

	items := make(map[string]InventoryDetail, len(r.materials)+len(r.products))
	for id, m := range r.materials {
		items[id] = e.inventoryDetail(r, id, m.Name, ItemTypeMaterial, onOrder[id])
	}
	for id, p := range r.products {
		items[id] = e.inventoryDetail(r, id, p.Name, ItemTypeProduct, onOrder[id])
	}
	return items, nil
}

func (e *SimulationEngine) inventoryDetail(r *run, id, name, itemType string, onOrder int) InventoryDetail {
	physical := r.state.Inventory[id]
	committed := r.state.CommittedInventory[id]
	return InventoryDetail{
		ItemID:             id,
		Name:               name,
		Type:               itemType,
		Physical:           physical,
		Committed:          committed,
		OnOrder:            onOrder,
		ProjectedAvailable: physical - committed + onOrder,
	}
}

// Export serializes the entire run: state, configuration, catalog,
// transactional data and the event log.
func (e *SimulationEngine) Export(ctx context.Context) (domain.DataExport, error) {
	r, err := e.loadRun(ctx)
	if err != nil {
		return domain.DataExport{}, err
	}

	export := domain.DataExport{State: r.state, Config: r.config}
	if export.Materials, err = e.store.ListMaterials(ctx); err != nil {
		return domain.DataExport{}, err
	}
	if export.Products, err = e.store.ListProducts(ctx); err != nil {
		return domain.DataExport{}, err
	}
	if export.Providers, err = e.store.ListProviders(ctx); err != nil {
		return domain.DataExport{}, err
	}
	if export.ProductionOrders, err = e.store.ListOrders(ctx, domain.OrderFilter{}); err != nil {
		return domain.DataExport{}, err
	}
	if export.PurchaseOrders, err = e.store.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{}); err != nil {
		return domain.DataExport{}, err
	}
	if export.Events, err = e.store.ListEvents(ctx, 0); err != nil {
		return domain.DataExport{}, err
	}
	// ListEvents is newest first; the snapshot keeps chronological order so
	// importing replays the log as it happened.
	for i, j := 0, len(export.Events)-1; i < j; i, j = i+1, j-1 {
		export.Events[i], export.Events[j] = export.Events[j], export.Events[i]
	}
	return export, nil
}

// Import destructively replaces the current run with a previously exported
// snapshot. A failure partway through leaves the store wiped rather than
// half-imported.
func (e *SimulationEngine) Import(ctx context.Context, data domain.DataExport) error {
	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}

	if err := e.restore(ctx, data); err != nil {
		if resetErr := e.store.Reset(ctx); resetErr != nil {
			return fmt.Errorf("import failed (%w) and cleanup failed: %v", err, resetErr)
		}
		if saveErr := e.store.SaveState(ctx, domain.NewSimulationState()); saveErr != nil {
			return fmt.Errorf("import failed (%w) and cleanup failed: %v", err, saveErr)
		}
		return err
	}

	return e.logEvent(ctx, data.State.CurrentDay, domain.EventTypeDataImported, map[string]any{
		"production_orders": len(data.ProductionOrders),
		"purchase_orders":   len(data.PurchaseOrders),
		"events":            len(data.Events),
	})
}

func (e *SimulationEngine) restore(ctx context.Context, data domain.DataExport) error {
	if err := e.store.SaveMaterials(ctx, data.Materials); err != nil {
		return fmt.Errorf("restoring materials: %w", err)
	}
	if err := e.store.SaveProducts(ctx, data.Products); err != nil {
		return fmt.Errorf("restoring products: %w", err)
	}
	if err := e.store.SaveProviders(ctx, data.Providers); err != nil {
		return fmt.Errorf("restoring providers: %w", err)
	}
	for _, order := range data.ProductionOrders {
		if err := e.store.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("restoring order %s: %w", order.ID, err)
		}
	}
	for _, po := range data.PurchaseOrders {
		if err := e.store.CreatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("restoring purchase order %s: %w", po.ID, err)
		}
	}
	for _, ev := range data.Events {
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			return fmt.Errorf("restoring event log: %w", err)
		}
	}
	if err := e.store.SaveConfig(ctx, data.Config); err != nil {
		return fmt.Errorf("restoring config: %w", err)
	}
	state := data.State
	state.IsInitialized = true
	if state.Inventory == nil {
		state.Inventory = make(map[string]int)
	}
	if state.CommittedInventory == nil {
		state.CommittedInventory = make(map[string]int)
	}
	if err := e.store.SaveState(ctx, state); err != nil {
		return fmt.Errorf("restoring state: %w", err)
	}
	return nil
}

// Materials lists the run's material catalog.
func (e *SimulationEngine) Materials(ctx context.Context) ([]domain.Material, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	return e.store.ListMaterials(ctx)
}

// Products lists the run's product catalog.
func (e *SimulationEngine) Products(ctx context.Context) ([]domain.Product, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	return e.store.ListProducts(ctx)
}

// Providers lists the run's provider catalog.
func (e *SimulationEngine) Providers(ctx context.Context) ([]domain.Provider, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	return e.store.ListProviders(ctx)
}

// Orders lists production orders, optionally filtered by status, newest
// requested first.
func (e *SimulationEngine) Orders(ctx context.Context, filter domain.OrderFilter) ([]domain.ProductionOrder, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	orders, err := e.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].RequestedDate.After(orders[j].RequestedDate)
	})
	return orders, nil
}

// Order fetches a single production order.
func (e *SimulationEngine) Order(ctx context.Context, id string) (domain.ProductionOrder, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return domain.ProductionOrder{}, err
	}
	return e.store.GetOrder(ctx, id)
}

// PurchaseOrders lists purchase orders, optionally filtered by status.
func (e *SimulationEngine) PurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) ([]domain.PurchaseOrder, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	return e.store.ListPurchaseOrders(ctx, filter)
}

// Events returns the most recent simulation events, newest first. A limit of
// zero returns the full log.
func (e *SimulationEngine) Events(ctx context.Context, limit int) ([]domain.SimulationEvent, error) {
	if _, err := e.loadRun(ctx); err != nil {
		return nil, err
	}
	return e.store.ListEvents(ctx, limit)
}
