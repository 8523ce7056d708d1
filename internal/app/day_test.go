package app_test

import (
	"context"
	"testing"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

func TestAdvanceDayCompletesProduction(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 1)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := engine.StartProduction(context.Background(), []string{order.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}

	state, err := engine.AdvanceDay(context.Background())
	if err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	if state.CurrentDay != 1 {
		t.Errorf("CurrentDay = %d, want 1", state.CurrentDay)
	}
	completed, _ := store.GetOrder(context.Background(), order.ID)
	if completed.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want Completed", completed.Status)
	}
	if !completed.RevenueCollected {
		t.Error("revenue not collected")
	}
	if completed.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if got := state.Inventory["prod-printer"]; got != 1 {
		t.Errorf("printer stock = %d, want 1", got)
	}
	if got := state.CommittedInventory["mat-frame"]; got != 0 {
		t.Errorf("committed frames = %d, want 0", got)
	}
	if len(state.ActiveProductionOrders) != 0 {
		t.Errorf("active orders = %v, want none", state.ActiveProductionOrders)
	}
	// 1000 + 100 revenue - 50 operational cost (no orders left in production).
	if !state.CurrentBalance.Equal(dec(1050)) {
		t.Errorf("balance = %s, want 1050", state.CurrentBalance)
	}
}

func TestAdvanceDayCollectsRevenueOnce(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 1)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := engine.StartProduction(context.Background(), []string{order.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("first AdvanceDay: %v", err)
	}
	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("second AdvanceDay: %v", err)
	}

	if got := len(store.eventsOfType(domain.EventTypeRevenueCollected)); got != 1 {
		t.Errorf("revenue events = %d, want 1", got)
	}
}

func TestAdvanceDayHonorsProductionTime(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"mat-frame": 10, "mat-belt": 10}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-plotter", 2) // production time 3
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := engine.StartProduction(context.Background(), []string{order.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for day := 1; day <= 2; day++ {
		if _, err := engine.AdvanceDay(context.Background()); err != nil {
			t.Fatalf("AdvanceDay %d: %v", day, err)
		}
		stored, _ := store.GetOrder(context.Background(), order.ID)
		if stored.Status != domain.StatusInProgress {
			t.Fatalf("day %d: status = %s, want In Progress", day, stored.Status)
		}
	}

	state, err := engine.AdvanceDay(context.Background())
	if err != nil {
		t.Fatalf("AdvanceDay 3: %v", err)
	}
	stored, _ := store.GetOrder(context.Background(), order.ID)
	if stored.Status != domain.StatusCompleted {
		t.Fatalf("day 3: status = %s, want Completed", stored.Status)
	}
	if got := state.Inventory["prod-plotter"]; got != 2 {
		t.Errorf("plotter stock = %d, want 2", got)
	}
}

func TestAdvanceDayCapacityGate(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.DailyProductionCapacity = 1
	ic.InitialInventory = map[string]int{"mat-frame": 20, "mat-motor": 10}
	mustInitialize(t, engine, ic)

	first := seedOrder(t, store, ic, "prod-printer", 1)
	second := seedOrder(t, store, ic, "prod-printer", 1)
	for _, id := range []string{first.ID, second.ID} {
		if _, err := engine.AcceptOrder(context.Background(), id); err != nil {
			t.Fatalf("accept %s: %v", id, err)
		}
	}
	if _, err := engine.StartProduction(context.Background(), []string{first.ID, second.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}

	firstStored, _ := store.GetOrder(context.Background(), first.ID)
	secondStored, _ := store.GetOrder(context.Background(), second.ID)
	if firstStored.Status != domain.StatusCompleted {
		t.Errorf("first order status = %s, want Completed", firstStored.Status)
	}
	if secondStored.Status != domain.StatusInProgress {
		t.Errorf("second order status = %s, want In Progress", secondStored.Status)
	}
	if got := len(store.eventsOfType(domain.EventTypeProductionDelayed)); got != 1 {
		t.Errorf("delayed events = %d, want 1", got)
	}

	// The delayed order keeps its elapsed time and completes next day.
	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("second AdvanceDay: %v", err)
	}
	secondStored, _ = store.GetOrder(context.Background(), second.ID)
	if secondStored.Status != domain.StatusCompleted {
		t.Errorf("second order status = %s, want Completed after retry", secondStored.Status)
	}
}

func TestAdvanceDayStorageGate(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.StorageCapacity = 100
	ic.InitialInventory = map[string]int{"mat-frame": 50}
	ic.Providers = []domain.Provider{{
		ID:   "prov-quick",
		Name: "QuickShip",
		Catalog: []domain.Offering{
			{MaterialID: "mat-frame", PricePerUnit: dec(2), LeadTimeDays: 0},
		},
	}}
	mustInitialize(t, engine, ic)

	po, err := engine.PlacePurchaseOrder(context.Background(), "mat-frame", "prov-quick", 60)
	if err != nil {
		t.Fatalf("PlacePurchaseOrder() error = %v", err)
	}

	state, err := engine.AdvanceDay(context.Background())
	if err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	// 50 + 60 > 100: the arrival is held back, stock unchanged.
	if got := state.Inventory["mat-frame"]; got != 50 {
		t.Errorf("physical frames = %d, want 50", got)
	}
	stored, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if stored.Status != domain.PurchaseOrdered {
		t.Errorf("purchase order status = %s, want Ordered", stored.Status)
	}
	if len(state.PendingPurchaseOrders) != 1 {
		t.Errorf("pending purchase orders = %v, want one", state.PendingPurchaseOrders)
	}
	if got := len(store.eventsOfType(domain.EventTypeArrivalDelayed)); got != 1 {
		t.Errorf("arrival-delayed events = %d, want 1", got)
	}
}

func TestAdvanceDayReceivesPurchaseOrder(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)

	po, err := engine.PlacePurchaseOrder(context.Background(), "mat-motor", "prov-alpha", 5)
	if err != nil {
		t.Fatalf("PlacePurchaseOrder() error = %v", err)
	}

	// Lead time 1: arrives on the next day's advance.
	state, err := engine.AdvanceDay(context.Background())
	if err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	if got := state.Inventory["mat-motor"]; got != 15 {
		t.Errorf("physical motors = %d, want 15", got)
	}
	stored, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if stored.Status != domain.PurchaseArrived {
		t.Errorf("purchase order status = %s, want Arrived", stored.Status)
	}
	if stored.ActualArrivalDate == nil {
		t.Error("ActualArrivalDate not set")
	}
	if stored.UnitsReceived != 5 {
		t.Errorf("UnitsReceived = %d, want 5", stored.UnitsReceived)
	}
	if len(state.PendingPurchaseOrders) != 0 {
		t.Errorf("pending purchase orders = %v, want none", state.PendingPurchaseOrders)
	}
	if got := len(store.eventsOfType(domain.EventTypeMaterialArrival)); got != 1 {
		t.Errorf("arrival events = %d, want 1", got)
	}
}

func TestAdvanceDayGeneratesDemand(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.Demand = domain.DemandConfig{
		MinOrdersPerDay: 2, MaxOrdersPerDay: 2,
		MinQtyPerOrder: 3, MaxQtyPerOrder: 3,
	}
	mustInitialize(t, engine, ic)

	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	pending := domain.StatusPending
	orders, err := store.ListOrders(context.Background(), domain.OrderFilter{Status: &pending})
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("pending orders = %d, want 2", len(orders))
	}
	for _, order := range orders {
		if order.Quantity != 3 {
			t.Errorf("order quantity = %d, want 3", order.Quantity)
		}
		if len(order.RequiredMaterials) == 0 {
			t.Error("required materials not computed")
		}
	}
	if got := len(store.eventsOfType(domain.EventTypeOrderReceived)); got != 2 {
		t.Errorf("order-received events = %d, want 2", got)
	}
}

func TestAdvanceDayOperationalCostFloor(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.Financial.DailyOperationalCostBase = dec(0)
	ic.Financial.DailyOperationalCostPerItemInProduction = dec(0)
	mustInitialize(t, engine, ic)

	state, err := engine.AdvanceDay(context.Background())
	if err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	// Even a free configuration charges the minimum.
	if !state.CurrentBalance.Equal(dec(999)) {
		t.Errorf("balance = %s, want 999", state.CurrentBalance)
	}
	costEvents := store.eventsOfType(domain.EventTypeOperationalCost)
	if len(costEvents) != 1 {
		t.Fatalf("operational-cost events = %d, want 1", len(costEvents))
	}
	if !costEvents[0].Amount.Equal(dec(-1)) {
		t.Errorf("cost amount = %s, want -1", costEvents[0].Amount)
	}
}

func TestAdvanceDayBookkeepingEvents(t *testing.T) {
	engine, store := newTestEngine(t)
	mustInitialize(t, engine, testConditions())

	if _, err := engine.AdvanceDay(context.Background()); err != nil {
		t.Fatalf("AdvanceDay() error = %v", err)
	}

	if got := len(store.eventsOfType(domain.EventTypeDayStart)); got != 1 {
		t.Errorf("day-start events = %d, want 1", got)
	}
	if got := len(store.eventsOfType(domain.EventTypeDayEnd)); got != 1 {
		t.Errorf("day-end events = %d, want 1", got)
	}
}
