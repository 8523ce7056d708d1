package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/adapter/fsm"
	"github.com/DGSI-UPC/3d-printer-mrp/internal/app"
	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.SimulationEvent) error { return nil }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixedNow() time.Time {
	return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T) (*app.SimulationEngine, *memStore) {
	t.Helper()
	store := newMemStore()
	engine := app.NewSimulationEngine(store, noopPublisher{}, fsm.New(),
		app.WithRand(rand.New(rand.NewSource(42))),
		app.WithNow(fixedNow),
	)
	return engine, store
}

// testConditions builds the standard fixture: a printer built from frames and
// motors, a slow unpriced product needing belts nobody sells, and two
// providers with different frame prices.
func testConditions() domain.InitialConditions {
	return domain.InitialConditions{
		Materials: []domain.Material{
			{ID: "mat-frame", Name: "Aluminium Frame"},
			{ID: "mat-motor", Name: "Stepper Motor"},
			{ID: "mat-belt", Name: "Drive Belt"},
		},
		Products: []domain.Product{
			{
				ID:   "prod-printer",
				Name: "Desktop Printer",
				BOM: []domain.BOMLine{
					{MaterialID: "mat-frame", Quantity: 2},
					{MaterialID: "mat-motor", Quantity: 1},
				},
				ProductionTime: 1,
			},
			{
				ID:   "prod-plotter",
				Name: "Large Plotter",
				BOM: []domain.BOMLine{
					{MaterialID: "mat-frame", Quantity: 1},
					{MaterialID: "mat-belt", Quantity: 2},
				},
				ProductionTime: 3,
			},
		},
		Providers: []domain.Provider{
			{
				ID:   "prov-alpha",
				Name: "Alpha Supplies",
				Catalog: []domain.Offering{
					{MaterialID: "mat-frame", PricePerUnit: dec(5), LeadTimeDays: 2},
					{MaterialID: "mat-motor", PricePerUnit: dec(10), LeadTimeDays: 1},
				},
			},
			{
				ID:   "prov-beta",
				Name: "Beta Metals",
				Catalog: []domain.Offering{
					{MaterialID: "mat-frame", PricePerUnit: dec(4), LeadTimeDays: 3},
				},
			},
		},
		InitialInventory:        map[string]int{"mat-frame": 20, "mat-motor": 10},
		StorageCapacity:         1000,
		DailyProductionCapacity: 2,
		Demand:                  domain.DemandConfig{},
		Financial: domain.FinancialConfig{
			InitialBalance:                          dec(1000),
			ProductPrices:                           map[string]decimal.Decimal{"prod-printer": dec(100)},
			DailyOperationalCostBase:                dec(50),
			DailyOperationalCostPerItemInProduction: dec(5),
		},
	}
}

func mustInitialize(t *testing.T, engine *app.SimulationEngine, ic domain.InitialConditions) domain.SimulationState {
	t.Helper()
	state, err := engine.Initialize(context.Background(), ic)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return state
}

func seedOrder(t *testing.T, store *memStore, ic domain.InitialConditions, productID string, quantity int) domain.ProductionOrder {
	t.Helper()
	var product domain.Product
	for _, p := range ic.Products {
		if p.ID == productID {
			product = p
		}
	}
	if product.ID == "" {
		t.Fatalf("fixture has no product %s", productID)
	}
	order := domain.NewProductionOrder("order-"+productID+"-"+time.Now().Format("150405.000000000"),
		product, quantity, domain.SimulatedDate(0), fixedNow())
	if err := store.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	return order
}

func TestInitialize(t *testing.T) {
	engine, store := newTestEngine(t)

	state := mustInitialize(t, engine, testConditions())

	if !state.IsInitialized {
		t.Error("state not marked initialized")
	}
	if state.CurrentDay != 0 {
		t.Errorf("CurrentDay = %d, want 0", state.CurrentDay)
	}
	if got := state.Inventory["mat-frame"]; got != 20 {
		t.Errorf("Inventory[mat-frame] = %d, want 20", got)
	}
	if !state.CurrentBalance.Equal(dec(1000)) {
		t.Errorf("CurrentBalance = %s, want 1000", state.CurrentBalance)
	}
	if got := len(store.eventsOfType(domain.EventTypeSimulationInitialized)); got != 1 {
		t.Errorf("initialization events = %d, want 1", got)
	}
}

func TestInitializeValidatesReferences(t *testing.T) {
	engine, _ := newTestEngine(t)

	ic := testConditions()
	ic.Products[0].BOM = append(ic.Products[0].BOM, domain.BOMLine{MaterialID: "mat-ghost", Quantity: 1})

	_, err := engine.Initialize(context.Background(), ic)
	var refErr *domain.InvalidReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("Initialize() error = %v, want InvalidReferenceError", err)
	}
	if refErr.ID != "mat-ghost" {
		t.Errorf("error id = %s, want mat-ghost", refErr.ID)
	}
}

func TestInitializeRejectsZeroProductionTime(t *testing.T) {
	engine, _ := newTestEngine(t)

	ic := testConditions()
	ic.Products[0].ProductionTime = 0

	_, err := engine.Initialize(context.Background(), ic)
	var qtyErr *domain.InvalidQuantityError
	if !errors.As(err, &qtyErr) {
		t.Fatalf("Initialize() error = %v, want InvalidQuantityError", err)
	}
}

func TestOperationsRequireInitialization(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	checks := map[string]func() error{
		"State":      func() error { _, err := engine.State(ctx); return err },
		"Status":     func() error { _, err := engine.Status(ctx); return err },
		"AdvanceDay": func() error { _, err := engine.AdvanceDay(ctx); return err },
		"AcceptOrder": func() error {
			_, err := engine.AcceptOrder(ctx, "o1")
			return err
		},
		"PlacePurchaseOrder": func() error {
			_, err := engine.PlacePurchaseOrder(ctx, "mat-frame", "prov-alpha", 1)
			return err
		},
		"ForecastItem": func() error {
			_, err := engine.ForecastItem(ctx, "mat-frame", 7, 0)
			return err
		},
		"Export": func() error { _, err := engine.Export(ctx); return err },
	}
	for name, op := range checks {
		if err := op(); !errors.Is(err, domain.ErrNotInitialized) {
			t.Errorf("%s error = %v, want ErrNotInitialized", name, err)
		}
	}
}

func TestAcceptOrderCommitsMaterials(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 5)

	accepted, err := engine.AcceptOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("AcceptOrder() error = %v", err)
	}

	if accepted.Status != domain.StatusAccepted {
		t.Fatalf("status = %s, want Accepted", accepted.Status)
	}
	if got := accepted.CommittedMaterials["mat-frame"]; got != 10 {
		t.Errorf("committed frames = %d, want 10", got)
	}
	if got := accepted.CommittedMaterials["mat-motor"]; got != 5 {
		t.Errorf("committed motors = %d, want 5", got)
	}

	state, err := engine.State(context.Background())
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if got := state.Inventory["mat-frame"]; got != 10 {
		t.Errorf("physical frames = %d, want 10", got)
	}
	if got := state.CommittedInventory["mat-frame"]; got != 10 {
		t.Errorf("committed pool frames = %d, want 10", got)
	}
	if got := state.Inventory["mat-motor"]; got != 5 {
		t.Errorf("physical motors = %d, want 5", got)
	}
	if got := state.CommittedInventory["mat-motor"]; got != 5 {
		t.Errorf("committed pool motors = %d, want 5", got)
	}
}

func TestAcceptOrderInsufficientMaterial(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"mat-frame": 4, "mat-motor": 10}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 5) // needs 10 frames

	_, err := engine.AcceptOrder(context.Background(), order.ID)
	var matErr *domain.InsufficientMaterialError
	if !errors.As(err, &matErr) {
		t.Fatalf("AcceptOrder() error = %v, want InsufficientMaterialError", err)
	}
	if matErr.MaterialID != "mat-frame" || matErr.Needed != 10 || matErr.Available != 4 {
		t.Errorf("error = %+v, want mat-frame need 10 have 4", matErr)
	}

	// Nothing moved, order still pending.
	stored, _ := store.GetOrder(context.Background(), order.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want Pending", stored.Status)
	}
	state, _ := engine.State(context.Background())
	if got := state.Inventory["mat-frame"]; got != 4 {
		t.Errorf("physical frames = %d, want 4", got)
	}
	if got := state.CommittedInventory["mat-frame"]; got != 0 {
		t.Errorf("committed frames = %d, want 0", got)
	}
	if got := len(store.eventsOfType(domain.EventTypeAcceptanceFailed)); got != 1 {
		t.Errorf("acceptance-failed events = %d, want 1", got)
	}
}

func TestAcceptOrderIsAtomicAcrossMaterials(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	// Plenty of frames, no motors: the frame line must not move either.
	ic.InitialInventory = map[string]int{"mat-frame": 100, "mat-motor": 0}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 3)

	_, err := engine.AcceptOrder(context.Background(), order.ID)
	var matErr *domain.InsufficientMaterialError
	if !errors.As(err, &matErr) {
		t.Fatalf("AcceptOrder() error = %v, want InsufficientMaterialError", err)
	}
	state, _ := engine.State(context.Background())
	if got := state.Inventory["mat-frame"]; got != 100 {
		t.Errorf("physical frames = %d, want 100", got)
	}
	if got := state.CommittedInventory["mat-frame"]; got != 0 {
		t.Errorf("committed frames = %d, want 0", got)
	}
}

func TestAcceptOrderRespectsOtherCommitments(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"mat-frame": 30, "mat-motor": 20}
	mustInitialize(t, engine, ic)

	first := seedOrder(t, store, ic, "prod-printer", 5) // 10 frames
	if _, err := engine.AcceptOrder(context.Background(), first.ID); err != nil {
		t.Fatalf("accepting first order: %v", err)
	}

	// 20 frames left physical, 10 committed elsewhere: only 10 available.
	second := seedOrder(t, store, ic, "prod-printer", 6) // needs 12 frames
	_, err := engine.AcceptOrder(context.Background(), second.ID)
	var matErr *domain.InsufficientMaterialError
	if !errors.As(err, &matErr) {
		t.Fatalf("AcceptOrder() error = %v, want InsufficientMaterialError", err)
	}
	if matErr.MaterialID != "mat-frame" || matErr.Available != 10 {
		t.Errorf("error = %+v, want mat-frame available 10", matErr)
	}
}

func TestAcceptOrderFulfillsFromFinishedStock(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"prod-printer": 5}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 3)

	fulfilled, err := engine.AcceptOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("AcceptOrder() error = %v", err)
	}
	if fulfilled.Status != domain.StatusFulfilled {
		t.Fatalf("status = %s, want Fulfilled", fulfilled.Status)
	}
	if !fulfilled.RevenueCollected {
		t.Error("revenue not collected")
	}
	if fulfilled.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	state, _ := engine.State(context.Background())
	if got := state.Inventory["prod-printer"]; got != 2 {
		t.Errorf("printer stock = %d, want 2", got)
	}
	if !state.CurrentBalance.Equal(dec(1300)) {
		t.Errorf("balance = %s, want 1300", state.CurrentBalance)
	}
}

func TestAcceptOrderPartialFulfillment(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"prod-printer": 3, "mat-frame": 20, "mat-motor": 10}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 5)

	accepted, err := engine.AcceptOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("AcceptOrder() error = %v", err)
	}

	if accepted.Status != domain.StatusAccepted {
		t.Fatalf("status = %s, want Accepted", accepted.Status)
	}
	if accepted.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 after partial fulfillment", accepted.Quantity)
	}
	if got := accepted.RequiredMaterials["mat-frame"]; got != 4 {
		t.Errorf("required frames = %d, want 4 (recomputed)", got)
	}

	state, _ := engine.State(context.Background())
	if got := state.Inventory["prod-printer"]; got != 0 {
		t.Errorf("printer stock = %d, want 0", got)
	}
	// 3 units sold at 100 plus materials committed for the remainder.
	if !state.CurrentBalance.Equal(dec(1300)) {
		t.Errorf("balance = %s, want 1300", state.CurrentBalance)
	}
	if got := len(store.eventsOfType(domain.EventTypeOrderPartialFulfilled)); got != 1 {
		t.Errorf("partial-fulfillment events = %d, want 1", got)
	}
}

func TestAcceptOrderPartialPersistsWhenRemainderFails(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	ic.InitialInventory = map[string]int{"prod-printer": 3}
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 5)

	_, err := engine.AcceptOrder(context.Background(), order.ID)
	var matErr *domain.InsufficientMaterialError
	if !errors.As(err, &matErr) {
		t.Fatalf("AcceptOrder() error = %v, want InsufficientMaterialError", err)
	}

	// The fulfilled portion sticks even though acceptance of the rest failed.
	stored, _ := store.GetOrder(context.Background(), order.ID)
	if stored.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", stored.Quantity)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want Pending", stored.Status)
	}
	state, _ := engine.State(context.Background())
	if !state.CurrentBalance.Equal(dec(1300)) {
		t.Errorf("balance = %s, want 1300", state.CurrentBalance)
	}
}

func TestAcceptOrderRejectsNonPending(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 2)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	_, err := engine.AcceptOrder(context.Background(), order.ID)
	var transErr *domain.TransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("second accept error = %v, want TransitionError", err)
	}
}

func TestStartProduction(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 2)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	results, err := engine.StartProduction(context.Background(), []string{order.ID, "order-missing"})
	if err != nil {
		t.Fatalf("StartProduction() error = %v", err)
	}
	if results[order.ID] != "production started" {
		t.Errorf("result = %q, want %q", results[order.ID], "production started")
	}
	if results["order-missing"] == "" {
		t.Error("missing order produced no outcome message")
	}

	stored, _ := store.GetOrder(context.Background(), order.ID)
	if stored.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want In Progress", stored.Status)
	}
	if stored.StartedAt == nil {
		t.Fatal("StartedAt not set")
	}
	state, _ := engine.State(context.Background())
	if len(state.ActiveProductionOrders) != 1 || state.ActiveProductionOrders[0] != order.ID {
		t.Errorf("active orders = %v, want [%s]", state.ActiveProductionOrders, order.ID)
	}
}

func TestStartProductionRejectsPending(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 2)

	results, err := engine.StartProduction(context.Background(), []string{order.ID})
	if err != nil {
		t.Fatalf("StartProduction() error = %v", err)
	}
	if results[order.ID] == "production started" {
		t.Error("pending order must not start production")
	}
	state, _ := engine.State(context.Background())
	if len(state.ActiveProductionOrders) != 0 {
		t.Errorf("active orders = %v, want none", state.ActiveProductionOrders)
	}
}

func TestFulfillFromStockReleasesCommitments(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 2)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Finished goods show up later (e.g. via import or another completion).
	state, _ := store.LoadState(context.Background())
	state.Inventory["prod-printer"] = 2
	if err := store.SaveState(context.Background(), state); err != nil {
		t.Fatalf("seeding stock: %v", err)
	}

	fulfilled, err := engine.FulfillFromStock(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FulfillFromStock() error = %v", err)
	}
	if fulfilled.Status != domain.StatusFulfilled {
		t.Fatalf("status = %s, want Fulfilled", fulfilled.Status)
	}
	if len(fulfilled.CommittedMaterials) != 0 {
		t.Errorf("committed materials = %v, want empty", fulfilled.CommittedMaterials)
	}

	after, _ := engine.State(context.Background())
	// Reserved materials returned to the open pool.
	if got := after.Inventory["mat-frame"]; got != 20 {
		t.Errorf("physical frames = %d, want 20", got)
	}
	if got := after.CommittedInventory["mat-frame"]; got != 0 {
		t.Errorf("committed frames = %d, want 0", got)
	}
	if got := after.Inventory["prod-printer"]; got != 0 {
		t.Errorf("printer stock = %d, want 0", got)
	}
	if !after.CurrentBalance.Equal(dec(1200)) {
		t.Errorf("balance = %s, want 1200", after.CurrentBalance)
	}
}

func TestFulfillFromStockInsufficientStock(t *testing.T) {
	engine, store := newTestEngine(t)
	ic := testConditions()
	mustInitialize(t, engine, ic)
	order := seedOrder(t, store, ic, "prod-printer", 2)
	if _, err := engine.AcceptOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := engine.FulfillFromStock(context.Background(), order.ID)
	var matErr *domain.InsufficientMaterialError
	if !errors.As(err, &matErr) {
		t.Fatalf("FulfillFromStock() error = %v, want InsufficientMaterialError", err)
	}

	stored, _ := store.GetOrder(context.Background(), order.ID)
	if stored.Status != domain.StatusAccepted {
		t.Errorf("status = %s, want Accepted", stored.Status)
	}
}
