package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/app"
	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

// StateResponse is the API representation of the singleton simulation state.
type StateResponse struct {
	CurrentDay              int             `json:"current_day" doc:"Simulated day counter (day 0 is initialization)"`
	CurrentDate             string          `json:"current_date" doc:"Simulated calendar date"`
	Inventory               map[string]int  `json:"inventory" doc:"Physical stock per item"`
	CommittedInventory      map[string]int  `json:"committed_inventory" doc:"Stock reserved for accepted orders, per item"`
	StorageCapacity         int             `json:"storage_capacity" doc:"Warehouse capacity in units"`
	DailyProductionCapacity int             `json:"daily_production_capacity" doc:"Orders completable per day"`
	ActiveProductionOrders  []string        `json:"active_production_orders" doc:"In-progress production order ids, oldest first"`
	PendingPurchaseOrders   []string        `json:"pending_purchase_orders" doc:"Purchase order ids awaiting arrival"`
	CurrentBalance          float64         `json:"current_balance" doc:"Cash balance"`
	IsInitialized           bool            `json:"is_initialized" doc:"Whether a run is active"`
}

func toStateResponse(s domain.SimulationState) StateResponse {
	return StateResponse{
		CurrentDay:              s.CurrentDay,
		CurrentDate:             domain.SimulatedDate(s.CurrentDay).Format(dateFormat),
		Inventory:               emptyMapIfNil(s.Inventory),
		CommittedInventory:      emptyMapIfNil(s.CommittedInventory),
		StorageCapacity:         s.StorageCapacity,
		DailyProductionCapacity: s.DailyProductionCapacity,
		ActiveProductionOrders:  emptySliceIfNil(s.ActiveProductionOrders),
		PendingPurchaseOrders:   emptySliceIfNil(s.PendingPurchaseOrders),
		CurrentBalance:          s.CurrentBalance.InexactFloat64(),
		IsInitialized:           s.IsInitialized,
	}
}

func toDomainState(s StateResponse) domain.SimulationState {
	return domain.SimulationState{
		CurrentDay:              s.CurrentDay,
		Inventory:               emptyMapIfNil(s.Inventory),
		CommittedInventory:      emptyMapIfNil(s.CommittedInventory),
		StorageCapacity:         s.StorageCapacity,
		DailyProductionCapacity: s.DailyProductionCapacity,
		ActiveProductionOrders:  emptySliceIfNil(s.ActiveProductionOrders),
		PendingPurchaseOrders:   emptySliceIfNil(s.PendingPurchaseOrders),
		CurrentBalance:          decimal.NewFromFloat(s.CurrentBalance),
		IsInitialized:           s.IsInitialized,
	}
}

// StatusResponse is the dashboard summary of a run.
type StatusResponse struct {
	CurrentDay                 int     `json:"current_day" doc:"Simulated day counter"`
	CurrentDate                string  `json:"current_date" doc:"Simulated calendar date"`
	TotalInventoryUnits        int     `json:"total_inventory_units" doc:"Physical units in the warehouse"`
	StorageCapacity            int     `json:"storage_capacity" doc:"Warehouse capacity in units"`
	StorageUtilization         float64 `json:"storage_utilization" doc:"Warehouse fill level in percent"`
	PendingProductionOrders    int     `json:"pending_production_orders" doc:"Orders awaiting acceptance"`
	AcceptedProductionOrders   int     `json:"accepted_production_orders" doc:"Orders with materials committed"`
	InProgressProductionOrders int     `json:"in_progress_production_orders" doc:"Orders on the factory floor"`
	PendingPurchaseOrders      int     `json:"pending_purchase_orders" doc:"Purchase orders awaiting arrival"`
	CurrentBalance             float64 `json:"current_balance" doc:"Cash balance"`
}

func toStatusResponse(s app.Status) StatusResponse {
	return StatusResponse{
		CurrentDay:                 s.CurrentDay,
		CurrentDate:                domain.SimulatedDate(s.CurrentDay).Format(dateFormat),
		TotalInventoryUnits:        s.TotalInventoryUnits,
		StorageCapacity:            s.StorageCapacity,
		StorageUtilization:         s.StorageUtilization,
		PendingProductionOrders:    s.PendingProductionOrders,
		AcceptedProductionOrders:   s.AcceptedProductionOrders,
		InProgressProductionOrders: s.InProgressProductionOrders,
		PendingPurchaseOrders:      s.PendingPurchaseOrders,
		CurrentBalance:             s.CurrentBalance.InexactFloat64(),
	}
}

// MaterialPayload is the API representation of a raw material.
type MaterialPayload struct {
	ID          string `json:"id" doc:"Unique identifier"`
	Name        string `json:"name" doc:"Display name"`
	Description string `json:"description,omitempty" doc:"Free-form description"`
}

func toMaterialPayload(m domain.Material) MaterialPayload {
	return MaterialPayload{ID: m.ID, Name: m.Name, Description: m.Description}
}

func toDomainMaterial(m MaterialPayload) domain.Material {
	return domain.Material{ID: m.ID, Name: m.Name, Description: m.Description}
}

// BOMLinePayload is one bill-of-materials entry of a product.
type BOMLinePayload struct {
	MaterialID string `json:"material_id" doc:"Consumed material"`
	Quantity   int    `json:"quantity" minimum:"1" doc:"Units consumed per product unit"`
}

// ProductPayload is the API representation of a manufacturable product.
type ProductPayload struct {
	ID             string           `json:"id" doc:"Unique identifier"`
	Name           string           `json:"name" doc:"Display name"`
	BOM            []BOMLinePayload `json:"bom" doc:"Bill of materials"`
	ProductionTime int              `json:"production_time" minimum:"1" doc:"Whole days one run takes"`
}

func toProductPayload(p domain.Product) ProductPayload {
	bom := make([]BOMLinePayload, len(p.BOM))
	for i, line := range p.BOM {
		bom[i] = BOMLinePayload{MaterialID: line.MaterialID, Quantity: line.Quantity}
	}
	return ProductPayload{ID: p.ID, Name: p.Name, BOM: bom, ProductionTime: p.ProductionTime}
}

func toDomainProduct(p ProductPayload) domain.Product {
	bom := make([]domain.BOMLine, len(p.BOM))
	for i, line := range p.BOM {
		bom[i] = domain.BOMLine{MaterialID: line.MaterialID, Quantity: line.Quantity}
	}
	return domain.Product{ID: p.ID, Name: p.Name, BOM: bom, ProductionTime: p.ProductionTime}
}

// OfferingPayload is one provider catalog entry.
type OfferingPayload struct {
	MaterialID      string  `json:"material_id" doc:"Offered material"`
	PricePerUnit    float64 `json:"price_per_unit" doc:"Price per unit"`
	OfferedUnitSize int     `json:"offered_unit_size,omitempty" doc:"Minimum order multiple"`
	LeadTimeDays    int     `json:"lead_time_days" minimum:"0" doc:"Days between order and arrival"`
}

// ProviderPayload is the API representation of a material supplier.
type ProviderPayload struct {
	ID      string            `json:"id" doc:"Unique identifier"`
	Name    string            `json:"name" doc:"Display name"`
	Catalog []OfferingPayload `json:"catalog" doc:"Offered materials"`
}

func toProviderPayload(p domain.Provider) ProviderPayload {
	catalog := make([]OfferingPayload, len(p.Catalog))
	for i, o := range p.Catalog {
		catalog[i] = OfferingPayload{
			MaterialID:      o.MaterialID,
			PricePerUnit:    o.PricePerUnit.InexactFloat64(),
			OfferedUnitSize: o.OfferedUnitSize,
			LeadTimeDays:    o.LeadTimeDays,
		}
	}
	return ProviderPayload{ID: p.ID, Name: p.Name, Catalog: catalog}
}

func toDomainProvider(p ProviderPayload) domain.Provider {
	catalog := make([]domain.Offering, len(p.Catalog))
	for i, o := range p.Catalog {
		catalog[i] = domain.Offering{
			MaterialID:      o.MaterialID,
			PricePerUnit:    decimal.NewFromFloat(o.PricePerUnit),
			OfferedUnitSize: o.OfferedUnitSize,
			LeadTimeDays:    o.LeadTimeDays,
		}
	}
	return domain.Provider{ID: p.ID, Name: p.Name, Catalog: catalog}
}

// OrderResponse is the API representation of a production order.
type OrderResponse struct {
	ID                 string         `json:"id" doc:"Unique identifier"`
	ProductID          string         `json:"product_id" doc:"Ordered product"`
	Quantity           int            `json:"quantity" doc:"Units ordered"`
	Status             string         `json:"status" doc:"Lifecycle state"`
	RequestedDate      string         `json:"requested_date" doc:"Simulated date the customer placed the order"`
	CreatedAt          string         `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	StartedAt          *string        `json:"started_at,omitempty" doc:"Production start timestamp"`
	CompletedAt        *string        `json:"completed_at,omitempty" doc:"Completion or fulfillment timestamp"`
	RequiredMaterials  map[string]int `json:"required_materials" doc:"Total material needs per material"`
	CommittedMaterials map[string]int `json:"committed_materials" doc:"Materials reserved for this order"`
	RevenueCollected   bool           `json:"revenue_collected" doc:"Whether the sale has been credited"`
}

func toOrderResponse(o domain.ProductionOrder) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		ProductID:          o.ProductID,
		Quantity:           o.Quantity,
		Status:             string(o.Status),
		RequestedDate:      o.RequestedDate.Format(dateFormat),
		CreatedAt:          o.CreatedAt.Format(timeFormat),
		StartedAt:          formatOptionalTime(o.StartedAt),
		CompletedAt:        formatOptionalTime(o.CompletedAt),
		RequiredMaterials:  emptyMapIfNil(o.RequiredMaterials),
		CommittedMaterials: emptyMapIfNil(o.CommittedMaterials),
		RevenueCollected:   o.RevenueCollected,
	}
}

func toDomainOrder(o OrderResponse) (domain.ProductionOrder, error) {
	requested, err := time.Parse(dateFormat, o.RequestedDate)
	if err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("order %s: parsing requested_date: %w", o.ID, err)
	}
	created, err := time.Parse(timeFormat, o.CreatedAt)
	if err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("order %s: parsing created_at: %w", o.ID, err)
	}
	started, err := parseOptionalTime(o.StartedAt)
	if err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("order %s: parsing started_at: %w", o.ID, err)
	}
	completed, err := parseOptionalTime(o.CompletedAt)
	if err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("order %s: parsing completed_at: %w", o.ID, err)
	}
	return domain.ProductionOrder{
		ID:                 o.ID,
		ProductID:          o.ProductID,
		Quantity:           o.Quantity,
		Status:             domain.OrderStatus(o.Status),
		RequestedDate:      requested,
		CreatedAt:          created,
		StartedAt:          started,
		CompletedAt:        completed,
		RequiredMaterials:  emptyMapIfNil(o.RequiredMaterials),
		CommittedMaterials: emptyMapIfNil(o.CommittedMaterials),
		RevenueCollected:   o.RevenueCollected,
	}, nil
}

// PurchaseOrderResponse is the API representation of a purchase order.
type PurchaseOrderResponse struct {
	ID                  string  `json:"id" doc:"Unique identifier"`
	MaterialID          string  `json:"material_id" doc:"Procured material"`
	ProviderID          string  `json:"provider_id" doc:"Supplying provider"`
	QuantityOrdered     int     `json:"quantity_ordered" doc:"Units ordered"`
	UnitsReceived       int     `json:"units_received" doc:"Units received so far"`
	OrderDate           string  `json:"order_date" doc:"Simulated date the order was placed"`
	ExpectedArrivalDate string  `json:"expected_arrival_date" doc:"Simulated date the delivery is due"`
	ActualArrivalDate   *string `json:"actual_arrival_date,omitempty" doc:"Simulated date the delivery was stored"`
	Status              string  `json:"status" doc:"Lifecycle state"`
	TotalCost           float64 `json:"total_cost" doc:"Amount paid at order time"`
	CreatedAt           string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toPurchaseOrderResponse(po domain.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:                  po.ID,
		MaterialID:          po.MaterialID,
		ProviderID:          po.ProviderID,
		QuantityOrdered:     po.QuantityOrdered,
		UnitsReceived:       po.UnitsReceived,
		OrderDate:           po.OrderDate.Format(dateFormat),
		ExpectedArrivalDate: po.ExpectedArrivalDate.Format(dateFormat),
		ActualArrivalDate:   formatOptionalDate(po.ActualArrivalDate),
		Status:              string(po.Status),
		TotalCost:           po.TotalCost.InexactFloat64(),
		CreatedAt:           po.CreatedAt.Format(timeFormat),
	}
}

func toDomainPurchaseOrder(po PurchaseOrderResponse) (domain.PurchaseOrder, error) {
	ordered, err := time.Parse(dateFormat, po.OrderDate)
	if err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("purchase order %s: parsing order_date: %w", po.ID, err)
	}
	expected, err := time.Parse(dateFormat, po.ExpectedArrivalDate)
	if err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("purchase order %s: parsing expected_arrival_date: %w", po.ID, err)
	}
	actual, err := parseOptionalDate(po.ActualArrivalDate)
	if err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("purchase order %s: parsing actual_arrival_date: %w", po.ID, err)
	}
	created, err := time.Parse(timeFormat, po.CreatedAt)
	if err != nil {
		return domain.PurchaseOrder{}, fmt.Errorf("purchase order %s: parsing created_at: %w", po.ID, err)
	}
	return domain.PurchaseOrder{
		ID:                  po.ID,
		MaterialID:          po.MaterialID,
		ProviderID:          po.ProviderID,
		QuantityOrdered:     po.QuantityOrdered,
		UnitsReceived:       po.UnitsReceived,
		OrderDate:           ordered,
		ExpectedArrivalDate: expected,
		ActualArrivalDate:   actual,
		Status:              domain.PurchaseOrderStatus(po.Status),
		TotalCost:           decimal.NewFromFloat(po.TotalCost),
		CreatedAt:           created,
	}, nil
}

// EventResponse is the API representation of one event log entry.
type EventResponse struct {
	ID        string         `json:"id" doc:"Unique identifier"`
	Day       int            `json:"day" doc:"Simulated day the event happened on"`
	Timestamp string         `json:"timestamp" doc:"Wall-clock timestamp (ISO 8601)"`
	EventType string         `json:"event_type" doc:"Event category"`
	Details   map[string]any `json:"details" doc:"Event-specific payload"`
	Financial bool           `json:"financial" doc:"Whether the event moved money"`
	Amount    float64        `json:"amount" doc:"Signed cash movement, zero for non-financial events"`
}

func toEventResponse(ev domain.SimulationEvent) EventResponse {
	details := ev.Details
	if details == nil {
		details = map[string]any{}
	}
	return EventResponse{
		ID:        ev.ID,
		Day:       ev.Day,
		Timestamp: ev.Timestamp.Format(timeFormat),
		EventType: string(ev.Type),
		Details:   details,
		Financial: ev.Financial,
		Amount:    ev.Amount.InexactFloat64(),
	}
}

func toDomainEvent(ev EventResponse) (domain.SimulationEvent, error) {
	ts, err := time.Parse(timeFormat, ev.Timestamp)
	if err != nil {
		return domain.SimulationEvent{}, fmt.Errorf("event %s: parsing timestamp: %w", ev.ID, err)
	}
	details := ev.Details
	if details == nil {
		details = map[string]any{}
	}
	return domain.SimulationEvent{
		ID:        ev.ID,
		Day:       ev.Day,
		Timestamp: ts,
		Type:      domain.EventType(ev.EventType),
		Details:   details,
		Financial: ev.Financial,
		Amount:    decimal.NewFromFloat(ev.Amount),
	}, nil
}

// DemandPayload bounds the random daily customer demand.
type DemandPayload struct {
	MinOrdersPerDay int `json:"min_orders_per_day" minimum:"0" doc:"Least orders generated per day"`
	MaxOrdersPerDay int `json:"max_orders_per_day" minimum:"0" doc:"Most orders generated per day"`
	MinQtyPerOrder  int `json:"min_qty_per_order" minimum:"1" doc:"Least units per generated order"`
	MaxQtyPerOrder  int `json:"max_qty_per_order" minimum:"1" doc:"Most units per generated order"`
}

func toDemandPayload(d domain.DemandConfig) DemandPayload {
	return DemandPayload{
		MinOrdersPerDay: d.MinOrdersPerDay,
		MaxOrdersPerDay: d.MaxOrdersPerDay,
		MinQtyPerOrder:  d.MinQtyPerOrder,
		MaxQtyPerOrder:  d.MaxQtyPerOrder,
	}
}

func toDomainDemand(d DemandPayload) domain.DemandConfig {
	return domain.DemandConfig{
		MinOrdersPerDay: d.MinOrdersPerDay,
		MaxOrdersPerDay: d.MaxOrdersPerDay,
		MinQtyPerOrder:  d.MinQtyPerOrder,
		MaxQtyPerOrder:  d.MaxQtyPerOrder,
	}
}

// FinancialPayload holds the monetary parameters of a run.
type FinancialPayload struct {
	InitialBalance                          float64            `json:"initial_balance" doc:"Starting cash balance"`
	ProductPrices                           map[string]float64 `json:"product_prices" doc:"Selling price per product id"`
	DailyOperationalCostBase                float64            `json:"daily_operational_cost_base" doc:"Fixed daily cost"`
	DailyOperationalCostPerItemInProduction float64            `json:"daily_operational_cost_per_item_in_production" doc:"Added daily cost per order on the floor"`
}

func toFinancialPayload(f domain.FinancialConfig) FinancialPayload {
	prices := make(map[string]float64, len(f.ProductPrices))
	for id, price := range f.ProductPrices {
		prices[id] = price.InexactFloat64()
	}
	return FinancialPayload{
		InitialBalance:                          f.InitialBalance.InexactFloat64(),
		ProductPrices:                           prices,
		DailyOperationalCostBase:                f.DailyOperationalCostBase.InexactFloat64(),
		DailyOperationalCostPerItemInProduction: f.DailyOperationalCostPerItemInProduction.InexactFloat64(),
	}
}

func toDomainFinancial(f FinancialPayload) domain.FinancialConfig {
	prices := make(map[string]decimal.Decimal, len(f.ProductPrices))
	for id, price := range f.ProductPrices {
		prices[id] = decimal.NewFromFloat(price)
	}
	return domain.FinancialConfig{
		InitialBalance:                          decimal.NewFromFloat(f.InitialBalance),
		ProductPrices:                           prices,
		DailyOperationalCostBase:                decimal.NewFromFloat(f.DailyOperationalCostBase),
		DailyOperationalCostPerItemInProduction: decimal.NewFromFloat(f.DailyOperationalCostPerItemInProduction),
	}
}

// ConfigPayload is the persisted per-run configuration.
type ConfigPayload struct {
	Financial FinancialPayload `json:"financial" doc:"Monetary parameters"`
	Demand    DemandPayload    `json:"demand" doc:"Daily demand bounds"`
}

// ForecastPointResponse is one day of a projected stock series.
type ForecastPointResponse struct {
	DayOffset int     `json:"day_offset" doc:"Days from today, negative for history"`
	Date      string  `json:"date" doc:"Simulated calendar date"`
	Quantity  float64 `json:"quantity" doc:"Projected physical stock"`
}

// ItemForecastResponse is the projected physical stock of one catalog item.
type ItemForecastResponse struct {
	ItemID   string                  `json:"item_id" doc:"Forecasted item"`
	ItemName string                  `json:"item_name" doc:"Display name"`
	ItemType string                  `json:"item_type" doc:"material or product" enum:"material,product"`
	Forecast []ForecastPointResponse `json:"forecast" doc:"Stock series, history first"`
}

func toItemForecastResponse(f app.ItemForecast) ItemForecastResponse {
	points := make([]ForecastPointResponse, len(f.Points))
	for i, p := range f.Points {
		points[i] = ForecastPointResponse{
			DayOffset: p.DayOffset,
			Date:      p.Date.Format(dateFormat),
			Quantity:  p.Quantity,
		}
	}
	return ItemForecastResponse{
		ItemID:   f.ItemID,
		ItemName: f.ItemName,
		ItemType: f.ItemType,
		Forecast: points,
	}
}

// FinancialSummaryResponse aggregates the run's money flows to date.
type FinancialSummaryResponse struct {
	CurrentBalance float64 `json:"current_balance" doc:"Cash balance"`
	TotalRevenue   float64 `json:"total_revenue" doc:"Revenue collected to date"`
	TotalExpenses  float64 `json:"total_expenses" doc:"Expenses paid to date"`
	Profit         float64 `json:"profit" doc:"Revenue minus expenses"`
}

// FinancialHistoryPointResponse is one simulated day of realized money flows.
type FinancialHistoryPointResponse struct {
	Day              int     `json:"day" doc:"Simulated day"`
	Date             string  `json:"date" doc:"Simulated calendar date"`
	Balance          float64 `json:"balance" doc:"End-of-day balance"`
	Revenue          float64 `json:"revenue" doc:"Revenue collected that day"`
	MaterialCosts    float64 `json:"material_costs" doc:"Purchase orders paid that day"`
	OperationalCosts float64 `json:"operational_costs" doc:"Operational cost charged that day"`
	Profit           float64 `json:"profit" doc:"Day revenue minus day costs"`
}

// FinancialForecastPointResponse is one projected future day.
type FinancialForecastPointResponse struct {
	DayOffset                 int     `json:"day_offset" doc:"Days from today"`
	Date                      string  `json:"date" doc:"Simulated calendar date"`
	ProjectedBalance          float64 `json:"projected_balance" doc:"End-of-day balance projection"`
	ProjectedRevenue          float64 `json:"projected_revenue" doc:"Revenue expected that day"`
	ProjectedMaterialCosts    float64 `json:"projected_material_costs" doc:"Always zero, material costs are paid at order time"`
	ProjectedOperationalCosts float64 `json:"projected_operational_costs" doc:"Operational cost expected that day"`
	ProjectedProfit           float64 `json:"projected_profit" doc:"Day projection of revenue minus costs"`
}

// FinancesResponse is the finances page payload.
type FinancesResponse struct {
	Summary  FinancialSummaryResponse         `json:"summary" doc:"Run totals"`
	History  []FinancialHistoryPointResponse  `json:"history" doc:"Realized daily flows, oldest first"`
	Forecast []FinancialForecastPointResponse `json:"forecast" doc:"Projected daily flows"`
}

func toFinancesResponse(o app.FinancialOverview) FinancesResponse {
	history := make([]FinancialHistoryPointResponse, len(o.History))
	for i, p := range o.History {
		history[i] = FinancialHistoryPointResponse{
			Day:              p.Day,
			Date:             p.Date.Format(dateFormat),
			Balance:          p.Balance.InexactFloat64(),
			Revenue:          p.Revenue.InexactFloat64(),
			MaterialCosts:    p.MaterialCosts.InexactFloat64(),
			OperationalCosts: p.OperationalCosts.InexactFloat64(),
			Profit:           p.Profit.InexactFloat64(),
		}
	}
	forecast := make([]FinancialForecastPointResponse, len(o.Forecast))
	for i, p := range o.Forecast {
		forecast[i] = FinancialForecastPointResponse{
			DayOffset:                 p.DayOffset,
			Date:                      p.Date.Format(dateFormat),
			ProjectedBalance:          p.ProjectedBalance.InexactFloat64(),
			ProjectedRevenue:          p.ProjectedRevenue.InexactFloat64(),
			ProjectedMaterialCosts:    p.ProjectedMaterialCosts.InexactFloat64(),
			ProjectedOperationalCosts: p.ProjectedOperationalCosts.InexactFloat64(),
			ProjectedProfit:           p.ProjectedProfit.InexactFloat64(),
		}
	}
	return FinancesResponse{
		Summary: FinancialSummaryResponse{
			CurrentBalance: o.Summary.CurrentBalance.InexactFloat64(),
			TotalRevenue:   o.Summary.TotalRevenue.InexactFloat64(),
			TotalExpenses:  o.Summary.TotalExpenses.InexactFloat64(),
			Profit:         o.Summary.Profit.InexactFloat64(),
		},
		History:  history,
		Forecast: forecast,
	}
}

// SnapshotPayload is the full serialized run: catalog, transactional data,
// the event log, the singleton state and the configuration.
type SnapshotPayload struct {
	State            StateResponse           `json:"state" doc:"Singleton simulation state"`
	Config           ConfigPayload           `json:"config" doc:"Per-run configuration"`
	Materials        []MaterialPayload       `json:"materials" doc:"Material catalog"`
	Products         []ProductPayload        `json:"products" doc:"Product catalog"`
	Providers        []ProviderPayload       `json:"providers" doc:"Provider catalog"`
	ProductionOrders []OrderResponse         `json:"production_orders" doc:"All production orders"`
	PurchaseOrders   []PurchaseOrderResponse `json:"purchase_orders" doc:"All purchase orders"`
	Events           []EventResponse         `json:"events" doc:"Event log, oldest first"`
}

func toSnapshotPayload(data domain.DataExport) SnapshotPayload {
	materials := make([]MaterialPayload, len(data.Materials))
	for i, m := range data.Materials {
		materials[i] = toMaterialPayload(m)
	}
	products := make([]ProductPayload, len(data.Products))
	for i, p := range data.Products {
		products[i] = toProductPayload(p)
	}
	providers := make([]ProviderPayload, len(data.Providers))
	for i, p := range data.Providers {
		providers[i] = toProviderPayload(p)
	}
	orders := make([]OrderResponse, len(data.ProductionOrders))
	for i, o := range data.ProductionOrders {
		orders[i] = toOrderResponse(o)
	}
	purchases := make([]PurchaseOrderResponse, len(data.PurchaseOrders))
	for i, po := range data.PurchaseOrders {
		purchases[i] = toPurchaseOrderResponse(po)
	}
	events := make([]EventResponse, len(data.Events))
	for i, ev := range data.Events {
		events[i] = toEventResponse(ev)
	}
	return SnapshotPayload{
		State: toStateResponse(data.State),
		Config: ConfigPayload{
			Financial: toFinancialPayload(data.Config.Financial),
			Demand:    toDemandPayload(data.Config.Demand),
		},
		Materials:        materials,
		Products:         products,
		Providers:        providers,
		ProductionOrders: orders,
		PurchaseOrders:   purchases,
		Events:           events,
	}
}

func toDomainSnapshot(s SnapshotPayload) (domain.DataExport, error) {
	materials := make([]domain.Material, len(s.Materials))
	for i, m := range s.Materials {
		materials[i] = toDomainMaterial(m)
	}
	products := make([]domain.Product, len(s.Products))
	for i, p := range s.Products {
		products[i] = toDomainProduct(p)
	}
	providers := make([]domain.Provider, len(s.Providers))
	for i, p := range s.Providers {
		providers[i] = toDomainProvider(p)
	}
	orders := make([]domain.ProductionOrder, len(s.ProductionOrders))
	for i, o := range s.ProductionOrders {
		order, err := toDomainOrder(o)
		if err != nil {
			return domain.DataExport{}, err
		}
		orders[i] = order
	}
	purchases := make([]domain.PurchaseOrder, len(s.PurchaseOrders))
	for i, po := range s.PurchaseOrders {
		purchase, err := toDomainPurchaseOrder(po)
		if err != nil {
			return domain.DataExport{}, err
		}
		purchases[i] = purchase
	}
	events := make([]domain.SimulationEvent, len(s.Events))
	for i, ev := range s.Events {
		event, err := toDomainEvent(ev)
		if err != nil {
			return domain.DataExport{}, err
		}
		events[i] = event
	}
	return domain.DataExport{
		State: toDomainState(s.State),
		Config: domain.SimulationConfig{
			Financial: toDomainFinancial(s.Config.Financial),
			Demand:    toDomainDemand(s.Config.Demand),
		},
		Materials:        materials,
		Products:         products,
		Providers:        providers,
		ProductionOrders: orders,
		PurchaseOrders:   purchases,
		Events:           events,
	}, nil
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeFormat)
	return &s
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func emptyMapIfNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func emptySliceIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
