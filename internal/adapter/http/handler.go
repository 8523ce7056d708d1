package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/app"
	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// --- Simulation lifecycle ---

type InitializeInput struct {
	Body struct {
		Materials               []MaterialPayload `json:"materials" minItems:"1" doc:"Material catalog"`
		Products                []ProductPayload  `json:"products" minItems:"1" doc:"Product catalog"`
		Providers               []ProviderPayload `json:"providers" doc:"Provider catalog"`
		InitialInventory        map[string]int    `json:"initial_inventory,omitempty" doc:"Starting physical stock per item"`
		StorageCapacity         int               `json:"storage_capacity" minimum:"1" doc:"Warehouse capacity in units"`
		DailyProductionCapacity int               `json:"daily_production_capacity" minimum:"1" doc:"Orders completable per day"`
		Demand                  DemandPayload     `json:"demand" doc:"Daily demand bounds"`
		Financial               FinancialPayload  `json:"financial" doc:"Monetary parameters"`
	}
}

type InitializeOutput struct {
	Body StateResponse
}

type AdvanceDayOutput struct {
	Body StateResponse
}

type GetStateOutput struct {
	Body StateResponse
}

type GetStatusOutput struct {
	Body StatusResponse
}

// --- Catalog ---

type ListMaterialsOutput struct {
	Body []MaterialPayload
}

type ListProductsOutput struct {
	Body []ProductPayload
}

type ListProvidersOutput struct {
	Body []ProviderPayload
}

// --- Production orders ---

type ListOrdersInput struct {
	Status string `query:"status" required:"false" enum:"Pending,Accepted,In Progress,Completed,Fulfilled" doc:"Filter by status"`
}

type ListOrdersOutput struct {
	Body []OrderResponse
}

type GetOrderInput struct {
	ID string `path:"id" doc:"Production order ID"`
}

type GetOrderOutput struct {
	Body OrderResponse
}

type AcceptOrderInput struct {
	ID string `path:"id" doc:"Production order ID"`
}

type AcceptOrderOutput struct {
	Body OrderResponse
}

type FulfillOrderInput struct {
	ID string `path:"id" doc:"Production order ID"`
}

type FulfillOrderOutput struct {
	Body OrderResponse
}

type OrderShortagesInput struct {
	ID string `path:"id" doc:"Production order ID"`
}

type ShortageOutcomeResponse struct {
	Result          string `json:"result" enum:"ordered,sufficient,no_provider,failed" doc:"What happened for this material"`
	PurchaseOrderID string `json:"purchase_order_id,omitempty" doc:"Placed purchase order, when ordered"`
	QuantityOrdered int    `json:"quantity_ordered,omitempty" doc:"Units ordered, when ordered"`
	Detail          string `json:"detail,omitempty" doc:"Failure detail, when failed"`
}

type OrderShortagesOutput struct {
	Body map[string]ShortageOutcomeResponse
}

type StartProductionInput struct {
	Body struct {
		OrderIDs []string `json:"order_ids" minItems:"1" doc:"Accepted production orders to start"`
	}
}

type StartProductionOutput struct {
	Body map[string]string `doc:"Per-order outcome message"`
}

// --- Procurement ---

type PlacePurchaseOrderInput struct {
	Body struct {
		MaterialID string `json:"material_id" doc:"Material to procure"`
		ProviderID string `json:"provider_id" doc:"Provider to buy from"`
		Quantity   int    `json:"quantity" minimum:"1" doc:"Units to order"`
	}
}

type PlacePurchaseOrderOutput struct {
	Body PurchaseOrderResponse
}

type ListPurchaseOrdersInput struct {
	Status string `query:"status" required:"false" enum:"Ordered,Arrived,Cancelled" doc:"Filter by status"`
}

type ListPurchaseOrdersOutput struct {
	Body []PurchaseOrderResponse
}

// --- Inventory, events, forecasts, finances ---

type GetInventoryOutput struct {
	Body map[string]app.InventoryDetail
}

type ListEventsInput struct {
	Limit int `query:"limit" required:"false" default:"100" minimum:"0" doc:"Max events returned, newest first; 0 returns all"`
}

type ListEventsOutput struct {
	Body []EventResponse
}

type ForecastItemInput struct {
	ItemID         string `path:"item_id" doc:"Material or product ID"`
	Days           int    `query:"days" required:"false" default:"7" minimum:"1" doc:"Forecast horizon in days"`
	HistoricalDays int    `query:"historical_days" required:"false" default:"0" minimum:"0" doc:"Days of reconstructed history to prepend"`
}

type ForecastItemOutput struct {
	Body ItemForecastResponse
}

type GetFinancesInput struct {
	ForecastDays int `query:"forecast_days" required:"false" default:"7" minimum:"1" doc:"Financial forecast horizon in days"`
}

type GetFinancesOutput struct {
	Body FinancesResponse
}

// --- Data export / import ---

type ExportDataOutput struct {
	Body SnapshotPayload
}

type ImportDataInput struct {
	Body SnapshotPayload
}

type ImportDataOutput struct {
	Body struct {
		Imported bool `json:"imported" doc:"Whether the snapshot replaced the current run"`
	}
}

// Register adds all simulation API routes to the Huma API.
func Register(api huma.API, engine *app.SimulationEngine) {
	huma.Register(api, huma.Operation{
		OperationID:   "initialize-simulation",
		Method:        http.MethodPost,
		Path:          "/api/v1/simulation/initialize",
		Summary:       "Initialize a fresh simulation run",
		Tags:          []string{"Simulation"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *InitializeInput) (*InitializeOutput, error) {
		ic := domain.InitialConditions{
			InitialInventory:        input.Body.InitialInventory,
			StorageCapacity:         input.Body.StorageCapacity,
			DailyProductionCapacity: input.Body.DailyProductionCapacity,
			Demand:                  toDomainDemand(input.Body.Demand),
			Financial:               toDomainFinancial(input.Body.Financial),
		}
		for _, m := range input.Body.Materials {
			ic.Materials = append(ic.Materials, toDomainMaterial(m))
		}
		for _, p := range input.Body.Products {
			ic.Products = append(ic.Products, toDomainProduct(p))
		}
		for _, p := range input.Body.Providers {
			ic.Providers = append(ic.Providers, toDomainProvider(p))
		}

		state, err := engine.Initialize(ctx, ic)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &InitializeOutput{Body: toStateResponse(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-day",
		Method:      http.MethodPost,
		Path:        "/api/v1/simulation/advance_day",
		Summary:     "Advance the simulation by one day",
		Tags:        []string{"Simulation"},
	}, func(ctx context.Context, _ *struct{}) (*AdvanceDayOutput, error) {
		state, err := engine.AdvanceDay(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AdvanceDayOutput{Body: toStateResponse(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/simulation/state",
		Summary:     "Get the full simulation state",
		Tags:        []string{"Simulation"},
	}, func(ctx context.Context, _ *struct{}) (*GetStateOutput, error) {
		state, err := engine.State(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetStateOutput{Body: toStateResponse(state)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/simulation/status",
		Summary:     "Get the dashboard summary",
		Tags:        []string{"Simulation"},
	}, func(ctx context.Context, _ *struct{}) (*GetStatusOutput, error) {
		status, err := engine.Status(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetStatusOutput{Body: toStatusResponse(status)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-materials",
		Method:      http.MethodGet,
		Path:        "/api/v1/materials",
		Summary:     "List the material catalog",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListMaterialsOutput, error) {
		materials, err := engine.Materials(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]MaterialPayload, len(materials))
		for i, m := range materials {
			resp[i] = toMaterialPayload(m)
		}
		return &ListMaterialsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List the product catalog",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListProductsOutput, error) {
		products, err := engine.Products(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ProductPayload, len(products))
		for i, p := range products {
			resp[i] = toProductPayload(p)
		}
		return &ListProductsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List the provider catalog",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListProvidersOutput, error) {
		providers, err := engine.Providers(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ProviderPayload, len(providers))
		for i, p := range providers {
			resp[i] = toProviderPayload(p)
		}
		return &ListProvidersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-production-orders",
		Method:      http.MethodGet,
		Path:        "/api/v1/production/orders",
		Summary:     "List production orders",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
		var filter domain.OrderFilter
		if input.Status != "" {
			s := domain.OrderStatus(input.Status)
			filter.Status = &s
		}

		orders, err := engine.Orders(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]OrderResponse, len(orders))
		for i, o := range orders {
			resp[i] = toOrderResponse(o)
		}
		return &ListOrdersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-production-order",
		Method:      http.MethodGet,
		Path:        "/api/v1/production/orders/{id}",
		Summary:     "Get a production order by ID",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *GetOrderInput) (*GetOrderOutput, error) {
		order, err := engine.Order(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-production-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/production/orders/{id}/accept",
		Summary:     "Accept a pending order, committing its materials",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *AcceptOrderInput) (*AcceptOrderOutput, error) {
		order, err := engine.AcceptOrder(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AcceptOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "fulfill-production-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/production/orders/{id}/fulfill",
		Summary:     "Fulfill an order from finished-product stock",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *FulfillOrderInput) (*FulfillOrderOutput, error) {
		order, err := engine.FulfillFromStock(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &FulfillOrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "order-missing-materials",
		Method:      http.MethodPost,
		Path:        "/api/v1/production/orders/{id}/order_missing_materials",
		Summary:     "Purchase every material the order still lacks",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *OrderShortagesInput) (*OrderShortagesOutput, error) {
		outcomes, err := engine.OrderShortages(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make(map[string]ShortageOutcomeResponse, len(outcomes))
		for materialID, outcome := range outcomes {
			resp[materialID] = ShortageOutcomeResponse{
				Result:          outcome.Result,
				PurchaseOrderID: outcome.PurchaseOrderID,
				QuantityOrdered: outcome.QuantityOrdered,
				Detail:          outcome.Detail,
			}
		}
		return &OrderShortagesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-production",
		Method:      http.MethodPost,
		Path:        "/api/v1/production/orders/start",
		Summary:     "Move accepted orders onto the factory floor",
		Tags:        []string{"Production"},
	}, func(ctx context.Context, input *StartProductionInput) (*StartProductionOutput, error) {
		results, err := engine.StartProduction(ctx, input.Body.OrderIDs)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StartProductionOutput{Body: results}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "place-purchase-order",
		Method:        http.MethodPost,
		Path:          "/api/v1/purchase/orders",
		Summary:       "Place a purchase order, paying on order",
		Tags:          []string{"Procurement"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *PlacePurchaseOrderInput) (*PlacePurchaseOrderOutput, error) {
		po, err := engine.PlacePurchaseOrder(ctx, input.Body.MaterialID, input.Body.ProviderID, input.Body.Quantity)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlacePurchaseOrderOutput{Body: toPurchaseOrderResponse(po)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-purchase-orders",
		Method:      http.MethodGet,
		Path:        "/api/v1/purchase/orders",
		Summary:     "List purchase orders",
		Tags:        []string{"Procurement"},
	}, func(ctx context.Context, input *ListPurchaseOrdersInput) (*ListPurchaseOrdersOutput, error) {
		var filter domain.PurchaseOrderFilter
		if input.Status != "" {
			s := domain.PurchaseOrderStatus(input.Status)
			filter.Status = &s
		}

		purchases, err := engine.PurchaseOrders(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]PurchaseOrderResponse, len(purchases))
		for i, po := range purchases {
			resp[i] = toPurchaseOrderResponse(po)
		}
		return &ListPurchaseOrdersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-inventory",
		Method:      http.MethodGet,
		Path:        "/api/v1/inventory",
		Summary:     "Get the per-item warehouse position",
		Tags:        []string{"Inventory"},
	}, func(ctx context.Context, _ *struct{}) (*GetInventoryOutput, error) {
		items, err := engine.InventoryDetails(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetInventoryOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List simulation events, newest first",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		events, err := engine.Events(ctx, input.Limit)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]EventResponse, len(events))
		for i, ev := range events {
			resp[i] = toEventResponse(ev)
		}
		return &ListEventsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forecast-item",
		Method:      http.MethodGet,
		Path:        "/api/v1/forecast/item/{item_id}",
		Summary:     "Project an item's stock over the coming days",
		Tags:        []string{"Forecast"},
	}, func(ctx context.Context, input *ForecastItemInput) (*ForecastItemOutput, error) {
		forecast, err := engine.ForecastItem(ctx, input.ItemID, input.Days, input.HistoricalDays)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ForecastItemOutput{Body: toItemForecastResponse(forecast)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-finances",
		Method:      http.MethodGet,
		Path:        "/api/v1/finances",
		Summary:     "Get the financial summary, history and forecast",
		Tags:        []string{"Finances"},
	}, func(ctx context.Context, input *GetFinancesInput) (*GetFinancesOutput, error) {
		overview, err := engine.FinancialOverview(ctx, input.ForecastDays)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetFinancesOutput{Body: toFinancesResponse(overview)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-data",
		Method:      http.MethodGet,
		Path:        "/api/v1/data/export",
		Summary:     "Export the full run as a snapshot",
		Tags:        []string{"Data"},
	}, func(ctx context.Context, _ *struct{}) (*ExportDataOutput, error) {
		data, err := engine.Export(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ExportDataOutput{Body: toSnapshotPayload(data)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-data",
		Method:      http.MethodPost,
		Path:        "/api/v1/data/import",
		Summary:     "Replace the current run with a snapshot",
		Tags:        []string{"Data"},
	}, func(ctx context.Context, input *ImportDataInput) (*ImportDataOutput, error) {
		data, err := toDomainSnapshot(input.Body)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		if err := engine.Import(ctx, data); err != nil {
			return nil, toHumaError(err)
		}
		out := &ImportDataOutput{}
		out.Body.Imported = true
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNotInitialized) {
		return huma.Error409Conflict("simulation not initialized")
	}

	var refErr *domain.InvalidReferenceError
	if errors.As(err, &refErr) {
		return huma.Error404NotFound(refErr.Error())
	}

	var qtyErr *domain.InvalidQuantityError
	if errors.As(err, &qtyErr) {
		return huma.Error400BadRequest(qtyErr.Error())
	}

	var matErr *domain.InsufficientMaterialError
	if errors.As(err, &matErr) {
		return huma.Error409Conflict(matErr.Error())
	}

	var fundsErr *domain.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return huma.NewError(http.StatusPaymentRequired, fundsErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
