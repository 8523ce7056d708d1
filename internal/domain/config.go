package domain

import "github.com/shopspring/decimal"

// FinancialConfig holds the monetary parameters of a simulation run.
type FinancialConfig struct {
	InitialBalance                          decimal.Decimal
	ProductPrices                           map[string]decimal.Decimal
	DailyOperationalCostBase                decimal.Decimal
	DailyOperationalCostPerItemInProduction decimal.Decimal
}

// PriceFor returns the configured selling price of a product, if any.
// Products without a price generate no revenue.
func (c FinancialConfig) PriceFor(productID string) (decimal.Decimal, bool) {
	price, ok := c.ProductPrices[productID]
	return price, ok
}

// DemandConfig bounds the random customer demand generated each day.
type DemandConfig struct {
	MinOrdersPerDay int
	MaxOrdersPerDay int
	MinQtyPerOrder  int
	MaxQtyPerOrder  int
}

// SimulationConfig is the persisted per-run configuration.
type SimulationConfig struct {
	Financial FinancialConfig
	Demand    DemandConfig
}

// InitialConditions is everything needed to start a fresh simulation run.
type InitialConditions struct {
	Materials               []Material
	Products                []Product
	Providers               []Provider
	InitialInventory        map[string]int
	StorageCapacity         int
	DailyProductionCapacity int
	Demand                  DemandConfig
	Financial               FinancialConfig
}

// DataExport is the full serialized snapshot of a run: catalog, transactional
// data, the event log, the singleton state and the configuration. Importing
// one fully replaces the current run.
type DataExport struct {
	State            SimulationState
	Config           SimulationConfig
	Materials        []Material
	Products         []Product
	Providers        []Provider
	ProductionOrders []ProductionOrder
	PurchaseOrders   []PurchaseOrder
	Events           []SimulationEvent
}
