package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType tags an entry in the append-only simulation log.
type EventType string

const (
	EventTypeSimulationInitialized EventType = "simulation_initialized"
	EventTypeDataImported          EventType = "data_imported"
	EventTypeDayStart              EventType = "day_start"
	EventTypeDayEnd                EventType = "day_end"
	EventTypeOrderReceived         EventType = "order_received"
	EventTypeOrderAccepted         EventType = "order_accepted"
	EventTypeOrderFulfilled        EventType = "order_fulfilled"
	EventTypeOrderPartialFulfilled EventType = "order_partially_fulfilled"
	EventTypeAcceptanceFailed      EventType = "order_acceptance_failed"
	EventTypeProductionStarted     EventType = "production_started"
	EventTypeProductionCompleted   EventType = "production_completed"
	EventTypeProductionDelayed     EventType = "production_delayed_capacity"
	EventTypePurchaseOrderPlaced   EventType = "purchase_order_placed"
	EventTypeMaterialArrival       EventType = "material_arrival"
	EventTypeArrivalDelayed        EventType = "arrival_delayed_storage"
	EventTypeInventoryChange       EventType = "inventory_change"
	EventTypeRevenueCollected      EventType = "revenue_collected"
	EventTypeOperationalCost       EventType = "operational_cost"
)

// SimulationEvent is one append-only log record. Events are never mutated
// after creation; the engine replays them to reconstruct history and the
// financial summary. Financial events additionally carry a signed amount.
type SimulationEvent struct {
	ID        string
	Day       int
	Timestamp time.Time
	Type      EventType
	Details   map[string]any
	Financial bool
	Amount    decimal.Decimal
}

// DetailString returns a string detail value, or "" when absent.
func (e SimulationEvent) DetailString(key string) string {
	s, _ := e.Details[key].(string)
	return s
}

// DetailInt returns an integer detail value, tolerating the float64 shape
// JSON decoding produces.
func (e SimulationEvent) DetailInt(key string) int {
	switch v := e.Details[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
