package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrdered   PurchaseOrderStatus = "Ordered"
	PurchaseArrived   PurchaseOrderStatus = "Arrived"
	PurchaseCancelled PurchaseOrderStatus = "Cancelled"
)

// PurchaseOrder is a procurement of one material from one provider. Payment
// happens at order time, so TotalCost is fixed when the order is placed.
type PurchaseOrder struct {
	ID                  string
	MaterialID          string
	ProviderID          string
	QuantityOrdered     int
	UnitsReceived       int
	OrderDate           time.Time
	ExpectedArrivalDate time.Time
	ActualArrivalDate   *time.Time
	Status              PurchaseOrderStatus
	TotalCost           decimal.Decimal
	CreatedAt           time.Time
}
