package domain

import "time"

// OrderStatus represents the lifecycle state of a production order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusAccepted   OrderStatus = "Accepted"
	StatusInProgress OrderStatus = "In Progress"
	StatusCompleted  OrderStatus = "Completed"
	StatusFulfilled  OrderStatus = "Fulfilled"
)

// Event represents an action that triggers an order state transition.
type Event string

const (
	// EventAccept reserves materials for a pending order.
	EventAccept Event = "accept"
	// EventStart moves an accepted order onto the factory floor.
	EventStart Event = "start"
	// EventComplete finishes a production run.
	EventComplete Event = "complete"
	// EventFulfill serves an order directly from finished-goods stock.
	EventFulfill Event = "fulfill"
)

// Transition defines a valid state change: an event moves an order from Src to Dst.
type Transition struct {
	Event Event
	Src   OrderStatus
	Dst   OrderStatus
}

// Transitions defines all valid state changes in the order lifecycle.
// Completed and Fulfilled are terminal. This is domain knowledge consumed
// by the FSM adapter.
var Transitions = []Transition{
	{Event: EventAccept, Src: StatusPending, Dst: StatusAccepted},
	{Event: EventStart, Src: StatusAccepted, Dst: StatusInProgress},
	{Event: EventComplete, Src: StatusInProgress, Dst: StatusCompleted},
	{Event: EventFulfill, Src: StatusPending, Dst: StatusFulfilled},
	{Event: EventFulfill, Src: StatusAccepted, Dst: StatusFulfilled},
}

// ProductionOrder is a customer demand for a quantity of one product.
// Quantity may shrink when part of the order is served from stock; the
// material requirements are recomputed whenever that happens.
type ProductionOrder struct {
	ID                 string
	ProductID          string
	Quantity           int
	Status             OrderStatus
	RequestedDate      time.Time
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	RequiredMaterials  map[string]int
	CommittedMaterials map[string]int
	RevenueCollected   bool
}

// NewProductionOrder creates a pending order with its material requirements
// computed from the product's bill of materials.
func NewProductionOrder(id string, product Product, quantity int, requestedDate, createdAt time.Time) ProductionOrder {
	return ProductionOrder{
		ID:                 id,
		ProductID:          product.ID,
		Quantity:           quantity,
		Status:             StatusPending,
		RequestedDate:      requestedDate,
		CreatedAt:          createdAt,
		RequiredMaterials:  product.RequiredMaterials(quantity),
		CommittedMaterials: make(map[string]int),
	}
}

// ReduceQuantity shrinks the order after a partial fulfillment from stock and
// recomputes the material requirements for what remains.
func (o *ProductionOrder) ReduceQuantity(product Product, fulfilled int) {
	o.Quantity -= fulfilled
	o.RequiredMaterials = product.RequiredMaterials(o.Quantity)
}

// IsTerminal reports whether the order has reached a state with no outgoing
// transitions.
func (o ProductionOrder) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFulfilled
}
