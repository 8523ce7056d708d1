package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epoch is the fixed start date of simulated time. Day 0 is this date;
// simulated timestamps are never coupled to wall-clock time.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// SimulatedDate converts a simulated day number into its calendar date.
func SimulatedDate(day int) time.Time {
	return Epoch.AddDate(0, 0, day)
}

// DayOf converts a simulated timestamp back into its day number.
func DayOf(t time.Time) int {
	return int(t.UTC().Sub(Epoch).Hours() / 24)
}

// Ledger names which of the two inventory quantity maps a change applies to.
type Ledger string

const (
	LedgerPhysical  Ledger = "physical"
	LedgerCommitted Ledger = "committed"
)

// SimulationState is the single mutable state of a simulation run. Physical
// inventory counts stock present in the warehouse; committed inventory counts
// the portion of it reserved against accepted or in-progress orders.
type SimulationState struct {
	CurrentDay              int
	Inventory               map[string]int
	CommittedInventory      map[string]int
	StorageCapacity         int
	DailyProductionCapacity int
	ActiveProductionOrders  []string
	PendingPurchaseOrders   []string
	CurrentBalance          decimal.Decimal
	IsInitialized           bool
}

// NewSimulationState returns an empty, uninitialized state.
func NewSimulationState() SimulationState {
	return SimulationState{
		Inventory:          make(map[string]int),
		CommittedInventory: make(map[string]int),
		CurrentBalance:     decimal.Zero,
	}
}

// AdjustPhysical applies a delta to an item's physical stock, clamping the
// result at zero, and returns the new quantity. Callers validate before
// mutating; stock never goes negative.
func (s *SimulationState) AdjustPhysical(itemID string, delta int) int {
	next := s.Inventory[itemID] + delta
	if next < 0 {
		next = 0
	}
	s.Inventory[itemID] = next
	return next
}

// AdjustCommitted applies a delta to an item's committed stock, clamping the
// result at zero, and returns the new quantity.
func (s *SimulationState) AdjustCommitted(itemID string, delta int) int {
	next := s.CommittedInventory[itemID] + delta
	if next < 0 {
		next = 0
	}
	s.CommittedInventory[itemID] = next
	return next
}

// TotalPhysicalUnits sums all physical quantities. It drives storage
// utilization and the storage gate on purchase order arrivals.
func (s SimulationState) TotalPhysicalUnits() int {
	total := 0
	for _, qty := range s.Inventory {
		total += qty
	}
	return total
}

// HasStorageRoom reports whether the warehouse can take addingQty more units.
func (s SimulationState) HasStorageRoom(addingQty int) bool {
	return s.TotalPhysicalUnits()+addingQty <= s.StorageCapacity
}

// AvailableFor computes how much of a material an order can draw on:
// physical stock minus what other orders have committed. The order's own
// prior commitment does not count against it.
func (s SimulationState) AvailableFor(materialID string, ownCommitment int) int {
	committedElsewhere := s.CommittedInventory[materialID] - ownCommitment
	if committedElsewhere < 0 {
		committedElsewhere = 0
	}
	return s.Inventory[materialID] - committedElsewhere
}

// RemoveActiveOrder deletes an order id from the active production list.
func (s *SimulationState) RemoveActiveOrder(orderID string) {
	s.ActiveProductionOrders = removeID(s.ActiveProductionOrders, orderID)
}

// RemovePendingPurchase deletes a purchase order id from the pending list.
func (s *SimulationState) RemovePendingPurchase(poID string) {
	s.PendingPurchaseOrders = removeID(s.PendingPurchaseOrders, poID)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
