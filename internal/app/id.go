package app

import "github.com/google/uuid"

// newID produces a unique identifier for orders, purchase orders and events.
// Isolated here so the ID strategy can evolve independently.
func newID() string {
	return uuid.NewString()
}
