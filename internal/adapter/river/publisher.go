package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/DGSI-UPC/3d-printer-mrp/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a simulation event
// asynchronously. River serializes this as JSON into its job queue table. It
// includes a snapshot of the event at publish time, so the worker never needs
// to query the event log.
type EventJobArgs struct {
	EventID   string         `json:"event_id"`
	Day       int            `json:"day"`
	EventType string         `json:"event_type"`
	Details   map[string]any `json:"details"`
	Financial bool           `json:"financial"`
	Amount    string         `json:"amount"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "simulation.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a simulation event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.SimulationEvent) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		EventID:   event.ID,
		Day:       event.Day,
		EventType: string(event.Type),
		Details:   event.Details,
		Financial: event.Financial,
		Amount:    event.Amount.String(),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
