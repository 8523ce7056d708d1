package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes simulation event jobs from the River queue.
// For now it logs the event; future versions will dispatch to
// webhooks, dashboards, or notification systems.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing simulation event",
		"event_id", job.Args.EventID,
		"event_type", job.Args.EventType,
		"day", job.Args.Day,
		"financial", job.Args.Financial,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
