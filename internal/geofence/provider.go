package geofence

import (
	"context"

	"geotask-backend/pkg/geo"
)

// Handle is an opaque provider-assigned identifier for a registered zone
type Handle string

// Transition is the kind of boundary crossing a provider reports
type Transition string

const (
	TransitionEnter Transition = "enter"
	TransitionExit  Transition = "exit"
)

// Event is a raw provider-reported transition for a registered zone.
// Reliability is variable: events may be stale, duplicated, or outright wrong.
type Event struct {
	TaskID     int64      `json:"task_id"`
	Transition Transition `json:"transition"`
}

// Provider is the external positioning subsystem that watches circular zones
// and reports boundary crossings
type Provider interface {
	// Register starts watching a circular zone keyed by taskID
	Register(ctx context.Context, taskID int64, center geo.Point, radiusMeters float64) (Handle, error)

	// Unregister stops watching the zone for taskID; must be safe to call
	// for an unknown id
	Unregister(ctx context.Context, taskID int64) error
}

// PositionSource supplies the best available current position fix.
// Implementations must respect ctx cancellation rather than block.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (geo.Point, error)
}
