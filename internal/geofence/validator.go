package geofence

import (
	"context"
	"errors"
	"log"
	"time"

	"geotask-backend/internal/task/domain"
	"geotask-backend/internal/task/repository"
	"geotask-backend/pkg/geo"
)

// DefaultPositionTimeout bounds how long a validation pass waits for a fix
const DefaultPositionTimeout = 10 * time.Second

// Notifier delivers the location reminder once a transition is accepted
type Notifier interface {
	NotifyLocation(ctx context.Context, task *domain.Task) error
}

// Validator checks raw provider transition events against the real measured
// distance before a notification fires. Positioning providers report enter
// events from coarse signals and produce false positives at ranges far beyond
// the registered radius; the validator exists to reject those.
type Validator struct {
	registry        *Registry
	tasks           repository.TaskRepository
	positions       PositionSource
	notifier        Notifier
	positionTimeout time.Duration
}

// NewValidator creates a Validator with the default position timeout
func NewValidator(registry *Registry, tasks repository.TaskRepository, positions PositionSource, notifier Notifier) *Validator {
	return &Validator{
		registry:        registry,
		tasks:           tasks,
		positions:       positions,
		notifier:        notifier,
		positionTimeout: DefaultPositionTimeout,
	}
}

// SetPositionTimeout overrides the per-validation position wait bound
func (v *Validator) SetPositionTimeout(d time.Duration) {
	v.positionTimeout = d
}

// HandleTransition validates a raw transition event and fires the location
// notification when it passes. Every suppression path returns nil: a rejected
// event is a handled event, not a failure.
func (v *Validator) HandleTransition(ctx context.Context, event Event) error {
	if event.Transition != TransitionEnter {
		return nil
	}

	zone, ok := v.registry.Zone(event.TaskID)
	if !ok {
		// Stale event for an unregistered or expired task
		log.Printf("[Validator] No registered zone for event: taskID=%d", event.TaskID)
		return nil
	}

	task, err := v.tasks.FindByID(event.TaskID)
	if err != nil {
		return err
	}
	if task == nil || task.Completed || !task.ReminderEnabled {
		log.Printf("[Validator] Task not eligible, suppressing: taskID=%d", event.TaskID)
		return nil
	}

	posCtx, cancel := context.WithTimeout(ctx, v.positionTimeout)
	defer cancel()

	sample, err := v.positions.CurrentPosition(posCtx)
	if err != nil {
		// Never fire on an unverifiable position
		log.Printf("[Validator] Position unavailable, suppressing: taskID=%d err=%v", event.TaskID, err)
		return nil
	}

	verdict, err := geo.Check(sample, zone.Center, zone.RadiusMeters)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			// Possible upstream bug: flag it, do not fire
			log.Printf("[Validator] Data-integrity warning, out-of-range coordinates: taskID=%d sample=%+v center=%+v",
				event.TaskID, sample, zone.Center)
			return nil
		}
		return err
	}

	distance := geo.Distance(sample, zone.Center)

	switch verdict {
	case geo.Outside:
		log.Printf("[Validator] Distance check failed, suppressing: taskID=%d distance=%.0fm radius=%.0fm",
			event.TaskID, distance, zone.RadiusMeters)
		return nil
	case geo.Anomaly:
		// Distances beyond 1000km are more often a measurement glitch than a
		// true negative; firing here is a deliberate policy choice.
		log.Printf("[Validator] Anomalous distance (%.0fm), firing anyway: taskID=%d", distance, event.TaskID)
	default:
		log.Printf("[Validator] Distance check passed: taskID=%d distance=%.0fm radius=%.0fm",
			event.TaskID, distance, zone.RadiusMeters)
	}

	if err := v.notifier.NotifyLocation(ctx, task); err != nil {
		log.Printf("[Validator] Failed to deliver location reminder: taskID=%d err=%v", event.TaskID, err)
		return err
	}

	// One episode, one notification: drop the zone so it cannot re-fire.
	// Re-registration happens only on the next explicit task save.
	v.registry.Remove(ctx, event.TaskID)
	return nil
}
