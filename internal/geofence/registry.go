package geofence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"geotask-backend/internal/task/domain"
	"geotask-backend/pkg/geo"
)

const (
	DefaultRadiusMeters = 200.0
	MinRadiusMeters     = 100.0
	MaxRadiusMeters     = 500.0
)

// ErrRegistrationFailed indicates the provider rejected a zone registration.
// The task mutation that triggered the sync must not be rolled back: the task
// stays saved but unprotected by location triggering until the next sync.
var ErrRegistrationFailed = errors.New("geofence registration failed")

// RegisteredZone mirrors a task's trigger zone plus the provider handle
type RegisteredZone struct {
	TaskID       int64
	Center       geo.Point
	RadiusMeters float64
	Handle       Handle
}

// Registry owns the task-id to registered-zone mapping. It is the only
// writer of the table; reads and writes may come from any goroutine.
type Registry struct {
	provider Provider

	mu    sync.RWMutex
	zones map[int64]RegisteredZone
}

// NewRegistry creates a Registry backed by the given provider
func NewRegistry(provider Provider) *Registry {
	return &Registry{
		provider: provider,
		zones:    make(map[int64]RegisteredZone),
	}
}

// Sync brings the registered zone for the task in line with its current
// state. Tasks without a zone, completed tasks, and tasks with reminders
// disabled end up with no registration. Otherwise any existing zone is
// replaced wholesale: remove-then-add, never a partial edit, to avoid
// provider-side duplicate-registration ambiguity.
func (r *Registry) Sync(ctx context.Context, task *domain.Task) error {
	if !task.HasZone() || task.Completed || !task.ReminderEnabled {
		r.Remove(ctx, task.ID)
		return nil
	}

	center := geo.Point{Latitude: *task.Latitude, Longitude: *task.Longitude}
	if !center.Valid() {
		log.Printf("[Registry] Refusing zone with out-of-range coordinates: taskID=%d lat=%f lng=%f",
			task.ID, center.Latitude, center.Longitude)
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, geo.ErrInvalidCoordinate)
	}

	radius := ClampRadius(task.GeofenceRadius)

	// Replace any existing registration before adding the new one
	r.Remove(ctx, task.ID)

	handle, err := r.provider.Register(ctx, task.ID, center, radius)
	if err != nil {
		log.Printf("[Registry] Zone registration failed: taskID=%d err=%v", task.ID, err)
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	r.mu.Lock()
	r.zones[task.ID] = RegisteredZone{
		TaskID:       task.ID,
		Center:       center,
		RadiusMeters: radius,
		Handle:       handle,
	}
	r.mu.Unlock()

	log.Printf("[Registry] Zone registered: taskID=%d lat=%f lng=%f radius=%.0fm",
		task.ID, center.Latitude, center.Longitude, radius)
	return nil
}

// Remove unregisters the zone for taskID. Idempotent: removing an absent
// zone is a no-op, and provider failures are logged but non-fatal.
func (r *Registry) Remove(ctx context.Context, taskID int64) {
	r.mu.Lock()
	_, existed := r.zones[taskID]
	delete(r.zones, taskID)
	r.mu.Unlock()

	if err := r.provider.Unregister(ctx, taskID); err != nil {
		log.Printf("[Registry] Zone unregister failed (non-fatal): taskID=%d err=%v", taskID, err)
		return
	}
	if existed {
		log.Printf("[Registry] Zone removed: taskID=%d", taskID)
	}
}

// RemoveAll clears every registered zone. Best-effort: the provider has no
// bulk unregister, so known ids are iterated.
func (r *Registry) RemoveAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.zones))
	for id := range r.zones {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Remove(ctx, id)
	}
	log.Printf("[Registry] Cleared %d registered zones", len(ids))
}

// Zone returns the registered zone for taskID, if any
func (r *Registry) Zone(taskID int64) (RegisteredZone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	zone, ok := r.zones[taskID]
	return zone, ok
}

// Count returns the number of registered zones
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}

// ClampRadius coerces a configured radius into the supported range.
// Non-positive values fall back to the default.
func ClampRadius(radiusMeters float64) float64 {
	if radiusMeters <= 0 {
		return DefaultRadiusMeters
	}
	if radiusMeters < MinRadiusMeters {
		return MinRadiusMeters
	}
	if radiusMeters > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return radiusMeters
}
