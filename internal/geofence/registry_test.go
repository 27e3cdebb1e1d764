package geofence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"geotask-backend/internal/task/domain"
	"geotask-backend/pkg/geo"
)

// fakeProvider records register and unregister calls in memory
type fakeProvider struct {
	mu            sync.Mutex
	registered    map[int64]geo.Point
	registers     int
	unregisters   int
	registerErr   error
	unregisterErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{registered: make(map[int64]geo.Point)}
}

func (p *fakeProvider) Register(ctx context.Context, taskID int64, center geo.Point, radiusMeters float64) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registers++
	if p.registerErr != nil {
		return "", p.registerErr
	}
	p.registered[taskID] = center
	return Handle("zone-1"), nil
}

func (p *fakeProvider) Unregister(ctx context.Context, taskID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unregisters++
	if p.unregisterErr != nil {
		return p.unregisterErr
	}
	delete(p.registered, taskID)
	return nil
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func zonedTask(id int64) *domain.Task {
	return &domain.Task{
		ID:              id,
		Title:           "pick up parcel",
		ReminderEnabled: true,
		Location:        strPtr("post office"),
		Latitude:        floatPtr(10.762622),
		Longitude:       floatPtr(106.660172),
		GeofenceRadius:  200,
	}
}

func TestSync_RegistersEligibleTask(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	if err := r.Sync(context.Background(), zonedTask(1)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	zone, ok := r.Zone(1)
	if !ok {
		t.Fatal("zone not tracked after sync")
	}
	if zone.RadiusMeters != 200 {
		t.Errorf("radius = %f, want 200", zone.RadiusMeters)
	}
	if zone.Handle == "" {
		t.Error("zone handle empty")
	}
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}
}

func TestSync_IneligibleTaskRemovesZone(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Task)
	}{
		{"no zone", func(task *domain.Task) { task.Latitude = nil; task.Longitude = nil; task.Location = nil }},
		{"completed", func(task *domain.Task) { task.Completed = true }},
		{"reminder disabled", func(task *domain.Task) { task.ReminderEnabled = false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := newFakeProvider()
			r := NewRegistry(provider)

			task := zonedTask(1)
			if err := r.Sync(context.Background(), task); err != nil {
				t.Fatalf("initial sync: %v", err)
			}

			tc.mutate(task)
			if err := r.Sync(context.Background(), task); err != nil {
				t.Fatalf("sync after mutation: %v", err)
			}

			if _, ok := r.Zone(1); ok {
				t.Error("zone still tracked for ineligible task")
			}
		})
	}
}

func TestSync_ClampsRadius(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, DefaultRadiusMeters},
		{-5, DefaultRadiusMeters},
		{50, MinRadiusMeters},
		{100, 100},
		{350, 350},
		{500, 500},
		{9000, MaxRadiusMeters},
	}
	for _, tc := range cases {
		if got := ClampRadius(tc.in); got != tc.want {
			t.Errorf("ClampRadius(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}

	provider := newFakeProvider()
	r := NewRegistry(provider)
	task := zonedTask(1)
	task.GeofenceRadius = 2000

	if err := r.Sync(context.Background(), task); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if zone, _ := r.Zone(1); zone.RadiusMeters != MaxRadiusMeters {
		t.Errorf("stored radius = %f, want %f", zone.RadiusMeters, MaxRadiusMeters)
	}
}

func TestSync_ReplacesExistingRegistration(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	task := zonedTask(1)
	if err := r.Sync(context.Background(), task); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	task.Latitude = floatPtr(21.028511)
	task.Longitude = floatPtr(105.804817)
	if err := r.Sync(context.Background(), task); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	zone, _ := r.Zone(1)
	if zone.Center.Latitude != 21.028511 {
		t.Errorf("center latitude = %f, want the replacement value", zone.Center.Latitude)
	}
	if provider.registers != 2 {
		t.Errorf("provider registers = %d, want 2", provider.registers)
	}
}

func TestSync_InvalidCenterRefused(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	task := zonedTask(1)
	task.Latitude = floatPtr(95)

	err := r.Sync(context.Background(), task)
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("err = %v, want ErrRegistrationFailed", err)
	}
	if _, ok := r.Zone(1); ok {
		t.Error("invalid zone tracked")
	}
	if provider.registers != 0 {
		t.Errorf("provider registers = %d, want 0", provider.registers)
	}
}

func TestSync_ProviderFailureSurfaces(t *testing.T) {
	provider := newFakeProvider()
	provider.registerErr = errors.New("no live devices")
	r := NewRegistry(provider)

	err := r.Sync(context.Background(), zonedTask(1))
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("err = %v, want ErrRegistrationFailed", err)
	}
	if _, ok := r.Zone(1); ok {
		t.Error("failed registration tracked as live zone")
	}
}

func TestRemove_Idempotent(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	if err := r.Sync(context.Background(), zonedTask(1)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	r.Remove(context.Background(), 1)
	r.Remove(context.Background(), 1)
	r.Remove(context.Background(), 42) // never registered

	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}

func TestRemove_ProviderFailureNonFatal(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	if err := r.Sync(context.Background(), zonedTask(1)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	provider.unregisterErr = errors.New("no live devices")
	r.Remove(context.Background(), 1)

	// the local table is cleared even when the provider call fails
	if _, ok := r.Zone(1); ok {
		t.Error("zone still tracked after remove")
	}
}

func TestRemoveAll(t *testing.T) {
	provider := newFakeProvider()
	r := NewRegistry(provider)

	for id := int64(1); id <= 3; id++ {
		if err := r.Sync(context.Background(), zonedTask(id)); err != nil {
			t.Fatalf("Sync %d: %v", id, err)
		}
	}

	r.RemoveAll(context.Background())
	if r.Count() != 0 {
		t.Errorf("count = %d, want 0", r.Count())
	}
}
