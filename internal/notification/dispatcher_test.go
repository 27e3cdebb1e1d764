package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"geotask-backend/internal/task/domain"
	"geotask-backend/pkg/fcm"
)

type recordingPusher struct {
	mu   sync.Mutex
	sent []fcm.Notification
	fail bool
}

func (p *recordingPusher) SendToDevices(ctx context.Context, tokens []string, n fcm.Notification) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return tokens, nil
	}
	p.sent = append(p.sent, n)
	return nil, nil
}

func (p *recordingPusher) notifications() []fcm.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]fcm.Notification(nil), p.sent...)
}

type staticTokens []string

func (s staticTokens) Tokens() ([]string, error) { return s, nil }

type failingTokens struct{}

func (failingTokens) Tokens() ([]string, error) { return nil, errors.New("store unavailable") }

func strPtr(s string) *string { return &s }

func TestNotificationID(t *testing.T) {
	if got := NotificationID(42, KindTime); got != 42 {
		t.Errorf("time id = %d, want 42", got)
	}
	if got := NotificationID(42, KindGeofence); got != 10042 {
		t.Errorf("geofence id = %d, want 10042", got)
	}
	if NotificationID(42, KindTime) == NotificationID(42, KindGeofence) {
		t.Error("time and geofence ids must differ for the same task")
	}
}

func TestNotifyDue_DeliversWithStableTag(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, staticTokens{"tok-a"}, EnabledFlag(true))
	task := &domain.Task{ID: 7, Title: "buy milk"}

	if err := d.NotifyDue(context.Background(), task); err != nil {
		t.Fatalf("NotifyDue: %v", err)
	}
	if err := d.NotifyDue(context.Background(), task); err != nil {
		t.Fatalf("NotifyDue again: %v", err)
	}

	sent := pusher.notifications()
	if len(sent) != 2 {
		t.Fatalf("pushes = %d, want 2", len(sent))
	}
	if sent[0].Tag != "7" || sent[1].Tag != "7" {
		t.Errorf("tags = %q, %q; want both \"7\"", sent[0].Tag, sent[1].Tag)
	}
	if !d.Live(7) {
		t.Error("notification 7 not live after delivery")
	}
}

func TestNotifyLocation_UsesOffsetIdentity(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, staticTokens{"tok-a"}, EnabledFlag(true))
	task := &domain.Task{ID: 7, Title: "buy milk", Location: strPtr("the shop")}

	if err := d.NotifyLocation(context.Background(), task); err != nil {
		t.Fatalf("NotifyLocation: %v", err)
	}

	sent := pusher.notifications()
	if len(sent) != 1 {
		t.Fatalf("pushes = %d, want 1", len(sent))
	}
	if sent[0].Tag != "10007" {
		t.Errorf("tag = %q, want \"10007\"", sent[0].Tag)
	}
	if !d.Live(10007) {
		t.Error("notification 10007 not live after delivery")
	}
	if d.Live(7) {
		t.Error("time identity must stay clear after a geofence fire")
	}
}

func TestCancel_ClearsBothIdentities(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, staticTokens{"tok-a"}, EnabledFlag(true))
	task := &domain.Task{ID: 7, Title: "buy milk", Location: strPtr("the shop")}

	d.NotifyDue(context.Background(), task)
	d.NotifyLocation(context.Background(), task)
	d.Cancel(7)

	if d.Live(7) || d.Live(10007) {
		t.Error("identities still live after cancel")
	}

	// cancelling a task that never fired is a no-op
	d.Cancel(99)
}

func TestNotify_PermissionDeniedSuppresses(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, staticTokens{"tok-a"}, EnabledFlag(false))
	task := &domain.Task{ID: 7, Title: "buy milk"}

	if err := d.NotifyDue(context.Background(), task); err != nil {
		t.Fatalf("NotifyDue with permission denied must not fail: %v", err)
	}
	if got := len(pusher.notifications()); got != 0 {
		t.Errorf("pushes = %d, want 0", got)
	}
	if d.Live(7) {
		t.Error("suppressed notification must not be tracked as live")
	}
}

func TestNotify_NoDevicesIsNotAnError(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, staticTokens{}, EnabledFlag(true))

	if err := d.NotifyDue(context.Background(), &domain.Task{ID: 7, Title: "buy milk"}); err != nil {
		t.Fatalf("NotifyDue with no devices: %v", err)
	}
	if got := len(pusher.notifications()); got != 0 {
		t.Errorf("pushes = %d, want 0", got)
	}
}

func TestNotify_AllDevicesRejecting(t *testing.T) {
	pusher := &recordingPusher{fail: true}
	d := NewDispatcher(pusher, staticTokens{"tok-a", "tok-b"}, EnabledFlag(true))

	if err := d.NotifyDue(context.Background(), &domain.Task{ID: 7, Title: "buy milk"}); err == nil {
		t.Fatal("expected error when every device rejects")
	}
}

func TestNotify_TokenStoreFailure(t *testing.T) {
	pusher := &recordingPusher{}
	d := NewDispatcher(pusher, failingTokens{}, EnabledFlag(true))

	if err := d.NotifyDue(context.Background(), &domain.Task{ID: 7, Title: "buy milk"}); err == nil {
		t.Fatal("expected error when token store is unavailable")
	}
}

func TestNotify_NilPusherTracksOnly(t *testing.T) {
	d := NewDispatcher(nil, staticTokens{"tok-a"}, EnabledFlag(true))

	if err := d.NotifyDue(context.Background(), &domain.Task{ID: 7, Title: "buy milk"}); err != nil {
		t.Fatalf("NotifyDue with nil pusher: %v", err)
	}
	if !d.Live(7) {
		t.Error("notification not tracked with nil pusher")
	}
}
