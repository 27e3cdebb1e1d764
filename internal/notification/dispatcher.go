package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"geotask-backend/internal/task/domain"
	"geotask-backend/pkg/fcm"
)

// LocationIDOffset separates geofence notification identities from time
// reminder identities for the same task
const LocationIDOffset = 10000

// ErrPermissionDenied is returned by a Permission gate when notification
// delivery is not allowed. It suppresses delivery without failing the caller.
var ErrPermissionDenied = errors.New("notification permission not granted")

// Kind distinguishes the two reminder channels a task can fire on
type Kind int

const (
	KindTime Kind = iota
	KindGeofence
)

func (k Kind) String() string {
	if k == KindGeofence {
		return "geofence"
	}
	return "time"
}

// NotificationID maps a task and channel to the notification identity.
// Re-notifying under the same identity replaces the visible notification.
func NotificationID(taskID int64, kind Kind) int64 {
	if kind == KindGeofence {
		return taskID + LocationIDOffset
	}
	return taskID
}

// Permission gates whether user-visible notifications may be delivered
type Permission interface {
	Granted() bool
}

// EnabledFlag is a static Permission backed by configuration
type EnabledFlag bool

func (f EnabledFlag) Granted() bool { return bool(f) }

// Pusher delivers user-visible notifications to device tokens, returning the
// tokens that failed. *fcm.Client satisfies it.
type Pusher interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.Notification) ([]string, error)
}

// TokenSource lists the device tokens to deliver to
type TokenSource interface {
	Tokens() ([]string, error)
}

type record struct {
	TaskID int64
	Kind   Kind
	Title  string
}

// Dispatcher turns due tasks into push notifications with stable identities,
// so repeated fires replace rather than stack, and cancellation can clear
// both channels of a task at once.
type Dispatcher struct {
	pusher     Pusher
	tokens     TokenSource
	permission Permission

	mu     sync.Mutex
	active map[int64]record
}

// NewDispatcher creates a Dispatcher. pusher may be nil when push delivery
// is disabled; notifications are then tracked but not sent.
func NewDispatcher(pusher Pusher, tokens TokenSource, permission Permission) *Dispatcher {
	return &Dispatcher{
		pusher:     pusher,
		tokens:     tokens,
		permission: permission,
		active:     make(map[int64]record),
	}
}

// NotifyDue delivers the time reminder for task
func (d *Dispatcher) NotifyDue(ctx context.Context, task *domain.Task) error {
	body := task.Title
	if task.Description != "" {
		body = fmt.Sprintf("%s: %s", task.Title, task.Description)
	}
	return d.notify(ctx, task.ID, KindTime, "Task Reminder", body)
}

// NotifyLocation delivers the arrival reminder for task
func (d *Dispatcher) NotifyLocation(ctx context.Context, task *domain.Task) error {
	body := task.Title
	if task.Location != nil {
		body = fmt.Sprintf("You've arrived at %s: %s", *task.Location, task.Title)
	}
	return d.notify(ctx, task.ID, KindGeofence, "Location Reminder", body)
}

func (d *Dispatcher) notify(ctx context.Context, taskID int64, kind Kind, title, body string) error {
	id := NotificationID(taskID, kind)

	if !d.permission.Granted() {
		log.Printf("[Dispatcher] Delivery suppressed: taskID=%d kind=%s reason=%v", taskID, kind, ErrPermissionDenied)
		return nil
	}

	// Same identity replaces the previous record rather than adding one
	d.mu.Lock()
	d.active[id] = record{TaskID: taskID, Kind: kind, Title: title}
	d.mu.Unlock()

	if d.pusher == nil {
		log.Printf("[Dispatcher] Push delivery disabled, notification tracked only: id=%d", id)
		return nil
	}

	tokens, err := d.tokens.Tokens()
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Printf("[Dispatcher] No registered devices, dropping notification: id=%d", id)
		return nil
	}

	failed, err := d.pusher.SendToDevices(ctx, tokens, fcm.Notification{
		Title: title,
		Body:  body,
		Tag:   strconv.FormatInt(id, 10),
		Data: map[string]string{
			"task_id":         strconv.FormatInt(taskID, 10),
			"notification_id": strconv.FormatInt(id, 10),
			"kind":            kind.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to push notification %d: %w", id, err)
	}
	if len(failed) == len(tokens) {
		return fmt.Errorf("notification %d rejected by all %d devices", id, len(tokens))
	}

	log.Printf("[Dispatcher] Notification delivered: id=%d kind=%s taskID=%d", id, kind, taskID)
	return nil
}

// Cancel clears both notification identities of a task. Safe to call for
// tasks that never fired.
func (d *Dispatcher) Cancel(taskID int64) {
	d.mu.Lock()
	delete(d.active, NotificationID(taskID, KindTime))
	delete(d.active, NotificationID(taskID, KindGeofence))
	d.mu.Unlock()

	log.Printf("[Dispatcher] Notifications cancelled: taskID=%d", taskID)
}

// Live reports whether a notification identity is currently active
func (d *Dispatcher) Live(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.active[id]
	return ok
}
