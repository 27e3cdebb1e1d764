package geofence

import (
	"context"
	"fmt"
	"strconv"

	"geotask-backend/pkg/geo"

	"github.com/google/uuid"
)

// TokenSource lists the device tokens geofence commands are pushed to
type TokenSource interface {
	Tokens() ([]string, error)
}

// CommandPusher delivers silent data messages to a set of devices
type CommandPusher interface {
	SendDataToDevices(ctx context.Context, tokens []string, data map[string]string) ([]string, error)
}

// FCMProvider implements Provider by pushing zone watch commands to the
// user's devices over FCM. The device OS does the actual region monitoring
// and reports transitions back through the event ingestion paths.
type FCMProvider struct {
	tokens TokenSource
	pusher CommandPusher
}

// NewFCMProvider creates an FCM-command backed Provider
func NewFCMProvider(tokens TokenSource, pusher CommandPusher) *FCMProvider {
	return &FCMProvider{tokens: tokens, pusher: pusher}
}

func (p *FCMProvider) Register(ctx context.Context, taskID int64, center geo.Point, radiusMeters float64) (Handle, error) {
	tokens, err := p.tokens.Tokens()
	if err != nil {
		return "", fmt.Errorf("failed to list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("no registered devices to watch zone for task %d", taskID)
	}

	handle := Handle(uuid.New().String())
	data := map[string]string{
		"action":    "geofence_register",
		"task_id":   strconv.FormatInt(taskID, 10),
		"handle":    string(handle),
		"latitude":  strconv.FormatFloat(center.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(center.Longitude, 'f', -1, 64),
		"radius":    strconv.FormatFloat(radiusMeters, 'f', -1, 64),
	}

	failed, err := p.pusher.SendDataToDevices(ctx, tokens, data)
	if err != nil {
		return "", fmt.Errorf("failed to push zone registration: %w", err)
	}
	if len(failed) == len(tokens) {
		return "", fmt.Errorf("no device accepted the zone registration for task %d", taskID)
	}

	return handle, nil
}

func (p *FCMProvider) Unregister(ctx context.Context, taskID int64) error {
	tokens, err := p.tokens.Tokens()
	if err != nil {
		return fmt.Errorf("failed to list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	data := map[string]string{
		"action":  "geofence_unregister",
		"task_id": strconv.FormatInt(taskID, 10),
	}

	if _, err := p.pusher.SendDataToDevices(ctx, tokens, data); err != nil {
		return fmt.Errorf("failed to push zone removal: %w", err)
	}
	return nil
}
