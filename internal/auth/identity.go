package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DeviceHeader carries the anonymous device id on API requests.
const DeviceHeader = "X-Device-ID"

// Identity is who a progress record belongs to. Authenticated identities
// are keyed by user id; anonymous ones by device id.
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	DeviceID      string `json:"deviceId,omitempty"`

	// Generated marks a device id minted for this request rather than
	// supplied by the client.
	Generated bool `json:"-"`
}

// Anonymous returns a device-scoped identity. An empty device id gets a
// fresh random one.
func Anonymous(deviceID string) Identity {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return Identity{DeviceID: NewDeviceID(), Generated: true}
	}
	return Identity{DeviceID: deviceID}
}

// NewDeviceID returns a random device id.
func NewDeviceID() string {
	return uuid.NewString()
}

// Key returns a stable key for caches and locks.
func (i Identity) Key() string {
	if i.Authenticated {
		return "user:" + i.UserID
	}
	return "device:" + i.DeviceID
}

type contextKey struct{}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
