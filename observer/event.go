package observer

import (
	"time"

	"github.com/deskwatch/axcore/ax"
)

// Event is one change notification from a monitored element tree.
type Event struct {
	// Notification names the change, using the vocabulary constants in
	// package ax (NotificationValueChanged and friends).
	Notification string

	// Subject is the element the change happened to. It may already be
	// detached by the time the event is consumed; destruction
	// notifications in particular always carry a dead subject.
	Subject ax.Element

	// Payload carries the notification's auxiliary values decoded into
	// safely shareable form. Entries whose native representation falls
	// outside the supported value set are dropped.
	Payload map[string]ax.Value

	// Time is when the callback fired on the run loop.
	Time time.Time
}

// convertPayload decodes the native payload map entry by entry. Unlike
// attribute reads, a payload is best-effort: an undecodable entry loses
// that entry, not the event.
func convertPayload(payload map[string]any) map[string]ax.Value {
	if len(payload) == 0 {
		return nil
	}
	out := make(map[string]ax.Value, len(payload))
	for key, native := range payload {
		if v, ok := ax.Decode(native); ok {
			out[key] = v
		}
	}
	return out
}
