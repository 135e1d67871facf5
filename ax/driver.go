// =============================================================================
// Native Accessibility Driver Protocol
// =============================================================================
// The Driver interface is the single seam between this core and the
// platform's introspection API. Every method requires a valid runloop.Token:
// the native API is single-threaded and non-reentrant, so a driver must only
// ever be entered from inside a job on the dedicated run loop. Drivers
// traffic in raw handles and Status codes plus the carrier types of this
// package (bool, int64, float64, string, []any, map[string]any, *url.URL,
// AttributedString, Range, Point, Size, Rect, Status, Ref); classification
// into the error taxonomy happens above the driver, in System and Element.
// =============================================================================

package ax

import (
	"time"

	"github.com/deskwatch/axcore/runloop"
)

// Handle is a driver-opaque reference to one native element. Handles
// compare meaningfully only through SameElement; a handle may go stale at
// any time, after which operations report StatusInvalidElement.
type Handle any

// ObserverHandle is a driver-opaque reference to one native notification
// subscription.
type ObserverHandle any

// ObserverCallback is invoked by the driver on the run loop for every
// notification fired on a subscribed element. The payload map uses the
// driver carrier types and may be nil.
type ObserverCallback func(tok runloop.Token, subject Handle, notification string, payload map[string]any)

// Driver is the capability protocol over the native accessibility API.
//
// A nil-handle call, a stale handle, and an off-loop call (invalid token)
// are all driver-detected conditions reported through Status; drivers never
// panic on them.
type Driver interface {
	// ApplicationElement returns the root element of the process pid.
	ApplicationElement(tok runloop.Token, pid int32) (Handle, Status)

	// SystemWideElement returns the system-wide root, which resolves
	// focus-related attributes across all processes.
	SystemWideElement(tok runloop.Token) (Handle, Status)

	// SameElement reports whether two handles reference the same native
	// element.
	SameElement(tok runloop.Token, a, b Handle) (bool, Status)

	// ElementPID returns the pid owning the element.
	ElementPID(tok runloop.Token, h Handle) (int32, Status)

	// AttributeNames lists the attributes the element supports.
	AttributeNames(tok runloop.Token, h Handle) ([]string, Status)

	// AttributeValue fetches one attribute in carrier form.
	AttributeValue(tok runloop.Token, h Handle, name string) (any, Status)

	// AttributeValueCount returns the element count of an array-valued
	// attribute without materializing it.
	AttributeValueCount(tok runloop.Token, h Handle, name string) (int64, Status)

	// SetAttributeValue writes one attribute from carrier form.
	SetAttributeValue(tok runloop.Token, h Handle, name string, value any) Status

	// ParameterizedAttributeNames lists the parameterized attributes the
	// element supports.
	ParameterizedAttributeNames(tok runloop.Token, h Handle) ([]string, Status)

	// ParameterizedAttributeValue queries a parameterized attribute with
	// an input in carrier form.
	ParameterizedAttributeValue(tok runloop.Token, h Handle, name string, param any) (any, Status)

	// ActionNames lists the actions the element supports.
	ActionNames(tok runloop.Token, h Handle) ([]string, Status)

	// PerformAction triggers a named action.
	PerformAction(tok runloop.Token, h Handle, name string) Status

	// SetMessagingTimeout bounds how long native calls through this handle
	// wait on an unresponsive target before StatusCannotComplete. Zero
	// restores the global default.
	SetMessagingTimeout(tok runloop.Token, h Handle, timeout time.Duration) Status

	// CreateObserver allocates a notification subscription against the
	// process pid, delivering through cb.
	CreateObserver(tok runloop.Token, pid int32, cb ObserverCallback) (ObserverHandle, Status)

	// AddNotification subscribes the observer to a named notification on
	// the element.
	AddNotification(tok runloop.Token, obs ObserverHandle, h Handle, notification string) Status

	// RemoveNotification removes a named notification subscription.
	RemoveNotification(tok runloop.Token, obs ObserverHandle, h Handle, notification string) Status

	// AttachObserver registers the observer's event source on the run
	// loop, enabling callback delivery.
	AttachObserver(tok runloop.Token, obs ObserverHandle) Status

	// InvalidateObserver unregisters the event source and invalidates the
	// observer handle. No callback starts after it returns.
	InvalidateObserver(tok runloop.Token, obs ObserverHandle) Status
}
