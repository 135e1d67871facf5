package ax

import (
	"errors"
	"fmt"
)

// Status is a raw result code of the native accessibility API. The numeric
// values match the platform's introspection model and are what a Driver
// reports; everything above the driver boundary speaks Code instead.
type Status int32

const (
	StatusSuccess                           Status = 0
	StatusFailure                           Status = -25200
	StatusIllegalArgument                   Status = -25201
	StatusInvalidElement                    Status = -25202
	StatusInvalidObserver                   Status = -25203
	StatusCannotComplete                    Status = -25204
	StatusAttributeUnsupported              Status = -25205
	StatusActionUnsupported                 Status = -25206
	StatusNotificationUnsupported           Status = -25207
	StatusNotImplemented                    Status = -25208
	StatusNotificationAlreadyRegistered     Status = -25209
	StatusNotificationNotRegistered         Status = -25210
	StatusAPIDisabled                       Status = -25211
	StatusNoValue                           Status = -25212
	StatusParameterizedAttributeUnsupported Status = -25213
	StatusNotEnoughPrecision                Status = -25214
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusIllegalArgument:
		return "illegal_argument"
	case StatusInvalidElement:
		return "invalid_element"
	case StatusInvalidObserver:
		return "invalid_observer"
	case StatusCannotComplete:
		return "cannot_complete"
	case StatusAttributeUnsupported:
		return "attribute_unsupported"
	case StatusActionUnsupported:
		return "action_unsupported"
	case StatusNotificationUnsupported:
		return "notification_unsupported"
	case StatusNotImplemented:
		return "not_implemented"
	case StatusNotificationAlreadyRegistered:
		return "notification_already_registered"
	case StatusNotificationNotRegistered:
		return "notification_not_registered"
	case StatusAPIDisabled:
		return "api_disabled"
	case StatusNoValue:
		return "no_value"
	case StatusParameterizedAttributeUnsupported:
		return "parameterized_attribute_unsupported"
	case StatusNotEnoughPrecision:
		return "not_enough_precision"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Absence reports whether the status signals expected absence: the node is
// fine, it just has nothing to say. Absence resolves to a nil result and a
// nil error, never to an *Error.
func (s Status) Absence() bool {
	switch s {
	case StatusNoValue, StatusAttributeUnsupported, StatusActionUnsupported:
		return true
	default:
		return false
	}
}

// Code classifies a failure for callers. The set is closed: boundary
// conditions the caller must branch on, plus CodeInternal for everything
// that signals a logic error rather than an environmental condition.
type Code string

// Recoverable boundary codes
const (
	CodeAPIDisabled                       Code = "API_DISABLED"
	CodeInvalidElement                    Code = "INVALID_ELEMENT"
	CodeNotImplemented                    Code = "NOT_IMPLEMENTED"
	CodeTimeout                           Code = "TIMEOUT"
	CodeNotificationUnsupported           Code = "NOTIFICATION_UNSUPPORTED"
	CodeParameterizedAttributeUnsupported Code = "PARAMETERIZED_ATTRIBUTE_UNSUPPORTED"
)

// Defect code
const (
	// CodeInternal marks an invariant violation: an unrecognized native
	// status, a teardown that found no registry entry, a confinement
	// breach. Returned with full diagnostic context rather than aborting,
	// so a long-running monitor survives a discovered bug.
	CodeInternal Code = "INTERNAL"
)

// Error is a structured accessibility error with code, message, and the
// native diagnostic context that produced it.
type Error struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Status    Status `json:"status,omitempty"`
	Op        string `json:"op,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	PID       int32  `json:"pid,omitempty"`
	Cause     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Status.String()
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithStatus records the native status that produced the error.
func (e *Error) WithStatus(status Status) *Error {
	e.Status = status
	return e
}

// WithOp records the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithAttribute records the attribute involved.
func (e *Error) WithAttribute(name string) *Error {
	e.Attribute = name
	return e
}

// WithPID records the owning process.
func (e *Error) WithPID(pid int32) *Error {
	e.PID = pid
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// StatusError converts a failing native status into its Error. Success and
// absence statuses have no error form and yield nil; any status outside the
// recoverable boundary set classifies as CodeInternal.
func StatusError(status Status, op string) *Error {
	if status == StatusSuccess || status.Absence() {
		return nil
	}
	code := CodeInternal
	switch status {
	case StatusAPIDisabled:
		code = CodeAPIDisabled
	case StatusInvalidElement, StatusInvalidObserver:
		code = CodeInvalidElement
	case StatusNotImplemented:
		code = CodeNotImplemented
	case StatusCannotComplete:
		code = CodeTimeout
	case StatusNotificationUnsupported:
		code = CodeNotificationUnsupported
	case StatusParameterizedAttributeUnsupported:
		code = CodeParameterizedAttributeUnsupported
	}
	return &Error{Code: code, Message: status.String(), Status: status, Op: op}
}

// ErrorCode extracts the code from an error, unwrapping as needed.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsTimeout reports whether the error is a messaging timeout against an
// unresponsive target.
func IsTimeout(err error) bool {
	return ErrorCode(err) == CodeTimeout
}

// IsInvalidElement reports whether the error marks a stale or invalid
// native reference.
func IsInvalidElement(err error) bool {
	return ErrorCode(err) == CodeInvalidElement
}

// IsAPIDisabled reports whether the error means the introspection API is
// switched off for this process (missing trust/permission).
func IsAPIDisabled(err error) bool {
	return ErrorCode(err) == CodeAPIDisabled
}

// IsInternal reports whether the error is an invariant violation rather
// than an environmental condition.
func IsInternal(err error) bool {
	return ErrorCode(err) == CodeInternal
}
