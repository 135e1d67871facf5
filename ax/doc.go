// Package ax is the element and marshaling layer of the accessibility
// introspection core: a capability contract over a native tree node owned by
// another process, plus a bidirectional typed-value bridge between the
// untyped native representation and a closed set of value types.
//
// An Element never caches structure. Every read round-trips to the native
// API through the run loop executor, so the view is always live and may go
// stale at any moment. Absence is not an error: querying an attribute the
// node does not support yields an absent Value and a nil error, while
// boundary conditions (access disabled, stale reference, unresponsive
// target) surface as *Error with a closed Code set the caller can branch on.
//
// All native calls are funneled through a System, which binds a Driver to
// the run loop and enforces the collection and character ceilings that keep
// pathological trees from exhausting memory.
package ax
