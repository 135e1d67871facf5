// Package walker streams a bounded pre-order traversal of an element tree.
//
// Trees exposed by the native API are untrusted: they can be cyclic
// through misbehaving parent links, effectively infinite through virtual
// containers, or simply enormous. The walker therefore never recurses and
// never trusts the tree to end. It keeps an explicit frame stack, consults
// its predicates before expanding anything, rechecks the deadline on every
// step, and stops at a visit budget no matter what the tree claims.
//
// Results stream through Frames in the manner of bufio.Scanner: range the
// channel, then check Err. A walk whose context is cancelled ends early
// with the context's error; a walk that hits its visit budget ends cleanly
// and reports Truncated through Stats.
package walker
