// Package dispatch owns device command records.
//
// A dispatched command travels as an event: the dispatcher publishes a
// request, the session container performs the transport send inside the
// same synchronous fan-out and publishes the result, and the dispatcher
// settles the record before Dispatch returns to the caller. A bounded
// history of settled commands is kept for inspection.
package dispatch
