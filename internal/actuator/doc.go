// Package actuator owns scheduling rules for actuator channels.
//
// A rule binds a device channel to a set of validated time windows; the
// channel is active whenever the current wall-clock time falls inside an
// enabled rule's window. Validation happens on write: a rule carrying a
// malformed window is rejected with the underlying schedule error, never
// silently disabled.
package actuator
