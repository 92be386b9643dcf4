// Package schedule provides wall-clock time parsing and time-window
// evaluation for actuator rules.
//
// Times are "HH:MM" strings with hours 00-23 and minutes 00-59. Parsing is
// strict: malformed or out-of-range strings always produce an error, never a
// clamped or wrapped number.
//
// A TimeWindow whose Start is later than its End wraps across midnight
// (22:00-06:00 is active overnight). A window with Start equal to End is
// invalid rather than empty or always-on.
package schedule
