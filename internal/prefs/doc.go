// Package prefs owns the UI preferences (theme, units, locale).
//
// Updates are sparse and all-or-nothing: an unrecognised value rejects
// the whole update before anything is persisted.
package prefs
