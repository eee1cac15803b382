// Package logging assembles structured slog loggers for radiosim.
//
// It owns the console and JSON handlers, the level and output plumbing, and
// the attribute helpers every package uses to tag log lines. NewNop provides
// a discard logger for tests and for library code constructed without one.
package logging
