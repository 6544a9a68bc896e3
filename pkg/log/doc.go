// Package log provides structured logging for logtap services.
//
// Loggers are constructed explicitly and passed by dependency injection;
// there is no package-level default logger. Components receive a Logger
// tagged with their component name via WithComponent, and attach typed
// fields with the Field constructors (Str, Int, Err, ...).
//
// Output is pluggable: entries flow through a Formatter (text or JSON)
// into one or more Outputs (console by default).
package log
