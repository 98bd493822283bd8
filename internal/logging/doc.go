// Package logging configures structured logging for typeindex.
//
// Components never reach for a global logger: they take a *slog.Logger in
// their option structs and fall back to Discard when none is given. The CLI
// builds one logger with Setup and passes it down.
package logging
