// Package pkglog configures slog for the server and the CLI.
//
// Records are JSON with "ts" and "severity" keys. Request scoped values set
// by the HTTP middlewares (correlation id, authenticated user id) are copied
// onto every record logged with that request's context.
package pkglog
