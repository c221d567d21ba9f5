// Package pkgrouter is the HTTP layer of the analyzer API.
//
// Handlers return (any, error). Successful values are written as JSON, or
// as a download when they describe a file (the PDF report). Errors are
// mapped from pkgerror codes to status codes. Every route runs behind
// panic recovery, correlation id propagation and access logging.
package pkgrouter
