// Package pkgerror carries business errors from the usecases to the HTTP
// edge.
//
// An Error holds a client-facing message, a Code that pkgrouter maps to a
// status (malformed upload 400, unusable CSV 422, missing dataset 404) and
// optional per-field messages such as missing CSV columns or registration
// validation failures. ErrNotFound is returned by stores and checked with
// errors.Is.
package pkgerror
