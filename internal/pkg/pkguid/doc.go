// Package pkguid mints the identifiers used by the analyzer.
//
// Datasets and users get Snowflake ids so newer records sort after older
// ones. Requests and insight events get UUIDv7 strings. API tokens are 40
// hex characters from crypto/rand, the format the desktop client expects.
package pkguid
