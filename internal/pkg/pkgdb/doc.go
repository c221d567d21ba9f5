// Package pkgdb opens the SQL database shared by the modules.
//
// Two drivers are supported through database/sql: "sqlite" (modernc.org/sqlite,
// pure Go) and "postgres" (pgx stdlib). Queries are written with "?" and
// rebound by sqlx for the active driver.
package pkgdb
