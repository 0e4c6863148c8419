// Package database provides the PostgreSQL connection pool used by the
// optional frame recorder.
package database
