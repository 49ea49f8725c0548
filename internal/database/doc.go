// Package database provides the PostgreSQL connection pool for order
// persistence. Orders and their items live in a single database; the schema
// is created at startup by store.Migrate.
package database
