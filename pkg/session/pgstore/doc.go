// Package pgstore mirrors session records into a PostgreSQL table. The
// schema ships embedded and is applied with Migrate.
package pgstore
