// Package pg provides the PostgreSQL plumbing for the user store: pgx pool
// construction with retries, goose migrations, error classification and a
// readiness healthcheck.
package pg
