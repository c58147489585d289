// Package user owns the account record and its persistence: the Store
// contract, a PostgreSQL implementation on pgx, an in-memory implementation
// for tests, and bcrypt password helpers.
package user
