// Package redis wires up a go-redis client from environment configuration
// with startup retries and a readiness healthcheck. The session layer uses
// the resulting client for its shared key-value store.
package redis
