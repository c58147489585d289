// Package httpserver wraps net/http's Server with environment-driven
// configuration, graceful shutdown on signals, and health probe handlers.
package httpserver
