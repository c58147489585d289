// Package api exposes the account service over HTTP: signup, lookup,
// deletion, and session login/logout. All routes sit behind the session
// middleware; identity is resolved per request through the auth resolver.
package api
