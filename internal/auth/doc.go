// Package auth resolves the request's session to a user identity and
// repairs stale sessions (sessions whose bound user no longer exists).
package auth
