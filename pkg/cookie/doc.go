// Package cookie provides an HTTP cookie manager with HMAC-signed values
// and rotation-friendly multi-secret verification. The session layer uses it
// to carry session tokens that clients cannot forge.
package cookie
