// Package common contains shared constants and sentinel errors used across
// modelkeeper components.
package common

// SessionCookieName is the name of the HTTP cookie carrying the signed
// session token issued on login.
const SessionCookieName = "modelkeeper_session"

// RequestIDHeaderName is echoed back on every response and copied into the
// request log entry.
const RequestIDHeaderName = "X-Request-ID"
