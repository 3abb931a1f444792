// Package session owns the table of active transmission sessions.
//
// The service enforces the session lifecycle (pending exchange -> ready ->
// expired/closed), per-session transfer quotas, and secure zeroing of key
// material on close. All mutation happens under one mutex; callbacks and
// audit events fire outside it.
package session
