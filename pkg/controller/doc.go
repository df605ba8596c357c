// Package controller is the framework-agnostic façade a UI layer drives:
// it holds at most one live pkg/session.Session, maintains an immutable
// Snapshot of its observable state, and fans state changes out to
// subscribers. See spec.md §4.5.
package controller
