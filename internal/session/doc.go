// Package session owns the reporting session lifecycle.
//
// Ownership boundary:
// - endpoint rotation across primary and backup servers
// - response classification into a closed outcome set
// - bounded retry escalation
// - the register/heartbeat loop and its cooperative shutdown
//
// Configuration loading and telemetry collection are collaborators,
// consumed only at their interface boundary.
package session
