// Package protocol owns the client<->server wire shapes.
//
// Ownership boundary:
// - request envelope (version/action/uuid/body)
// - register body payload
// - response envelope and status codes
//
// Protocol carries no transport, retry, or classification logic.
package protocol
