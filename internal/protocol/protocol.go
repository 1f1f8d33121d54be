package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ClientVersion is the build version string attached to every request.
const ClientVersion = "0.4.1"

const (
	ActionRegister  = "register"
	ActionHeartbeat = "heartbeat"
)

// StatusOK is the server's success status code.
const StatusOK = 200

// Terminal status codes: the server instructs the client to stop and the
// session must never retry.
const (
	StatusDeregistered = 4000
	StatusBanned       = 4002
	StatusBadToken     = 4031
)

var (
	ErrInvalidRequest  = errors.New("protocol: invalid request")
	ErrInvalidResponse = errors.New("protocol: invalid response")
)

// IsTerminalStatus reports whether code belongs to the closed set of
// server-issued terminal directives.
func IsTerminalStatus(code int) bool {
	switch code {
	case StatusDeregistered, StatusBanned, StatusBadToken:
		return true
	default:
		return false
	}
}

// Request is the outbound envelope for register and heartbeat actions.
// Field names are fixed by the server contract.
type Request struct {
	Version string `json:"version"`
	Action  string `json:"action"`
	UUID    string `json:"uuid"`
	Body    string `json:"body,omitempty"`
}

func (r Request) Validate() error {
	switch r.Action {
	case ActionRegister, ActionHeartbeat:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, r.Action)
	}
	if strings.TrimSpace(r.UUID) == "" {
		return fmt.Errorf("%w: missing uuid", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Version) == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidRequest)
	}
	return nil
}

// RegisterInfo is the serialized body of a register request.
type RegisterInfo struct {
	Hostname string `json:"hostname"`
	BootTime int64  `json:"boot_time"`
}

// Response is the decoded server reply envelope.
type Response struct {
	Version string `json:"version"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// DecodeResponse parses a response envelope from raw JSON. A body without a
// status field is rejected so that an empty reply never reads as status 0
// success.
func DecodeResponse(data []byte) (Response, error) {
	var probe struct {
		Version string `json:"version"`
		Status  *int   `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if probe.Status == nil {
		return Response{}, fmt.Errorf("%w: missing status", ErrInvalidResponse)
	}
	return Response{
		Version: probe.Version,
		Status:  *probe.Status,
		Message: probe.Message,
	}, nil
}
