package session

import (
	"fmt"

	"github.com/danmuck/probectl/internal/protocol"
)

// Kind enumerates the closed set of classification results.
type Kind int

const (
	KindSuccess Kind = iota
	KindRetryable
	KindTerminal
	KindProtocolError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetryable:
		return "retryable"
	case KindTerminal:
		return "terminal"
	case KindProtocolError:
		return "protocol_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the classified view of one server exchange.
type Outcome struct {
	Kind          Kind
	Code          int
	Message       string
	ServerVersion string
}

// Classify maps a decoded response and the engine's version pin onto an
// Outcome. It is pure: no I/O, no mutation, and it never inspects
// transport-level detail. A non-empty pin that differs from the newly
// observed server version forces a terminal outcome regardless of status
// code; that mismatch is never retryable.
func Classify(resp protocol.Response, versionPin string) Outcome {
	if versionPin != "" && resp.Version != "" && resp.Version != versionPin {
		return Outcome{
			Kind:          KindTerminal,
			Code:          resp.Status,
			Message:       fmt.Sprintf("server version changed: pinned %q, observed %q", versionPin, resp.Version),
			ServerVersion: resp.Version,
		}
	}
	switch {
	case resp.Status == protocol.StatusOK:
		return Outcome{Kind: KindSuccess, Code: resp.Status, ServerVersion: resp.Version}
	case protocol.IsTerminalStatus(resp.Status):
		return Outcome{Kind: KindTerminal, Code: resp.Status, Message: resp.Message, ServerVersion: resp.Version}
	default:
		return Outcome{Kind: KindRetryable, Code: resp.Status, Message: resp.Message, ServerVersion: resp.Version}
	}
}

// ProtocolFailure is the outcome for an undecodable response body. It lands
// in the same retryable bucket as transport failures.
func ProtocolFailure(err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Kind: KindProtocolError, Message: msg}
}
