package session

import (
	"errors"
	"strings"
)

var ErrNoEndpoints = errors.New("session: at least one endpoint required")

// Endpoints holds the ordered candidate server URLs and the rotation cursor.
// The address list is immutable after construction. Exhausting the list is
// observable through Rotate; the list never wraps on its own. Ownership is
// exclusive to one Engine; Endpoints is not safe for concurrent mutation.
type Endpoints struct {
	addresses []string
	cursor    int
}

// unselected is the cursor sentinel before the first rotation.
const unselected = -1

// NewEndpoints builds a rotation list, primary first, backups following.
func NewEndpoints(addresses []string) (*Endpoints, error) {
	cleaned := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		cleaned = append(cleaned, addr)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Endpoints{addresses: cleaned, cursor: unselected}, nil
}

// Current returns the selected endpoint, or false before the first rotation.
func (e *Endpoints) Current() (string, bool) {
	if e.cursor == unselected {
		return "", false
	}
	return e.addresses[e.cursor], true
}

// Rotate advances to the next endpoint. It returns false once the list is
// exhausted; the cursor stays on the last address so Current remains valid.
func (e *Endpoints) Rotate() (string, bool) {
	if e.cursor >= len(e.addresses)-1 {
		return "", false
	}
	e.cursor++
	return e.addresses[e.cursor], true
}

// Reset returns the cursor to the unselected sentinel for a fresh pass.
func (e *Endpoints) Reset() {
	e.cursor = unselected
}

func (e *Endpoints) Len() int {
	return len(e.addresses)
}
