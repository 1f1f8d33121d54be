package session

import (
	"errors"
	"testing"

	"github.com/danmuck/probectl/internal/testutil/testlog"
)

func TestNewEndpointsRequiresAddresses(t *testing.T) {
	testlog.Start(t)
	if _, err := NewEndpoints(nil); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints, got %v", err)
	}
	if _, err := NewEndpoints([]string{"", "  "}); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints for blank addresses, got %v", err)
	}
}

func TestRotateVisitsEachAddressInOrder(t *testing.T) {
	testlog.Start(t)
	addrs := []string{"https://a.example", "https://b.example", "https://c.example"}
	e, err := NewEndpoints(addrs)
	if err != nil {
		t.Fatalf("new endpoints: %v", err)
	}

	if _, ok := e.Current(); ok {
		t.Fatalf("current should be unselected before the first rotation")
	}

	for i, want := range addrs {
		got, ok := e.Rotate()
		if !ok {
			t.Fatalf("rotation %d: unexpected exhaustion", i)
		}
		if got != want {
			t.Fatalf("rotation %d: got %q want %q", i, got, want)
		}
		cur, ok := e.Current()
		if !ok || cur != want {
			t.Fatalf("rotation %d: current %q ok=%v want %q", i, cur, ok, want)
		}
	}

	if _, ok := e.Rotate(); ok {
		t.Fatalf("expected exhaustion after visiting every address")
	}
	// Exhaustion keeps the cursor in range.
	if cur, ok := e.Current(); !ok || cur != addrs[len(addrs)-1] {
		t.Fatalf("current after exhaustion: %q ok=%v", cur, ok)
	}
}

func TestResetStartsAFreshPass(t *testing.T) {
	testlog.Start(t)
	e, err := NewEndpoints([]string{"https://a.example", "https://b.example"})
	if err != nil {
		t.Fatalf("new endpoints: %v", err)
	}
	for {
		if _, ok := e.Rotate(); !ok {
			break
		}
	}
	e.Reset()
	if _, ok := e.Current(); ok {
		t.Fatalf("current should be unselected after reset")
	}
	got, ok := e.Rotate()
	if !ok || got != "https://a.example" {
		t.Fatalf("expected primary after reset, got %q ok=%v", got, ok)
	}
	if e.Len() != 2 {
		t.Fatalf("len changed: %d", e.Len())
	}
}
