package protocol

import (
	"errors"
	"testing"

	"github.com/danmuck/probectl/internal/testutil/testlog"
)

func TestRequestValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{
			name: "register accepted",
			req:  Request{Version: ClientVersion, Action: ActionRegister, UUID: "id-1"},
		},
		{
			name: "heartbeat accepted",
			req:  Request{Version: ClientVersion, Action: ActionHeartbeat, UUID: "id-1", Body: "{}"},
		},
		{
			name:    "unknown action rejected",
			req:     Request{Version: ClientVersion, Action: "deregister", UUID: "id-1"},
			wantErr: true,
		},
		{
			name:    "missing uuid rejected",
			req:     Request{Version: ClientVersion, Action: ActionHeartbeat},
			wantErr: true,
		},
		{
			name:    "missing version rejected",
			req:     Request{Action: ActionHeartbeat, UUID: "id-1"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	testlog.Start(t)
	resp, err := DecodeResponse([]byte(`{"version":"1.3.0","status":200,"message":"ok"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != "1.3.0" || resp.Status != 200 || resp.Message != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDecodeResponseRejectsMissingStatus(t *testing.T) {
	testlog.Start(t)
	if _, err := DecodeResponse([]byte(`{"version":"1.3.0"}`)); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestDecodeResponseRejectsMalformedBody(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"", "not json", `{"status":"two hundred"}`, "<html></html>"} {
		if _, err := DecodeResponse([]byte(raw)); !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("body %q: expected ErrInvalidResponse, got %v", raw, err)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	testlog.Start(t)
	for _, code := range []int{StatusDeregistered, StatusBanned, StatusBadToken} {
		if !IsTerminalStatus(code) {
			t.Fatalf("code %d should be terminal", code)
		}
	}
	for _, code := range []int{StatusOK, 0, 400, 401, 500, 4001, 4030} {
		if IsTerminalStatus(code) {
			t.Fatalf("code %d should not be terminal", code)
		}
	}
}
