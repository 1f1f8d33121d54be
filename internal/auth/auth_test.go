package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/probectl/internal/testutil/testlog"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerHeaderRoundTrip(t *testing.T) {
	testlog.Start(t)
	header := BearerHeader("secret-token")
	if header != "Bearer secret-token" {
		t.Fatalf("unexpected header: %q", header)
	}
	token, err := FromHeader(header)
	if err != nil {
		t.Fatalf("from header: %v", err)
	}
	if token != "secret-token" {
		t.Fatalf("unexpected token: %q", token)
	}
}

func TestFromHeaderRejectsMalformed(t *testing.T) {
	testlog.Start(t)
	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer abc"} {
		if _, err := FromHeader(header); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("header %q: expected ErrUnauthorized, got %v", header, err)
		}
	}
}

func TestFuncValidator(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(token string) error {
		if token != "ok" {
			return ErrUnauthorized
		}
		return nil
	})

	if err := validator.Validate("bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad token, got %v", err)
	}
	if err := validator.Validate("ok"); err != nil {
		t.Fatalf("expected success for ok token, got %v", err)
	}
}
