package keyprotect

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want string
	}{
		{InvalidSexp, "InvalidSexp"},
		{UnknownSexp, "UnknownSexp"},
		{UnsupportedAlgorithm, "UnsupportedAlgorithm"},
		{UnsupportedProtection, "UnsupportedProtection"},
		{UnsupportedProtocol, "UnsupportedProtocol"},
		{CorruptedProtection, "CorruptedProtection"},
		{BadPassphrase, "BadPassphrase"},
		{InvalidValue, "InvalidValue"},
		{OutOfCore, "OutOfCore"},
		{CryptoBackend, "CryptoBackend"},
		{Bug, "Bug"},
		{ErrorKind(0), "Unknown"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestErrorIs(t *testing.T) {
	err := newErr("Unprotect", BadPassphrase)

	if !errors.Is(err, &Error{Kind: BadPassphrase}) {
		t.Error("errors.Is did not match the same kind")
	}
	if errors.Is(err, &Error{Kind: CorruptedProtection}) {
		t.Error("errors.Is matched a different kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cipher exploded")
	err := wrapErr("Protect", CryptoBackend, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the wrapped cause")
	}
	var kpErr *Error
	if !errors.As(err, &kpErr) || kpErr.Kind != CryptoBackend {
		t.Error("errors.As did not recover the *Error")
	}
}

func TestKindOf(t *testing.T) {
	inner := newErr("parse", InvalidSexp)
	outer := fmt.Errorf("while protecting: %w", inner)

	kind, ok := KindOf(outer)
	if !ok || kind != InvalidSexp {
		t.Errorf("KindOf(wrapped) = (%v, %v), want (InvalidSexp, true)", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf found a kind in a plain error")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf found a kind in nil")
	}
}
