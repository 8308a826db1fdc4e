package keyprotect

import "fmt"

// ErrorKind classifies why a keyprotect operation failed. Callers should
// switch on Kind (via [KindOf]) rather than matching error strings.
type ErrorKind int

const (
	// InvalidSexp means the input is not a well-formed canonical
	// S-expression (bad length prefix, unbalanced parens, truncated
	// atom).
	InvalidSexp ErrorKind = iota + 1
	// UnknownSexp means the input is well-formed but does not carry the
	// expected token at a position that matters (e.g. a top atom other
	// than private-key/protected-private-key/public-key/shadowed-private-key).
	UnknownSexp
	// UnsupportedAlgorithm means the key's algorithm name has no entry
	// in the algorithm table.
	UnsupportedAlgorithm
	// UnsupportedProtection means a protected key names a protection
	// mode other than openpgp-s2k3-sha1-aes-cbc.
	UnsupportedProtection
	// UnsupportedProtocol means a shadowed key names a shadow protocol
	// other than t1-v1.
	UnsupportedProtocol
	// CorruptedProtection means the protected list's fields are
	// malformed (wrong salt/IV length, non-multiple-of-block-size
	// ciphertext) or the integrity check fails after a successful
	// decryption.
	CorruptedProtection
	// BadPassphrase means decryption produced output that is not a
	// well-formed canonical S-expression, the overwhelmingly likely
	// cause being a wrong passphrase.
	BadPassphrase
	// InvalidValue means a KDF input was invalid (zero key length,
	// unsupported mode, missing salt for a salted mode).
	InvalidValue
	// OutOfCore means a required allocation failed.
	OutOfCore
	// CryptoBackend wraps a failure from the underlying crypto/*
	// primitives (cipher construction, random source).
	CryptoBackend
	// Bug means an internal invariant was violated; it should never
	// surface in normal operation.
	Bug
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidSexp:
		return "InvalidSexp"
	case UnknownSexp:
		return "UnknownSexp"
	case UnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case UnsupportedProtection:
		return "UnsupportedProtection"
	case UnsupportedProtocol:
		return "UnsupportedProtocol"
	case CorruptedProtection:
		return "CorruptedProtection"
	case BadPassphrase:
		return "BadPassphrase"
	case InvalidValue:
		return "InvalidValue"
	case OutOfCore:
		return "OutOfCore"
	case CryptoBackend:
		return "CryptoBackend"
	case Bug:
		return "Bug"
	default:
		return "Unknown"
	}
}

// Error is the tagged error type every exported keyprotect operation
// returns. Op names the failing operation (e.g. "Protect", "Unprotect")
// and Err, if set, is the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("keyprotect: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("keyprotect: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &keyprotect.Error{Kind: keyprotect.BadPassphrase}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(op string, kind ErrorKind) *Error {
	return &Error{Op: op, Kind: kind}
}

func wrapErr(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err if it is (or wraps) a
// *keyprotect.Error, and reports whether one was found.
func KindOf(err error) (ErrorKind, bool) {
	var kpErr *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			kpErr = e
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if kpErr == nil {
		return 0, false
	}
	return kpErr.Kind, true
}
