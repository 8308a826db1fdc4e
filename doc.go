// Package keyprotect implements the cryptographic key-protection core of
// a private-key management agent.
//
// It transforms an in-memory canonical S-expression key representation
// between three forms: a plaintext private key, a passphrase-protected
// private key, and a shadowed key referencing a secret held elsewhere
// (for example on a smart card). Protection is OpenPGP-style: a
// passphrase is stretched into an AES-128 key via a salted, iterated
// S2K hash (RFC 4880 §3.7.1.3), the key's secret parameters are
// encrypted under AES-128-CBC, and a SHA-1 message-integrity check
// covers the plaintext parameter list so unprotect can detect both a
// wrong passphrase and tampering.
//
// # Canonical form
//
// The wire format is the canonical (length-prefixed, binary-clean)
// S-expression encoding used by GnuPG's agent: every atom is written as
// a decimal length, a colon, and that many raw bytes; lists are
// parenthesized sequences of atoms and sub-lists. See [ReadLength],
// [Skip], [MatchToken], and [CanonLength] for the cursor-based reader
// everything else in this package builds on.
//
// # Operations
//
//	protected, err := keyprotect.Protect(plainKey, "correct horse battery staple")
//	plain, err := keyprotect.Unprotect(protected, "correct horse battery staple")
//	shadowed, err := keyprotect.Shadow(pubKey, shadowInfo)
//	locator, err := keyprotect.GetShadowInfo(shadowed)
//	kind := keyprotect.Classify(buf)
//
// Every operation takes borrowed byte slices. Protect, Unprotect and
// Shadow return a freshly allocated buffer; GetShadowInfo returns a
// sub-slice of its input (a borrowed view of the locator), and Classify
// returns no buffer. There is no shared mutable state between calls, and
// nothing here performs I/O or blocks.
//
// # Secrets
//
// Derived keys, the padded encryption workspace, and decrypted
// plaintext are wrapped in a secureBuffer and scrubbed on every return
// path, success or failure, using constant-time zeroing (see secure.go).
//
// # Errors
//
// Failures are reported as *[Error], a tagged variant carrying an
// [ErrorKind] callers can branch on (see errors.go). Structural
// malformation is [InvalidSexp]; well-formed but unrecognized content is
// [UnknownSexp]; authentication failures are split between
// [BadPassphrase] ("does not even decrypt into a well-formed value")
// and [CorruptedProtection] ("decrypts fine but the integrity check
// fails").
package keyprotect
