package keyprotect

import "crypto/sha1" //nolint:gosec // format-mandated hash, not a choice

// micSize is the length in bytes of the message-integrity check: a
// SHA-1 digest, fixed by the protection format.
const micSize = sha1.Size

// computeMIC hashes the bytes of the inner list immediately following
// the "(private-key" header: the canonical list
// "(ALGO (p1 V1) ... (pN VN))", both enclosing parens included, exactly
// as those bytes appear in plainKey. Any other top atom is rejected with
// UnknownSexp; Unprotect calls it on the plaintext key it reassembles,
// which carries that header again. The span is located purely by
// byte-level scanning (ReadLength/MatchToken) — never by
// re-serializing a parsed structure — so the hash matches GnuPG's
// calculate_mic bit for bit.
func computeMIC(plainKey []byte) ([micSize]byte, error) {
	const op = "computeMIC"
	var out [micSize]byte

	pos := 0
	if pos >= len(plainKey) || plainKey[pos] != '(' {
		return out, newErr(op, InvalidSexp)
	}
	pos++
	n, next, err := ReadLength(plainKey, pos)
	if err != nil {
		return out, wrapErr(op, InvalidSexp, err)
	}
	pos = next
	next, ok := MatchToken(plainKey, pos, n, "private-key")
	if !ok {
		return out, newErr(op, UnknownSexp)
	}
	pos = next

	if pos >= len(plainKey) || plainKey[pos] != '(' {
		return out, newErr(op, UnknownSexp)
	}
	hashBegin := pos
	pos++
	n, next, err = ReadLength(plainKey, pos)
	if err != nil {
		return out, wrapErr(op, InvalidSexp, err)
	}
	pos = next + n // skip the algorithm name atom

	for pos < len(plainKey) && plainKey[pos] == '(' {
		pos++
		n, next, err = ReadLength(plainKey, pos) // param name
		if err != nil {
			return out, wrapErr(op, InvalidSexp, err)
		}
		pos = next + n
		n, next, err = ReadLength(plainKey, pos) // param value
		if err != nil {
			return out, wrapErr(op, InvalidSexp, err)
		}
		pos = next + n
		if pos >= len(plainKey) || plainKey[pos] != ')' {
			return out, newErr(op, InvalidSexp)
		}
		pos++
	}
	if pos >= len(plainKey) || plainKey[pos] != ')' {
		return out, newErr(op, InvalidSexp)
	}
	pos++
	hashEnd := pos

	out = sha1.Sum(plainKey[hashBegin:hashEnd])
	return out, nil
}
