package keyprotect

// This file implements the canonical S-expression reader: a pure,
// cursor-based scanner over a borrowed byte slice. It never allocates
// and never interprets payload bytes as anything but opaque data; every
// higher-level component (protect, unprotect, shadow, classify) uses it
// to validate structural preconditions before touching payload bytes,
// mirroring snext/sskip/smatch in GnuPG's agent/protect.c.

// ReadLength reads a decimal atom-length prefix starting at buf[pos],
// requires a following colon, and returns the length and the position
// of the first payload byte (just past the colon). It fails with
// InvalidSexp on an empty length, a non-digit before the colon, a
// missing colon, a zero length (canonical atoms are never empty), or a
// digit run that would overflow int.
func ReadLength(buf []byte, pos int) (length int, next int, err error) {
	const maxInt = int(^uint(0) >> 1)
	start := pos
	n := 0
	for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
		if n > (maxInt-9)/10 {
			return 0, 0, newErr("ReadLength", InvalidSexp)
		}
		n = n*10 + int(buf[pos]-'0')
		pos++
	}
	if pos == start {
		return 0, 0, newErr("ReadLength", InvalidSexp)
	}
	if pos >= len(buf) || buf[pos] != ':' {
		return 0, 0, newErr("ReadLength", InvalidSexp)
	}
	pos++
	if n == 0 {
		return 0, 0, newErr("ReadLength", InvalidSexp)
	}
	if n > len(buf)-pos {
		return 0, 0, newErr("ReadLength", InvalidSexp)
	}
	return n, pos, nil
}

// Skip advances pos past whatever comes next, given that depth open
// lists are already "in progress" at the current position (pass 1 if
// pos sits just inside an opened list). It returns the position just
// behind the point where depth returns to zero, and the final depth
// (always 0 on success). An open paren increases depth, a close paren
// decreases it, and any other position is read as an atom and skipped
// wholesale via ReadLength.
func Skip(buf []byte, pos int, depth int) (next int, finalDepth int, err error) {
	for depth > 0 {
		if pos >= len(buf) {
			return 0, 0, newErr("Skip", InvalidSexp)
		}
		switch buf[pos] {
		case '(':
			depth++
			pos++
		case ')':
			if depth == 0 {
				return 0, 0, newErr("Skip", InvalidSexp)
			}
			depth--
			pos++
		default:
			n, next, err := ReadLength(buf, pos)
			if err != nil {
				return 0, 0, err
			}
			pos = next + n
		}
	}
	return pos, depth, nil
}

// MatchToken compares the n bytes at buf[pos:pos+n] against token. On
// equality it returns the position past the literal and true; otherwise
// it returns pos unchanged and false, leaving the cursor where the
// caller can try something else.
func MatchToken(buf []byte, pos int, n int, token string) (next int, matched bool) {
	if n != len(token) || pos+n > len(buf) {
		return pos, false
	}
	if string(buf[pos:pos+n]) != token {
		return pos, false
	}
	return pos + n, true
}

// CanonLength computes the total byte length of the complete
// well-formed canonical value starting at buf[pos] (which must be an
// open paren). It returns 0 if the value is malformed or incomplete,
// mirroring gcry_sexp_canon_len's "return 0 on malformation" contract
// rather than an error, since callers use it as a cheap validity probe.
func CanonLength(buf []byte, pos int) int {
	if pos >= len(buf) || buf[pos] != '(' {
		return 0
	}
	start := pos
	end, depth, err := Skip(buf, pos+1, 1)
	if err != nil {
		return 0
	}
	if depth != 0 {
		return 0
	}
	return end - start
}
