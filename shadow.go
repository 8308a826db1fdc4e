package keyprotect

// shadowProtocol is the only shadow protocol token this package emits
// or accepts: "t1-v1", the card-based locator format.
const shadowProtocol = "t1-v1"

// Shadow rewrites a public-key canonical buffer into a
// shadowed-private-key buffer carrying shadowInfo as an opaque locator:
//
//	(shadowed-private-key (ALGO (p1 V1) ... (shadowed t1-v1 SHADOW_INFO)))
//
// shadowInfo must itself be a well-formed canonical value; it is copied
// verbatim, never interpreted. The returned buffer is freshly
// allocated.
func Shadow(pubKey, shadowInfo []byte) ([]byte, error) {
	const op = "Shadow"
	log := newOperationLogger(op).withField("input_size", len(pubKey))
	log.entry()
	defer log.exit()

	infoLen := CanonLength(shadowInfo, 0)
	if infoLen == 0 {
		return nil, log.fail(newErr(op, InvalidSexp))
	}

	bodyStart, point, end, err := parsePublicKey(pubKey)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	out := make([]byte, 0, 24+(point-bodyStart)+18+infoLen+1+(end-point))
	out = append(out, "(20:shadowed-private-key"...)
	out = append(out, pubKey[bodyStart:point]...)
	out = append(out, "(8:shadowed5:t1-v1"...)
	out = append(out, shadowInfo[:infoLen]...)
	out = append(out, ')')
	out = append(out, pubKey[point:end]...)

	return out, nil
}

// parsePublicKey walks "(public-key (ALGO (p1 V1) ...))" and returns:
//   - bodyStart: the position right after the "public-key" atom, i.e.
//     the opening paren of the algorithm sub-list
//   - point: the position of the algorithm list's closing paren, where
//     the shadowed sub-list is spliced in
//   - end: one past the outer list's closing paren
func parsePublicKey(pubKey []byte) (bodyStart, point, end int, err error) {
	const op = "parsePublicKey"
	pos := 0
	if pos >= len(pubKey) || pubKey[pos] != '(' {
		return 0, 0, 0, newErr(op, InvalidSexp)
	}
	pos++
	n, next, rerr := ReadLength(pubKey, pos)
	if rerr != nil {
		return 0, 0, 0, rerr
	}
	pos = next
	next, ok := MatchToken(pubKey, pos, n, "public-key")
	if !ok {
		return 0, 0, 0, newErr(op, UnknownSexp)
	}
	bodyStart = next
	pos = next

	if pos >= len(pubKey) || pubKey[pos] != '(' {
		return 0, 0, 0, newErr(op, UnknownSexp)
	}
	pos++
	n, next, rerr = ReadLength(pubKey, pos) // algorithm name atom
	if rerr != nil {
		return 0, 0, 0, rerr
	}
	pos = next + n

	for pos < len(pubKey) && pubKey[pos] == '(' {
		var depth int
		pos, depth, rerr = Skip(pubKey, pos+1, 1)
		if rerr != nil {
			return 0, 0, 0, rerr
		}
		if depth != 0 {
			return 0, 0, 0, newErr(op, Bug)
		}
	}
	if pos >= len(pubKey) || pubKey[pos] != ')' {
		return 0, 0, 0, newErr(op, InvalidSexp)
	}
	point = pos
	pos++
	if pos >= len(pubKey) || pubKey[pos] != ')' {
		return 0, 0, 0, newErr(op, InvalidSexp)
	}
	end = pos + 1

	return bodyStart, point, end, nil
}

// GetShadowInfo walks a shadowed-private-key buffer and returns the
// locator value stored in its "(shadowed t1-v1 LOCATOR)" sub-list. The
// returned slice aliases shadowedKey (a borrowed view, not a copy); it
// spans exactly the locator's canonical bytes.
func GetShadowInfo(shadowedKey []byte) ([]byte, error) {
	const op = "GetShadowInfo"
	log := newOperationLogger(op).withField("input_size", len(shadowedKey))
	log.entry()
	defer log.exit()

	pos := 0
	if pos >= len(shadowedKey) || shadowedKey[pos] != '(' {
		return nil, log.fail(newErr(op, InvalidSexp))
	}
	pos++
	n, next, err := ReadLength(shadowedKey, pos)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	pos = next
	next, ok := MatchToken(shadowedKey, pos, n, "shadowed-private-key")
	if !ok {
		return nil, log.fail(newErr(op, UnknownSexp))
	}
	pos = next

	if pos >= len(shadowedKey) || shadowedKey[pos] != '(' {
		return nil, log.fail(newErr(op, UnknownSexp))
	}
	pos++
	n, next, err = ReadLength(shadowedKey, pos) // algorithm name atom
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	pos = next + n

	for pos < len(shadowedKey) && shadowedKey[pos] == '(' {
		pos++
		n, next, err = ReadLength(shadowedKey, pos)
		if err != nil {
			return nil, log.fail(wrapAsError(op, err))
		}
		if after, found := MatchToken(shadowedKey, next, n, "shadowed"); found {
			return extractLocator(shadowedKey, after, log)
		}
		pos = next + n
		var depth int
		pos, depth, err = Skip(shadowedKey, pos, 1)
		if err != nil {
			return nil, log.fail(wrapAsError(op, err))
		}
		if depth != 0 {
			return nil, log.fail(newErr(op, Bug))
		}
	}
	return nil, log.fail(newErr(op, UnknownSexp))
}

// extractLocator reads the protocol atom and locator value following
// the "shadowed" token.
func extractLocator(buf []byte, pos int, log *operationLogger) ([]byte, error) {
	const op = "extractLocator"
	n, next, err := ReadLength(buf, pos)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	after, ok := MatchToken(buf, next, n, shadowProtocol)
	if !ok {
		return nil, log.fail(newErr(op, UnsupportedProtocol))
	}
	locLen := CanonLength(buf, after)
	if locLen == 0 {
		return nil, log.fail(newErr(op, InvalidSexp))
	}
	return buf[after : after+locLen], nil
}
