package keyprotect

import (
	"strconv"
)

// Unprotect derives the symmetric key from passphrase, decrypts
// protectedKey's protected parameter region, verifies the embedded
// message-integrity check, and returns a freshly allocated plaintext
// private-key canonical buffer. protectedKey must be a well-formed
// "(protected-private-key (ALGO ...))" canonical S-expression.
func Unprotect(protectedKey []byte, passphrase string) ([]byte, error) {
	const op = "Unprotect"
	log := newOperationLogger(op).withField("input_size", len(protectedKey))
	log.entry()
	defer log.exit()

	algoListStart, protBegin, contentStart, err := parseProtectedKeyHeader(protectedKey)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	salt, countOctet, iv, ciphertext, err := parseProtectedList(protectedKey, contentStart)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	key, err := deriveKey(passphrase, ModeIterated, salt, countOctet, keySize)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	defer key.release()

	plainWorkspace, err := cbcDecrypt(key.b, iv, ciphertext)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	cleartext := wrapSecureBuffer(plainWorkspace)
	defer cleartext.release()

	if len(cleartext.b) < 2 || cleartext.b[0] != '(' || cleartext.b[1] != '(' {
		return nil, log.fail(newErr(op, BadPassphrase))
	}
	reallen := CanonLength(cleartext.b, 0)
	if reallen == 0 || reallen+blockSize < len(ciphertext) {
		return nil, log.fail(newErr(op, BadPassphrase))
	}

	paramSpan, mic, err := parseCleartext(cleartext.b)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	tailStart, tailEnd, err := spanAfterProtectedSublist(protectedKey, protBegin)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	out := make([]byte, 0, 16+(protBegin-algoListStart)+len(paramSpan)+(tailEnd-tailStart))
	out = append(out, "(11:private-key"...)
	out = append(out, protectedKey[algoListStart:protBegin]...)
	out = append(out, paramSpan...)
	out = append(out, protectedKey[tailStart:tailEnd]...)

	recomputed, err := computeMIC(out)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}
	if recomputed != mic {
		return nil, log.fail(newErr(op, CorruptedProtection))
	}

	return out, nil
}

// parseProtectedKeyHeader walks "(protected-private-key (ALGO ...))" up
// to the start of the parameter scan, returning:
//   - algoListStart: the position of the algorithm sub-list's own '('
//   - protBegin: the position of the "(protected ...)" sub-list's '('
//   - contentStart: the position right after the "protected" atom,
//     where the mode/salt/IV/ciphertext fields begin
func parseProtectedKeyHeader(buf []byte) (algoListStart, protBegin, contentStart int, err error) {
	const op = "parseProtectedKeyHeader"
	pos := 0
	if pos >= len(buf) || buf[pos] != '(' {
		return 0, 0, 0, newErr(op, InvalidSexp)
	}
	pos++
	n, next, rerr := ReadLength(buf, pos)
	if rerr != nil {
		return 0, 0, 0, rerr
	}
	pos = next
	next, ok := MatchToken(buf, pos, n, "protected-private-key")
	if !ok {
		return 0, 0, 0, newErr(op, UnknownSexp)
	}
	pos = next

	if pos >= len(buf) || buf[pos] != '(' {
		return 0, 0, 0, newErr(op, UnknownSexp)
	}
	algoListStart = pos
	pos++
	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return 0, 0, 0, rerr
	}
	algoName := string(buf[next : next+n])
	pos = next + n
	if _, ok := lookupAlgorithm(algoName); !ok {
		return 0, 0, 0, newErr(op, UnsupportedAlgorithm)
	}

	for {
		if pos >= len(buf) || buf[pos] != '(' {
			return 0, 0, 0, newErr(op, InvalidSexp)
		}
		protBegin = pos
		pos++
		n, next, rerr = ReadLength(buf, pos)
		if rerr != nil {
			return 0, 0, 0, rerr
		}
		if after, ok := MatchToken(buf, next, n, "protected"); ok {
			return algoListStart, protBegin, after, nil
		}
		pos = next + n
		var depth int
		pos, depth, rerr = Skip(buf, pos, 1)
		if rerr != nil {
			return 0, 0, 0, rerr
		}
		if depth != 0 {
			return 0, 0, 0, newErr(op, Bug)
		}
	}
}

// parseProtectedList validates and extracts the fields of
// "(protected openpgp-s2k3-sha1-aes-cbc ((sha1 SALT COUNT) IV) CIPHERTEXT)"
// starting at contentStart, the position right after the "protected"
// atom (i.e. where the mode atom begins).
func parseProtectedList(buf []byte, pos int) (salt []byte, countOctet byte, iv []byte, ciphertext []byte, err error) {
	const op = "parseProtectedList"

	n, next, rerr := ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, rerr
	}
	after, ok := MatchToken(buf, next, n, protModeString)
	if !ok {
		return nil, 0, nil, nil, newErr(op, UnsupportedProtection)
	}
	pos = after

	if pos+1 >= len(buf) || buf[pos] != '(' || buf[pos+1] != '(' {
		return nil, 0, nil, nil, newErr(op, InvalidSexp)
	}
	pos += 2

	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, rerr
	}
	after, ok = MatchToken(buf, next, n, "sha1")
	if !ok {
		return nil, 0, nil, nil, newErr(op, UnsupportedProtection)
	}
	pos = after

	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, rerr
	}
	if n != 8 {
		return nil, 0, nil, nil, newErr(op, CorruptedProtection)
	}
	salt = buf[next : next+8]
	pos = next + n

	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, newErr(op, CorruptedProtection)
	}
	count, cerr := strconv.ParseUint(string(buf[next:next+n]), 10, 16)
	if cerr != nil || count == 0 || count > 255 {
		return nil, 0, nil, nil, newErr(op, CorruptedProtection)
	}
	pos = next + n
	if pos >= len(buf) || buf[pos] != ')' {
		return nil, 0, nil, nil, newErr(op, InvalidSexp)
	}
	pos++

	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, rerr
	}
	if n != blockSize {
		return nil, 0, nil, nil, newErr(op, CorruptedProtection)
	}
	iv = buf[next : next+blockSize]
	pos = next + n
	if pos >= len(buf) || buf[pos] != ')' {
		return nil, 0, nil, nil, newErr(op, InvalidSexp)
	}
	pos++

	n, next, rerr = ReadLength(buf, pos)
	if rerr != nil {
		return nil, 0, nil, nil, rerr
	}
	if n <= 0 || n%blockSize != 0 {
		return nil, 0, nil, nil, newErr(op, CorruptedProtection)
	}
	ciphertext = buf[next : next+n]

	return salt, byte(count), iv, ciphertext, nil
}

// parseCleartext walks the decrypted "((parms)(4:hash4:sha120:MIC))"
// buffer, returning the byte span of the parameter sub-lists (each with
// its own parens, but without the parens of the list enclosing them)
// and the extracted 20-byte MIC.
func parseCleartext(cleartext []byte) (paramSpan []byte, mic [micSize]byte, err error) {
	const op = "parseCleartext"
	pos := 2 // already validated cleartext[0:2] == "(("
	startPos := pos
	for pos < len(cleartext) && cleartext[pos] == '(' {
		pos++
		n, next, rerr := ReadLength(cleartext, pos)
		if rerr != nil {
			return nil, mic, rerr
		}
		pos = next + n
		n, next, rerr = ReadLength(cleartext, pos)
		if rerr != nil {
			return nil, mic, rerr
		}
		pos = next + n
		if pos >= len(cleartext) || cleartext[pos] != ')' {
			return nil, mic, newErr(op, InvalidSexp)
		}
		pos++
	}
	if pos >= len(cleartext) || cleartext[pos] != ')' {
		return nil, mic, newErr(op, InvalidSexp)
	}
	endPos := pos
	pos++

	if pos >= len(cleartext) || cleartext[pos] != '(' {
		return nil, mic, newErr(op, InvalidSexp)
	}
	pos++
	n, next, rerr := ReadLength(cleartext, pos)
	if rerr != nil {
		return nil, mic, rerr
	}
	after, ok := MatchToken(cleartext, next, n, "hash")
	if !ok {
		return nil, mic, newErr(op, InvalidSexp)
	}
	pos = after
	n, next, rerr = ReadLength(cleartext, pos)
	if rerr != nil {
		return nil, mic, rerr
	}
	after, ok = MatchToken(cleartext, next, n, "sha1")
	if !ok {
		return nil, mic, newErr(op, InvalidSexp)
	}
	pos = after
	n, next, rerr = ReadLength(cleartext, pos)
	if rerr != nil {
		return nil, mic, rerr
	}
	if n != micSize {
		return nil, mic, newErr(op, InvalidSexp)
	}
	copy(mic[:], cleartext[next:next+n])

	return cleartext[startPos:endPos], mic, nil
}

// spanAfterProtectedSublist skips over the whole "(protected ...)"
// sub-list starting at protBegin, then over the two remaining open
// levels (any sibling parameters plus the algorithm list's and the
// outer key's closing parens), returning the byte span between: the
// tail to reattach after the decrypted parameter list when
// reassembling the plaintext key.
func spanAfterProtectedSublist(buf []byte, protBegin int) (tailStart, tailEnd int, err error) {
	const op = "spanAfterProtectedSublist"
	if protBegin >= len(buf) || buf[protBegin] != '(' {
		return 0, 0, newErr(op, Bug)
	}
	afterSublist, depth, rerr := Skip(buf, protBegin+1, 1)
	if rerr != nil {
		return 0, 0, rerr
	}
	if depth != 0 {
		return 0, 0, newErr(op, Bug)
	}
	tailStart = afterSublist
	tailEnd, depth, rerr = Skip(buf, afterSublist, 2)
	if rerr != nil {
		return 0, 0, rerr
	}
	if depth != 0 {
		return 0, 0, newErr(op, Bug)
	}
	return tailStart, tailEnd, nil
}
