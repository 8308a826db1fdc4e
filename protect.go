package keyprotect

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // format-mandated hash, not a choice
	"fmt"
)

// protModeString is the literal protection-mode token written into and
// matched against the wire format.
const protModeString = "openpgp-s2k3-sha1-aes-cbc"

// protCountOctet is the fixed S2K count octet Protect always uses.
// Decoded with the S2K count formula in deriveKey it yields 65536
// octets hashed; the octet itself (not the decoded count) is what travels on
// the wire, per the protection format.
const protCountOctet = 96

// Protect derives a symmetric key from passphrase, encrypts plainKey's
// protected parameter region, and returns a freshly allocated
// protected-private-key canonical buffer. plainKey must be a
// well-formed "(private-key (ALGO ...))" canonical S-expression.
func Protect(plainKey []byte, passphrase string) ([]byte, error) {
	const op = "Protect"
	log := newOperationLogger(op).withField("input_size", len(plainKey))
	log.entry()
	defer log.exit()

	protBegin, protEnd, hashBegin, hashEnd, realEnd, err := parsePlainKey(plainKey)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	mic := sha1.Sum(plainKey[hashBegin : hashEnd+1])

	protectedList, err := encryptProtectedRegion(plainKey[protBegin:protEnd+1], passphrase, mic)
	if err != nil {
		return nil, log.fail(wrapAsError(op, err))
	}

	out := make([]byte, 0, 14+(protBegin-4)+len(protectedList)+(realEnd-protEnd))
	out = append(out, "(21:protected-"...)
	out = append(out, plainKey[4:protBegin]...)
	out = append(out, protectedList...)
	out = append(out, plainKey[protEnd+1:realEnd+1]...)

	return out, nil
}

// parsePlainKey walks "(private-key (ALGO (p1 V1) ... (pN VN)))" and
// returns:
//   - protBegin/protEnd: the inclusive byte span of the protected
//     parameter sub-lists (algorithmInfo.ProtFrom..ProtTo)
//   - hashBegin/hashEnd: the inclusive byte span of "(ALGO ...)", the
//     MIC's coverage
//   - realEnd: the index of the outer list's closing paren
func parsePlainKey(plainKey []byte) (protBegin, protEnd, hashBegin, hashEnd, realEnd int, err error) {
	pos := 0
	if pos >= len(plainKey) || plainKey[pos] != '(' {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", InvalidSexp)
	}
	pos++
	n, next, rerr := ReadLength(plainKey, pos)
	if rerr != nil {
		return 0, 0, 0, 0, 0, rerr
	}
	pos = next
	next, ok := MatchToken(plainKey, pos, n, "private-key")
	if !ok {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", UnknownSexp)
	}
	pos = next

	if pos >= len(plainKey) || plainKey[pos] != '(' {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", UnknownSexp)
	}
	hashBegin = pos
	pos++
	n, next, rerr = ReadLength(plainKey, pos)
	if rerr != nil {
		return 0, 0, 0, 0, 0, rerr
	}
	algoName := string(plainKey[next : next+n])
	pos = next + n

	algo, ok := lookupAlgorithm(algoName)
	if !ok {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", UnsupportedAlgorithm)
	}

	protBegin, protEnd = -1, -1
	for i := 0; i < len(algo.ParamList); i++ {
		if i == algo.ProtFrom {
			protBegin = pos
		}
		if pos >= len(plainKey) || plainKey[pos] != '(' {
			return 0, 0, 0, 0, 0, newErr("parsePlainKey", InvalidSexp)
		}
		pos++
		n, next, rerr = ReadLength(plainKey, pos) // parameter name atom
		if rerr != nil {
			return 0, 0, 0, 0, 0, rerr
		}
		if n != 1 || plainKey[next] != algo.ParamList[i] {
			return 0, 0, 0, 0, 0, newErr("parsePlainKey", InvalidSexp)
		}
		pos = next + n
		n, next, rerr = ReadLength(plainKey, pos) // parameter value atom
		if rerr != nil {
			return 0, 0, 0, 0, 0, rerr
		}
		pos = next + n
		if pos >= len(plainKey) || plainKey[pos] != ')' {
			return 0, 0, 0, 0, 0, newErr("parsePlainKey", InvalidSexp)
		}
		if i == algo.ProtTo {
			protEnd = pos
		}
		pos++
	}
	if pos >= len(plainKey) || plainKey[pos] != ')' || protBegin < 0 || protEnd < 0 {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", InvalidSexp)
	}
	hashEnd = pos
	pos++

	finalPos, depth, rerr := Skip(plainKey, pos, 1)
	if rerr != nil {
		return 0, 0, 0, 0, 0, rerr
	}
	if depth != 0 {
		return 0, 0, 0, 0, 0, newErr("parsePlainKey", Bug)
	}
	realEnd = finalPos - 1

	return protBegin, protEnd, hashBegin, hashEnd, realEnd, nil
}

// encryptProtectedRegion builds the padded plaintext
// "((region)(4:hash4:sha120:MIC))" followed by a full block of random
// filler, derives a key from passphrase, encrypts as much of that
// buffer as is block-aligned under AES-128-CBC, and returns the
// canonical "(protected ...)" list that wraps the result.
func encryptProtectedRegion(region []byte, passphrase string, mic [micSize]byte) ([]byte, error) {
	const op = "encryptProtectedRegion"

	randBytes := make([]byte, 2*blockSize+8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, wrapErr(op, CryptoBackend, err)
	}
	iv := randBytes[:blockSize]
	padTail := randBytes[blockSize : 2*blockSize]
	salt := randBytes[2*blockSize:]

	total := 2 + len(region) + 17 + micSize + 2 + blockSize
	workspace := newSecureBuffer(total)
	defer workspace.release()
	buf := workspace.b[:0]
	buf = append(buf, '(', '(')
	buf = append(buf, region...)
	buf = append(buf, ")(4:hash4:sha120:"...)
	buf = append(buf, mic[:]...)
	buf = append(buf, ')', ')')
	buf = append(buf, padTail...)
	workspace.b = buf

	encLen := (total / blockSize) * blockSize

	key, err := deriveKey(passphrase, ModeIterated, salt, protCountOctet, keySize)
	if err != nil {
		return nil, err
	}
	defer key.release()

	if err := cbcEncrypt(key.b, iv, workspace.b[:encLen]); err != nil {
		return nil, err
	}

	return buildProtectedList(salt, iv, workspace.b[:encLen]), nil
}

// buildProtectedList assembles the canonical
// "(protected openpgp-s2k3-sha1-aes-cbc ((sha1 SALT COUNT) IV) CIPHERTEXT)"
// list by appending literals and length-prefixed atoms; no placeholder
// back-patching is used.
func buildProtectedList(salt, iv, ciphertext []byte) []byte {
	out := make([]byte, 0, 9+len(protModeString)+64+len(ciphertext))
	out = append(out, "(9:protected"...)
	out = appendAtom(out, []byte(protModeString))
	out = append(out, "((4:sha1"...)
	out = appendAtom(out, salt)
	out = appendAtom(out, []byte(fmt.Sprintf("%d", protCountOctet)))
	out = append(out, ')')
	out = appendAtom(out, iv)
	out = append(out, ')')
	out = appendAtom(out, ciphertext)
	out = append(out, ')')
	return out
}

// appendAtom appends the canonical length-prefixed encoding of payload
// (its decimal length, a colon, then the raw bytes) to dst.
func appendAtom(dst []byte, payload []byte) []byte {
	dst = append(dst, fmt.Sprintf("%d:", len(payload))...)
	return append(dst, payload...)
}

// wrapAsError normalizes any error from the parse/crypto helpers into
// *Error tagged with op, preserving an already-tagged kind.
func wrapAsError(op string, err error) *Error {
	if e, ok := err.(*Error); ok {
		if e.Op == op {
			return e
		}
		return &Error{Op: op, Kind: e.Kind, Err: e}
	}
	return wrapErr(op, Bug, err)
}
