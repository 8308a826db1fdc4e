package keyprotect

import (
	"crypto/sha1" //nolint:gosec // format-mandated hash, not a choice

	"golang.org/x/crypto/openpgp/s2k"
)

// s2kMode selects one of the OpenPGP String-to-Key variants RFC 4880
// §3.7.1 defines. Only ModeIterated is used by Protect/Unprotect; the
// other two are kept for compatibility with existing key material.
type s2kMode int

const (
	// ModeSimple hashes only the passphrase.
	ModeSimple s2kMode = 0
	// ModeSalted hashes 8 bytes of salt then the passphrase, once.
	ModeSalted s2kMode = 1
	// ModeIterated repeats salt||passphrase until a count derived from
	// a single "count octet" is exhausted. This is the mode the
	// protection format actually uses.
	ModeIterated s2kMode = 3
)

// deriveKey transforms passphrase into a keylen-byte symmetric key
// using the OpenPGP S2K family (RFC 4880 §3.7.1.3), via
// golang.org/x/crypto/openpgp/s2k — the transform the protection-mode
// string "openpgp-s2k3-sha1-aes-cbc" names.
//
// countOctet is only meaningful for ModeIterated; it is decoded into an
// iteration count inline, as
// count = (16 + (c&15)) << ((c>>4)+6) exactly as GnuPG's hash_passphrase
// computes it.
func deriveKey(passphrase string, mode s2kMode, salt []byte, countOctet byte, keylen int) (*secureBuffer, error) {
	const op = "deriveKey"
	if keylen <= 0 {
		return nil, newErr(op, InvalidValue)
	}
	if (mode == ModeSalted || mode == ModeIterated) && len(salt) != 8 {
		return nil, newErr(op, InvalidValue)
	}

	key := newSecureBuffer(keylen)
	in := []byte(passphrase)

	switch mode {
	case ModeSimple:
		s2k.Simple(key.b, sha1.New(), in)
	case ModeSalted:
		s2k.Salted(key.b, sha1.New(), in, salt)
	case ModeIterated:
		count := (16 + int(countOctet&15)) << (uint32(countOctet>>4) + 6)
		s2k.Iterated(key.b, sha1.New(), in, salt, count)
	default:
		return nil, newErr(op, InvalidValue)
	}
	return key, nil
}
