package keyprotect

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // format-mandated hash, not a choice
	"testing"
)

func TestDeriveKeySimpleMatchesPlainHash(t *testing.T) {
	// Mode 0 with a key no longer than one digest is exactly
	// SHA1(passphrase).
	key, err := deriveKey("abc", ModeSimple, nil, 0, sha1.Size)
	if err != nil {
		t.Fatalf("deriveKey(ModeSimple) error: %v", err)
	}
	defer key.release()

	want := sha1.Sum([]byte("abc"))
	if !bytes.Equal(key.b, want[:]) {
		t.Errorf("ModeSimple key = %x, want %x", key.b, want)
	}
}

func TestDeriveKeySaltedMatchesSaltedHash(t *testing.T) {
	// Mode 1 with a key no longer than one digest is exactly
	// SHA1(salt || passphrase).
	salt := []byte("01234567")
	key, err := deriveKey("abc", ModeSalted, salt, 0, sha1.Size)
	if err != nil {
		t.Fatalf("deriveKey(ModeSalted) error: %v", err)
	}
	defer key.release()

	h := sha1.New()
	h.Write(salt)
	h.Write([]byte("abc"))
	if !bytes.Equal(key.b, h.Sum(nil)) {
		t.Errorf("ModeSalted key = %x, want SHA1(salt||passphrase)", key.b)
	}
}

func TestDeriveKeyIteratedMatchesReference(t *testing.T) {
	// Mode 3 with count octet 96 decodes to (16+0)<<(6+6) = 65536
	// octets hashed. Recompute that by hand and compare the first
	// digest's worth.
	passphrase := "correct horse"
	salt := []byte("abcdefgh")

	key, err := deriveKey(passphrase, ModeIterated, salt, protCountOctet, keySize)
	if err != nil {
		t.Fatalf("deriveKey(ModeIterated) error: %v", err)
	}
	defer key.release()

	const count = 65536
	combined := append(append([]byte{}, salt...), passphrase...)
	h := sha1.New()
	written := 0
	for written < count {
		if written+len(combined) > count {
			h.Write(combined[:count-written])
			written = count
		} else {
			h.Write(combined)
			written += len(combined)
		}
	}
	want := h.Sum(nil)[:keySize]
	if !bytes.Equal(key.b, want) {
		t.Errorf("ModeIterated key = %x, want %x", key.b, want)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := []byte("saltsalt")

	k1, err := deriveKey("passphrase", ModeIterated, salt, protCountOctet, keySize)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k1.release()
	k2, err := deriveKey("passphrase", ModeIterated, salt, protCountOctet, keySize)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k2.release()

	if !bytes.Equal(k1.b, k2.b) {
		t.Error("deriveKey is not deterministic for identical inputs")
	}

	// Any input change must change the key.
	k3, err := deriveKey("passphrasE", ModeIterated, salt, protCountOctet, keySize)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k3.release()
	if bytes.Equal(k1.b, k3.b) {
		t.Error("different passphrases produced the same key")
	}

	k4, err := deriveKey("passphrase", ModeIterated, []byte("SALTSALT"), protCountOctet, keySize)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k4.release()
	if bytes.Equal(k1.b, k4.b) {
		t.Error("different salts produced the same key")
	}
}

func TestDeriveKeyLongOutput(t *testing.T) {
	// Output longer than one SHA-1 digest needs a second pass with a
	// zero-byte preload; both halves must still be deterministic.
	salt := []byte("saltsalt")
	k1, err := deriveKey("abc", ModeIterated, salt, protCountOctet, 32)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k1.release()
	k2, err := deriveKey("abc", ModeIterated, salt, protCountOctet, 32)
	if err != nil {
		t.Fatalf("deriveKey error: %v", err)
	}
	defer k2.release()

	if len(k1.b) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1.b))
	}
	if !bytes.Equal(k1.b, k2.b) {
		t.Error("multi-digest derivation is not deterministic")
	}
	if bytes.Equal(k1.b[:32-sha1.Size], k1.b[sha1.Size:]) {
		t.Error("second digest pass repeated the first")
	}
}

func TestDeriveKeyInvalidInputs(t *testing.T) {
	cases := []struct {
		name   string
		mode   s2kMode
		salt   []byte
		keylen int
	}{
		{name: "Zero key length", mode: ModeIterated, salt: []byte("saltsalt"), keylen: 0},
		{name: "Unsupported mode", mode: s2kMode(2), salt: []byte("saltsalt"), keylen: keySize},
		{name: "Missing salt for iterated", mode: ModeIterated, salt: nil, keylen: keySize},
		{name: "Short salt", mode: ModeSalted, salt: []byte("shrt"), keylen: keySize},
		{name: "Long salt", mode: ModeIterated, salt: []byte("saltsaltX"), keylen: keySize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := deriveKey("abc", tc.mode, tc.salt, protCountOctet, tc.keylen)
			if err == nil {
				key.release()
				t.Fatal("deriveKey expected error, got nil")
			}
			if kind, ok := KindOf(err); !ok || kind != InvalidValue {
				t.Errorf("error kind = %v, want InvalidValue", kind)
			}
		})
	}
}
