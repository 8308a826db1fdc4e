package keyprotect

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // format-mandated hash, not a choice
	"testing"
)

func TestComputeMICCoversInnerListBytes(t *testing.T) {
	plain := []byte("(11:private-key(3:rsa(1:n1:x)(1:e1:y)(1:d1:z)(1:p1:a)(1:q1:b)(1:u1:c)))")

	mic, err := computeMIC(plain)
	if err != nil {
		t.Fatalf("computeMIC error: %v", err)
	}

	// The MIC spans the inner "(rsa ...)" list: from the paren right
	// after the 15-byte "(11:private-key" header through the inner
	// closing paren, excluding only the outer one.
	want := sha1.Sum(plain[15 : len(plain)-1])
	if !bytes.Equal(mic[:], want[:]) {
		t.Errorf("computeMIC = %x, want %x", mic, want)
	}
}

func TestComputeMICIsByteExact(t *testing.T) {
	// Two keys with the same parameters but different parameter VALUES
	// must hash differently; the hash is over raw bytes, not a
	// normalized form.
	a := []byte("(11:private-key(3:rsa(1:n1:x)(1:e1:y)(1:d1:z)(1:p1:a)(1:q1:b)(1:u1:c)))")
	b := []byte("(11:private-key(3:rsa(1:n1:X)(1:e1:y)(1:d1:z)(1:p1:a)(1:q1:b)(1:u1:c)))")

	micA, err := computeMIC(a)
	if err != nil {
		t.Fatalf("computeMIC(a) error: %v", err)
	}
	micB, err := computeMIC(b)
	if err != nil {
		t.Fatalf("computeMIC(b) error: %v", err)
	}
	if micA == micB {
		t.Error("different parameter bytes produced identical MICs")
	}
}

func TestComputeMICRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		buf  string
		kind ErrorKind
	}{
		{name: "Not a list", buf: "11:private-key", kind: InvalidSexp},
		{name: "Wrong top atom", buf: "(10:public-key(3:rsa(1:n1:x)))", kind: UnknownSexp},
		{name: "Truncated inner list", buf: "(11:private-key(3:rsa(1:n1:x)", kind: InvalidSexp},
		{name: "Missing parameter value", buf: "(11:private-key(3:rsa(1:n)))", kind: InvalidSexp},
		{name: "Empty buffer", buf: "", kind: InvalidSexp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := computeMIC([]byte(tc.buf))
			if err == nil {
				t.Fatal("computeMIC expected error, got nil")
			}
			if kind, ok := KindOf(err); !ok || kind != tc.kind {
				t.Errorf("error kind = %v, want %v", kind, tc.kind)
			}
		})
	}
}
