package keyprotect

import (
	"bytes"
	"testing"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
	secureWipe(data)
	if !bytes.Equal(data, make([]byte, len(data))) {
		t.Errorf("secureWipe left data = %x, want all zeros", data)
	}

	// Nil and empty slices are no-ops, not panics.
	secureWipe(nil)
	secureWipe([]byte{})
}

func TestSecureBufferRelease(t *testing.T) {
	sb := newSecureBuffer(16)
	copy(sb.b, "sixteen byte key")
	sb.release()
	if !bytes.Equal(sb.b, make([]byte, 16)) {
		t.Errorf("release left buffer = %x, want all zeros", sb.b)
	}

	// A second release (defer plus explicit) must be harmless.
	sb.release()

	var nilBuf *secureBuffer
	nilBuf.release()
}

func TestWrapSecureBuffer(t *testing.T) {
	raw := []byte("secret material here")
	sb := wrapSecureBuffer(raw)
	sb.release()
	if !bytes.Equal(raw, make([]byte, len(raw))) {
		t.Error("wrapSecureBuffer.release did not wipe the wrapped slice")
	}
}
