package keyprotect

import (
	"crypto/aes"
	"crypto/cipher"
)

// blockSize is the AES block size, and coincidentally also the IV
// length and the unit the ciphertext length must be a multiple of.
const blockSize = aes.BlockSize

// keySize is the AES-128 key length in bytes, fixed by the protection
// format's name ("openpgp-s2k3-sha1-aes-cbc").
const keySize = 16

// cbcEncrypt encrypts plaintext in place under AES-128-CBC with key and
// iv. len(plaintext) must already be a positive multiple of blockSize;
// the caller (protect.go) is responsible for building that padded
// workspace.
func cbcEncrypt(key, iv, plaintext []byte) error {
	const op = "cbcEncrypt"
	if len(plaintext) == 0 || len(plaintext)%blockSize != 0 {
		return newErr(op, InvalidValue)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return wrapErr(op, CryptoBackend, err)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(plaintext, plaintext)
	return nil
}

// cbcDecrypt decrypts ciphertext under AES-128-CBC with key and iv,
// returning a freshly allocated plaintext buffer of the same length.
// len(ciphertext) must be a positive multiple of blockSize.
func cbcDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	const op = "cbcDecrypt"
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, newErr(op, CorruptedProtection)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, wrapErr(op, CryptoBackend, err)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}
