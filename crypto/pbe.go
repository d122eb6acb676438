package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// WrapKey encrypts dek (the per-object AEAD data-encryption key) under a key-wrapping key
// derived by DeriveKey, using AES-CBC with PKCS#7 padding. iv must be aes.BlockSize bytes,
// freshly random per wrap.
func WrapKey(scheme format.PBEScheme, wrapKey, iv, dek []byte) ([]byte, error) {
	if len(wrapKey) != scheme.KeySize() {
		return nil, zfferr.Newf(zfferr.KindInvalidEncryptionKeySize,
			"%s requires a %d-byte key-wrapping key, got %d", scheme, scheme.KeySize(), len(wrapKey))
	}
	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindPBEError, err)
	}
	if len(iv) != aes.BlockSize {
		return nil, zfferr.Newf(zfferr.KindPBEError, "IV must be %d bytes", aes.BlockSize)
	}

	padded := pkcs7Pad(dek, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// UnwrapKey decrypts a PBE-wrapped data-encryption key. A wrong password (or corrupted
// ciphertext, since CBC has no integrity tag of its own) is detected by UnwrapKey's own PKCS#7
// padding check and reported as zfferr.KindDecryptionOfEncryptionKey.
func UnwrapKey(scheme format.PBEScheme, wrapKey, iv, wrapped []byte) ([]byte, error) {
	if len(wrapKey) != scheme.KeySize() {
		return nil, zfferr.Newf(zfferr.KindInvalidEncryptionKeySize,
			"%s requires a %d-byte key-wrapping key, got %d", scheme, scheme.KeySize(), len(wrapKey))
	}
	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindPBEError, err)
	}
	if len(wrapped) == 0 || len(wrapped)%aes.BlockSize != 0 {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, nil)
	}

	out := make([]byte, len(wrapped))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, wrapped)

	unpadded, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	return unpadded, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, zfferr.New(zfferr.KindMalformedHeader)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, zfferr.New(zfferr.KindMalformedHeader)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, zfferr.New(zfferr.KindMalformedHeader)
		}
	}
	return data[:len(data)-padLen], nil
}
