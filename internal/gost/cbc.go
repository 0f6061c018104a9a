package gost

import (
	"crypto/cipher"
	"errors"
	"strconv"
)

// ErrInvalidCiphertext is returned when a ciphertext is empty or not a whole number of blocks.
var ErrInvalidCiphertext = errors.New("gost: invalid ciphertext length")

// IVSizeError is returned for IVs which are not BlockSize bytes long.
type IVSizeError int

func (i IVSizeError) Error() string {
	return "gost: invalid IV size " + strconv.Itoa(int(i))
}

// EncryptCBC pads the plaintext and encrypts it in CBC mode with the given key and IV.
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	ciphertext := Pad(plaintext, BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, ciphertext)

	return ciphertext, nil
}

// DecryptCBC decrypts the ciphertext in CBC mode with the given key and IV and removes its
// padding. Ciphertexts with inconsistent padding return ErrInvalidPadding rather than truncated
// output.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return Unpad(plaintext, BlockSize)
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(iv) != BlockSize {
		return nil, IVSizeError(len(iv))
	}

	return NewCipher(key)
}
