package courier

import (
	"encoding/hex"
	"math/big"

	"github.com/codahale/courier/internal/digest"
	"github.com/codahale/courier/internal/ec"
	"github.com/codahale/courier/internal/gost"
)

// wrapIV is the IV used for every key wrap. Combined with an unsalted password hash this makes
// equal keys under equal passwords produce equal ciphertexts.
//
//nolint:gochecknoglobals // fixed IV
var wrapIV = make([]byte, gost.BlockSize)

// wrapKey encrypts the private scalar d under a key derived from password and returns the
// hex-encoded ciphertext.
func wrapKey(password string, d *big.Int) (string, error) {
	ciphertext, err := gost.EncryptCBC(digest.PasswordKey(password), wrapIV, d.FillBytes(make([]byte, ec.FieldSize)))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(ciphertext), nil
}

// unwrapKey decrypts a wrapped private scalar and checks that it is the private key for q. Any
// failure, including a scalar which decrypts cleanly but does not match, is reported as
// ErrAuthenticationFailed.
func unwrapKey(password, wrapped string, q *ec.Point) (*big.Int, error) {
	ciphertext, err := hex.DecodeString(wrapped)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := gost.DecryptCBC(digest.PasswordKey(password), wrapIV, ciphertext)
	if err != nil || len(plaintext) != ec.FieldSize {
		return nil, ErrAuthenticationFailed
	}

	d := new(big.Int).SetBytes(plaintext)
	if !ec.IsValidScalar(d) || !ec.ScalarBaseMult(d).Equal(q) {
		return nil, ErrAuthenticationFailed
	}

	return d, nil
}
