// Package gost implements a GOST 28147-89 style block cipher.
//
// The cipher is a 32-round Feistel network over 64-bit blocks with a 256-bit key. The key is split
// into eight little-endian 32-bit subkeys K0..K7. Each round adds the right half to a subkey
// modulo 2³², substitutes each nibble through one of eight fixed S-boxes, and rotates the result
// left by 11 bits. Encryption uses the subkeys K0..K7 three times followed by K7..K0 once;
// decryption uses K0..K7 once followed by K7..K0 three times.
//
// The S-boxes are the test parameter set from RFC 5830. Messages are encrypted with EncryptCBC.
package gost

import (
	"crypto/cipher"
	"encoding/binary"
	"math/bits"
	"strconv"
)

const (
	BlockSize = 8  // BlockSize is the cipher's block size in bytes.
	KeySize   = 32 // KeySize is the cipher's key size in bytes.
)

// KeySizeError is returned for keys which are not KeySize bytes long.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "gost: invalid key size " + strconv.Itoa(int(k))
}

//nolint:gochecknoglobals // fixed substitution table
var sbox = [8][16]uint32{
	{4, 10, 9, 2, 13, 8, 0, 14, 6, 11, 1, 12, 7, 15, 5, 3},
	{14, 11, 4, 12, 6, 13, 15, 10, 2, 3, 8, 1, 0, 7, 5, 9},
	{5, 8, 1, 13, 10, 3, 4, 2, 14, 15, 12, 7, 6, 0, 9, 11},
	{7, 13, 10, 1, 0, 8, 9, 15, 14, 4, 6, 12, 11, 2, 5, 3},
	{6, 12, 7, 1, 5, 15, 13, 8, 4, 10, 9, 14, 0, 3, 11, 2},
	{4, 11, 10, 0, 7, 2, 1, 13, 3, 6, 8, 5, 9, 12, 15, 14},
	{13, 11, 4, 1, 3, 15, 5, 9, 0, 10, 14, 7, 6, 8, 2, 12},
	{1, 15, 13, 0, 5, 7, 10, 4, 9, 2, 3, 14, 6, 11, 8, 12},
}

type gostCipher struct {
	k [8]uint32
}

// NewCipher returns a cipher.Block for the given 32-byte key.
func NewCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}

	var c gostCipher
	for i := range c.k {
		c.k[i] = binary.LittleEndian.Uint32(key[4*i:])
	}

	return &c, nil
}

func (c *gostCipher) BlockSize() int {
	return BlockSize
}

func (c *gostCipher) Encrypt(dst, src []byte) {
	l, r := load(src)

	for i := 0; i < 24; i++ {
		l, r = r, l^f(r, c.k[i%8])
	}

	for i := 7; i >= 0; i-- {
		l, r = r, l^f(r, c.k[i])
	}

	store(dst, r, l)
}

func (c *gostCipher) Decrypt(dst, src []byte) {
	l, r := load(src)

	for i := 0; i < 8; i++ {
		l, r = r, l^f(r, c.k[i])
	}

	for i := 0; i < 24; i++ {
		l, r = r, l^f(r, c.k[7-i%8])
	}

	store(dst, r, l)
}

// f is the round function.
func f(r, k uint32) uint32 {
	x := r + k

	var y uint32
	for i := 0; i < 8; i++ {
		y |= sbox[i][(x>>(4*i))&0xf] << (4 * i)
	}

	return bits.RotateLeft32(y, 11)
}

func load(src []byte) (uint32, uint32) {
	if len(src) < BlockSize {
		panic("gost: input not full block")
	}

	return binary.LittleEndian.Uint32(src[0:4]), binary.LittleEndian.Uint32(src[4:8])
}

func store(dst []byte, a, b uint32) {
	if len(dst) < BlockSize {
		panic("gost: output not full block")
	}

	binary.LittleEndian.PutUint32(dst[0:4], a)
	binary.LittleEndian.PutUint32(dst[4:8], b)
}

var _ cipher.Block = &gostCipher{}
