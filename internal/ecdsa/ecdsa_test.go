package ecdsa

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/codahale/courier/internal/ec"
	"github.com/codahale/gubbins/assert"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		t.Fatal(err)
	}

	if !Verify(key.PublicKey, message, sig) {
		t.Error("didn't verify")
	}

	if Verify(key.PublicKey, []byte("other message"), sig) {
		t.Error("did verify")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	a, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	b, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, a.D, message)
	if err != nil {
		t.Fatal(err)
	}

	if Verify(b.PublicKey, message, sig) {
		t.Error("did verify")
	}
}

func TestVerifyModifiedSignature(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 256; i += 17 {
		r := &Signature{R: new(big.Int).Xor(sig.R, new(big.Int).Lsh(big.NewInt(1), uint(i))), S: sig.S}
		if Verify(key.PublicKey, message, r) {
			t.Errorf("verified with bit %d of r flipped", i)
		}

		s := &Signature{R: sig.R, S: new(big.Int).Xor(sig.S, new(big.Int).Lsh(big.NewInt(1), uint(i)))}
		if Verify(key.PublicKey, message, s) {
			t.Errorf("verified with bit %d of s flipped", i)
		}
	}
}

func TestVerifyOutOfRange(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		sig  *Signature
	}{
		{"nil", nil},
		{"nil r", &Signature{S: sig.S}},
		{"nil s", &Signature{R: sig.R}},
		{"zero r", &Signature{R: big.NewInt(0), S: sig.S}},
		{"zero s", &Signature{R: sig.R, S: big.NewInt(0)}},
		{"r = n", &Signature{R: ec.N, S: sig.S}},
		{"s + n", &Signature{R: sig.R, S: new(big.Int).Add(sig.S, ec.N)}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.name, false, Verify(key.PublicKey, message, tc.sig))
	}

	assert.Equal(t, "infinity key", false, Verify(ec.Infinity(), message, sig))
}

func TestSignaturesAreRandomized(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	a, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "same r", false, a.R.Cmp(b.R) == 0)
}

func BenchmarkSign(b *testing.B) {
	key, err := GenerateKey(rand.Reader)
	if err != nil {
		b.Fatal(err)
	}

	message := []byte("ok bud")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = Sign(rand.Reader, key.D, message)
	}
}

func BenchmarkVerify(b *testing.B) {
	key, err := GenerateKey(rand.Reader)
	if err != nil {
		b.Fatal(err)
	}

	message := []byte("ok bud")

	sig, err := Sign(rand.Reader, key.D, message)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = Verify(key.PublicKey, message, sig)
	}
}
