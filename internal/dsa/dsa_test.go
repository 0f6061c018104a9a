package dsa

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDefaultParametersAreValid(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", nil, DefaultParameters.Validate(), cmpopts.EquateErrors())
}

func TestValidateRejectsBadParameters(t *testing.T) {
	t.Parallel()

	d := DefaultParameters

	tests := []struct {
		name   string
		params *Parameters
	}{
		{"nil", nil},
		{"missing g", &Parameters{P: d.P, Q: d.Q}},
		{"small p", &Parameters{P: big.NewInt(23), Q: d.Q, G: d.G}},
		{"composite q", &Parameters{P: d.P, Q: new(big.Int).Add(d.Q, big.NewInt(1)), G: d.G}},
		{"g = 1", &Parameters{P: d.P, Q: d.Q, G: big.NewInt(1)}},
		{"g = p", &Parameters{P: d.P, Q: d.Q, G: d.P}},
		{"g outside subgroup", &Parameters{P: d.P, Q: d.Q, G: big.NewInt(2)}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.name, ErrInvalidParameters, tc.params.Validate(), cmpopts.EquateErrors())
	}
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader, DefaultParameters)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, key, message)
	if err != nil {
		t.Fatal(err)
	}

	if !Verify(&key.PublicKey, message, sig) {
		t.Error("didn't verify")
	}

	if Verify(&key.PublicKey, []byte("other message"), sig) {
		t.Error("did verify")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	a, err := GenerateKey(rand.Reader, DefaultParameters)
	if err != nil {
		t.Fatal(err)
	}

	b, err := GenerateKey(rand.Reader, DefaultParameters)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, a, message)
	if err != nil {
		t.Fatal(err)
	}

	if Verify(&b.PublicKey, message, sig) {
		t.Error("did verify")
	}
}

func TestVerifyRejectsBadInputs(t *testing.T) {
	t.Parallel()

	message := []byte("ok bud")

	key, err := GenerateKey(rand.Reader, DefaultParameters)
	if err != nil {
		t.Fatal(err)
	}

	sig, err := Sign(rand.Reader, key, message)
	if err != nil {
		t.Fatal(err)
	}

	q := DefaultParameters.Q

	sigs := []struct {
		name string
		sig  *Signature
	}{
		{"nil", nil},
		{"zero r", &Signature{R: big.NewInt(0), S: sig.S}},
		{"zero s", &Signature{R: sig.R, S: big.NewInt(0)}},
		{"r = q", &Signature{R: q, S: sig.S}},
		{"s + q", &Signature{R: sig.R, S: new(big.Int).Add(sig.S, q)}},
		{"flipped r", &Signature{R: new(big.Int).Xor(sig.R, big.NewInt(1)), S: sig.S}},
	}

	for _, tc := range sigs {
		assert.Equal(t, tc.name, false, Verify(&key.PublicKey, message, tc.sig))
	}

	keys := []struct {
		name string
		y    *big.Int
	}{
		{"y = 1", big.NewInt(1)},
		{"y = p", DefaultParameters.P},
		{"y outside subgroup", big.NewInt(2)},
	}

	for _, tc := range keys {
		pub := &PublicKey{Parameters: DefaultParameters, Y: tc.y}

		assert.Equal(t, tc.name, false, Verify(pub, message, sig))
	}
}

func BenchmarkSign(b *testing.B) {
	key, err := GenerateKey(rand.Reader, DefaultParameters)
	if err != nil {
		b.Fatal(err)
	}

	message := []byte("ok bud")

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = Sign(rand.Reader, key, message)
	}
}
