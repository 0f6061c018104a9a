package store

import (
	"encoding/json"
	"testing"

	"github.com/codahale/gubbins/assert"
)

func TestSignatureUnmarshalJSON(t *testing.T) {
	t.Parallel()

	for _, s := range []string{`"garbage"`, `null`, `[1]`, `[1,2,3]`, `["1","2"]`, `{"r":1}`} {
		sig := Signature{}
		if err := json.Unmarshal([]byte(s), &sig); err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, s, true, sig[0] == nil && sig[1] == nil)
	}

	var sig Signature
	if err := json.Unmarshal([]byte(`[12345678901234567890123456789,2]`), &sig); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "r", "12345678901234567890123456789", sig[0].String())
	assert.Equal(t, "s", "2", sig[1].String())
}

func TestEnvelopeTimestamps(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int64{
		`{"timestamp":1700000000}`:      1700000000,
		`{"timestamp":1700000000.25}`:   1700000000,
		`{"timestamp":1.7000000009e9}`:  1700000000,
		`{"sender":"alice"}`:            0,
		`{"timestamp":null,"iv":"00"}`: 0,
	} {
		var e Envelope
		if err := json.Unmarshal([]byte(in), &e); err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, in, want, e.Timestamp)
	}

	var e Envelope
	if err := json.Unmarshal([]byte(`{"timestamp":"soon"}`), &e); err == nil {
		t.Error("accepted a non-numeric timestamp")
	}
}

func TestEnvelopeUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var e Envelope
	if err := json.Unmarshal([]byte(`{"sender":"alice","recipient":"bob","timestamp":7,"iv":"00",`+
		`"ciphertext":"11","signature":[5,6]}`), &e); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "sender", "alice", e.Sender)
	assert.Equal(t, "recipient", "bob", e.Recipient)
	assert.Equal(t, "timestamp", int64(7), e.Timestamp)
	assert.Equal(t, "iv", "00", e.IV)
	assert.Equal(t, "ciphertext", "11", e.Ciphertext)
	assert.Equal(t, "signature", "5 6", e.Signature[0].String()+" "+e.Signature[1].String())

	b, err := json.Marshal(&e)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "json",
		`{"sender":"alice","recipient":"bob","timestamp":7,"iv":"00","ciphertext":"11","signature":[5,6]}`,
		string(b))
}
