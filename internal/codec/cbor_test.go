package codec

import (
	"bytes"
	"testing"
)

type message struct {
	Key    string `cbor:"1,keyasint"`
	Value  []byte `cbor:"2,keyasint"`
	Origin string `cbor:"3,keyasint"`
}

func TestMarshal_Deterministic(t *testing.T) {
	m := message{Key: "inoutboard:records", Value: []byte(`[]`), Origin: "abc"}

	a, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	b, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("Marshal() not deterministic: %x vs %x", a, b)
	}

	var got message
	if err := Unmarshal(a, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Key != m.Key || got.Origin != m.Origin || string(got.Value) != "[]" {
		t.Errorf("Unmarshal() = %+v, want %+v", got, m)
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	var got message
	if err := Unmarshal([]byte("{not cbor"), &got); err == nil {
		t.Error("Unmarshal() expected error for garbage input")
	}
}
