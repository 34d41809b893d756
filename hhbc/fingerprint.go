package hhbc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hhbc: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes a record in canonical CBOR. Equal records always
// produce equal bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// UnmarshalClass decodes a class record.
func UnmarshalClass(data []byte) (*Class, error) {
	var c Class
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("hhbc: unmarshal class: %w", err)
	}
	return &c, nil
}

// UnmarshalFunction decodes a function record.
func UnmarshalFunction(data []byte) (*Function, error) {
	var f Function
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("hhbc: unmarshal function: %w", err)
	}
	return &f, nil
}

// Fingerprint is the SHA-256 of a record's canonical encoding.
type Fingerprint [32]byte

// String renders the fingerprint as hex.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Short returns the first 12 hex digits.
func (f Fingerprint) Short() string { return f.String()[:12] }

// FingerprintOf hashes any record (class, method, function).
func FingerprintOf(v any) (Fingerprint, error) {
	data, err := Marshal(v)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hhbc: fingerprint: %w", err)
	}
	return sha256.Sum256(data), nil
}
