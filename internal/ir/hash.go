package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for record fingerprints. The version suffix allows the
// encoding to change without colliding with old ledger rows.
const domainPrefix = "hrsync/"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordHash fingerprints a payload of the given kind.
// Equal payloads of the same kind always hash equal; the same payload
// under different kinds never does.
func RecordHash(kind RecordKind, payload any) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("RecordHash(%s): %w", kind, err)
	}
	return hashWithDomain(domainPrefix+string(kind)+"/v1", canonical), nil
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when the payload is known to encode.
func MustRecordHash(kind RecordKind, payload any) string {
	h, err := RecordHash(kind, payload)
	if err != nil {
		panic(err)
	}
	return h
}

// TablesHash fingerprints a compiled set of lookup tables, so two runs can
// be shown to have used the same tables.
func TablesHash(t *Tables) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TablesHash: %w", err)
	}
	return hashWithDomain(domainPrefix+"tables/v1", canonical), nil
}
