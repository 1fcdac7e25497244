package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// The version suffix leaves room for a future algorithm change.
const (
	DomainTrace = "layersync/trace/v1"
	DomainOrder = "layersync/order/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TraceDigest computes a content-addressed digest of a step trace.
// Two runs producing the same steps in the same order share a digest,
// which lets the journal flag non-deterministic runs of one scenario.
func TraceDigest(steps []SyncStep) (string, error) {
	arr := make(IRArray, len(steps))
	for i, s := range steps {
		arr[i] = s.Canonical()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// OrderDigest computes a digest of an ordered list of layer IDs.
// Model and target sides are in sync exactly when their digests match.
func OrderDigest(ids []string) string {
	arr := make(IRArray, len(ids))
	for i, id := range ids {
		arr[i] = IRString(id)
	}
	// An array of strings always marshals.
	canonical, _ := MarshalCanonical(arr)
	return hashWithDomain(DomainOrder, canonical)
}
