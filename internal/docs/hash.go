package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/inful/mdfp"
)

// Fingerprint returns the content fingerprint of a loaded document.
func Fingerprint(d SourceDocument) string {
	return mdfp.CalculateFingerprintFromParts("", string(d.Content))
}

// SetHash computes a deterministic hash over document names and fingerprints.
// An empty set hashes to a fixed value.
func SetHash(fingerprints map[string]string) string {
	h := sha256.New()
	if len(fingerprints) == 0 {
		h.Write([]byte("empty-source-set"))
		return hex.EncodeToString(h.Sum(nil))
	}

	names := make([]string, 0, len(fingerprints))
	for name := range fingerprints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'|'})
		h.Write([]byte(fingerprints[name]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
