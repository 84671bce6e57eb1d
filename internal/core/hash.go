package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash returns the content fingerprint of a logical record: the SHA-256 hex
// digest of its non-blank "key:value" pairs, values lower-cased and trimmed,
// sorted and joined with "|". Key order and value case or padding never
// change the digest; adding or removing a non-blank field always does.
func Hash(fields ...Fields) string {
	var parts []string
	for _, f := range fields {
		for k, v := range f {
			if isBlank(v) {
				continue
			}
			parts = append(parts, k+":"+strings.ToLower(strings.TrimSpace(stringify(v))))
		}
	}
	sort.Strings(parts)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
