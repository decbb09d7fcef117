package reports

import (
	"encoding/hex"
	"slices"

	"github.com/zeebo/blake3"
)

// CanonicalKey identifies an operation map record within a target. It does
// not depend on field order or on any key the client sent.
func CanonicalKey(target, operation, operationName string, fields []string) string {
	sorted := slices.Clone(fields)
	slices.Sort(sorted)

	h := blake3.New()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	write(target)
	write(operation)
	write(operationName)
	for _, field := range sorted {
		write(field)
	}
	return hex.EncodeToString(h.Sum(nil))
}
