package storage

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// namesDigest returns the first length hex characters of an md5 digest
// over the concatenated parts. Not a security boundary, only a stable
// collision suppressor for truncated identifiers.
func namesDigest(length int, parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:length]
}

// IndexName derives a database object name from a table, its column list
// and a purpose suffix, bounded to maxLen bytes. The digest part survives
// truncation intact so long names from different tables or columns cannot
// collapse onto the same identifier. The result is a pure function of its
// arguments: create and drop recompute the identical name with no
// persisted state.
func IndexName(table string, columns []string, suffix string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 200
	}
	hashPart := namesDigest(8, append([]string{table}, columns...)...) + suffix
	joined := strings.Join(columns, "_")

	name := table + "_" + joined + "_" + hashPart
	if len(name) <= maxLen {
		return name
	}

	if len(hashPart) > maxLen/3 {
		hashPart = hashPart[:maxLen/3]
	}
	otherLen := (maxLen-len(hashPart))/2 - 1
	name = truncate(table, otherLen) + "_" + truncate(joined, otherLen) + "_" + hashPart

	// Identifiers must not start with an underscore or a digit.
	if name[0] == '_' || (name[0] >= '0' && name[0] <= '9') {
		name = "D" + name[:len(name)-1]
	}
	return name
}

func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
