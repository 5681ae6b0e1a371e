package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// PathID derives a stable identifier from a slash-normalized relative path.
// The same path always maps to the same id across rebuilds, which lets
// clients cache and bookmark nodes. An in-memory counter would not survive
// a rebuild or a parallel walk.
func PathID(relPath string) uint64 {
	normalized := strings.Trim(strings.ReplaceAll(relPath, "\\", "/"), "/")
	sum := sha256.Sum256([]byte(normalized))
	return binary.BigEndian.Uint64(sum[:8])
}

// SplitSegments breaks a slash separated album path into its components,
// dropping empty parts.
func SplitSegments(path string) []string {
	path = strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	if path == "" {
		return nil
	}

	parts := strings.Split(path, "/")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}

	return out
}

// HasTraversal reports whether any segment tries to climb out of the root.
func HasTraversal(segments []string) bool {
	for _, s := range segments {
		if s == ".." {
			return true
		}
	}
	return false
}
