// Package moderation classifies candidate files as allowed or blocked
// before delivery. The gate is a pure function: no I/O, no shared state,
// same input always yields the same verdict.
package moderation

import (
	"fmt"
	"strings"
)

// blockedKeywords are matched case-insensitively as substrings of the file
// name and caption.
var blockedKeywords = []string{
	"porn", "sex", "nude", "xxx", "18+", "xnxx", "xvideos",
	"rape", "cp", "child porn", "bestiality", "beastiality",
}

const (
	mimeOctetStream = "application/octet-stream"
	tinyBinaryLimit = 1024
)

// FileMeta is the subset of file metadata the gate inspects.
type FileMeta struct {
	Name    string
	Caption string
	Size    int64
	Mime    string
}

// Verdict is the result of moderating one file.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Moderate applies the keyword and tiny-binary heuristics to the given
// metadata and returns a deterministic verdict.
func Moderate(meta FileMeta) Verdict {
	name := strings.ToLower(meta.Name)
	caption := strings.ToLower(meta.Caption)

	for _, k := range blockedKeywords {
		if strings.Contains(name, k) || strings.Contains(caption, k) {
			return Verdict{Allowed: false, Reason: fmt.Sprintf("blocked keyword: %s", k)}
		}
	}

	// Extremely small unknown binaries are suspicious (placeholder or
	// malformed payloads).
	if meta.Size > 0 && meta.Size < tinyBinaryLimit && strings.ToLower(meta.Mime) == mimeOctetStream {
		return Verdict{Allowed: false, Reason: "suspicious tiny binary"}
	}

	return Verdict{Allowed: true, Reason: "ok"}
}
