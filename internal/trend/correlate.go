package trend

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/patchwatch/patchwatch/internal/findings"
)

// Carryover summarizes how the latest scan's findings relate to the previous
// scan's: persisted (matched), new (unmatched in the latest) and resolved
// (unmatched in the previous).
type Carryover struct {
	Persisted int `json:"persisted"`
	New       int `json:"new"`
	Resolved  int `json:"resolved"`
}

// correlateFindings matches previous-scan findings to latest-scan findings
// in staged passes, strictest first. Once matched in an earlier stage, a
// finding is excluded from later stages:
//  1. category + file + line + code hash (untouched finding)
//  2. category + file + code hash       (finding shifted by edits above it)
//  3. category + file + line            (code edited in place)
func correlateFindings(prev, cur []findings.Finding) Carryover {
	prevKeys := correlationKeys(prev)
	curKeys := correlationKeys(cur)
	matchedPrev := make([]bool, len(prev))
	matchedCur := make([]bool, len(cur))

	for stage := 1; stage <= 3; stage++ {
		for pi := range prevKeys {
			if matchedPrev[pi] {
				continue
			}
			for ci := range curKeys {
				if matchedCur[ci] {
					continue
				}
				if matchKeysAt(prevKeys[pi], curKeys[ci], stage) {
					matchedPrev[pi] = true
					matchedCur[ci] = true
					break
				}
			}
		}
	}

	var c Carryover
	for _, m := range matchedCur {
		if m {
			c.Persisted++
		} else {
			c.New++
		}
	}
	for _, m := range matchedPrev {
		if !m {
			c.Resolved++
		}
	}
	return c
}

type correlationKey struct {
	category string
	file     string
	line     int
	codeHash string
}

func correlationKeys(all []findings.Finding) []correlationKey {
	keys := make([]correlationKey, len(all))
	for i := range all {
		keys[i] = correlationKey{
			category: all[i].Category,
			file:     all[i].File,
			line:     all[i].Line,
			codeHash: codeHash(all[i].Code),
		}
	}
	return keys
}

func matchKeysAt(a, b correlationKey, stage int) bool {
	if a.category != b.category || a.file != b.file {
		return false
	}
	switch stage {
	case 1:
		return a.line == b.line && a.codeHash == b.codeHash
	case 2:
		return a.codeHash != "" && a.codeHash == b.codeHash
	case 3:
		return a.line == b.line
	}
	return false
}

// codeHash fingerprints the finding's source line, ignoring surrounding
// whitespace. Empty code yields an empty hash so stage 2 never matches on it.
func codeHash(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
