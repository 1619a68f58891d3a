package pyscan

import (
	"regexp"
	"strings"

	"github.com/patchwatch/patchwatch/internal/findings"
)

// fallbackHit is a candidate produced by the text-pattern pass.
type fallbackHit struct {
	Line     int
	Category string
}

// fallbackPattern pairs a conservative text pattern with the category it
// signals. The list is deliberately short to avoid noise.
type fallbackPattern struct {
	re       *regexp.Regexp
	category string
}

var fallbackPatterns = []fallbackPattern{
	{regexp.MustCompile(`sys\.modules\[[^\]]+\]\s*=\s*`), findings.CategorySysModules},
	{regexp.MustCompile(`\bbuiltins\.[A-Za-z_]\w*\s*=\s*`), findings.CategoryBuiltins},
	{regexp.MustCompile(`\bos\.environ\[[^\]]+\]\s*=\s*`), findings.CategoryGlobalEnv},
	{regexp.MustCompile(`\bsetattr\s*\(`), findings.CategorySetattr},
}

// regexFallback returns candidates for patterns the tree pass may have
// missed. At most one category fires per line.
func regexFallback(lines []string) []fallbackHit {
	var results []fallbackHit
	for i, line := range lines {
		s := strings.TrimSpace(line)
		for _, p := range fallbackPatterns {
			if p.re.MatchString(s) {
				results = append(results, fallbackHit{Line: i + 1, Category: p.category})
				break
			}
		}
	}
	return results
}
