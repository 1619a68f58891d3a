package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patchwatch/patchwatch/internal/findings"
)

func TestCorrelateFindingsExactMatch(t *testing.T) {
	prev := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategorySysModules, Code: `sys.modules["x"] = object()`},
	}
	cur := append([]findings.Finding(nil), prev...)

	c := correlateFindings(prev, cur)
	assert.Equal(t, Carryover{Persisted: 1, New: 0, Resolved: 0}, c)
}

func TestCorrelateFindingsShiftedLines(t *testing.T) {
	prev := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategorySysModules, Code: `sys.modules["x"] = object()`},
	}
	// Edits above the finding pushed it down; the code is unchanged.
	cur := []findings.Finding{
		{File: "a.py", Line: 9, Category: findings.CategorySysModules, Code: `sys.modules["x"] = object()`},
	}

	c := correlateFindings(prev, cur)
	assert.Equal(t, Carryover{Persisted: 1, New: 0, Resolved: 0}, c)
}

func TestCorrelateFindingsEditedInPlace(t *testing.T) {
	prev := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategoryBuiltins, Code: `builtins.open = fake_open`},
	}
	cur := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategoryBuiltins, Code: `builtins.open = other_open`},
	}

	c := correlateFindings(prev, cur)
	assert.Equal(t, Carryover{Persisted: 1, New: 0, Resolved: 0}, c)
}

func TestCorrelateFindingsNewAndResolved(t *testing.T) {
	prev := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategoryBuiltins, Code: `builtins.open = fake_open`},
		{File: "b.py", Line: 5, Category: findings.CategorySetattr, Code: `setattr(requests, "api", x)`},
	}
	cur := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategoryBuiltins, Code: `builtins.open = fake_open`},
		{File: "c.py", Line: 1, Category: findings.CategoryGlobalEnv, Code: `os.environ["K"] = "1"`},
	}

	c := correlateFindings(prev, cur)
	assert.Equal(t, Carryover{Persisted: 1, New: 1, Resolved: 1}, c)
}

func TestCorrelateFindingsCategoryMismatch(t *testing.T) {
	prev := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategoryBuiltins, Code: `x = 1`},
	}
	cur := []findings.Finding{
		{File: "a.py", Line: 3, Category: findings.CategorySetattr, Code: `x = 1`},
	}

	c := correlateFindings(prev, cur)
	assert.Equal(t, Carryover{Persisted: 0, New: 1, Resolved: 1}, c)
}
