package risk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwatch/patchwatch/internal/findings"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		finding  findings.Finding
		expected string
	}{
		{"sys modules runtime", findings.Finding{Category: findings.CategorySysModules}, LevelHigh},
		{"sys modules in tests", findings.Finding{Category: findings.CategorySysModules, IsTest: true}, LevelSafe},
		{"import time runtime", findings.Finding{Category: findings.CategoryImportTime}, LevelHigh},
		{"env module scope runtime", findings.Finding{Category: findings.CategoryGlobalEnv, IsModuleScope: true}, LevelHigh},
		{"env function scope runtime", findings.Finding{Category: findings.CategoryGlobalEnv}, LevelSafe},
		{"env in tests", findings.Finding{Category: findings.CategoryGlobalEnv, IsTest: true}, LevelModerate},
		{"attr reassignment runtime", findings.Finding{Category: findings.CategoryAttributeReassignment}, LevelModerate},
		{"attr reassignment in tests", findings.Finding{Category: findings.CategoryAttributeReassignment, IsTest: true}, LevelSafe},
		{"patch misuse", findings.Finding{Category: findings.CategoryTestPatchMisuse, IsTest: true}, LevelSafe},
		{"builtins", findings.Finding{Category: findings.CategoryBuiltins}, LevelSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(&tt.finding))
		})
	}
}

func TestBuildAggregate(t *testing.T) {
	all := []findings.Finding{
		{File: "a.py", Category: findings.CategorySysModules},
		{File: "a.py", Category: findings.CategoryAttributeReassignment},
		{File: "b.py", Category: findings.CategoryAttributeReassignment, IsTest: true},
	}
	agg := Build(all)

	assert.Equal(t, 1, agg.CountsByRisk[LevelHigh])
	assert.Equal(t, 1, agg.CountsByRisk[LevelModerate])
	assert.Equal(t, 1, agg.CountsByRisk[LevelSafe])

	require.NotEmpty(t, agg.TopFiles)
	assert.Equal(t, Entry{Name: "a.py", Count: 2}, agg.TopFiles[0])
	assert.Equal(t, Entry{Name: findings.CategoryAttributeReassignment, Count: 2}, agg.TopCategories[0])
}

func TestEntryJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Entry{Name: "a.py", Count: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `["a.py", 3]`, string(data))

	var e Entry
	require.NoError(t, json.Unmarshal(data, &e))
	assert.Equal(t, Entry{Name: "a.py", Count: 3}, e)
}

func TestLatestScanDir(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2026-08-01_0900", "2026-08-02_0900", "notes", ".hidden"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0755))
	}

	latest, err := LatestScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2026-08-02_0900"), latest)
}

func TestLatestScanDirEmpty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "notes"), 0755))

	_, err := LatestScanDir(root)
	assert.Error(t, err)
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	agg := Build([]findings.Finding{
		{File: "a.py", Category: findings.CategorySysModules},
		{File: "b.py", Category: findings.CategoryGlobalEnv, IsTest: true},
	})
	require.NoError(t, WriteOutputs(dir, agg))

	data, err := os.ReadFile(filepath.Join(dir, JSONName))
	require.NoError(t, err)
	var decoded Aggregate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, agg.CountsByRisk, decoded.CountsByRisk)

	md, err := os.ReadFile(filepath.Join(dir, MDName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Monkey-Patch Risk Summary")
	assert.Contains(t, string(md), "- HIGH: 1")
	assert.Contains(t, string(md), "- MODERATE: 1")
	assert.Contains(t, string(md), "- SAFE: 0")
}

func TestLoadFindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"file":"a.py","line":2,"category":"builtins_mutation"}]`), 0644))

	all, err := LoadFindings(path)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a.py", all[0].File)
	assert.Equal(t, 2, all[0].Line)
}
