package scan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwatch/patchwatch/pkg/shared/config"
)

func TestResolveOutputBase(t *testing.T) {
	repoRoot := filepath.Join(string(filepath.Separator), "work", "repo")
	defaultBase := config.GetScanOutputBase(nil)

	tests := []struct {
		name      string
		flagValue string
		want      string
	}{
		{
			name:      "default base lands inside the repo root",
			flagValue: "",
			want:      filepath.Join(repoRoot, defaultBase),
		},
		{
			name:      "relative flag value resolves against the repo root",
			flagValue: "out/scans",
			want:      filepath.Join(repoRoot, "out", "scans"),
		},
		{
			name:      "absolute flag value is kept as is",
			flagValue: filepath.Join(string(filepath.Separator), "var", "scans"),
			want:      filepath.Join(string(filepath.Separator), "var", "scans"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveOutputBase(repoRoot, tt.flagValue))
		})
	}
}

func TestValidateScanArgs(t *testing.T) {
	tmpDir := t.TempDir()

	err := validateScanArgs(&RunOptionsScan{RepoRoot: tmpDir})
	require.NoError(t, err)

	err = validateScanArgs(&RunOptionsScan{RepoRoot: filepath.Join(tmpDir, "missing")})
	assert.ErrorContains(t, err, "repo root does not exist")

	err = validateScanArgs(&RunOptionsScan{RepoRoot: tmpDir, ContextLines: -1})
	assert.ErrorContains(t, err, "must not be negative")
}
