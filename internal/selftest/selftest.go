// Package selftest exercises the scanner against built-in fixture files and
// verifies every expected category is detected. It backs the scan command's
// --self-test flag.
package selftest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/patchwatch/patchwatch/internal/findings"
	"github.com/patchwatch/patchwatch/internal/pyscan"
	"github.com/patchwatch/patchwatch/pkg/shared/errors"
)

// Fixtures covering one detection category each. The file names keep the
// scan order stable.
var sampleFiles = map[string]string{
	"a_modscope_assign.py": `
import requests
requests.adapters.DEFAULT_POOLSIZE = 1  # change pool size
`,
	"b_setattr.py": `
import requests
setattr(requests, "api", object())
`,
	"c_sysmodules.py": `
import sys
sys.modules["foo"] = object()
`,
	"d_builtins.py": `
import builtins
builtins.open = lambda *a, **k: None
`,
	"e_patch_misuse.py": `
from unittest.mock import patch
@patch("x.y.func")
def test_foo():
    pass
patch("x.y.func")  # not context-managed
`,
	"f_env_mut.py": `
import os
os.environ["SOME_KEY"] = "1"
os.environ.update({"A":"b"})
`,
	"g_singleton_rebind.py": `
import logging
logging.getLogger = lambda name=None: None
`,
	"h_from_import_attr.py": `
from somepkg import moduleX as mx
mx.feature_flag = True
`,
}

var expectedCategories = []string{
	findings.CategoryAttributeReassignment,
	findings.CategorySetattr,
	findings.CategorySysModules,
	findings.CategoryBuiltins,
	findings.CategoryTestPatchMisuse,
	findings.CategoryGlobalEnv,
	findings.CategorySingletonRebind,
}

// Run scans the fixture set in a temporary directory and returns a
// CommandError with exit code 2 when any expected category is missing.
func Run(ctx context.Context, logger hclog.Logger) error {
	dir, err := os.MkdirTemp("", "patchwatch-selftest-*")
	if err != nil {
		return errors.NewCommandError(err, 1)
	}
	defer os.RemoveAll(dir)

	for name, src := range sampleFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0644); err != nil {
			return errors.NewCommandError(err, 1)
		}
	}

	opts := pyscan.Options{RepoRoot: dir, ContextLines: 2, NearImportWindow: 5}
	paths, err := pyscan.PythonFiles(dir, nil, nil)
	if err != nil {
		return errors.NewCommandError(err, 1)
	}

	var all []findings.Finding
	for _, path := range paths {
		found, err := pyscan.ScanFile(ctx, opts, path)
		if err != nil {
			return errors.NewCommandError(err, 1)
		}
		all = append(all, found...)
	}

	seen := map[string]bool{}
	for _, f := range all {
		seen[f.Category] = true
	}
	var missing []string
	for _, cat := range expectedCategories {
		if !seen[cat] {
			missing = append(missing, cat)
		}
	}
	if len(missing) > 0 {
		logger.Error("self-test missing categories", "missing", missing)
		return errors.NewCommandErrorf(2, "self-test failed: missing categories %v", missing)
	}
	logger.Debug("self-test ok", "findings", len(all), "files", len(sampleFiles))
	return nil
}
