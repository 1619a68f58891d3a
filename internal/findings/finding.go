package findings

// Categories of monkey-patch-like patterns detected by the scanner.
const (
	CategoryAttributeReassignment = "attribute_reassignment_on_import"
	CategorySetattr               = "setattr_on_import_or_class"
	CategorySysModules            = "sys_modules_assignment"
	CategoryBuiltins              = "builtins_mutation"
	CategoryImportTime            = "import_time_side_effect"
	CategoryTestPatchMisuse       = "test_patch_misuse"
	CategoryGlobalEnv             = "global_env_mutation"
	CategorySingletonRebind       = "singleton_rebind"
)

// Intent labels summarizing the likely purpose of a finding.
const (
	IntentModuleInjection    = "module injection/aliasing"
	IntentOverrideThirdParty = "override third-party behavior"
	IntentNonScopedTestPatch = "non-scoped test patch"
	IntentGlobalRuntime      = "global runtime change"
	IntentImportTimeOverride = "import-time behavior override"
	IntentUnspecified        = "unspecified monkey patch"
)

// Finding is one detected monkey-patch occurrence. Optional fields are
// pointers so absent values serialize as null, keeping the JSON shape stable
// for downstream consumers.
type Finding struct {
	File          string  `json:"file"`
	Line          int     `json:"line"`
	Code          string  `json:"code"`
	Category      string  `json:"category"`
	Intent        string  `json:"intent"`
	ImportBase    *string `json:"import_base"`
	IsTest        bool    `json:"is_test"`
	IsModuleScope bool    `json:"is_module_scope"`
	Function      *string `json:"function"`
	ClassName     *string `json:"class_name"`
	NearbyComment *string `json:"nearby_comment"`
	Context       *string `json:"context"`
	GitAuthor     *string `json:"git_author"`
	GitCommit     *string `json:"git_commit"`
	GitCommitDate *string `json:"git_commit_date"`
}

// Key is the natural dedup key when merging tree-based and regex-fallback
// findings.
type Key struct {
	File     string
	Line     int
	Category string
}

// DedupKey returns the finding's (file, line, category) key.
func (f *Finding) DedupKey() Key {
	return Key{File: f.File, Line: f.Line, Category: f.Category}
}

// ClassifyIntent derives the intent label from category, import base
// presence and test-file status.
func ClassifyIntent(category string, hasImportBase, isTest bool) string {
	switch {
	case category == CategorySysModules:
		return IntentModuleInjection
	case category == CategoryBuiltins:
		return IntentGlobalRuntime
	case category == CategoryImportTime:
		return IntentImportTimeOverride
	case category == CategoryTestPatchMisuse && isTest:
		return IntentNonScopedTestPatch
	}
	if hasImportBase {
		switch category {
		case CategoryAttributeReassignment, CategorySetattr, CategorySingletonRebind:
			return IntentOverrideThirdParty
		}
	}
	return IntentUnspecified
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
