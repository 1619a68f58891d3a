package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/patchwatch/patchwatch/internal/findings"
)

const toolName = "patchwatch"
const toolURI = "https://github.com/patchwatch/patchwatch"

// categoryLevels maps finding categories to SARIF result levels. Categories
// that mutate global interpreter state are warnings; the rest are notes.
var categoryLevels = map[string]string{
	findings.CategorySysModules:            "warning",
	findings.CategoryBuiltins:              "warning",
	findings.CategoryGlobalEnv:             "warning",
	findings.CategoryImportTime:            "warning",
	findings.CategoryAttributeReassignment: "note",
	findings.CategorySetattr:               "note",
	findings.CategoryTestPatchMisuse:       "note",
	findings.CategorySingletonRebind:       "note",
}

func (w *Writer) writeSARIF(all []findings.Finding) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, f := range all {
		level := categoryLevels[f.Category]
		if level == "" {
			level = "note"
		}
		rule := run.AddRule(f.Category).
			WithDescription(f.Intent).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(filepath.ToSlash(f.File))).
				WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s: %s", f.Intent, f.Code))).
			WithLevel(level).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	report.AddRun(run)

	file, err := os.OpenFile(filepath.Join(w.OutputDir, SARIFName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error writing SARIF report: %w", err)
	}
	defer func() { _ = file.Close() }()
	return report.PrettyWrite(file)
}
