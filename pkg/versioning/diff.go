package versioning

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/flowkit-dev/flowkit/pkg/models"
)

// GenerateDiff renders a unified text diff between the canonical
// (sorted-key, pretty-printed) JSON forms of two workflows. The output is
// for human review only and has no effect on stored state.
func GenerateDiff(a, b *models.Workflow, fromLabel, toLabel string) (string, error) {
	aText, err := prettyCanonical(a)
	if err != nil {
		return "", err
	}

	bText, err := prettyCanonical(b)
	if err != nil {
		return "", err
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(aText),
		B:        difflib.SplitLines(bText),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("generating diff: %w", err)
	}

	return text, nil
}

func prettyCanonical(wf *models.Workflow) (string, error) {
	doc, err := canonicalDocument(wf)
	if err != nil {
		return "", err
	}

	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering workflow: %w", err)
	}

	return string(pretty) + "\n", nil
}
