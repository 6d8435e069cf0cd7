package registry

import (
	"strings"

	"github.com/oncomatch/trialmatch/internal/staging"
)

// Normalize canonicalizes a receptor or phase value for comparison. Model
// output drifts between "Positive" and "POSITIVE"; trimming and upper-casing
// both sides keeps the filter exact without fuzzy matching.
func Normalize(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// Match selects trials whose HR status, HER2 status, and phase type all equal
// the extraction's values after normalization. An empty result is a normal
// outcome. A placeholder extraction value ("not enough information") matches
// no row; fields are never skipped.
func Match(ex staging.Extraction, trials []Trial) []Trial {
	matched := []Trial{}
	for _, t := range trials {
		if Normalize(t.HRStatus) != Normalize(ex.ERStatus) {
			continue
		}
		if Normalize(t.HER2Status) != Normalize(ex.HER2) {
			continue
		}
		if Normalize(t.PhaseType) != Normalize(string(ex.Phase)) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}
