package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oncomatch/trialmatch/internal/extract"
)

// NoResultPlaceholder is rendered when no matching attempt has been made yet.
const NoResultPlaceholder = "Matches will appear here after processing the inputs."

const Disclaimer = "This is an automated intake aid for clinical trial screening, not medical advice. " +
	"Staging and receptor values are extracted by a language model and must be verified against the " +
	"source reports by a clinician before any eligibility decision."

// BuildMarkdown renders one matching attempt as a human-readable report: the
// structured extraction block, the matched-trial table, and a raw-output
// appendix for manual verification.
func BuildMarkdown(res extract.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Clinical Trial Match Report\n\n")
	fmt.Fprintf(&b, "- Date: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Model: %s (temperature %.1f)\n\n", res.Metadata.Model, res.Metadata.Temperature)
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	fmt.Fprintf(&b, "## Staging Extraction\n\n")
	fmt.Fprintf(&b, "- (T) Staging: %s\n", res.Extraction.TStaging)
	fmt.Fprintf(&b, "- (N) Staging: %s\n", res.Extraction.NStaging)
	fmt.Fprintf(&b, "- ER Status: %s\n", res.Extraction.ERStatus)
	fmt.Fprintf(&b, "- HER2 Presence: %s\n", res.Extraction.HER2)
	fmt.Fprintf(&b, "- Metastasis Status: %s\n", res.Extraction.Metastasis)
	fmt.Fprintf(&b, "- Treatment Phase: **%s**\n\n", res.Extraction.Phase)

	fmt.Fprintf(&b, "## Matched Clinical Trials\n\n")
	if len(res.Trials) == 0 {
		fmt.Fprintf(&b, "No registry trial matches this profile. This is an informational result, not an error; review the registry or the extracted values above.\n\n")
	} else {
		fmt.Fprintf(&b, "| Trial ID | Condition | Brief Title | HR | HER2 | Phase |\n")
		fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
		for _, t := range res.Trials {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(t.TrialID), cell(t.Condition), cell(t.BriefTitle),
				cell(t.HRStatus), cell(t.HER2Status), cell(t.PhaseType))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "### Eligibility Notes\n\n")
		for _, t := range res.Trials {
			fmt.Fprintf(&b, "- **%s**: %s\n", t.TrialID, oneLine(t.Eligibility))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Appendix\n\n")
	fmt.Fprintf(&b, "### Raw Model Output\n\n```\n%s\n```\n", strings.TrimSpace(res.RawReply))
	fmt.Fprintf(&b, "\n### Run Metadata (JSON)\n\n```json\n%s\n```\n", prettyJSON(res.Metadata))
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", "\\|")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func prettyJSON(v any) string {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(blob)
}
