package extract

import (
	"fmt"

	"github.com/oncomatch/trialmatch/internal/staging"
)

// schemaPrompt names the exact keys the parser requires. Omitting this block
// is the single largest source of downstream parse failure, so BuildPrompt
// always appends it.
const schemaPrompt = `Required JSON schema:
{
  "T Staging": "string",
  "N Staging": "string",
  "ER Status": "string",
  "HER2 Presence": "string",
  "Metastasis Status": "string"
}`

const taskFraming = `Review the following text to determine TNM staging, Estrogen receptor status (ER), HER2 status, and metastasis status. Abide by the following rules derived from AJCC v8. Sometimes the information does not directly mention TNM staging but provides a tumor size that could lead to determining the staging; use that when available.`

const fallbackInstruction = `If the information is insufficient for a field, respond for that field with exactly: "` + staging.InsufficientInformation + `".`

// BuildPrompt composes the full instruction payload for one clinical record:
// task framing, the complete staging rule set, the insufficient-information
// fallback, the record text, and the machine-readable schema block. Pure data
// transform, no side effects.
func BuildPrompt(recordText string) string {
	return fmt.Sprintf(`%s

%s

%s

%s

%s

text: %s

%s

Respond with only a single JSON object matching the schema. Every value must be a string.`,
		taskFraming,
		staging.TumorStagingRules,
		staging.NodalStagingRules,
		staging.ReceptorRules,
		fallbackInstruction,
		recordText,
		schemaPrompt,
	)
}
