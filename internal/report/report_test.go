package report

import (
	"strings"
	"testing"

	"github.com/oncomatch/trialmatch/internal/extract"
	"github.com/oncomatch/trialmatch/internal/registry"
	"github.com/oncomatch/trialmatch/internal/staging"
)

func sampleResult() extract.Result {
	return extract.Result{
		Extraction: staging.Extraction{
			TStaging:   "T2",
			NStaging:   "pN0",
			ERStatus:   "POSITIVE",
			HER2:       "POSITIVE",
			Metastasis: "NEGATIVE",
			Phase:      staging.PhaseAdjuvant,
		},
		Trials: []registry.Trial{
			{TrialID: "NCT00000001", Condition: "Breast Cancer", BriefTitle: "Adjuvant study", Eligibility: "Age 18+\nECOG 0-1", HRStatus: "POSITIVE", HER2Status: "POSITIVE", PhaseType: "Adjuvant"},
		},
		RawReply: `{"T Staging": "T2"}`,
		Metadata: extract.Metadata{Model: "stub-model"},
	}
}

func TestBuildMarkdownIncludesExtractionBlock(t *testing.T) {
	md := BuildMarkdown(sampleResult())
	for _, fragment := range []string{
		"- (T) Staging: T2",
		"- (N) Staging: pN0",
		"- ER Status: POSITIVE",
		"- HER2 Presence: POSITIVE",
		"- Metastasis Status: NEGATIVE",
		"- Treatment Phase: **Adjuvant**",
	} {
		if !strings.Contains(md, fragment) {
			t.Fatalf("report missing %q:\n%s", fragment, md)
		}
	}
}

func TestBuildMarkdownRendersTrialTable(t *testing.T) {
	md := BuildMarkdown(sampleResult())
	if !strings.Contains(md, "| NCT00000001 | Breast Cancer | Adjuvant study | POSITIVE | POSITIVE | Adjuvant |") {
		t.Fatalf("missing trial row:\n%s", md)
	}
	if !strings.Contains(md, "Age 18+ ECOG 0-1") {
		t.Fatalf("eligibility should be flattened to one line:\n%s", md)
	}
}

func TestBuildMarkdownEmptyMatchesIsInformational(t *testing.T) {
	res := sampleResult()
	res.Trials = nil
	md := BuildMarkdown(res)
	if !strings.Contains(md, "No registry trial matches this profile") {
		t.Fatalf("empty match set should render an informational message:\n%s", md)
	}
	if strings.Contains(md, "| NCT") {
		t.Fatal("no table rows expected")
	}
}

func TestBuildMarkdownIncludesRawReplyAppendix(t *testing.T) {
	md := BuildMarkdown(sampleResult())
	if !strings.Contains(md, `{"T Staging": "T2"}`) {
		t.Fatalf("raw model output must be attached:\n%s", md)
	}
}

func TestCellEscapesPipes(t *testing.T) {
	if got := cell("a|b"); got != "a\\|b" {
		t.Fatalf("got %q", got)
	}
}
