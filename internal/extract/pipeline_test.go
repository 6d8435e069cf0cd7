package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oncomatch/trialmatch/internal/ingest"
	"github.com/oncomatch/trialmatch/internal/registry"
	"github.com/oncomatch/trialmatch/internal/staging"
)

type stubCaller struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubCaller) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

func (s *stubCaller) ModelName() string { return "stub-model" }

func adjuvantRegistry(path string) ([]registry.Trial, error) {
	return []registry.Trial{
		{TrialID: "NCT00000001", BriefTitle: "Adjuvant trastuzumab study", HRStatus: "POSITIVE", HER2Status: "POSITIVE", PhaseType: "Adjuvant"},
		{TrialID: "NCT00000002", BriefTitle: "Metastatic endocrine study", HRStatus: "POSITIVE", HER2Status: "NEGATIVE", PhaseType: "Metastatic"},
	}, nil
}

const goodReply = `{"T Staging": "T2", "N Staging": "pN0", "ER Status": "POSITIVE", "HER2 Presence": "POSITIVE", "Metastasis Status": "NEGATIVE"}`

func surgicalRequest() Request {
	return Request{
		Documents: []ingest.Document{
			{Label: "imaging report", Text: "Imaging shows a mass, tumor measuring 2.3 cm."},
			{Label: "biopsy report", Text: " IHC 3+. Allred POSITIVE."},
			{Label: "surgical report", Text: " Final surgical pathology consistent with biopsy."},
		},
		HasSurgical:   true,
		HasMetastasis: false,
	}
}

func TestRunEndToEndAdjuvantScenario(t *testing.T) {
	caller := &stubCaller{reply: goodReply}
	p := &Pipeline{caller: caller, loadRegistry: adjuvantRegistry}

	res, err := p.Run(context.Background(), surgicalRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Extraction.Phase != staging.PhaseAdjuvant {
		t.Fatalf("expected Adjuvant phase, got %q", res.Extraction.Phase)
	}
	if res.Extraction.TStaging != "T2" || res.Extraction.HER2 != "POSITIVE" || res.Extraction.ERStatus != "POSITIVE" {
		t.Fatalf("unexpected extraction: %+v", res.Extraction)
	}
	if len(res.Trials) != 1 || res.Trials[0].TrialID != "NCT00000001" {
		t.Fatalf("expected exactly the adjuvant HR+/HER2+ row, got %+v", res.Trials)
	}
	if caller.calls != 1 {
		t.Fatalf("pipeline must not retry, got %d calls", caller.calls)
	}
}

func TestRunAppendsMetastasisSentence(t *testing.T) {
	caller := &stubCaller{reply: goodReply}
	p := &Pipeline{caller: caller, loadRegistry: adjuvantRegistry}

	req := surgicalRequest()
	if _, err := p.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(caller.prompt, "Metastasis is not present.") {
		t.Fatal("prompt should state metastasis absence")
	}

	req.HasMetastasis = true
	if _, err := p.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(caller.prompt, "Metastasis is present.") {
		t.Fatal("prompt should state metastasis presence")
	}
}

func TestRunMetastasisFlagDominatesPhase(t *testing.T) {
	caller := &stubCaller{reply: goodReply}
	p := &Pipeline{caller: caller, loadRegistry: adjuvantRegistry}
	req := surgicalRequest()
	req.HasMetastasis = true
	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Extraction.Phase != staging.PhaseMetastatic {
		t.Fatalf("metastasis must dominate, got %q", res.Extraction.Phase)
	}
}

func TestRunEmptyRecord(t *testing.T) {
	p := &Pipeline{caller: &stubCaller{reply: goodReply}, loadRegistry: adjuvantRegistry}
	_, err := p.Run(context.Background(), Request{Documents: []ingest.Document{{Label: "imaging report"}}})
	if !errors.Is(err, ErrNoPatientData) {
		t.Fatalf("expected ErrNoPatientData, got %v", err)
	}
}

func TestRunEmptyReplyShortCircuitsBeforeParsing(t *testing.T) {
	p := &Pipeline{caller: &stubCaller{reply: "   \n"}, loadRegistry: adjuvantRegistry}
	_, err := p.Run(context.Background(), surgicalRequest())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Fatal("empty reply must not be reported as a parse failure")
	}
}

func TestRunTransportFailureEndsAttempt(t *testing.T) {
	caller := &stubCaller{err: errors.New("connection reset")}
	p := &Pipeline{caller: caller, loadRegistry: adjuvantRegistry}
	if _, err := p.Run(context.Background(), surgicalRequest()); err == nil {
		t.Fatal("expected transport error")
	}
	if caller.calls != 1 {
		t.Fatalf("no retries allowed, got %d calls", caller.calls)
	}
}

func TestRunParseFailurePropagatesAttemptedText(t *testing.T) {
	p := &Pipeline{caller: &stubCaller{reply: "not json at all"}, loadRegistry: adjuvantRegistry}
	_, err := p.Run(context.Background(), surgicalRequest())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Attempted == "" {
		t.Fatal("parse failure must surface the attempted text")
	}
}

func TestRunNoMatchesIsNotAnError(t *testing.T) {
	empty := func(path string) ([]registry.Trial, error) { return nil, nil }
	p := &Pipeline{caller: &stubCaller{reply: goodReply}, loadRegistry: empty}
	res, err := p.Run(context.Background(), surgicalRequest())
	if err != nil {
		t.Fatalf("no matches must not be an error: %v", err)
	}
	if len(res.Trials) != 0 {
		t.Fatalf("expected empty match set, got %+v", res.Trials)
	}
}

func TestClassifyFailure(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{err: ErrCredentialMissing, want: "credential_missing"},
		{err: ErrEmptyResponse, want: "empty_response"},
		{err: ErrNoPatientData, want: "no_patient_data"},
		{err: &ParseError{Attempted: "x", Err: errors.New("boom")}, want: "parse_failure"},
		{err: errors.New("other"), want: "pipeline_failure"},
	} {
		if got := ClassifyFailure(tc.err); got != tc.want {
			t.Fatalf("ClassifyFailure(%v) got %q, want %q", tc.err, got, tc.want)
		}
	}
}
