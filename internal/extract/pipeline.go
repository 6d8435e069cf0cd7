package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/oncomatch/trialmatch/internal/ingest"
	"github.com/oncomatch/trialmatch/internal/registry"
	"github.com/oncomatch/trialmatch/internal/staging"
)

// RegistryLoader loads the trial table for one match attempt. Injectable so
// pipeline tests run without a registry file.
type RegistryLoader func(path string) ([]registry.Trial, error)

// Request describes one user-initiated matching attempt.
type Request struct {
	Documents     []ingest.Document
	HasSurgical   bool
	HasMetastasis bool
	RegistryPath  string
}

type Metadata struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	RecordChars int       `json:"record_chars"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Result is the outcome of a successful run. Each run produces a fresh Result
// that replaces any prior stored one; nothing is mutated after creation.
type Result struct {
	Extraction staging.Extraction `json:"extraction"`
	Trials     []registry.Trial   `json:"trials"`
	RawReply   string             `json:"raw_reply"`
	Metadata   Metadata           `json:"metadata"`
}

// Pipeline executes one synchronous attempt: assemble record, build prompt,
// call the model, parse, derive phase, load the registry fresh, match.
// Single logical writer, no concurrent attempts, no retries.
type Pipeline struct {
	caller       Caller
	loadRegistry RegistryLoader
}

func NewPipeline(caller Caller) *Pipeline {
	return &Pipeline{caller: caller, loadRegistry: registry.Load}
}

// ErrNoPatientData means every document slot was empty.
var ErrNoPatientData = errors.New("no patient data provided")

func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	res := Result{Metadata: Metadata{Model: p.caller.ModelName(), Temperature: 0.0, StartedAt: time.Now()}}

	record, err := ingest.Assemble(req.Documents)
	if err != nil {
		return res, fmt.Errorf("assemble clinical record: %w", err)
	}
	if strings.TrimSpace(record) == "" {
		return res, ErrNoPatientData
	}
	if req.HasMetastasis {
		record += " Metastasis is present."
	} else {
		record += " Metastasis is not present."
	}
	res.Metadata.RecordChars = len(record)

	prompt := BuildPrompt(record)
	log.Printf("trialmatch model_call model=%s record_chars=%d", p.caller.ModelName(), len(record))
	raw, err := p.caller.Generate(ctx, prompt)
	if err != nil {
		return res, fmt.Errorf("model call failed: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return res, ErrEmptyResponse
	}
	res.RawReply = raw

	ex, err := Parse(raw)
	if err != nil {
		return res, err
	}
	ex.Phase = staging.DerivePhase(req.HasSurgical, req.HasMetastasis)
	res.Extraction = ex

	trials, err := p.loadRegistry(req.RegistryPath)
	if err != nil {
		return res, err
	}
	res.Trials = registry.Match(ex, trials)
	res.Metadata.CompletedAt = time.Now()
	log.Printf("trialmatch match_complete phase=%s matches=%d", ex.Phase, len(res.Trials))
	return res, nil
}

// ClassifyFailure maps a pipeline error to its user-visible condition name.
func ClassifyFailure(err error) string {
	var pe *ParseError
	switch {
	case errors.Is(err, ErrCredentialMissing):
		return "credential_missing"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrNoPatientData):
		return "no_patient_data"
	case errors.As(err, &pe):
		return "parse_failure"
	default:
		return "pipeline_failure"
	}
}
