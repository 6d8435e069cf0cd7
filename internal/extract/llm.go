package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a clinical data abstractor reviewing breast cancer imaging, biopsy, and surgical pathology reports. You determine staging strictly from the provided rule set and never invent findings. Respond with strict JSON only."

const DefaultLLMModel = "claude-sonnet-4-20250514"

// DefaultCallTimeout bounds a single model call. Overridable through
// TRIALMATCH_LLM_TIMEOUT_SECONDS.
const DefaultCallTimeout = 120 * time.Second

// Caller sends a fully built prompt to a language model and returns its raw
// textual reply.
type Caller interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
	timeout  time.Duration
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// ResolveAPIKey checks the environment first, then the JSON secrets file
// (TRIALMATCH_SECRETS, defaulting to ~/.config/trialmatch/secrets.json).
// Returns ErrCredentialMissing when neither yields a value, so callers can
// refuse to start the pipeline before any prompt is built.
func ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		return key, nil
	}
	path := strings.TrimSpace(os.Getenv("TRIALMATCH_SECRETS"))
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", ErrCredentialMissing
		}
		path = filepath.Join(home, ".config", "trialmatch", "secrets.json")
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", ErrCredentialMissing
	}
	var secrets map[string]string
	if err := json.Unmarshal(blob, &secrets); err != nil {
		return "", fmt.Errorf("secrets file %s: %w", path, err)
	}
	if key := strings.TrimSpace(secrets["anthropic_api_key"]); key != "" {
		return key, nil
	}
	return "", ErrCredentialMissing
}

// NewAnthropicCallerFromEnv resolves the credential and constructs the client.
// Construction failure is reported as a distinct condition from a missing
// credential.
func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey, err := ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(os.Getenv("TRIALMATCH_LLM_MODEL"))
	if model == "" {
		model = DefaultLLMModel
	}
	timeout := DefaultCallTimeout
	if raw := strings.TrimSpace(os.Getenv("TRIALMATCH_LLM_TIMEOUT_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid TRIALMATCH_LLM_TIMEOUT_SECONDS %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}
	messages := newAnthropicClient(apiKey)
	if messages == nil {
		return nil, fmt.Errorf("anthropic client init failed for model %s", model)
	}
	return &AnthropicCaller{messages: messages, model: model, timeout: timeout}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

// Generate requests fully deterministic decoding (temperature zero) and
// concatenates the text blocks of the reply. No retries: a failed call ends
// the attempt and the user must re-trigger explicitly.
func (a *AnthropicCaller) Generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   1024,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
