package extract

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/oncomatch/trialmatch/internal/staging"
)

// The five keys the model is instructed to return. All must be present;
// a missing key is total parse failure, never a null value.
var requiredKeys = []string{
	"T Staging",
	"N Staging",
	"ER Status",
	"HER2 Presence",
	"Metastasis Status",
}

// decodeStrategy rewrites the raw reply into a decode candidate. Strategies
// run in order and the chain stops at the first candidate that decodes.
type decodeStrategy struct {
	name    string
	rewrite func(string) string
}

var decodeStrategies = []decodeStrategy{
	{name: "strict", rewrite: func(s string) string { return s }},
	{name: "fence_stripped", rewrite: stripCodeFences},
	{name: "quote_repaired", rewrite: func(s string) string { return repairQuotes(stripCodeFences(s)) }},
}

// bareKeyRe matches an unquoted key (possibly containing spaces) immediately
// preceding a colon, anchored to an object or element boundary so quoted keys
// and string values are left alone.
var bareKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_ ]*[A-Za-z0-9+]|[A-Za-z_])\s*:`)

// Parse converts a raw model reply into an Extraction (without the phase tag,
// which is derived by the caller). It tolerates, in order: well-formed JSON,
// a markdown-fenced payload, and a payload with single quotes or unquoted
// keys. Exhausting all strategies yields a ParseError carrying the
// post-repair text; no partial record is ever returned.
func Parse(raw string) (staging.Extraction, error) {
	trimmed := strings.TrimSpace(raw)
	attempted := trimmed
	var lastErr error
	for _, strat := range decodeStrategies {
		candidate := strat.rewrite(trimmed)
		attempted = candidate
		fields := map[string]string{}
		if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
			log.Printf("trialmatch parse_attempt strategy=%s ok=false err=%q", strat.name, err.Error())
			lastErr = err
			continue
		}
		log.Printf("trialmatch parse_attempt strategy=%s ok=true", strat.name)
		return buildExtraction(fields, candidate)
	}
	return staging.Extraction{}, &ParseError{Attempted: attempted, Err: fmt.Errorf("all decode strategies exhausted: %w", lastErr)}
}

func buildExtraction(fields map[string]string, candidate string) (staging.Extraction, error) {
	for _, k := range requiredKeys {
		if _, ok := fields[k]; !ok {
			return staging.Extraction{}, &ParseError{Attempted: candidate, Err: fmt.Errorf("model reply missing required field %q", k)}
		}
	}
	return staging.Extraction{
		TStaging:   strings.TrimSpace(fields["T Staging"]),
		NStaging:   strings.TrimSpace(fields["N Staging"]),
		ERStatus:   strings.TrimSpace(fields["ER Status"]),
		HER2:       strings.TrimSpace(fields["HER2 Presence"]),
		Metastasis: strings.TrimSpace(fields["Metastasis Status"]),
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// repairQuotes normalizes single quotes to double quotes, then wraps bare
// keys in double quotes. Best-effort recovery only; the caller falls through
// to ParseError when the result still does not decode.
func repairQuotes(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	return bareKeyRe.ReplaceAllString(s, `$1"$2":`)
}
