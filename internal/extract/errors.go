package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMissing means no API credential was found in the
	// environment or the secrets file. Reported before any network call.
	ErrCredentialMissing = errors.New("api credential not found: set ANTHROPIC_API_KEY or add anthropic_api_key to the secrets file")

	// ErrEmptyResponse means the model call succeeded at the transport level
	// but returned no usable content. Distinct from a parse failure; parsing
	// is never attempted on an empty reply.
	ErrEmptyResponse = errors.New("no response from the model")
)

// ParseError reports that every decode strategy was exhausted, or that a
// decoded reply violated the five-field contract. Attempted carries the text
// after the last repair stage so an operator can inspect the raw output.
type ParseError struct {
	Attempted string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to decode model reply: %v\nattempted text:\n%s", e.Err, e.Attempted)
}

func (e *ParseError) Unwrap() error { return e.Err }
