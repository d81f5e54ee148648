package jsontext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ModelOutputError indicates that text returned by a language model could not
// be parsed as the expected JSON shape. Callers use errors.As to distinguish
// malformed model output from transport failures.
type ModelOutputError struct {
	Raw string
	Err error
}

func (e *ModelOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *ModelOutputError) Unwrap() error {
	return e.Err
}

// Strip removes a surrounding markdown code fence from text, if present.
// Models frequently wrap JSON answers in ```json ... ``` despite being asked
// not to.
func Strip(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// Unmarshal strips any code fence from text and unmarshals the remainder into v.
// A parse failure returns a *ModelOutputError wrapping the underlying JSON error.
func Unmarshal(text string, v interface{}) error {
	cleaned := Strip(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ModelOutputError{Raw: text, Err: err}
	}
	return nil
}
