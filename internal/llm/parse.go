package llm

import (
	"encoding/json"
	"strings"

	"github.com/presalekit/estimator/constants"
)

// ParseError reports why model output could not be turned into a JSON object.
// Its Code is the machine-readable failure code for the repair loop.
type ParseError struct {
	Code string
	Err  error
}

func (e *ParseError) Error() string { return e.Code }
func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSONObject recovers a JSON object from free model text. The whole
// text is tried first; failing that, the span between the first '{' and the
// last '}' is, which tolerates prose around the object.
func ExtractJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, &ParseError{Code: constants.CodeNoJSONFound}
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &obj); err != nil {
		return nil, &ParseError{Code: constants.CodeInvalidJSON, Err: err}
	}
	return obj, nil
}
