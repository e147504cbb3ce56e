package scorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// parseScoreResponse turns the raw model output into a validated score/reason
// pair. Markdown code fences are stripped before parsing since some models
// wrap JSON output despite instructions. The score must be numeric and within
// [1,10] before rounding; fractional values round half-up. The reason must be
// a non-empty string.
func parseScoreResponse(content string) (scoreResult, error) {
	cleaned := stripCodeFences(content)

	var raw scoreResponse
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return scoreResult{}, &ValidationError{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		return scoreResult{}, &ValidationError{Field: "response", Reason: "not a valid JSON object"}
	}

	if raw.Score < 1 || raw.Score > 10 {
		return scoreResult{}, &ValidationError{
			Field:  "score",
			Reason: fmt.Sprintf("%g is outside the 1-10 range", raw.Score),
		}
	}

	if raw.Reason == "" {
		return scoreResult{}, &ValidationError{Field: "reason", Reason: "missing or empty"}
	}

	return scoreResult{
		// Round half-up, matching the scale described in the prompts.
		Score:  int(math.Floor(raw.Score + 0.5)),
		Reason: raw.Reason,
	}, nil
}

// stripCodeFences removes ```json / ``` markers so fenced responses parse as
// plain JSON.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
