package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse marks a model response with no usable JSON payload. It is a
// hard error for that call, never a crash of the surrounding batch.
var ErrParse = errors.New("no JSON payload in model response")

// extractJSON strips markdown fences and surrounding prose, returning
// the outermost JSON array (preferred) or object in the response.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			return content[start : end+1], nil
		}
	}

	return "", ErrParse
}

// decodeCandidates is the strict parse-or-fail boundary between the
// free-form model output and the scoring pipeline.
func decodeCandidates(content string) ([]Candidate, error) {
	payload, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		// Some models wrap the array in an object.
		var wrapped struct {
			Candidates []Candidate `json:"candidates"`
		}
		if err2 := json.Unmarshal([]byte(payload), &wrapped); err2 != nil || wrapped.Candidates == nil {
			return nil, fmt.Errorf("%w: %v, content: %s", ErrParse, err, payload)
		}
		candidates = wrapped.Candidates
	}

	return candidates, nil
}
