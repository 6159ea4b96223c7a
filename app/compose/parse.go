package compose

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rewriteSchema is the exact shape requested from the completion service.
type rewriteSchema struct {
	Summary  string   `json:"summary"`
	Body     string   `json:"body"`
	Tips     []string `json:"tips"`
	Keywords []string `json:"keywords"`
}

// parseRewrite extracts the first balanced JSON object from free-form
// completion output and validates it against the requested schema. A
// validation failure is treated exactly like a request failure upstream;
// there is no partial recovery.
func parseRewrite(output string) (*rewriteSchema, error) {
	block, ok := extractJSONObject(output)
	if !ok {
		return nil, fmt.Errorf("no JSON object in completion output")
	}

	var parsed rewriteSchema
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse completion JSON: %w", err)
	}

	parsed.Summary = strings.TrimSpace(parsed.Summary)
	parsed.Body = strings.TrimSpace(parsed.Body)
	if parsed.Summary == "" {
		return nil, fmt.Errorf("completion JSON missing summary")
	}
	if parsed.Body == "" {
		return nil, fmt.Errorf("completion JSON missing body")
	}

	return &parsed, nil
}

// extractJSONObject returns the first balanced {...} block in s, honoring
// string literals and escapes.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
