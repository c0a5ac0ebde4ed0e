// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// \x60 is a backtick; raw strings cannot hold one.

	// fencedObjectRegex extracts a JSON object wrapped in a markdown fence.
	fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// fencedArrayRegex extracts a JSON array wrapped in a markdown fence.
	fencedArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ParseJSONResponse decodes an LLM response into T. It tolerates the usual
// model habits: markdown fences around the payload and conversational text
// before or after it.
func ParseJSONResponse[T any](response string) (*T, error) {
	candidate := ExtractJSON(response)
	if candidate == "" {
		return nil, fmt.Errorf("no JSON payload found in LLM response: %s", Truncate(response, 200))
	}

	var result T
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, Truncate(candidate, 500))
	}
	return &result, nil
}

// ExtractJSON returns the most plausible JSON object or array embedded in
// response, or "" when there is none. Objects are preferred over arrays.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)
	if response == "" {
		return ""
	}

	if strings.HasPrefix(response, "```") {
		if m := fencedObjectRegex.FindStringSubmatch(response); len(m) > 1 {
			return m[1]
		}
		if m := fencedArrayRegex.FindStringSubmatch(response); len(m) > 1 {
			return m[1]
		}
	}

	if span := between(response, "{", "}"); span != "" {
		return span
	}
	return between(response, "[", "]")
}

// between returns the text from the first left to the last right, inclusive.
func between(s, left, right string) string {
	first := strings.Index(s, left)
	last := strings.LastIndex(s, right)
	if first == -1 || last <= first {
		return ""
	}
	return s[first : last+1]
}

// Clip returns at most the first maxLen runes of s.
func Clip(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// Truncate is Clip with a trailing "..." when s was cut.
func Truncate(s string, maxLen int) string {
	clipped := Clip(s, maxLen)
	if len(clipped) < len(s) {
		return clipped + "..."
	}
	return clipped
}
