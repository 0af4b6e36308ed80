package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*")

// parseItems pulls the translated items out of a model reply and checks that
// every input line got an answer
func parseItems(provider, text string, expected int) ([]Item, error) {
	if text == "" {
		return nil, fmt.Errorf("no text in %s response", provider)
	}

	text = cleanJSONResponse(text)
	items, err := extractItems(text)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(text, 200),
		)
	}
	if len(items) != expected {
		return nil, fmt.Errorf("expected %d results, got %d", expected, len(items))
	}
	return items, nil
}

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = codeFencePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// escapes backslashes that do not start a valid JSON escape, so a stray
// "\N" in a reply survives decoding as literal text
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			result.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			result.WriteByte('\\')
		default:
			result.WriteString("\\\\")
		}
		result.WriteByte(next)
		i++
	}
	return result.String()
}

// scans for the first JSON value that decodes into translated items,
// skipping any preamble the model wrote
func extractItems(text string) ([]Item, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if items, ok := itemsFrom(raw); ok {
			return items, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

// accepts a bare array or an object wrapping one
func itemsFrom(raw json.RawMessage) ([]Item, bool) {
	var items []Item
	if err := json.Unmarshal(raw, &items); err == nil && hasText(items) {
		return items, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range []string{"results", "translations", "data", "items", "lines"} {
		if field, ok := wrapper[key]; ok {
			if err := json.Unmarshal(field, &items); err == nil && hasText(items) {
				return items, true
			}
		}
	}
	for _, field := range wrapper {
		if err := json.Unmarshal(field, &items); err == nil && hasText(items) {
			return items, true
		}
	}
	return nil, false
}

func hasText(items []Item) bool {
	for _, it := range items {
		if it.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
