package llm

import "strings"

// StripFences removes a leading ```json or ``` marker and a trailing ```
// marker, plus surrounding whitespace.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the substring from the first '{' to the last '}'.
// It returns "" when no such span exists. No other repair is attempted.
func ExtractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
