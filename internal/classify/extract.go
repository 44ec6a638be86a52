package classify

import "encoding/json"

// extractJSONObject returns the first valid balanced-brace JSON object found
// in free-form text, or "" when none exists. Model output wraps the object
// in prose or code fences often enough that a plain regex truncates on
// nested objects. A brace opening inside surrounding prose can also seed a
// balanced-but-garbage candidate, so each candidate is validated and the
// scan resumes at the next brace until one decodes.
func extractJSONObject(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		candidate := balancedObjectAt(text[i:])
		if candidate != "" && json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return ""
}

// balancedObjectAt returns the brace-balanced prefix of text, which must
// start with '{', tracking string and escape state. It returns "" when the
// braces never balance.
func balancedObjectAt(text string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

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
				return text[:i+1]
			}
		}
	}
	return ""
}
