// Package verdict extracts the screening decision from free-form model output.
package verdict

// FindJSONObject returns the first complete, brace-balanced top-level object
// in s. Braces inside JSON strings, including escaped quotes, do not affect
// nesting. Quotes in the surrounding prose are ignored. It reports false when
// no object closes.
//
// Iterating bytes is safe for the ASCII delimiters because UTF-8 never uses
// them inside multi-byte sequences.
func FindJSONObject(s string) (string, bool) {
	var depth int
	start := -1
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
