package interoptest

import (
	"unicode"
)

type tokenType int

const (
	tokIdent tokenType = iota
	tokNumber
	tokString
	tokPunct
)

func (t tokenType) String() string {
	switch t {
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokPunct:
		return "punctuation"
	}
	return "unknown"
}

type token struct {
	Value string
	Type  tokenType
	Line  int
}

func (t token) is(punct string) bool {
	return t.Type == tokPunct && t.Value == punct
}

// tokenize splits script text into tokens. Comments run from '#' to the end
// of the line. Unterminated strings run to the end of input.
func tokenize(input string) []token {
	var tokens []token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		if r == '#' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
			continue
		}

		if r == '"' || r == '\'' {
			quote := r
			start := line
			var buf []rune
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					switch runes[i] {
					case 'n':
						buf = append(buf, '\n')
					case 't':
						buf = append(buf, '\t')
					default:
						buf = append(buf, runes[i])
					}
					i++
					continue
				}
				if runes[i] == '\n' {
					line++
				}
				buf = append(buf, runes[i])
				i++
			}
			tokens = append(tokens, token{string(buf), tokString, start})
			continue
		}

		if unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) ||
			(r == '-' && i+1 < len(runes) && (unicode.IsDigit(runes[i+1]) || runes[i+1] == '.')) {
			start := i
			if r == '-' {
				i++
			}
			for i < len(runes) {
				c := runes[i]
				if unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' ||
					((c == '-' || c == '+') && (runes[i-1] == 'e' || runes[i-1] == 'E')) {
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, token{string(runes[start:i]), tokNumber, line})
			i--
			continue
		}

		if unicode.IsLetter(r) || r == '_' {
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{string(runes[start:i]), tokIdent, line})
			i--
			continue
		}

		tokens = append(tokens, token{string(r), tokPunct, line})
	}

	return tokens
}
