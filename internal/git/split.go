package git

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote is returned by SplitArgs for an unbalanced quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs tokenizes a command string on whitespace. Single or double
// quoted sections keep their spaces and may be glued to neighbouring text;
// a backslash escapes the quote character inside them. Shell operators such
// as | ; & < > are ordinary characters.
func SplitArgs(command string) ([]string, error) {
	args := []string{}
	var cur strings.Builder
	inWord := false
	var quote rune

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(runes) && runes[i+1] == quote {
				cur.WriteRune(quote)
				i++
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			cur.WriteRune(c)
		case c == '\'' || c == '"':
			quote = c
			inWord = true
		case unicode.IsSpace(c):
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(c)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("%w in %q", ErrUnterminatedQuote, command)
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
