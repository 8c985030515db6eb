package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlight renders git show or diff output with the chroma style name.
// Without colour the text is returned unchanged.
func Highlight(text, styleName string, color bool) (string, error) {
	if !color || text == "" {
		return text, nil
	}

	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var b strings.Builder
	if err := formatter.Format(&b, style, iterator); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return b.String(), nil
}

// Show prints git show output, highlighted when writing to a terminal.
func (p *Printer) Show(lines []string) error {
	text := strings.Join(lines, "\n")
	out, err := Highlight(text, p.theme.Chroma, p.color)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, out)
	return err
}
