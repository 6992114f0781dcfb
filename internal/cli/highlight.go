package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// writeHighlighted writes content to w, syntax highlighted with the lexer
// for language when w is a color-capable terminal.
func writeHighlighted(w io.Writer, content, language string) error {
	formatter := terminalFormatter(w)
	if formatter == nil {
		_, err := io.WriteString(w, content)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, content)
	if err != nil {
		return fmt.Errorf("lexer tokenize: %w", err)
	}

	err = formatter.Format(w, highlightStyle(w), iterator)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	return nil
}

func terminalFormatter(w io.Writer) chroma.Formatter {
	if !isTerminal(w) {
		return nil
	}

	switch termenv.NewOutput(w).ColorProfile() {
	case termenv.TrueColor:
		return formatters.Get("terminal16m")
	case termenv.ANSI256:
		return formatters.Get("terminal256")
	case termenv.ANSI:
		return formatters.Get("terminal8")
	case termenv.Ascii:
		return nil
	}

	return nil
}

func highlightStyle(w io.Writer) *chroma.Style {
	if termenv.NewOutput(w).HasDarkBackground() {
		return styles.Get("github-dark")
	}

	return styles.Get("github")
}

func isTerminalFd(fd uintptr) bool {
	return term.IsTerminal(int(fd)) //nolint:gosec // File descriptors fit in an int.
}
