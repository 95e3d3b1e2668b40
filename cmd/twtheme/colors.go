package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gnana997/twtheme/pkg/theme"
)

const swatchWidth = 4

// renderPalette draws one row per token with a swatch and hex value for each
// mode. Swatches degrade to blank cells when w is not a color terminal.
func renderPalette(w io.Writer, doc *theme.Document, modes []theme.Mode) (string, error) {
	r := lipgloss.NewRenderer(w)

	nameWidth := len("token")
	for _, tok := range doc.Colors {
		nameWidth = max(nameWidth, len(tok.Name))
	}

	name := r.NewStyle().Width(nameWidth + 2)
	header := r.NewStyle().Bold(true)
	cell := r.NewStyle().Width(swatchWidth + len("#000000") + 3)

	var b strings.Builder
	row := []string{name.Render(header.Render("token"))}
	for _, m := range modes {
		row = append(row, cell.Render(header.Render(string(m))))
	}
	b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, row...), " "))
	b.WriteByte('\n')

	for _, tok := range doc.Colors {
		row = []string{name.Render(tok.Name)}
		for _, m := range modes {
			value, err := doc.ResolveColor(tok.Name, m)
			if err != nil {
				return "", err
			}
			swatch := r.NewStyle().
				Background(lipgloss.Color(value)).
				Render(strings.Repeat(" ", swatchWidth))
			row = append(row, cell.Render(fmt.Sprintf("%s %s", swatch, value)))
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, row...), " "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
