package session

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type cell struct {
	r       rune
	width   int
	isSpace bool
}

func cellsOf(s string) []cell {
	out := make([]cell, 0, len(s))
	for _, r := range s {
		out = append(out, cell{r: r, width: runewidth.RuneWidth(r), isSpace: r == ' '})
	}
	return out
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteRune(c.r)
	}
	return b.String()
}

// wrapText breaks s on spaces so no line is wider than width columns. Words
// longer than width are split mid-word. A width of zero or less disables
// wrapping.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	cells := cellsOf(s)
	var out strings.Builder
	line := make([]cell, 0, len(cells))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(cells); {
		item := cells[i]
		if item.r == '\n' {
			out.WriteString(renderCells(line))
			out.WriteRune('\n')
			line = line[:0]
			lineWidth = 0
			lastSpace = -1
			i++
			continue
		}
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderCells(line[:lastSpace]))
				out.WriteRune('\n')
				line = append([]cell{}, line[lastSpace+1:]...)
				lineWidth = widthOf(line)
				lastSpace = lastSpaceIndex(line)
			} else {
				out.WriteString(renderCells(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpace = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderCells(line))
	return out.String()
}

func widthOf(line []cell) int {
	total := 0
	for _, c := range line {
		total += c.width
	}
	return total
}

func lastSpaceIndex(line []cell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
