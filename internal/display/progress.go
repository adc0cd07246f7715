package display

import (
	"fmt"
	"io"
)

// PassIndicator prints one header line per search pass: [N/Total] root
type PassIndicator struct {
	writer  io.Writer
	total   int
	current int
	colored bool
}

// NewPassIndicator creates a new pass indicator
func NewPassIndicator(w io.Writer, total int, colored bool) *PassIndicator {
	return &PassIndicator{
		writer:  w,
		total:   total,
		colored: colored,
	}
}

// Step displays the header for the next pass (cyan)
func (p *PassIndicator) Step(root string, results int) {
	p.current++
	line := fmt.Sprintf("[%d/%d] %s: %d %s", p.current, p.total, root, results, plural(results, "result", "results"))
	fmt.Fprintln(p.writer, paint(p.colored, cyan, line))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
