package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// TextWriter renders the flat "|"-separated report.
type TextWriter struct {
	NameWidth int
	TrimNames bool
}

// Write implements Writer.
func (t *TextWriter) Write(w io.Writer, items []receipt.PricedItem) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(HeaderLine)

	for _, item := range items {
		bw.WriteString("\n")
		bw.WriteString(t.cell(item.Name))
		bw.WriteString("|   ")
		bw.WriteString(strconv.FormatInt(item.UnitPrice, 10))
	}

	return bw.Flush()
}

// cell pads a name to the configured width. Longer names are kept whole.
func (t *TextWriter) cell(name string) string {
	if t.TrimNames {
		return name
	}
	if n := utf8.RuneCountInString(name); n < t.NameWidth {
		return name + strings.Repeat(" ", t.NameWidth-n)
	}
	return name
}
