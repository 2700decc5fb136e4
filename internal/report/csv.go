package report

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// csvRow is the CSV shape of a priced item. gocsv writes the tags as the
// header row.
type csvRow struct {
	Name      string `csv:"Varunamn"`
	UnitPrice int64  `csv:"Pris inkl. moms & pant (SEK)"`
}

// CSVWriter renders the report as comma-separated values.
type CSVWriter struct{}

// Write implements Writer.
func (c *CSVWriter) Write(w io.Writer, items []receipt.PricedItem) error {
	rows := make([]*csvRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, &csvRow{Name: item.Name, UnitPrice: item.UnitPrice})
	}
	return gocsv.Marshal(&rows, w)
}
