package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <skrubbenpriser currency="SEK">
//     <item n="1">
//       <name>COCA-COLA 33CL</name>
//       <price>9</price>
//     </item>
//   </skrubbenpriser>
//
// Items are numbered from 1 in receipt order.

type xmlReport struct {
	XMLName  xml.Name  `xml:"skrubbenpriser"`
	Currency string    `xml:"currency,attr"`
	Items    []xmlItem `xml:"item"`
}

type xmlItem struct {
	N     int    `xml:"n,attr"`
	Name  string `xml:"name"`
	Price int64  `xml:"price"`
}

// XMLWriter renders the report as an XML document.
type XMLWriter struct {
	// Indent is the indentation per level. Default: two spaces.
	Indent string

	// OmitDeclaration drops the <?xml ...?> header.
	OmitDeclaration bool
}

// Write implements Writer.
func (x *XMLWriter) Write(w io.Writer, items []receipt.PricedItem) error {
	doc := xmlReport{Currency: "SEK", Items: make([]xmlItem, 0, len(items))}
	for i, item := range items {
		doc.Items = append(doc.Items, xmlItem{N: i + 1, Name: item.Name, Price: item.UnitPrice})
	}

	if !x.OmitDeclaration {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}

	indent := x.Indent
	if indent == "" {
		indent = "  "
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
