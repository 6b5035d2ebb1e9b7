package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// MarshalDocument serializes the document back to WordprocessingML,
// keeping the original root attributes so namespace declarations
// survive the round trip.
func MarshalDocument(doc *Document) ([]byte, error) {
	if doc == nil || doc.Body == nil {
		return nil, fmt.Errorf("marshal document: nil document")
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	buf.WriteString("<w:document")
	writeAttrs(&buf, doc.RootAttrs)
	buf.WriteString("><w:body>")
	for _, el := range doc.Body.Elements {
		marshalBodyElement(&buf, el)
	}
	if doc.Body.SectPr != nil {
		buf.Write(doc.Body.SectPr.Content)
	}
	buf.WriteString("</w:body></w:document>")
	return buf.Bytes(), nil
}

// MarshalBodyElement serializes a single paragraph, table, or raw
// element without the surrounding document envelope.
func MarshalBodyElement(el BodyElement) []byte {
	var buf bytes.Buffer
	marshalBodyElement(&buf, el)
	return buf.Bytes()
}

func marshalBodyElement(buf *bytes.Buffer, el BodyElement) {
	switch e := el.(type) {
	case *Paragraph:
		marshalParagraph(buf, e)
	case *Table:
		marshalTable(buf, e)
	case *RawXML:
		buf.Write(e.Content)
	}
}

func writeAttrs(buf *bytes.Buffer, attrs []xml.Attr) {
	for _, attr := range attrs {
		buf.WriteString(" ")
		buf.WriteString(qualifiedName(attr.Name))
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(attr.Value))
		buf.WriteString(`"`)
	}
}

func marshalParagraph(buf *bytes.Buffer, p *Paragraph) {
	buf.WriteString("<w:p")
	writeAttrs(buf, p.Attrs)
	buf.WriteString(">")
	if p.Properties != nil {
		buf.Write(p.Properties.Content)
	}
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			marshalRun(buf, c)
		case *RawXML:
			buf.Write(c.Content)
		}
	}
	buf.WriteString("</w:p>")
}

func marshalRun(buf *bytes.Buffer, r *Run) {
	buf.WriteString("<w:r")
	writeAttrs(buf, r.Attrs)
	buf.WriteString(">")
	if r.Properties != nil {
		buf.Write(r.Properties.Content)
	}
	for _, child := range r.Children {
		switch c := child.(type) {
		case *Text:
			if c.Space != "" {
				fmt.Fprintf(buf, `<w:t xml:space="%s">`, escapeAttr(c.Space))
			} else {
				buf.WriteString("<w:t>")
			}
			buf.WriteString(escapeText(c.Content))
			buf.WriteString("</w:t>")
		case *Break:
			if c.Type != "" {
				fmt.Fprintf(buf, `<w:br w:type="%s"/>`, escapeAttr(c.Type))
			} else {
				buf.WriteString("<w:br/>")
			}
		case *RawXML:
			buf.Write(c.Content)
		}
	}
	buf.WriteString("</w:r>")
}

func marshalTable(buf *bytes.Buffer, t *Table) {
	buf.WriteString("<w:tbl>")
	if t.Properties != nil {
		buf.Write(t.Properties.Content)
	}
	if t.Grid != nil {
		buf.WriteString("<w:tblGrid>")
		for _, w := range t.Grid.ColumnWidths {
			fmt.Fprintf(buf, `<w:gridCol w:w="%d"/>`, w)
		}
		buf.WriteString("</w:tblGrid>")
	}
	for i := range t.Rows {
		marshalRow(buf, &t.Rows[i])
	}
	for _, extra := range t.Extras {
		buf.Write(extra.Content)
	}
	buf.WriteString("</w:tbl>")
}

func marshalRow(buf *bytes.Buffer, row *TableRow) {
	buf.WriteString("<w:tr>")
	if row.Properties != nil {
		buf.Write(row.Properties.Content)
	}
	for i := range row.Cells {
		marshalCell(buf, &row.Cells[i])
	}
	buf.WriteString("</w:tr>")
}

func marshalCell(buf *bytes.Buffer, cell *TableCell) {
	buf.WriteString("<w:tc>")
	if cell.Properties != nil {
		buf.Write(cell.Properties.Content)
	}
	for _, p := range cell.Paragraphs {
		marshalParagraph(buf, p)
	}
	for _, extra := range cell.Extras {
		buf.Write(extra.Content)
	}
	buf.WriteString("</w:tc>")
}
