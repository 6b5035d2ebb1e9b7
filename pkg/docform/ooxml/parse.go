package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ParseDocument parses a word/document.xml stream.
func ParseDocument(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	var doc Document
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "document":
			doc.RootAttrs = start.Attr
		case "body":
			body, err := parseBody(d, "body")
			if err != nil {
				return nil, err
			}
			doc.Body = body
		default:
			if err := d.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("parse document: no body element")
	}
	return &doc, nil
}

// parseBody reads paragraphs and tables until the named end element.
func parseBody(d *xml.Decoder, endLocal string) (*Body, error) {
	body := &Body{}
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return body, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, para)
			case "tbl":
				table, err := parseTable(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, table)
			case "sectPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				body.SectPr = &raw
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				body.Elements = append(body.Elements, &raw)
			}
		case xml.EndElement:
			if t.Name.Local == endLocal {
				return body, nil
			}
		}
	}
}

func parseParagraph(d *xml.Decoder, start xml.StartElement) (*Paragraph, error) {
	p := &Paragraph{Attrs: start.Attr}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				p.Properties = &raw
			case "r":
				run, err := parseRun(d, t)
				if err != nil {
					return nil, err
				}
				p.Children = append(p.Children, run)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				p.Children = append(p.Children, &raw)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return p, nil
			}
		}
	}
}

func parseRun(d *xml.Decoder, start xml.StartElement) (*Run, error) {
	r := &Run{Attrs: start.Attr}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				r.Properties = &raw
			case "t":
				text := &Text{}
				for _, attr := range t.Attr {
					if attr.Name.Local == "space" {
						text.Space = attr.Value
					}
				}
				var content string
				if err := d.DecodeElement(&content, &t); err != nil {
					return nil, err
				}
				text.Content = content
				r.Children = append(r.Children, text)
			case "br":
				br := &Break{}
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" {
						br.Type = attr.Value
					}
				}
				if err := d.Skip(); err != nil {
					return nil, err
				}
				r.Children = append(r.Children, br)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				r.Children = append(r.Children, &raw)
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return r, nil
			}
		}
	}
}

func parseTable(d *xml.Decoder, _ xml.StartElement) (*Table, error) {
	tbl := &Table{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Properties = &raw
			case "tblGrid":
				grid, err := parseGrid(d)
				if err != nil {
					return nil, err
				}
				tbl.Grid = grid
			case "tr":
				row, err := parseRow(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Rows = append(tbl.Rows, *row)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				tbl.Extras = append(tbl.Extras, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return tbl, nil
			}
		}
	}
}

func parseGrid(d *xml.Decoder) (*TableGrid, error) {
	grid := &TableGrid{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "gridCol" {
				width := 0
				for _, attr := range t.Attr {
					if attr.Name.Local == "w" {
						fmt.Sscanf(attr.Value, "%d", &width)
					}
				}
				grid.ColumnWidths = append(grid.ColumnWidths, width)
			}
			if err := d.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "tblGrid" {
				return grid, nil
			}
		}
	}
}

func parseRow(d *xml.Decoder, _ xml.StartElement) (*TableRow, error) {
	row := &TableRow{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				row.Properties = &raw
			case "tc":
				cell, err := parseCell(d, t)
				if err != nil {
					return nil, err
				}
				row.Cells = append(row.Cells, *cell)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, nil
			}
		}
	}
}

func parseCell(d *xml.Decoder, _ xml.StartElement) (*TableCell, error) {
	cell := &TableCell{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				cell.Properties = &raw
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, err
				}
				cell.Paragraphs = append(cell.Paragraphs, para)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return nil, err
				}
				cell.Extras = append(cell.Extras, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return cell, nil
			}
		}
	}
}

// captureRaw serializes an element and all its content verbatim,
// converting namespace URIs back to conventional prefixes. The returned
// content includes the element's own opening and closing tags.
func captureRaw(d *xml.Decoder, start xml.StartElement) (RawXML, error) {
	var buf strings.Builder
	writeOpenTag(&buf, start)
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return RawXML{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			writeOpenTag(&buf, t)
		case xml.EndElement:
			depth--
			buf.WriteString("</")
			buf.WriteString(qualifiedName(t.Name))
			buf.WriteString(">")
		case xml.CharData:
			buf.WriteString(escapeText(string(t)))
		}
	}
	return RawXML{Content: []byte(buf.String())}, nil
}

func writeOpenTag(buf *strings.Builder, t xml.StartElement) {
	buf.WriteString("<")
	buf.WriteString(qualifiedName(t.Name))
	for _, attr := range t.Attr {
		buf.WriteString(" ")
		buf.WriteString(qualifiedName(attr.Name))
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(attr.Value))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
}

// standardNamespaces declares the namespaces our serializer emits, used
// when re-parsing standalone element fragments.
const standardNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
	` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"` +
	` xmlns:v="urn:schemas-microsoft-com:vml"` +
	` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"` +
	` xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml"` +
	` xmlns:wp14="http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing"`

// CloneBodyElement deep-copies a body element by serializing it and
// parsing it back, so the copy shares nothing with the source.
func CloneBodyElement(el BodyElement) (BodyElement, error) {
	var buf bytes.Buffer
	buf.WriteString(`<w:document ` + standardNamespaces + `><w:body>`)
	marshalBodyElement(&buf, el)
	buf.WriteString(`</w:body></w:document>`)
	doc, err := ParseDocument(&buf)
	if err != nil {
		return nil, fmt.Errorf("clone element: %w", err)
	}
	if len(doc.Body.Elements) != 1 {
		return nil, fmt.Errorf("clone element: got %d elements", len(doc.Body.Elements))
	}
	return doc.Body.Elements[0], nil
}
