package ooxml

import (
	"bytes"
	"fmt"
	"io"

	"encoding/xml"
)

// HeaderFooter models a word/headerN.xml or word/footerN.xml part.
// The root element is w:hdr or w:ftr; the content is the same
// paragraph/table mix as the document body.
type HeaderFooter struct {
	RootLocal string // "hdr" or "ftr"
	RootAttrs []xml.Attr
	Elements  []BodyElement
}

// Paragraphs returns every paragraph in the part, including those
// nested in table cells.
func (hf *HeaderFooter) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range hf.Elements {
		switch e := el.(type) {
		case *Paragraph:
			out = append(out, e)
		case *Table:
			for ri := range e.Rows {
				for ci := range e.Rows[ri].Cells {
					out = append(out, e.Rows[ri].Cells[ci].Paragraphs...)
				}
			}
		}
	}
	return out
}

// Tables returns the top-level tables in the part.
func (hf *HeaderFooter) Tables() []*Table {
	var out []*Table
	for _, el := range hf.Elements {
		if t, ok := el.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// ParseHeaderFooter parses a header or footer part.
func ParseHeaderFooter(r io.Reader) (*HeaderFooter, error) {
	d := xml.NewDecoder(r)
	var hf HeaderFooter
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse header/footer: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "hdr", "ftr":
			hf.RootLocal = start.Name.Local
			hf.RootAttrs = start.Attr
			body, err := parseBody(d, start.Name.Local)
			if err != nil {
				return nil, err
			}
			hf.Elements = body.Elements
			if body.SectPr != nil {
				hf.Elements = append(hf.Elements, body.SectPr)
			}
		default:
			if err := d.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if hf.RootLocal == "" {
		return nil, fmt.Errorf("parse header/footer: no hdr or ftr root element")
	}
	return &hf, nil
}

// MarshalHeaderFooter serializes the part back to XML.
func MarshalHeaderFooter(hf *HeaderFooter) ([]byte, error) {
	if hf == nil || hf.RootLocal == "" {
		return nil, fmt.Errorf("marshal header/footer: nil part")
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	buf.WriteString("<w:" + hf.RootLocal)
	for _, attr := range hf.RootAttrs {
		buf.WriteString(" ")
		buf.WriteString(qualifiedName(attr.Name))
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(attr.Value))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
	for _, el := range hf.Elements {
		marshalBodyElement(&buf, el)
	}
	buf.WriteString("</w:" + hf.RootLocal + ">")
	return buf.Bytes(), nil
}
