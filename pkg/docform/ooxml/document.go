package ooxml

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

// Document represents a parsed word/document.xml.
type Document struct {
	// RootAttrs preserves the root element attributes (namespace
	// declarations, mc:Ignorable) so the serialized document keeps the
	// namespace universe of its source.
	RootAttrs []xml.Attr
	Body      *Body
}

// Body holds the ordered top-level elements plus the trailing section
// properties, which Word requires at the end of the body.
type Body struct {
	Elements []BodyElement
	SectPr   *RawXML
}

// Paragraph represents a w:p element. Children keeps runs and unparsed
// elements (hyperlinks, bookmarks) in document order. Attrs preserves
// the element's own attributes (revision ids and the like).
type Paragraph struct {
	Attrs      []xml.Attr
	Properties *RawXML // w:pPr, preserved verbatim
	Children   []ParagraphChild
}

func (p *Paragraph) isBodyElement() {}

// Runs returns the paragraph's runs in document order.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, c := range p.Children {
		if r, ok := c.(*Run); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

// AppendRun adds a run at the end of the paragraph.
func (p *Paragraph) AppendRun(r *Run) {
	p.Children = append(p.Children, r)
}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs() {
		b.WriteString(r.GetText())
	}
	return b.String()
}

// RunChild is any element that can appear inside a run.
type RunChild interface {
	isRunChild()
}

// Run represents a w:r element. Children keeps text, breaks, and
// unparsed content (drawings, tabs) in document order; a run may hold
// several w:t elements and they must serialize where they were read.
type Run struct {
	Attrs      []xml.Attr
	Properties *RawXML // w:rPr, preserved verbatim
	Children   []RunChild
}

func (r *Run) isParagraphChild() {}

// Texts returns the run's text children in document order.
func (r *Run) Texts() []*Text {
	var texts []*Text
	for _, c := range r.Children {
		if t, ok := c.(*Text); ok {
			texts = append(texts, t)
		}
	}
	return texts
}

// RawChildren returns the run's preserved raw elements in order.
func (r *Run) RawChildren() []*RawXML {
	var raws []*RawXML
	for _, c := range r.Children {
		if raw, ok := c.(*RawXML); ok {
			raws = append(raws, raw)
		}
	}
	return raws
}

// GetText returns the run's text content, concatenated across all of
// its text children.
func (r *Run) GetText() string {
	var b strings.Builder
	for _, t := range r.Texts() {
		b.WriteString(t.Content)
	}
	return b.String()
}

// SetText replaces the run's text, collapsing multiple text children
// into one at the position of the first and marking
// whitespace-significant content so Word does not trim it.
func (r *Run) SetText(s string) {
	text := &Text{Content: s}
	if s != strings.TrimSpace(s) {
		text.Space = "preserve"
	}
	children := r.Children[:0]
	placed := false
	for _, c := range r.Children {
		if _, ok := c.(*Text); ok {
			if !placed {
				children = append(children, text)
				placed = true
			}
			continue
		}
		children = append(children, c)
	}
	if !placed {
		children = append(children, text)
	}
	r.Children = children
}

// HasPageBreak reports whether the run carries a page break.
func (r *Run) HasPageBreak() bool {
	for _, c := range r.Children {
		if br, ok := c.(*Break); ok && br.Type == "page" {
			return true
		}
	}
	return false
}

// Text represents a w:t element.
type Text struct {
	Space   string // xml:space attribute
	Content string
}

func (t *Text) isRunChild() {}

// Break represents a w:br element.
type Break struct {
	Type string // "page" for page breaks, empty for line breaks
}

func (b *Break) isRunChild() {}

// Table represents a w:tbl element.
type Table struct {
	Properties *RawXML // w:tblPr, preserved verbatim
	Grid       *TableGrid
	Rows       []TableRow
	// Extras preserves unparsed table-level children.
	Extras []RawXML
}

func (t *Table) isBodyElement() {}

// TableGrid holds the table's column width definitions in twips.
type TableGrid struct {
	ColumnWidths []int
}

// TableRow represents a w:tr element.
type TableRow struct {
	Properties *RawXML // w:trPr
	Cells      []TableCell
}

// TableCell represents a w:tc element. Nested tables and other unparsed
// cell children are preserved in Extras.
type TableCell struct {
	Properties *RawXML // w:tcPr
	Paragraphs []*Paragraph
	Extras     []RawXML
}

// Text returns the cell's paragraph texts joined by newlines.
func (c *TableCell) Text() string {
	var texts []string
	for _, p := range c.Paragraphs {
		if t := p.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

var (
	tcWTagPattern  = regexp.MustCompile(`<w:tcW[^>]*>`)
	tcWidthPattern = regexp.MustCompile(`\sw:w="(\d+)"`)
	tcWTypePattern = regexp.MustCompile(`\sw:type="([^"]*)"`)
)

// WidthTwips reads the cell's declared width from its preserved
// properties. Only absolute widths count: a percent or auto typed tcW
// is not a twip measure. Returns 0 when the cell carries no usable
// width.
func (c *TableCell) WidthTwips() int {
	if c.Properties == nil {
		return 0
	}
	tag := tcWTagPattern.Find(c.Properties.Content)
	if tag == nil {
		return 0
	}
	if m := tcWTypePattern.FindSubmatch(tag); m != nil && string(m[1]) != "dxa" {
		return 0
	}
	m := tcWidthPattern.FindSubmatch(tag)
	if m == nil {
		return 0
	}
	w, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return w
}

// Paragraphs returns every top-level paragraph of the body in order.
func (d *Document) Paragraphs() []*Paragraph {
	if d.Body == nil {
		return nil
	}
	var paras []*Paragraph
	for _, el := range d.Body.Elements {
		if p, ok := el.(*Paragraph); ok {
			paras = append(paras, p)
		}
	}
	return paras
}

// Tables returns every top-level table of the body in order.
func (d *Document) Tables() []*Table {
	if d.Body == nil {
		return nil
	}
	var tables []*Table
	for _, el := range d.Body.Elements {
		if t, ok := el.(*Table); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// AppendElement adds a top-level element to the body, ahead of the
// trailing section properties.
func (d *Document) AppendElement(el BodyElement) {
	if d.Body == nil {
		d.Body = &Body{}
	}
	d.Body.Elements = append(d.Body.Elements, el)
}

// PageBreakParagraph builds a paragraph holding a single page break.
func PageBreakParagraph() *Paragraph {
	p := &Paragraph{}
	p.AppendRun(&Run{Children: []RunChild{&Break{Type: "page"}}})
	return p
}
