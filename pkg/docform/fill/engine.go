package fill

import (
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/logging"
	"github.com/wenlake/docform/pkg/docform/ooxml"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

// DefaultImageWidthInches is used when an image placeholder sits
// outside any table cell and no better width is known.
const DefaultImageWidthInches = 4.0

// Row maps placeholder names to their fill values. Image placeholders
// keep their prefix in the key ("img:照片") and carry file paths.
type Row map[string]string

// Engine fills placeholders in a document from row data.
type Engine struct {
	fsys       afero.Fs
	registry   *placeholder.Registry
	log        *logging.Logger
	imageWidth float64 // fallback width in inches
	drawingSeq int
}

// NewEngine builds a fill engine. A zero imageWidth selects
// DefaultImageWidthInches.
func NewEngine(fsys afero.Fs, registry *placeholder.Registry, log *logging.Logger, imageWidth float64) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	if registry == nil {
		registry = placeholder.NewRegistry(log)
	}
	if imageWidth <= 0 {
		imageWidth = DefaultImageWidthInches
	}
	return &Engine{fsys: fsys, registry: registry, log: log, imageWidth: imageWidth}
}

// cellContext carries the table geometry an image needs to size itself
// when its placeholder lives inside a cell.
type cellContext struct {
	cell   *ooxml.TableCell
	table  *ooxml.Table
	colIdx int
}

// FillDocument replaces every placeholder in the document body, its
// tables, and its headers and footers with values from row.
func (e *Engine) FillDocument(doc *docx.Document, row Row) error {
	for _, p := range doc.Paragraphs() {
		e.fillParagraph(doc, p, nil, true, row)
	}
	for _, tbl := range doc.Tables() {
		e.fillTable(doc, tbl, row)
	}
	for _, hf := range doc.Headers() {
		e.fillHeaderFooter(doc, hf, row)
	}
	for _, hf := range doc.Footers() {
		e.fillHeaderFooter(doc, hf, row)
	}
	return nil
}

func (e *Engine) fillTable(doc *docx.Document, tbl *ooxml.Table, row Row) {
	for ri := range tbl.Rows {
		for ci := range tbl.Rows[ri].Cells {
			cell := &tbl.Rows[ri].Cells[ci]
			ctx := &cellContext{cell: cell, table: tbl, colIdx: ci}
			for _, p := range cell.Paragraphs {
				e.fillParagraph(doc, p, ctx, true, row)
			}
		}
	}
}

// fillHeaderFooter replaces text placeholders only. Header and footer
// parts carry their own relationship files, so inserted pictures would
// not resolve there.
func (e *Engine) fillHeaderFooter(doc *docx.Document, hf *ooxml.HeaderFooter, row Row) {
	for _, p := range hf.Paragraphs() {
		e.fillParagraph(doc, p, nil, false, row)
	}
}

// fillParagraph handles every placeholder occurrence in one paragraph.
// Occurrences are processed right to left so earlier replacements do
// not shift the positions of the ones still pending.
func (e *Engine) fillParagraph(doc *docx.Document, p *ooxml.Paragraph, ctx *cellContext, allowImages bool, row Row) {
	text := p.Text()
	if text == "" {
		return
	}
	occs := e.registry.FindAll(text)
	if len(occs) == 0 {
		return
	}
	occs = dedupeOccurrences(occs)
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].Start > occs[j].Start })

	for _, occ := range occs {
		if placeholder.IsImageName(occ.Name) {
			e.fillImage(doc, p, ctx, occ, allowImages, row)
			continue
		}
		value, ok := row[occ.Name]
		if !ok {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		inlineReplace(p, occ.Full, value)
	}
}

func (e *Engine) fillImage(doc *docx.Document, p *ooxml.Paragraph, ctx *cellContext, occ placeholder.Occurrence, allowInsert bool, row Row) {
	imgPath := strings.TrimSpace(row[occ.Name])
	exists := false
	if imgPath != "" {
		exists, _ = afero.Exists(e.fsys, imgPath)
	}
	if !exists {
		e.log.Warn("图片文件不存在: %s", imgPath)
		inlineReplace(p, occ.Full, "[图片丢失: "+imgPath+"]")
		return
	}
	if !allowInsert {
		// Header/footer parts cannot take a picture inserted through
		// the document part's relationships; treat it like an
		// insertion failure: placeholder removed, no image.
		e.log.Warn("页眉页脚不支持插入图片, 已清除占位符: %s", occ.Full)
		inlineReplace(p, occ.Full, "")
		return
	}
	if err := e.replaceImage(doc, p, ctx, occ.Full, imgPath); err != nil {
		// A failed insert should not sink the rest of the fill.
		e.log.Error("插入图片失败 %s: %v", imgPath, err)
	}
}

// dedupeOccurrences drops occurrences that cover the same span, which
// happens when the image syntax also matches the standard double-brace
// syntax.
func dedupeOccurrences(occs []placeholder.Occurrence) []placeholder.Occurrence {
	seen := make(map[int]bool, len(occs))
	out := occs[:0]
	for _, o := range occs {
		if seen[o.Start] {
			continue
		}
		seen[o.Start] = true
		out = append(out, o)
	}
	return out
}
