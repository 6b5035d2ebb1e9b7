// Package extract resolves placeholder values by aligning a template
// document against a structurally parallel target document. Tiers are
// tried in a fixed order until one yields a value: paragraph lock-step,
// table lock-step (with date-range and header-label special cases),
// and adjacent cells. Image placeholders route to relationship-based
// media extraction instead of text alignment.
package extract

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/logging"
	"github.com/wenlake/docform/pkg/docform/ooxml"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

// Diagnostic values recorded when image extraction cannot produce a path.
const (
	imageNotFoundValue = "未能提取到图片"
	imageErrorPrefix   = "图片提取错误: "
)

// Engine extracts placeholder values from one target document at a time.
type Engine struct {
	fsys     afero.Fs
	registry *placeholder.Registry
	log      *logging.Logger
}

func NewEngine(fsys afero.Fs, registry *placeholder.Registry, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{fsys: fsys, registry: registry, log: log}
}

// session is the per-target state: the value map built so far (image
// naming reads already-extracted text fields) and the target's path
// (image extraction reopens the container).
type session struct {
	docPath string
	values  map[string]string
}

// DetectPlaceholders returns the deduplicated placeholder names found
// in the template's paragraphs and table cells.
func (e *Engine) DetectPlaceholders(tmpl *docx.Document) []string {
	var sb strings.Builder
	for _, p := range tmpl.Paragraphs() {
		sb.WriteString(p.Text())
		sb.WriteString("\n")
	}
	for _, t := range tmpl.Tables() {
		for ri := range t.Rows {
			for ci := range t.Rows[ri].Cells {
				sb.WriteString(t.Rows[ri].Cells[ci].Text())
				sb.WriteString("\n")
			}
		}
	}
	return e.registry.ExtractNames(sb.String())
}

// Extract opens the target document and resolves a value per template
// placeholder. Names that resolve to nothing are absent from the map.
func (e *Engine) Extract(tmpl *docx.Document, targetPath string) (map[string]string, error) {
	target, err := docx.Open(e.fsys, targetPath)
	if err != nil {
		return nil, err
	}

	names := e.DetectPlaceholders(tmpl)
	if len(names) == 0 {
		e.log.Warn("模板中未找到任何占位符")
		return map[string]string{}, nil
	}

	sess := &session{docPath: targetPath, values: make(map[string]string)}

	// Text fields resolve first so their values are available for
	// naming extracted image files.
	var textNames, imageNames []string
	for _, name := range names {
		if strings.Contains(name, placeholder.ImagePrefix) {
			imageNames = append(imageNames, name)
		} else {
			textNames = append(textNames, name)
		}
	}

	for _, group := range [][]string{textNames, imageNames} {
		for _, name := range group {
			value := e.paragraphTier(sess, tmpl, target, name)
			if value == "" {
				value = e.tableTier(sess, tmpl, target, name)
			}
			if value != "" {
				sess.values[name] = value
			}
		}
	}

	e.log.WithField("file", targetPath).Info("提取到%d个字段", len(sess.values))
	return sess.values, nil
}

// paragraphTier walks template and target paragraphs in lock-step; the
// shorter sequence bounds the walk.
func (e *Engine) paragraphTier(sess *session, tmpl, target *docx.Document, name string) string {
	tParas := tmpl.Paragraphs()
	dParas := target.Paragraphs()
	n := len(tParas)
	if len(dParas) < n {
		n = len(dParas)
	}
	for i := 0; i < n; i++ {
		tText := tParas[i].Text()
		if !e.registry.HasPlaceholder(tText, name) {
			continue
		}
		if value := e.valueFor(sess, name, tText, dParas[i].Text()); value != "" {
			return value
		}
	}
	return ""
}

type dateColumns struct {
	start int
	end   int
}

// tableTier walks template tables against target tables by index. A
// row holding both date fields gets range splitting before the general
// per-cell rule; header-label and adjacent-cell lookups run last.
func (e *Engine) tableTier(sess *session, tmpl, target *docx.Document, name string) string {
	tTables := tmpl.Tables()
	dTables := target.Tables()

	for ti, tTable := range tTables {
		if ti >= len(dTables) {
			break
		}
		dTable := dTables[ti]

		dateRows := scanDateRows(e.registry, tTable, dTable)

		for ri := range tTable.Rows {
			if ri >= len(dTable.Rows) {
				break
			}
			dRow := &dTable.Rows[ri]

			if cols, ok := dateRows[ri]; ok && IsDateField(name) {
				if value := dateRangeCell(name, cols, dRow); value != "" {
					return value
				}
			}

			for ci := range tTable.Rows[ri].Cells {
				if ci >= len(dRow.Cells) {
					break
				}
				tText := tTable.Rows[ri].Cells[ci].Text()
				if !e.registry.HasPlaceholder(tText, name) {
					continue
				}
				if value := e.valueFor(sess, name, tText, dRow.Cells[ci].Text()); value != "" {
					return value
				}
			}
		}
	}

	if value := e.headerLabelTier(tmpl, target, name); value != "" {
		return value
	}
	return e.adjacentCellTier(tTables, dTables, name)
}

// scanDateRows records, per template row, the columns holding the start
// and end date placeholders when both occur in the same row.
func scanDateRows(registry *placeholder.Registry, tTable, dTable *ooxml.Table) map[int]dateColumns {
	out := make(map[int]dateColumns)
	for ri := range tTable.Rows {
		if ri >= len(dTable.Rows) {
			break
		}
		startCol, endCol := -1, -1
		for ci := range tTable.Rows[ri].Cells {
			if ci >= len(dTable.Rows[ri].Cells) {
				break
			}
			for _, occ := range registry.FindAll(tTable.Rows[ri].Cells[ci].Text()) {
				switch occ.Name {
				case StartDateField:
					startCol = ci
				case EndDateField:
					endCol = ci
				}
			}
		}
		if startCol >= 0 && endCol >= 0 {
			out[ri] = dateColumns{start: startCol, end: endCol}
		}
	}
	return out
}

// dateRangeCell splits a "start 至 end" cell, or accepts a bare date
// when no range separator is present.
func dateRangeCell(name string, cols dateColumns, dRow *ooxml.TableRow) string {
	col := cols.start
	if name == EndDateField {
		col = cols.end
	}
	if col < 0 || col >= len(dRow.Cells) {
		return ""
	}
	text := strings.TrimSpace(dRow.Cells[col].Text())
	if m := cjkDateRangePattern.FindStringSubmatch(text); m != nil {
		if name == StartDateField {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	if text != "" && !strings.Contains(text, "至") && !strings.Contains(text, "到") {
		return text
	}
	return ""
}

// headerLabelTier handles tables where the placeholder sits in a header
// cell: the first placeholder-free template cell below it becomes a row
// label, and the value is the cell to the right of that label in the
// target table.
func (e *Engine) headerLabelTier(tmpl, target *docx.Document, name string) string {
	tTables := tmpl.Tables()
	dTables := target.Tables()

	for ti, tTable := range tTables {
		if ti >= len(dTables) {
			break
		}
		dTable := dTables[ti]

		headerRow, headerCol := -1, -1
		for ri := range tTable.Rows {
			for ci := range tTable.Rows[ri].Cells {
				if e.registry.HasPlaceholder(tTable.Rows[ri].Cells[ci].Text(), name) {
					headerRow, headerCol = ri, ci
					break
				}
			}
			if headerRow >= 0 {
				break
			}
		}
		if headerRow < 0 {
			continue
		}

		label := ""
		for ri := headerRow + 1; ri < len(tTable.Rows); ri++ {
			if ri >= len(dTable.Rows) || headerCol >= len(tTable.Rows[ri].Cells) {
				continue
			}
			text := tTable.Rows[ri].Cells[headerCol].Text()
			if text != "" && !e.registry.Detect(text) {
				label = text
				break
			}
		}
		if label == "" {
			continue
		}

		for ri := range dTable.Rows {
			cells := dTable.Rows[ri].Cells
			for ci := range cells {
				if cells[ci].Text() == label && ci+1 < len(cells) {
					return strings.TrimSpace(cells[ci+1].Text())
				}
			}
		}
	}
	return ""
}

// adjacentCellTier handles a template cell whose whole text is the bare
// placeholder name: the value is the next cell of the target row.
func (e *Engine) adjacentCellTier(tTables, dTables []*ooxml.Table, name string) string {
	for ti, tTable := range tTables {
		if ti >= len(dTables) {
			break
		}
		dTable := dTables[ti]

		for ri := range tTable.Rows {
			if ri >= len(dTable.Rows) {
				break
			}
			dRow := &dTable.Rows[ri]
			for ci := range tTable.Rows[ri].Cells {
				if ci >= len(dRow.Cells)-1 {
					break
				}
				if strings.TrimSpace(tTable.Rows[ri].Cells[ci].Text()) == name {
					return strings.TrimSpace(dRow.Cells[ci+1].Text())
				}
			}
		}
	}
	return ""
}

// valueFor resolves one placeholder against aligned template/target
// texts. Image names route to media extraction with diagnostic values
// on failure; date names try the date cascade before the positional
// rule.
func (e *Engine) valueFor(sess *session, name, templateText, targetText string) string {
	if strings.Contains(name, placeholder.ImagePrefix) {
		path, err := e.extractImage(sess, name)
		if err != nil {
			e.log.Error("提取图片时出错: %v", err)
			return imageErrorPrefix + err.Error()
		}
		if path == "" {
			e.log.Warn("未能提取到图片: %s", name)
			return imageNotFoundValue
		}
		e.log.Info("成功提取图片: %s", path)
		return path
	}

	if IsDateField(name) {
		if value := extractDate(name, targetText); value != "" {
			return value
		}
	}

	full := e.fullSpan(templateText, name)
	if full == "" {
		return ""
	}
	return positionalValue(full, templateText, targetText)
}

// fullSpan returns the complete matched span for the named placeholder
// within the template text.
func (e *Engine) fullSpan(templateText, name string) string {
	for _, occ := range e.registry.FindAll(templateText) {
		if occ.Name == name {
			return occ.Full
		}
	}
	return ""
}
