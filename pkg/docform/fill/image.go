package fill

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/ooxml"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	emuPerInch   = 914400
	twipsPerInch = 1440
	// cellWidthMargin keeps inserted images slightly narrower than
	// their cell so borders stay visible.
	cellWidthMargin = 0.9
)

// replaceImage removes the placeholder text and appends an inline
// picture run at the end of the paragraph.
func (e *Engine) replaceImage(doc *docx.Document, p *ooxml.Paragraph, ctx *cellContext, full, imgPath string) error {
	inlineReplace(p, full, "")

	data, err := afero.ReadFile(e.fsys, imgPath)
	if err != nil {
		return fmt.Errorf("reading image %s: %w", imgPath, err)
	}
	ext := strings.TrimPrefix(filepath.Ext(imgPath), ".")
	rid, err := doc.AddImage(data, ext)
	if err != nil {
		return err
	}

	widthIn := e.widthInches(ctx)
	cx := int64(widthIn * emuPerInch)
	cy := imageHeightEMU(data, widthIn)

	e.drawingSeq++
	run := &ooxml.Run{Children: []ooxml.RunChild{&ooxml.RawXML{Content: inlineDrawingXML(rid, e.drawingSeq, cx, cy)}}}
	p.AppendRun(run)
	return nil
}

// widthInches derives the target image width from the enclosing cell,
// then the table grid, falling back to the configured default.
func (e *Engine) widthInches(ctx *cellContext) float64 {
	if ctx != nil {
		if tw := ctx.cell.WidthTwips(); tw > 0 {
			return float64(tw) / twipsPerInch * cellWidthMargin
		}
		if ctx.table.Grid != nil && ctx.colIdx < len(ctx.table.Grid.ColumnWidths) {
			if tw := ctx.table.Grid.ColumnWidths[ctx.colIdx]; tw > 0 {
				return float64(tw) / twipsPerInch * cellWidthMargin
			}
		}
	}
	return e.imageWidth
}

// imageHeightEMU scales the image height to preserve its aspect ratio
// at the requested width. Undecodable payloads get a 4:3 box.
func imageHeightEMU(data []byte, widthIn float64) int64 {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 {
		return int64(widthIn * 0.75 * emuPerInch)
	}
	return int64(widthIn * float64(cfg.Height) / float64(cfg.Width) * emuPerInch)
}

// inlineDrawingXML builds the WordprocessingML drawing markup for an
// inline picture referencing an already-registered image relationship.
func inlineDrawingXML(rid string, seq int, cx, cy int64) []byte {
	var b bytes.Buffer
	name := fmt.Sprintf("Picture %d", seq)
	fmt.Fprintf(&b, `<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`)
	fmt.Fprintf(&b, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	b.WriteString(`<wp:effectExtent l="0" t="0" r="0" b="0"/>`)
	fmt.Fprintf(&b, `<wp:docPr id="%d" name="%s"/>`, seq, name)
	b.WriteString(`<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	b.WriteString(`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`)
	b.WriteString(`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.WriteString(`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, seq, name)
	fmt.Fprintf(&b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, rid)
	fmt.Fprintf(&b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, cx, cy)
	b.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`)
	return b.Bytes()
}
