package fill

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/ooxml"
)

// AppendDocument copies the body of source onto the end of target. The
// source's image payloads are registered in target first, and every
// copied drawing is rewritten to reference the new relationship IDs, so
// pictures survive the merge. The caller inserts page breaks.
func (e *Engine) AppendDocument(target, source *docx.Document) error {
	ridMap := make(map[string]string)
	srcRels := source.ImageRelationships()
	for _, oldID := range sortedRelIDs(srcRels) {
		relTarget := srcRels[oldID]
		payload, err := source.MediaPayload(relTarget)
		if err != nil {
			e.log.Warn("合并时跳过缺失的图片 %s: %v", relTarget, err)
			continue
		}
		ext := strings.TrimPrefix(path.Ext(relTarget), ".")
		newID, err := target.AddImage(payload, ext)
		if err != nil {
			return err
		}
		ridMap[oldID] = newID
	}

	for _, el := range source.Body().Body.Elements {
		cloned, err := ooxml.CloneBodyElement(el)
		if err != nil {
			return err
		}
		rewriteEmbeds(cloned, ridMap)
		target.Body().AppendElement(cloned)
	}
	return nil
}

// sortedRelIDs orders relationship IDs numerically so merged media
// keeps a stable naming.
func sortedRelIDs(rels map[string]string) []string {
	ids := make([]string, 0, len(rels))
	for id := range rels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return relIDNumber(ids[i]) < relIDNumber(ids[j])
	})
	return ids
}

func relIDNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "rId"))
	if err != nil {
		return 0
	}
	return n
}

// rewriteEmbeds patches r:embed references in the preserved drawing
// markup of a copied element tree.
func rewriteEmbeds(el ooxml.BodyElement, ridMap map[string]string) {
	if len(ridMap) == 0 {
		return
	}
	switch v := el.(type) {
	case *ooxml.Paragraph:
		rewriteParagraphEmbeds(v, ridMap)
	case *ooxml.Table:
		for ri := range v.Rows {
			for ci := range v.Rows[ri].Cells {
				cell := &v.Rows[ri].Cells[ci]
				for _, p := range cell.Paragraphs {
					rewriteParagraphEmbeds(p, ridMap)
				}
				for i := range cell.Extras {
					cell.Extras[i].Content = rewriteRaw(cell.Extras[i].Content, ridMap)
				}
			}
		}
		for i := range v.Extras {
			v.Extras[i].Content = rewriteRaw(v.Extras[i].Content, ridMap)
		}
	case *ooxml.RawXML:
		v.Content = rewriteRaw(v.Content, ridMap)
	}
}

func rewriteParagraphEmbeds(p *ooxml.Paragraph, ridMap map[string]string) {
	for _, c := range p.Children {
		switch child := c.(type) {
		case *ooxml.Run:
			for _, raw := range child.RawChildren() {
				raw.Content = rewriteRaw(raw.Content, ridMap)
			}
		case *ooxml.RawXML:
			child.Content = rewriteRaw(child.Content, ridMap)
		}
	}
}

var embedPattern = regexp.MustCompile(`r:embed="(rId\d+)"`)

// rewriteRaw remaps every r:embed attribute in one pass, so a new ID
// that collides with a not-yet-rewritten old ID cannot be rewritten
// twice.
func rewriteRaw(content []byte, ridMap map[string]string) []byte {
	return embedPattern.ReplaceAllFunc(content, func(m []byte) []byte {
		oldID := string(m[len(`r:embed="`) : len(m)-1])
		newID, ok := ridMap[oldID]
		if !ok {
			return m
		}
		return []byte(`r:embed="` + newID + `"`)
	})
}
