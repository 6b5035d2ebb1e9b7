package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/fsutil"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

// imageStemCap bounds the filename stem derived from an extracted value.
const imageStemCap = 50

// extractImage writes every embedded image of the target document into
// a sibling <docStem>_images directory and returns the path of the
// first one written. Only the first image is surfaced even when a
// document embeds several.
//
// Files are named <stem>_<index>.png where stem is the already
// extracted text value for the bare field name (sanitized), or the
// field name itself when no value exists yet.
func (e *Engine) extractImage(sess *session, name string) (string, error) {
	if sess.docPath == "" {
		return "", fmt.Errorf("no document path set for image extraction")
	}

	fieldName := placeholder.ImageFieldName(name)
	fieldName = strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(fieldName))

	stem := fieldName
	if value, ok := sess.values[fieldName]; ok && value != "" {
		stem = fsutil.SanitizeFilename(value)
	}

	doc, err := docx.Open(e.fsys, sess.docPath)
	if err != nil {
		return "", err
	}

	rels := doc.ImageRelationships()
	if len(rels) == 0 {
		e.log.Warn("未在文档中找到任何图片: %s", sess.docPath)
		return "", nil
	}

	base := filepath.Base(sess.docPath)
	docStem := strings.TrimSuffix(base, filepath.Ext(base))
	imagesDir := filepath.Join(filepath.Dir(sess.docPath), docStem+"_images")
	if err := e.fsys.MkdirAll(imagesDir, 0o755); err != nil {
		return "", err
	}

	index := 1
	first := ""
	for _, id := range sortedRelationshipIDs(rels) {
		payload, err := doc.MediaPayload(rels[id])
		if err != nil || len(payload) == 0 {
			continue
		}
		path := filepath.Join(imagesDir, fmt.Sprintf("%s_%d.png", capRunes(stem, imageStemCap), index))
		if err := afero.WriteFile(e.fsys, path, payload, 0o644); err != nil {
			return "", err
		}
		e.log.Debug("已提取图片到: %s", path)
		if first == "" {
			first = path
		}
		index++
	}
	return first, nil
}

// sortedRelationshipIDs orders rIds numerically so image indices are
// deterministic across runs.
func sortedRelationshipIDs(rels map[string]string) []string {
	ids := make([]string, 0, len(rels))
	for id := range rels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, erri := strconv.Atoi(strings.TrimPrefix(ids[i], "rId"))
		nj, errj := strconv.Atoi(strings.TrimPrefix(ids[j], "rId"))
		if erri != nil || errj != nil {
			return ids[i] < ids[j]
		}
		return ni < nj
	})
	return ids
}
