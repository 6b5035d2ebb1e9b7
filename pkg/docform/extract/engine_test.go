package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenlake/docform/internal/doctest"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

func newTestEngine(fsys afero.Fs) *Engine {
	return NewEngine(fsys, placeholder.NewRegistry(nil), nil)
}

func writeDoc(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, data, 0o644))
}

func openDoc(t *testing.T, fsys afero.Fs, path string) *docx.Document {
	t.Helper()
	d, err := docx.Open(fsys, path)
	require.NoError(t, err)
	return d
}

func tableXML(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:p><w:r><w:t>" + cell + "</w:t></w:r></w:p></w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

func TestDetectPlaceholders(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Paragraph("姓名：{{姓名}}").
		Paragraph("{{img:照片}}").
		Body(tableXML([][]string{{"部门", "${部门}"}})).
		Bytes())

	e := newTestEngine(fsys)
	names := e.DetectPlaceholders(openDoc(t, fsys, "tpl.docx"))
	assert.ElementsMatch(t, []string{"姓名", "img:照片", "部门"}, names)
}

func TestExtractParagraphTier(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("姓名：{{姓名}}").Paragraph("部门：{{部门}}").Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().Paragraph("姓名：张三").Paragraph("部门：研发部").Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "张三", values["姓名"])
	assert.Equal(t, "研发部", values["部门"])
}

func TestExtractIgnoresUnmatchedTrailingParagraphs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Paragraph("标题").
		Paragraph("姓名：{{姓名}}").
		Paragraph("尾注：{{尾注}}").
		Bytes())
	// Target lacks the trailing paragraph; extraction must still align
	// the first two.
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Paragraph("标题").
		Paragraph("姓名：李四").
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "李四", values["姓名"])
	_, ok := values["尾注"]
	assert.False(t, ok)
}

func TestExtractTableCellTier(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Body(tableXML([][]string{{"姓名：{{姓名}}", "{{职务}}"}})).
		Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Body(tableXML([][]string{{"姓名：王五", "工程师"}})).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "王五", values["姓名"])
	assert.Equal(t, "工程师", values["职务"])
}

func TestExtractDateRangeRow(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Body(tableXML([][]string{{"有效期", "{{开始日期}} 至 {{结束日期}}"}})).
		Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Body(tableXML([][]string{{"有效期", "2023年1月1日 至 2023年12月31日"}})).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "2023年1月1日", values["开始日期"])
	assert.Equal(t, "2023年12月31日", values["结束日期"])
}

func TestExtractDateRangeRowSingleBareDate(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Body(tableXML([][]string{{"{{开始日期}}", "{{结束日期}}"}})).
		Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Body(tableXML([][]string{{"2023年5月1日", ""}})).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "2023年5月1日", values["开始日期"])
	_, ok := values["结束日期"]
	assert.False(t, ok)
}

func TestExtractHeaderLabelTier(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Body(tableXML([][]string{{"{{金额}}"}, {"总计"}})).
		Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Body(tableXML([][]string{{""}, {"总计", "5000元"}})).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "5000元", values["金额"])
}

func TestExtractAdjacentCellTier(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Paragraph("说明").
		Paragraph("{{部门}}").
		Body(tableXML([][]string{{"部门", "x"}})).
		Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Paragraph("说明").
		Body(tableXML([][]string{{"部门", "研发部"}})).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, "研发部", values["部门"])
}

func TestExtractImagePlaceholder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Paragraph("姓名：{{姓名}}").
		Paragraph("{{img:姓名}}").
		Bytes())
	writeDoc(t, fsys, "work/doc.docx", doctest.New().
		Paragraph("姓名：张三").
		Paragraph("").
		ImageRel("rId4", "media/image1.png").
		Media("image1.png", doctest.TinyPNG).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "work/doc.docx")
	require.NoError(t, err)

	// The image file is named after the already-extracted text value
	// for the bare field and written into a sibling _images directory.
	path := values["img:姓名"]
	assert.Equal(t, "work/doc_images/张三_1.png", path)
	exists, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExtractImageMissingYieldsDiagnostic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{img:照片}}").Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().Paragraph("").Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	assert.Equal(t, imageNotFoundValue, values["img:照片"])
}

func TestExtractMultipleImagesOnlyFirstSurfaces(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{img:照片}}").Bytes())
	writeDoc(t, fsys, "doc.docx", doctest.New().
		Paragraph("").
		ImageRel("rId2", "media/image1.png").
		ImageRel("rId10", "media/image2.png").
		Media("image1.png", doctest.TinyPNG).
		Media("image2.png", doctest.TinyPNG).
		Bytes())

	e := newTestEngine(fsys)
	values, err := e.Extract(openDoc(t, fsys, "tpl.docx"), "doc.docx")
	require.NoError(t, err)
	// rId2 sorts before rId10 numerically; its image is the surfaced one.
	assert.Equal(t, fmt.Sprintf("doc_images/%s_1.png", "照片"), values["img:照片"])
	exists, _ := afero.Exists(fsys, "doc_images/照片_2.png")
	assert.True(t, exists, "all images are written even though only the first is surfaced")
}
