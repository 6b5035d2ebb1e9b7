package fill

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wenlake/docform/internal/doctest"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/extract"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

func newTestBatch(fsys afero.Fs) *Batch {
	return NewBatch(newTestEngine(fsys), fsys, nil)
}

func pageBreakCount(doc *docx.Document) int {
	count := 0
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			if r.HasPageBreak() {
				count++
			}
		}
	}
	return count
}

func TestOutputFilenameDefault(t *testing.T) {
	assert.Equal(t, "文档_1.docx", outputFilename("", Row{}, 0))
	assert.Equal(t, "文档_3.docx", outputFilename("", Row{}, 2))
}

func TestOutputFilenamePattern(t *testing.T) {
	row := Row{"姓名": "张三"}
	assert.Equal(t, "文档_1_张三.docx", outputFilename("文档_{序号}_{姓名}", row, 0))
	// Values may carry characters the filesystem rejects.
	assert.Equal(t, "合同_A_B.docx", outputFilename("合同_{编号}", Row{"编号": "A/B"}, 0))
	// An unknown column token is kept as-is rather than dropped.
	assert.Equal(t, "报告_{年度}.docx", outputFilename("报告_{年度}", Row{}, 0))
}

func TestBatchFillSeparate(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("姓名：{{姓名}}").Bytes())

	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", []Row{{"姓名": "张三"}, {"姓名": "李四"}}, Options{OutputDir: "out"})
	require.NoError(t, err)
	require.Equal(t, []string{"out/文档_1.docx", "out/文档_2.docx"}, paths)

	first := openDoc(t, fsys, paths[0])
	assert.Equal(t, "姓名：张三", first.Paragraphs()[0].Text())
	second := openDoc(t, fsys, paths[1])
	assert.Equal(t, "姓名：李四", second.Paragraphs()[0].Text())
}

func TestBatchFillSeparateWithPattern(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{姓名}}").Bytes())

	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", []Row{{"姓名": "张三"}}, Options{OutputDir: "out", Pattern: "劳动合同_{姓名}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"out/劳动合同_张三.docx"}, paths)
}

func TestBatchFillEmptyRows(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{姓名}}").Bytes())

	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", nil, Options{OutputDir: "out"})
	require.NoError(t, err)
	assert.Empty(t, paths)
	exists, _ := afero.DirExists(fsys, "out")
	assert.False(t, exists)
}

func TestBatchFillMerged(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("姓名：{{姓名}}").Bytes())

	rows := []Row{{"姓名": "张三"}, {"姓名": "李四"}, {"姓名": "王五"}}
	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", rows, Options{OutputDir: "out", Merge: true})
	require.NoError(t, err)
	require.Equal(t, []string{"out/合并文档.docx"}, paths)

	merged := openDoc(t, fsys, paths[0])
	var texts []string
	for _, p := range merged.Paragraphs() {
		if txt := p.Text(); txt != "" {
			texts = append(texts, txt)
		}
	}
	assert.Equal(t, []string{"姓名：张三", "姓名：李四", "姓名：王五"}, texts)
	assert.Equal(t, 2, pageBreakCount(merged))
}

func TestBatchFillMergedPatternName(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{姓名}}").Bytes())

	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", []Row{{"姓名": "张三"}, {"姓名": "李四"}},
		Options{OutputDir: "out", Pattern: "合同_{姓名}", Merge: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"out/合同_张三_合并.docx"}, paths)
}

func TestBatchFillMergedCarriesImages(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "pic.png", doctest.TinyPNG, 0o644))
	writeDoc(t, fsys, "tpl.docx", doctest.New().Paragraph("{{img:照片}}").Bytes())

	rows := []Row{{"img:照片": "pic.png"}, {"img:照片": "pic.png"}}
	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", rows, Options{OutputDir: "out", Merge: true})
	require.NoError(t, err)

	merged := openDoc(t, fsys, paths[0])
	rels := merged.ImageRelationships()
	require.Len(t, rels, 2)
	for _, target := range rels {
		payload, err := merged.MediaPayload(target)
		require.NoError(t, err)
		assert.Equal(t, doctest.TinyPNG, payload)
	}
	// Every drawing in the merged body must point at a live rId.
	for _, p := range merged.Paragraphs() {
		for _, r := range p.Runs() {
			for _, extra := range r.RawChildren() {
				m := embedPattern.FindSubmatch(extra.Content)
				if m == nil {
					continue
				}
				_, ok := rels[string(m[1])]
				assert.True(t, ok, "drawing references unknown %s", m[1])
			}
		}
	}
}

func TestAppendDocumentClonesDeeply(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "a.docx", doctest.New().Paragraph("目标").Bytes())
	writeDoc(t, fsys, "b.docx", doctest.New().Paragraph("来源").Bytes())

	target := openDoc(t, fsys, "a.docx")
	source := openDoc(t, fsys, "b.docx")
	e := newTestEngine(fsys)
	require.NoError(t, e.AppendDocument(target, source))

	// Mutating the source afterwards must not affect the merge result.
	source.Paragraphs()[0].Runs()[0].SetText("改动")
	paras := target.Paragraphs()
	require.Len(t, paras, 2)
	assert.Equal(t, "来源", paras[1].Text())
}

func TestReadRows(t *testing.T) {
	fsys := afero.NewMemMapFs()
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "姓名"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "部门"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "张三"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", "研发部"))
	// Second data row leaves the trailing column blank.
	require.NoError(t, wb.SetCellValue("Sheet1", "A3", "李四"))
	out, err := fsys.Create("rows.xlsx")
	require.NoError(t, err)
	require.NoError(t, wb.Write(out))
	require.NoError(t, out.Close())

	rows, err := ReadRows(fsys, "rows.xlsx", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"姓名": "张三", "部门": "研发部"}, rows[0])
	assert.Equal(t, Row{"姓名": "李四", "部门": ""}, rows[1])
}

func TestReadRowsMissingSheet(t *testing.T) {
	fsys := afero.NewMemMapFs()
	wb := excelize.NewFile()
	out, err := fsys.Create("rows.xlsx")
	require.NoError(t, err)
	require.NoError(t, wb.Write(out))
	require.NoError(t, out.Close())

	_, err = ReadRows(fsys, "rows.xlsx", "不存在")
	assert.Error(t, err)
}

func TestFillThenExtractRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeDoc(t, fsys, "tpl.docx", doctest.New().
		Paragraph("姓名：{{姓名}}").
		Paragraph("部门：{{部门}}").
		Bytes())

	input := Row{"姓名": "张三", "部门": "研发部"}
	b := newTestBatch(fsys)
	paths, err := b.Fill("tpl.docx", []Row{input}, Options{OutputDir: "out"})
	require.NoError(t, err)
	require.Len(t, paths, 1)

	// A filled document aligned against its own template must yield
	// back the values that went in.
	tmpl := openDoc(t, fsys, "tpl.docx")
	ex := extract.NewEngine(fsys, placeholder.NewRegistry(nil), nil)
	values, err := ex.Extract(tmpl, paths[0])
	require.NoError(t, err)
	assert.Equal(t, "张三", values["姓名"])
	assert.Equal(t, "研发部", values["部门"])
}
