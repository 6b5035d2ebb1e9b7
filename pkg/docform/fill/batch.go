package fill

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/fsutil"
	"github.com/wenlake/docform/pkg/docform/logging"
	"github.com/wenlake/docform/pkg/docform/ooxml"
)

// DefaultMergedFilename names the merged output when no filename
// pattern is configured.
const DefaultMergedFilename = "合并文档.docx"

// rowIndexToken in a filename pattern expands to the 1-based row
// number.
const rowIndexToken = "{序号}"

// Batch drives template filling over a set of spreadsheet rows.
type Batch struct {
	engine *Engine
	fsys   afero.Fs
	log    *logging.Logger
}

// NewBatch wraps a fill engine for batch use.
func NewBatch(engine *Engine, fsys afero.Fs, log *logging.Logger) *Batch {
	if log == nil {
		log = logging.Discard()
	}
	return &Batch{engine: engine, fsys: fsys, log: log}
}

// Options configures one batch fill.
type Options struct {
	OutputDir string
	// Pattern names output files; {列名} expands to the row's value for
	// that column and {序号} to the 1-based row number. Empty selects
	// 文档_<n>.docx per row, or 合并文档.docx when merging.
	Pattern string
	// Merge concatenates all filled copies into one document separated
	// by page breaks instead of writing one file per row.
	Merge bool
}

// Fill produces one output document per row (or a single merged one)
// and returns the written paths.
func (b *Batch) Fill(templatePath string, rows []Row, opts Options) ([]string, error) {
	if len(rows) == 0 {
		b.log.Warn("表格中没有数据行, 未生成任何文档")
		return nil, nil
	}
	if err := b.fsys.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", opts.OutputDir, err)
	}
	if opts.Merge {
		return b.fillMerged(templatePath, rows, opts)
	}
	return b.fillSeparate(templatePath, rows, opts)
}

func (b *Batch) fillSeparate(templatePath string, rows []Row, opts Options) ([]string, error) {
	paths := make([]string, 0, len(rows))
	for i, row := range rows {
		doc, err := docx.Open(b.fsys, templatePath)
		if err != nil {
			return paths, err
		}
		if err := b.engine.FillDocument(doc, row); err != nil {
			return paths, fmt.Errorf("filling row %d: %w", i+1, err)
		}
		name := outputFilename(opts.Pattern, row, i)
		outPath := filepath.Join(opts.OutputDir, name)
		if err := doc.Save(b.fsys, outPath); err != nil {
			return paths, err
		}
		b.log.Info("已生成文档: %s", outPath)
		paths = append(paths, outPath)
	}
	return paths, nil
}

func (b *Batch) fillMerged(templatePath string, rows []Row, opts Options) ([]string, error) {
	var merged *docx.Document
	for i, row := range rows {
		doc, err := docx.Open(b.fsys, templatePath)
		if err != nil {
			return nil, err
		}
		if err := b.engine.FillDocument(doc, row); err != nil {
			return nil, fmt.Errorf("filling row %d: %w", i+1, err)
		}
		if merged == nil {
			merged = doc
			continue
		}
		merged.Body().AppendElement(ooxml.PageBreakParagraph())
		if err := b.engine.AppendDocument(merged, doc); err != nil {
			return nil, fmt.Errorf("merging row %d: %w", i+1, err)
		}
	}

	name := DefaultMergedFilename
	if opts.Pattern != "" {
		stem := expandPattern(opts.Pattern, rows[0], 0)
		name = fsutil.SanitizeFilename(stem) + "_合并" + fsutil.DocumentExtension
	}
	outPath := filepath.Join(opts.OutputDir, name)
	if err := merged.Save(b.fsys, outPath); err != nil {
		return nil, err
	}
	b.log.Info("已生成合并文档: %s", outPath)
	return []string{outPath}, nil
}

// outputFilename resolves the per-row output name, defaulting to a
// numbered document when no pattern is set.
func outputFilename(pattern string, row Row, idx int) string {
	if pattern == "" {
		return fmt.Sprintf("文档_%d%s", idx+1, fsutil.DocumentExtension)
	}
	name := fsutil.SanitizeFilename(expandPattern(pattern, row, idx))
	if !strings.HasSuffix(name, fsutil.DocumentExtension) {
		name += fsutil.DocumentExtension
	}
	return name
}

func expandPattern(pattern string, row Row, idx int) string {
	out := pattern
	for col, value := range row {
		out = strings.ReplaceAll(out, "{"+col+"}", value)
	}
	return strings.ReplaceAll(out, rowIndexToken, strconv.Itoa(idx+1))
}
