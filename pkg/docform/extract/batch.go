package extract

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/fsutil"
	"github.com/wenlake/docform/pkg/docform/logging"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

// Provenance columns appended to every extracted row.
const (
	FilePathColumn = "文件路径"
	FileNameColumn = "文件名"
)

// Table is the batch result: one row per successfully processed target
// document, with placeholder names and provenance as columns.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Empty reports whether no document yielded data.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// Batch runs the extraction engine across many target documents and
// exports the result as a spreadsheet.
type Batch struct {
	engine *Engine
	fsys   afero.Fs
	log    *logging.Logger
}

func NewBatch(fsys afero.Fs, registry *placeholder.Registry, log *logging.Logger) *Batch {
	if log == nil {
		log = logging.Discard()
	}
	return &Batch{
		engine: NewEngine(fsys, registry, log),
		fsys:   fsys,
		log:    log,
	}
}

// ExtractDir enumerates document files under dir (excluding the
// template and lock files) and extracts from each.
func (b *Batch) ExtractDir(templatePath, dir string, recursive bool) (*Table, error) {
	files, err := fsutil.ListDocuments(b.fsys, dir, recursive, templatePath)
	if err != nil {
		return nil, err
	}
	b.log.Info("找到%d个文档进行处理", len(files))
	return b.ExtractFiles(templatePath, files)
}

// ExtractFiles extracts from each listed file. Per-file failures are
// logged and skipped; they are also collected into the returned error
// (a *docx.MultiError) so callers can report failure counts alongside
// the partial table. An empty table with a nil error means no file
// yielded data.
func (b *Batch) ExtractFiles(templatePath string, files []string) (*Table, error) {
	tmpl, err := docx.Open(b.fsys, templatePath)
	if err != nil {
		return nil, err
	}

	names := b.engine.DetectPlaceholders(tmpl)
	if len(names) == 0 {
		b.log.Warn("模板中未找到任何占位符")
		return &Table{}, nil
	}

	columns := make([]string, 0, len(names)+2)
	columns = append(columns, names...)
	columns = append(columns, FilePathColumn, FileNameColumn)

	merr := &docx.MultiError{}
	var rows []map[string]string
	for _, file := range files {
		b.log.Info("处理文件: %s", filepath.Base(file))
		values, err := b.engine.Extract(tmpl, file)
		if err != nil {
			b.log.Error("处理文件 %s 时出错: %v", filepath.Base(file), err)
			merr.Add(err)
			continue
		}
		if len(values) == 0 {
			b.log.Warn("从 %s 未提取到数据", filepath.Base(file))
			continue
		}
		values[FilePathColumn] = file
		values[FileNameColumn] = filepath.Base(file)
		rows = append(rows, values)
	}

	if len(rows) == 0 {
		b.log.Warn("未从任何文件中提取到数据")
		return &Table{}, merr.ErrorOrNil()
	}

	table := &Table{Columns: columns, Rows: rows}
	b.clearMissingImagePaths(table)
	return table, merr.ErrorOrNil()
}

// clearMissingImagePaths blanks image-column values whose path no
// longer exists, so diagnostic strings and stale paths never leak into
// the spreadsheet as if they were files.
func (b *Batch) clearMissingImagePaths(table *Table) {
	for _, col := range table.Columns {
		if !strings.Contains(col, placeholder.ImagePrefix) {
			continue
		}
		for _, row := range table.Rows {
			value := row[col]
			if value == "" {
				continue
			}
			exists, err := afero.Exists(b.fsys, value)
			if err != nil || !exists {
				row[col] = ""
			}
		}
	}
}

// WriteXLSX exports the table to a spreadsheet with one header row.
func (b *Batch) WriteXLSX(table *Table, path, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	for ci, col := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	for ri, row := range table.Rows {
		for ci, col := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, row[col]); err != nil {
				return err
			}
		}
	}

	out, err := b.fsys.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := f.Write(out); err != nil {
		return err
	}
	b.log.Info("数据已保存到Excel文件: %s", path)
	return nil
}
