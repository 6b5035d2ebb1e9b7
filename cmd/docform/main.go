// Command docform extracts field values from filled Word documents into
// a spreadsheet, and generates Word documents from spreadsheet rows,
// driven by a placeholder template.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/wenlake/docform/internal/config"
	"github.com/wenlake/docform/pkg/docform/docx"
	"github.com/wenlake/docform/pkg/docform/extract"
	"github.com/wenlake/docform/pkg/docform/fill"
	"github.com/wenlake/docform/pkg/docform/logging"
	"github.com/wenlake/docform/pkg/docform/placeholder"
)

var version = "dev" // set by build flags

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	switch args[0] {
	case "extract":
		return runExtract(args[1:])
	case "fill":
		return runFill(args[1:])
	case "version", "--version", "-v":
		fmt.Printf("docform version %s\n", version)
		return 0
	case "help", "--help", "-h":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  extract   Pull field values from filled documents into a spreadsheet")
	fmt.Fprintln(os.Stderr, "  fill      Generate documents from a template and spreadsheet rows")
	fmt.Fprintln(os.Stderr, "  version   Print the version")
	fmt.Fprintln(os.Stderr, "\nRun '<command> --help' for the command's flags.")
	fmt.Fprintln(os.Stderr, "Environment variables: every flag is also readable as DOCFORM_<FLAG>.")
}

func newLogger(level string) *logging.Logger {
	return logging.New(os.Stderr, logging.ParseLevel(level))
}

func runExtract(args []string) int {
	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	config.BindExtractFlags(flags, config.DefaultConfig())
	cfg, err := config.Load(flags, args)
	if err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		return 2
	}
	if cfg.Dir == "" {
		fmt.Fprintln(os.Stderr, "extract: --dir is required")
		return 2
	}

	log := newLogger(cfg.LogLevel)
	fsys := afero.NewOsFs()
	batch := extract.NewBatch(fsys, placeholder.NewRegistry(log), log)

	table, err := batch.ExtractDir(cfg.Template, cfg.Dir, cfg.Recursive)
	failed := 0
	if err != nil {
		var merr *docx.MultiError
		if !errors.As(err, &merr) || table == nil || table.Empty() {
			log.Error("提取失败: %v", err)
			return 1
		}
		// Partial failure: keep the rows that worked, report the rest.
		failed = len(merr.Errors)
	}
	if table.Empty() {
		log.Warn("未提取到任何数据, 不生成表格")
		return 0
	}
	if err := batch.WriteXLSX(table, cfg.OutputXLSX, cfg.SheetName); err != nil {
		log.Error("写入表格失败: %v", err)
		return 1
	}
	log.Info("提取完成: 成功 %d 个文档, 失败 %d 个, 已写入 %s", len(table.Rows), failed, cfg.OutputXLSX)
	return 0
}

func runFill(args []string) int {
	flags := pflag.NewFlagSet("fill", pflag.ContinueOnError)
	config.BindFillFlags(flags, config.DefaultConfig())
	cfg, err := config.Load(flags, args)
	if err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "fill: %v\n", err)
		return 2
	}
	if cfg.Data == "" {
		fmt.Fprintln(os.Stderr, "fill: --data is required")
		return 2
	}

	log := newLogger(cfg.LogLevel)
	fsys := afero.NewOsFs()

	if _, err := docx.Open(fsys, cfg.Template); err != nil {
		log.Error("模板打开失败: %v", err)
		return 1
	}
	rows, err := fill.ReadRows(fsys, cfg.Data, cfg.SheetName)
	if err != nil {
		log.Error("读取数据表失败: %v", err)
		return 1
	}

	engine := fill.NewEngine(fsys, placeholder.NewRegistry(log), log, cfg.ImageWidth)
	batch := fill.NewBatch(engine, fsys, log)
	paths, err := batch.Fill(cfg.Template, rows, fill.Options{
		OutputDir: cfg.OutputDir,
		Pattern:   cfg.FilenamePattern,
		Merge:     cfg.Merge,
	})
	if err != nil {
		log.Error("生成失败: %v", err)
		return 1
	}
	log.Info("已生成 %d 个文档到 %s", len(paths), cfg.OutputDir)
	return 0
}
