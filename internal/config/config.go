// Package config loads docform's settings from defaults, DOCFORM_*
// environment variables and command line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultLogLevel         = "info"
	DefaultOutputXLSX       = "提取结果.xlsx"
	DefaultOutputDir        = "output"
	DefaultSheetName        = "Sheet1"
	DefaultImageWidthInches = 4.0

	envPrefix = "DOCFORM"
)

// Config holds every setting the extract and fill commands share.
type Config struct {
	// Common
	Template string
	LogLevel string

	// Extraction
	Dir        string
	Recursive  bool
	OutputXLSX string

	// Filling
	Data            string
	OutputDir       string
	FilenamePattern string
	Merge           bool
	SheetName       string
	ImageWidth      float64 // inserted picture width fallback, inches
}

// DefaultConfig returns a configuration with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		OutputXLSX: DefaultOutputXLSX,
		OutputDir:  DefaultOutputDir,
		SheetName:  DefaultSheetName,
		ImageWidth: DefaultImageWidthInches,
	}
}

// BindCommonFlags registers the flags both subcommands accept.
func BindCommonFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("template", cfg.Template, "Path to the placeholder template document")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error, off)")
}

// BindExtractFlags registers the extraction flags.
func BindExtractFlags(flags *pflag.FlagSet, cfg *Config) {
	BindCommonFlags(flags, cfg)
	flags.String("dir", cfg.Dir, "Directory of filled documents to extract from")
	flags.Bool("recursive", cfg.Recursive, "Descend into subdirectories when scanning --dir")
	flags.String("out", cfg.OutputXLSX, "Path of the spreadsheet to write")
	flags.String("sheet", cfg.SheetName, "Sheet name in the output spreadsheet")
}

// BindFillFlags registers the filling flags.
func BindFillFlags(flags *pflag.FlagSet, cfg *Config) {
	BindCommonFlags(flags, cfg)
	flags.String("data", cfg.Data, "Spreadsheet holding one row per document to generate")
	flags.String("out-dir", cfg.OutputDir, "Directory the generated documents are written to")
	flags.String("pattern", cfg.FilenamePattern, "Output filename pattern; {列名} and {序号} expand per row")
	flags.Bool("merge", cfg.Merge, "Merge all generated documents into one, separated by page breaks")
	flags.String("sheet", "", "Sheet name to read; empty selects the first sheet")
	flags.Float64("image-width", cfg.ImageWidth, "Fallback width in inches for inserted pictures")
}

// Load parses args against the given flag set and resolves the final
// configuration through viper so DOCFORM_* environment variables apply.
func Load(flags *pflag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	populate(cfg, v, flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// populate copies resolved values into cfg, only for flags the command
// actually defines.
func populate(cfg *Config, v *viper.Viper, flags *pflag.FlagSet) {
	set := func(name string, assign func()) {
		if flags.Lookup(name) != nil {
			assign()
		}
	}
	set("template", func() { cfg.Template = v.GetString("template") })
	set("loglevel", func() { cfg.LogLevel = v.GetString("loglevel") })
	set("dir", func() { cfg.Dir = v.GetString("dir") })
	set("recursive", func() { cfg.Recursive = v.GetBool("recursive") })
	set("out", func() { cfg.OutputXLSX = v.GetString("out") })
	set("sheet", func() { cfg.SheetName = v.GetString("sheet") })
	set("data", func() { cfg.Data = v.GetString("data") })
	set("out-dir", func() { cfg.OutputDir = v.GetString("out-dir") })
	set("pattern", func() { cfg.FilenamePattern = v.GetString("pattern") })
	set("merge", func() { cfg.Merge = v.GetBool("merge") })
	set("image-width", func() { cfg.ImageWidth = v.GetFloat64("image-width") })
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if c.Template == "" {
		return errors.New("template document path cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, off)", c.LogLevel)
	}
	if c.ImageWidth <= 0 {
		return errors.New("image width must be positive")
	}
	return nil
}
