package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "提取结果.xlsx", cfg.OutputXLSX)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.Equal(t, 4.0, cfg.ImageWidth)
}

func TestLoadExtractFlags(t *testing.T) {
	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	BindExtractFlags(flags, DefaultConfig())

	cfg, err := Load(flags, []string{
		"--template", "tpl.docx",
		"--dir", "docs",
		"--recursive",
		"--out", "data.xlsx",
	})
	require.NoError(t, err)
	assert.Equal(t, "tpl.docx", cfg.Template)
	assert.Equal(t, "docs", cfg.Dir)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, "data.xlsx", cfg.OutputXLSX)
	assert.Equal(t, "Sheet1", cfg.SheetName)
}

func TestLoadFillFlags(t *testing.T) {
	flags := pflag.NewFlagSet("fill", pflag.ContinueOnError)
	BindFillFlags(flags, DefaultConfig())

	cfg, err := Load(flags, []string{
		"--template", "tpl.docx",
		"--data", "rows.xlsx",
		"--out-dir", "generated",
		"--pattern", "合同_{姓名}",
		"--merge",
		"--image-width", "3.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "rows.xlsx", cfg.Data)
	assert.Equal(t, "generated", cfg.OutputDir)
	assert.Equal(t, "合同_{姓名}", cfg.FilenamePattern)
	assert.True(t, cfg.Merge)
	assert.Equal(t, 3.5, cfg.ImageWidth)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DOCFORM_LOGLEVEL", "debug")
	t.Setenv("DOCFORM_RECURSIVE", "true")

	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	BindExtractFlags(flags, DefaultConfig())
	cfg, err := Load(flags, []string{"--template", "tpl.docx"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Recursive)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("DOCFORM_LOGLEVEL", "debug")

	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	BindExtractFlags(flags, DefaultConfig())
	cfg, err := Load(flags, []string{"--template", "tpl.docx", "--loglevel", "warn"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) { c.Template = "tpl.docx" }},
		{name: "missing template", mutate: func(c *Config) {}, wantErr: true},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Template = "tpl.docx"; c.LogLevel = "loud" },
			wantErr: true,
		},
		{
			name:    "non-positive image width",
			mutate:  func(c *Config) { c.Template = "tpl.docx"; c.ImageWidth = 0 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
