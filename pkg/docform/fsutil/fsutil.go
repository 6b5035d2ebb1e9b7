// Package fsutil holds filesystem helpers shared by the batch drivers.
package fsutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// DocumentExtension is the document file suffix the batch drivers select.
const DocumentExtension = ".docx"

// lockFilePrefix marks temporary owner files written next to an open document.
const lockFilePrefix = "~$"

var illegalFilenamePattern = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename replaces filesystem-illegal characters with underscores.
func SanitizeFilename(name string) string {
	return illegalFilenamePattern.ReplaceAllString(name, "_")
}

// ListDocuments enumerates document files under dir, optionally
// recursing, excluding lock files and the given path (the template).
func ListDocuments(fsys afero.Fs, dir string, recursive bool, exclude string) ([]string, error) {
	var out []string
	include := func(path, name string) {
		if !strings.HasSuffix(name, DocumentExtension) || strings.HasPrefix(name, lockFilePrefix) {
			return
		}
		if path == exclude {
			return
		}
		out = append(out, path)
	}

	if recursive {
		err := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				include(path, info.Name())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if !info.IsDir() {
			include(filepath.Join(dir, info.Name()), info.Name())
		}
	}
	return out, nil
}
