// Package placeholder recognizes the placeholder syntaxes used in
// templates and extracts field names from matched spans.
//
// Four syntaxes are recognized. The image form is scanned ahead of the
// plain double-brace form because an image span must route to image
// handling even though the double-brace pattern would also match it.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/wenlake/docform/pkg/docform/logging"
)

// ImagePrefix marks a field name as non-textual.
const ImagePrefix = "img:"

// Kind identifies one placeholder syntax.
type Kind int

const (
	KindImage Kind = iota
	KindDoubleBrace
	KindDollarBrace
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDoubleBrace:
		return "double-brace"
	case KindDollarBrace:
		return "dollar-brace"
	case KindHash:
		return "hash"
	default:
		return "unknown"
	}
}

// Syntax is one delimiter convention: a match pattern whose first
// capture group is the field name.
type Syntax struct {
	Kind    Kind
	pattern *regexp.Regexp
}

// Occurrence is one placeholder found in a text.
type Occurrence struct {
	Name  string // trimmed field name; image names keep the img: prefix
	Full  string // the complete matched span
	Start int    // byte offset of Full within the scanned text
	Kind  Kind
}

// syntaxSpecs lists the recognized syntaxes in scan priority order.
var syntaxSpecs = []struct {
	kind    Kind
	pattern string
}{
	{KindImage, `\{\{(img:.*?)\}\}`},
	{KindDoubleBrace, `\{\{(.*?)\}\}`},
	{KindDollarBrace, `\$\{(.*?)\}`},
	{KindHash, `#(.*?)#`},
}

// Registry holds the compiled syntaxes and dispatches scans across them.
type Registry struct {
	syntaxes []Syntax
	log      *logging.Logger
}

// NewRegistry compiles the syntax set. A syntax whose pattern fails to
// compile is logged and dropped; scanning continues with the rest.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Discard()
	}
	r := &Registry{log: log}
	for _, spec := range syntaxSpecs {
		re, err := regexp.Compile(spec.pattern)
		if err != nil {
			log.Error("placeholder syntax %s failed to compile: %v", spec.kind, err)
			continue
		}
		r.syntaxes = append(r.syntaxes, Syntax{Kind: spec.kind, pattern: re})
	}
	return r
}

// Detect reports whether any syntax matches the text.
func (r *Registry) Detect(text string) bool {
	for _, s := range r.syntaxes {
		if s.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// FindAll returns every non-overlapping match per syntax, concatenated
// in syntax priority order. A span such as {{img:照片}} yields two
// occurrences, one per matching syntax, with distinct names.
func (r *Registry) FindAll(text string) []Occurrence {
	var out []Occurrence
	for _, s := range r.syntaxes {
		for _, idx := range s.pattern.FindAllStringSubmatchIndex(text, -1) {
			out = append(out, Occurrence{
				Name:  strings.TrimSpace(text[idx[2]:idx[3]]),
				Full:  text[idx[0]:idx[1]],
				Start: idx[0],
				Kind:  s.Kind,
			})
		}
	}
	return out
}

// ExtractNames returns the deduplicated field names found in the text,
// in first-seen order.
func (r *Registry) ExtractNames(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, occ := range r.FindAll(text) {
		if !seen[occ.Name] {
			seen[occ.Name] = true
			names = append(names, occ.Name)
		}
	}
	return names
}

// HasPlaceholder reports whether the text contains the named
// placeholder in any syntax.
func (r *Registry) HasPlaceholder(text, name string) bool {
	for _, occ := range r.FindAll(text) {
		if occ.Name == name {
			return true
		}
	}
	return false
}

// Replace substitutes every textual placeholder whose name is a key of
// values. A blank (whitespace-only) value leaves its placeholder in
// place so a required field stays visible. Image spans are never
// replaced here; the fill engine handles them structurally.
func (r *Registry) Replace(text string, values map[string]string) string {
	result := text
	for _, occ := range r.FindAll(text) {
		if occ.Kind == KindImage {
			continue
		}
		value, ok := values[occ.Name]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		result = strings.ReplaceAll(result, occ.Full, value)
	}
	return result
}

// IsImageName reports whether a field name carries the image prefix.
func IsImageName(name string) bool {
	return strings.HasPrefix(name, ImagePrefix)
}

// ImageFieldName strips the image prefix from a field name.
func ImageFieldName(name string) string {
	if IsImageName(name) {
		return strings.TrimSpace(strings.TrimPrefix(name, ImagePrefix))
	}
	return name
}
