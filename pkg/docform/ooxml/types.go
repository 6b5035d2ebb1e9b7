// Package ooxml holds a minimal WordprocessingML object model: ordered
// body elements, paragraphs with their run sequences, and table grids.
// Everything the engines do not need to touch (formatting properties,
// drawings, bookmarks, nested content) is preserved verbatim as raw XML
// so that a parse/serialize round trip keeps the document intact.
package ooxml

import (
	"encoding/xml"
	"strings"
)

// BodyElement is any element that can appear in a document body.
type BodyElement interface {
	isBodyElement()
}

// ParagraphChild is any element that can appear inside a paragraph.
type ParagraphChild interface {
	isParagraphChild()
}

// RawXML is a serialized element we preserve but never interpret.
// Content includes the element's own opening and closing tags, with
// namespace prefixes already applied.
type RawXML struct {
	Content []byte
}

func (r *RawXML) isBodyElement()    {}
func (r *RawXML) isParagraphChild() {}
func (r *RawXML) isRunChild()       {}

// String returns the raw content for matching and rewriting.
func (r *RawXML) String() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// namespacePrefixes maps the namespace URIs seen in WordprocessingML
// documents to their conventional prefixes. Unknown spaces fall through
// unchanged, which also covers already-prefixed names produced by our
// own serializer.
var namespacePrefixes = map[string]string{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main":           "w",
	"http://schemas.openxmlformats.org/officeDocument/2006/relationships":    "r",
	"http://schemas.openxmlformats.org/officeDocument/2006/math":             "m",
	"http://www.w3.org/XML/1998/namespace":                                   "xml",
	"http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing": "wp",
	"http://schemas.openxmlformats.org/drawingml/2006/main":                  "a",
	"http://schemas.openxmlformats.org/drawingml/2006/picture":               "pic",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing":    "wp14",
	"http://schemas.microsoft.com/office/drawing/2010/main":                  "a14",
	"urn:schemas-microsoft-com:vml":                                          "v",
	"urn:schemas-microsoft-com:office:office":                                "o",
	"urn:schemas-microsoft-com:office:word":                                  "w10",
	"http://schemas.openxmlformats.org/markup-compatibility/2006":            "mc",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":      "wps",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas":     "wpc",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingGroup":      "wpg",
	"http://schemas.microsoft.com/office/word/2010/wordprocessingInk":        "wpi",
	"http://schemas.microsoft.com/office/word/2010/wordml":                   "w14",
	"http://schemas.microsoft.com/office/word/2012/wordml":                   "w15",
	"http://schemas.microsoft.com/office/word/2015/wordml/symex":             "w16se",
	"http://schemas.microsoft.com/office/word/2016/wordml/cid":               "w16cid",
	"http://schemas.microsoft.com/office/word/2018/wordml":                   "w16",
	"http://schemas.microsoft.com/office/word/2018/wordml/cex":               "w16cex",
	"http://schemas.microsoft.com/office/word/2020/wordml/sdtdatahash":       "w16sdtdh",
	"http://schemas.microsoft.com/office/word/2006/wordml":                   "wne",
	"http://schemas.microsoft.com/office/2019/extlst":                        "oel",
	"http://schemas.microsoft.com/office/drawing/2016/ink":                   "aink",
	"http://schemas.microsoft.com/office/drawing/2017/model3d":               "am3d",
}

// prefixFor converts a namespace URI to its conventional prefix. Names
// parsed from documents without xmlns declarations keep their literal
// prefix as the Space, which passes through unchanged.
func prefixFor(space string) string {
	if p, ok := namespacePrefixes[space]; ok {
		return p
	}
	return space
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	return prefixFor(name.Space) + ":" + name.Local
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
