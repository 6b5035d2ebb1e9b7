// Package docx reads and writes DOCX packages: the zip container, the
// document body, header and footer parts, relationships, and embedded
// media. Parsing of the WordprocessingML parts is delegated to the
// ooxml package.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/wenlake/docform/pkg/docform/ooxml"
)

// ImageRelationshipType is the relationship type URI for embedded images.
const ImageRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

const relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is one entry of a part's .rels file.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships is the root of a .rels part.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

type contentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []contentTypeDefault  `xml:"Default"`
	Overrides []contentTypeOverride `xml:"Override"`
}

type contentTypeDefault struct {
	XMLName     xml.Name `xml:"Default"`
	Extension   string   `xml:"Extension,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

type contentTypeOverride struct {
	XMLName     xml.Name `xml:"Override"`
	PartName    string   `xml:"PartName,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

var headerFooterPattern = regexp.MustCompile(`^word/(header|footer)\d+\.xml$`)

// xmlProlog is written ahead of regenerated XML parts. Word insists on
// the standalone attribute.
const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// Document is an opened DOCX package. The body and any header/footer
// parts are parsed; all other parts are carried through byte for byte.
type Document struct {
	path  string
	parts map[string][]byte
	order []string

	body    *ooxml.Document
	headers map[string]*ooxml.HeaderFooter
	footers map[string]*ooxml.HeaderFooter
	rels    *Relationships

	addedMedia map[string][]byte
	addedExts  map[string]string
}

// Read opens a DOCX package from its raw bytes.
func Read(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewDocumentError("open", "", fmt.Errorf("not a zip archive: %w", err))
	}

	d := &Document{
		parts:      make(map[string][]byte),
		headers:    make(map[string]*ooxml.HeaderFooter),
		footers:    make(map[string]*ooxml.HeaderFooter),
		addedMedia: make(map[string][]byte),
		addedExts:  make(map[string]string),
	}
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			return nil, NewDocumentError("open", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, NewDocumentError("read", file.Name, err)
		}
		d.parts[file.Name] = content
		d.order = append(d.order, file.Name)
	}

	docXML, ok := d.parts["word/document.xml"]
	if !ok {
		return nil, NewDocumentError("open", "", fmt.Errorf("missing word/document.xml"))
	}
	d.body, err = ooxml.ParseDocument(bytes.NewReader(docXML))
	if err != nil {
		return nil, NewDocumentError("parse", "word/document.xml", err)
	}

	for _, name := range d.order {
		if !headerFooterPattern.MatchString(name) {
			continue
		}
		hf, err := ooxml.ParseHeaderFooter(bytes.NewReader(d.parts[name]))
		if err != nil {
			return nil, NewDocumentError("parse", name, err)
		}
		if hf.RootLocal == "hdr" {
			d.headers[name] = hf
		} else {
			d.footers[name] = hf
		}
	}

	d.rels = &Relationships{Namespace: relationshipsNamespace}
	if relsXML, ok := d.parts["word/_rels/document.xml.rels"]; ok {
		if err := xml.Unmarshal(relsXML, d.rels); err != nil {
			return nil, NewDocumentError("parse", "word/_rels/document.xml.rels", err)
		}
		if d.rels.Namespace == "" {
			d.rels.Namespace = relationshipsNamespace
		}
	}
	return d, nil
}

// Open reads a DOCX package from the filesystem.
func Open(fsys afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, NewDocumentError("open", path, err)
	}
	d, err := Read(data)
	if err != nil {
		if de, ok := err.(*DocumentError); ok && de.Path == "" {
			de.Path = path
		}
		return nil, err
	}
	d.path = path
	return d, nil
}

// Path returns the path the document was opened from, if any.
func (d *Document) Path() string { return d.path }

// Body returns the parsed document body.
func (d *Document) Body() *ooxml.Document { return d.body }

// Paragraphs returns the top-level paragraphs of the body.
func (d *Document) Paragraphs() []*ooxml.Paragraph { return d.body.Paragraphs() }

// Tables returns the top-level tables of the body.
func (d *Document) Tables() []*ooxml.Table { return d.body.Tables() }

// Headers returns the parsed header parts keyed by part name.
func (d *Document) Headers() map[string]*ooxml.HeaderFooter { return d.headers }

// Footers returns the parsed footer parts keyed by part name.
func (d *Document) Footers() map[string]*ooxml.HeaderFooter { return d.footers }

// Relationships returns the document part's relationships.
func (d *Document) Relationships() []Relationship {
	return d.rels.Relationship
}

// ImageRelationships maps relationship IDs to media targets for every
// image relationship of the document part.
func (d *Document) ImageRelationships() map[string]string {
	out := make(map[string]string)
	for _, rel := range d.rels.Relationship {
		if rel.Type == ImageRelationshipType {
			out[rel.ID] = rel.Target
		}
	}
	return out
}

// MediaPayload returns the bytes of a media target as referenced from a
// relationship (for example "media/image1.png").
func (d *Document) MediaPayload(target string) ([]byte, error) {
	name := strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(name, "word/") {
		name = "word/" + name
	}
	if content, ok := d.addedMedia[name]; ok {
		return content, nil
	}
	content, ok := d.parts[name]
	if !ok {
		return nil, NewDocumentError("read", name, fmt.Errorf("media part not found"))
	}
	return content, nil
}

// nextRelationshipID returns the first unused rId.
func (d *Document) nextRelationshipID() string {
	maxID := 0
	for _, rel := range d.rels.Relationship {
		if strings.HasPrefix(rel.ID, "rId") {
			if id, err := strconv.Atoi(rel.ID[3:]); err == nil && id > maxID {
				maxID = id
			}
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

// nextMediaName returns an unused word/media file name for the extension.
func (d *Document) nextMediaName(ext string) string {
	pattern := regexp.MustCompile(`^word/media/image(\d+)\.`)
	maxIdx := 0
	scan := func(name string) {
		if m := pattern.FindStringSubmatch(name); m != nil {
			if idx, err := strconv.Atoi(m[1]); err == nil && idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	for name := range d.parts {
		scan(name)
	}
	for name := range d.addedMedia {
		scan(name)
	}
	return fmt.Sprintf("word/media/image%d.%s", maxIdx+1, ext)
}

// AddImage registers image bytes as a new media part with an image
// relationship and returns the new relationship ID. The package is not
// rewritten until Bytes or Save.
func (d *Document) AddImage(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "", NewDocumentError("add image", d.path, fmt.Errorf("missing image extension"))
	}
	contentType, ok := extensionContentTypes[ext]
	if !ok {
		contentType = "image/" + ext
	}

	name := d.nextMediaName(ext)
	d.addedMedia[name] = data
	d.addedExts[ext] = contentType

	rID := d.nextRelationshipID()
	d.rels.Relationship = append(d.rels.Relationship, Relationship{
		ID:     rID,
		Type:   ImageRelationshipType,
		Target: strings.TrimPrefix(name, "word/"),
	})
	return rID, nil
}

// Bytes rewrites the package with the current body, header/footer,
// relationship, and media state.
func (d *Document) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	writePart := func(name string, content []byte) error {
		fw, err := w.Create(name)
		if err != nil {
			return NewDocumentError("write", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return NewDocumentError("write", name, err)
		}
		return nil
	}

	for _, name := range d.order {
		var content []byte
		switch {
		case name == "word/document.xml":
			out, err := ooxml.MarshalDocument(d.body)
			if err != nil {
				return nil, NewDocumentError("serialize", name, err)
			}
			content = out
		case d.headers[name] != nil:
			out, err := ooxml.MarshalHeaderFooter(d.headers[name])
			if err != nil {
				return nil, NewDocumentError("serialize", name, err)
			}
			content = out
		case d.footers[name] != nil:
			out, err := ooxml.MarshalHeaderFooter(d.footers[name])
			if err != nil {
				return nil, NewDocumentError("serialize", name, err)
			}
			content = out
		case name == "word/_rels/document.xml.rels":
			out, err := xml.Marshal(d.rels)
			if err != nil {
				return nil, NewDocumentError("serialize", name, err)
			}
			content = append([]byte(xmlProlog), out...)
		case name == "[Content_Types].xml" && len(d.addedExts) > 0:
			out, err := d.updatedContentTypes(d.parts[name])
			if err != nil {
				return nil, NewDocumentError("serialize", name, err)
			}
			content = out
		default:
			content = d.parts[name]
		}
		if err := writePart(name, content); err != nil {
			return nil, err
		}
	}

	if _, exists := d.parts["word/_rels/document.xml.rels"]; !exists && len(d.rels.Relationship) > 0 {
		out, err := xml.Marshal(d.rels)
		if err != nil {
			return nil, NewDocumentError("serialize", "word/_rels/document.xml.rels", err)
		}
		if err := writePart("word/_rels/document.xml.rels", append([]byte(xmlProlog), out...)); err != nil {
			return nil, err
		}
	}

	for name, content := range d.addedMedia {
		if err := writePart(name, content); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, NewDocumentError("write", d.path, err)
	}
	return buf.Bytes(), nil
}

// updatedContentTypes merges default entries for newly added media
// extensions into [Content_Types].xml.
func (d *Document) updatedContentTypes(original []byte) ([]byte, error) {
	var ct contentTypes
	if err := xml.Unmarshal(original, &ct); err != nil {
		return nil, err
	}
	if ct.Namespace == "" {
		ct.Namespace = "http://schemas.openxmlformats.org/package/2006/content-types"
	}
	registered := make(map[string]bool)
	for _, def := range ct.Defaults {
		registered[strings.ToLower(def.Extension)] = true
	}
	for ext, contentType := range d.addedExts {
		if !registered[ext] {
			ct.Defaults = append(ct.Defaults, contentTypeDefault{
				Extension:   ext,
				ContentType: contentType,
			})
		}
	}
	out, err := xml.Marshal(&ct)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlProlog), out...), nil
}

// Save rewrites the package to the filesystem.
func (d *Document) Save(fsys afero.Fs, path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return NewDocumentError("save", path, err)
	}
	return nil
}
