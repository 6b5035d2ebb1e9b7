// Package doctest assembles minimal DOCX packages for tests.
package doctest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const documentPrefix = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><w:body>`

const documentSuffix = `</w:body></w:document>`

// Builder accumulates parts of a DOCX package.
type Builder struct {
	bodyXML string
	headers []string
	footers []string
	media   map[string][]byte
	rels    []string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{media: make(map[string][]byte)}
}

// Body appends raw body content (markup between <w:body> and </w:body>).
func (b *Builder) Body(xml string) *Builder {
	b.bodyXML += xml
	return b
}

// Paragraph appends a single-run paragraph with the given text.
func (b *Builder) Paragraph(text string) *Builder {
	b.bodyXML += `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
	return b
}

// Header adds a header part with the given inner content.
func (b *Builder) Header(xml string) *Builder {
	b.headers = append(b.headers, xml)
	return b
}

// Footer adds a footer part with the given inner content.
func (b *Builder) Footer(xml string) *Builder {
	b.footers = append(b.footers, xml)
	return b
}

// Media adds a word/media file.
func (b *Builder) Media(name string, data []byte) *Builder {
	b.media[name] = data
	return b
}

// ImageRel adds an image relationship to the document part.
func (b *Builder) ImageRel(id, target string) *Builder {
	b.rels = append(b.rels, fmt.Sprintf(
		`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`,
		id, target))
	return b
}

// Bytes assembles the package.
func (b *Builder) Bytes() []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	ctDefaults := `<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>`
	ct := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` + ctDefaults +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	write(w, "[Content_Types].xml", []byte(ct))

	write(w, "_rels/.rels", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`))

	write(w, "word/document.xml", []byte(documentPrefix+b.bodyXML+documentSuffix))

	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + strings.Join(b.rels, "") + `</Relationships>`
	write(w, "word/_rels/document.xml.rels", []byte(rels))

	for i, h := range b.headers {
		name := fmt.Sprintf("word/header%d.xml", i+1)
		content := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` + h + `</w:hdr>`
		write(w, name, []byte(content))
	}
	for i, f := range b.footers {
		name := fmt.Sprintf("word/footer%d.xml", i+1)
		content := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` + f + `</w:ftr>`
		write(w, name, []byte(content))
	}

	for name, data := range b.media {
		write(w, "word/media/"+name, data)
	}

	w.Close()
	return buf.Bytes()
}

func write(w *zip.Writer, name string, content []byte) {
	fw, err := w.Create(name)
	if err != nil {
		panic(err)
	}
	if _, err := fw.Write(content); err != nil {
		panic(err)
	}
}

// TinyPNG is a 1x1 transparent PNG payload.
var TinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}
