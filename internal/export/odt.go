package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"bsr/internal/step"
)

// ODT writes an OpenDocument Text package: a zip container with the
// mimetype as the first, uncompressed entry, content.xml/styles.xml/
// meta.xml, a META-INF manifest, and the screenshots under Pictures/.
type ODT struct {
	Title string
}

const odtMimetype = "application/vnd.oasis.opendocument.text"

// Render writes the ODT package to target.
func (o *ODT) Render(steps []*step.Step, target string) error {
	if err := ensureDir(target); err != nil {
		return fmt.Errorf("export odt: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("export odt: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	// The mimetype entry must come first and must be stored, not
	// deflated, so document viewers can sniff it.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("export odt: %w", err)
	}
	if _, err := mw.Write([]byte(odtMimetype)); err != nil {
		return fmt.Errorf("export odt: %w", err)
	}

	title := o.Title
	if title == "" {
		title = titleFor(target)
	}

	entries := map[string]string{
		"META-INF/manifest.xml": o.manifestXML(steps),
		"content.xml":           o.contentXML(steps, title),
		"styles.xml":            odtStylesXML,
		"meta.xml":              o.metaXML(title),
	}
	for _, name := range []string{"META-INF/manifest.xml", "content.xml", "styles.xml", "meta.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("export odt: %w", err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			return fmt.Errorf("export odt: %w", err)
		}
	}

	for _, s := range steps {
		if len(s.Screenshot) == 0 {
			continue
		}
		w, err := zw.Create("Pictures/" + imageFileName(s))
		if err != nil {
			return fmt.Errorf("export odt: %w", err)
		}
		if _, err := w.Write(s.Screenshot); err != nil {
			return fmt.Errorf("export odt: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("export odt: %w", err)
	}
	return f.Close()
}

func (o *ODT) manifestXML(steps []*step.Step) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0">` + "\n")
	entry := func(mediaType, fullPath string) {
		fmt.Fprintf(&b, `  <manifest:file-entry manifest:media-type=%q manifest:full-path=%q/>`+"\n", mediaType, fullPath)
	}
	entry(odtMimetype, "/")
	entry("text/xml", "content.xml")
	entry("text/xml", "styles.xml")
	entry("text/xml", "meta.xml")
	for _, s := range steps {
		if len(s.Screenshot) > 0 {
			entry("image/png", "Pictures/"+imageFileName(s))
		}
	}
	b.WriteString(`</manifest:manifest>` + "\n")
	return b.String()
}

func (o *ODT) contentXML(steps []*step.Step, title string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<office:document-content` +
		` xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"` +
		` xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"` +
		` xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"` +
		` xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"` +
		` xmlns:xlink="http://www.w3.org/1999/xlink"` +
		` xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"` +
		` xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"` +
		` office:version="1.2">` + "\n")
	b.WriteString(`  <office:automatic-styles>
    <style:style style:name="Title" style:family="paragraph">
      <style:paragraph-properties fo:margin-bottom="0.25in"/>
      <style:text-properties fo:font-size="18pt" fo:font-weight="bold"/>
    </style:style>
    <style:style style:name="StepHeader" style:family="paragraph">
      <style:paragraph-properties fo:margin-top="0.2in" fo:margin-bottom="0.1in"/>
      <style:text-properties fo:font-size="12pt" fo:font-weight="bold"/>
    </style:style>
  </office:automatic-styles>
`)
	b.WriteString("  <office:body>\n    <office:text>\n")
	fmt.Fprintf(&b, `      <text:p text:style-name="Title">%s</text:p>`+"\n", escapeXML(title))

	for _, s := range steps {
		fmt.Fprintf(&b, `      <text:p text:style-name="StepHeader">Step %d: %s</text:p>`+"\n",
			s.Number, escapeXML(s.Text))
		if len(s.Screenshot) == 0 {
			continue
		}
		w, h, err := pngSize(s.Screenshot)
		if err != nil {
			continue
		}
		// Scale to a 6.5 inch printable width at the 96 dpi the capture
		// was taken at.
		widthIn := float64(w) / 96
		heightIn := float64(h) / 96
		if widthIn > 6.5 {
			heightIn = heightIn * 6.5 / widthIn
			widthIn = 6.5
		}
		fmt.Fprintf(&b, `      <text:p><draw:frame draw:name="Step%d" svg:width="%.2fin" svg:height="%.2fin"><draw:image xlink:href="Pictures/%s" xlink:type="simple" xlink:show="embed" xlink:actuate="onLoad"/></draw:frame></text:p>`+"\n",
			s.Number, widthIn, heightIn, imageFileName(s))
	}

	fmt.Fprintf(&b, `      <text:p>Generated with Better Steps Recorder (%s)</text:p>`+"\n", escapeXML(projectURL))
	b.WriteString("    </office:text>\n  </office:body>\n</office:document-content>\n")
	return b.String()
}

func (o *ODT) metaXML(title string) string {
	return xml.Header + fmt.Sprintf(`<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" office:version="1.2">
  <office:meta>
    <dc:title>%s</dc:title>
    <meta:generator>Better Steps Recorder</meta:generator>
    <meta:creation-date>%s</meta:creation-date>
  </office:meta>
</office:document-meta>
`, escapeXML(title), time.Now().Format(time.RFC3339))
}

const odtStylesXML = xml.Header + `<office:document-styles xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" office:version="1.2">
  <office:styles/>
</office:document-styles>
`

func escapeXML(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
