package export

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"bsr/internal/step"
)

// HTML writes a single page with the screenshots saved to an images/
// folder next to it.
type HTML struct{}

// Render writes the HTML document to target.
func (HTML) Render(steps []*step.Step, target string) error {
	if err := ensureDir(target); err != nil {
		return fmt.Errorf("export html: %w", err)
	}
	imagesDir := filepath.Join(filepath.Dir(target), "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return fmt.Errorf("export html: %w", err)
	}
	title := html.EscapeString(titleFor(target))

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("    <meta charset=\"UTF-8\">\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", title)
	b.WriteString(`    <style>
        body { font-family: 'Segoe UI', Arial, sans-serif; margin: 20px; }
        h1 { color: #2c3e50; }
        h2 { color: #3498db; margin-top: 30px; }
        img { max-width: 100%; border: 1px solid #ddd; margin: 15px 0; }
        .separator { border-bottom: 1px solid #eee; margin: 20px 0; }
        .footer { color: #7f8c8d; font-size: 0.8em; margin-top: 30px; text-align: center; }
        .footer a { color: #3498db; text-decoration: none; }
    </style>
</head>
<body>
`)
	fmt.Fprintf(&b, "    <h1>%s</h1>\n", title)

	for _, s := range steps {
		fmt.Fprintf(&b, "    <h2>Step %d: %s</h2>\n", s.Number, html.EscapeString(s.Text))
		if len(s.Screenshot) > 0 {
			name := imageFileName(s)
			if err := os.WriteFile(filepath.Join(imagesDir, name), s.Screenshot, 0o644); err != nil {
				return fmt.Errorf("export html: write image: %w", err)
			}
			fmt.Fprintf(&b, "    <img src=\"images/%s\" alt=\"Screenshot for Step %d\">\n", name, s.Number)
		}
		b.WriteString("    <div class=\"separator\"></div>\n")
	}

	fmt.Fprintf(&b, "    <div class=\"footer\">\n        Generated with <a href=%q target=\"_blank\">Better Steps Recorder</a>\n    </div>\n", projectURL)
	b.WriteString("</body>\n</html>\n")

	if err := os.WriteFile(target, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("export html: %w", err)
	}
	return nil
}
