// Package export renders ledger snapshots into shareable documents. Each
// format is an independent strategy over the same read-only step list;
// exporters never mutate the ledger.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"bsr/internal/step"
)

// projectURL is appended as a footer by the document exporters.
const projectURL = "https://github.com/Mentaleak/BetterStepsRecorder"

// Exporter renders an ordered step list to the target path. For file
// formats the target is the output file; for Obsidian it is the vault
// root.
type Exporter interface {
	Render(steps []*step.Step, target string) error
}

// ForFormat returns the exporter registered under the given name. title is
// used for document headings and derived file names.
func ForFormat(format, title string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "html":
		return &HTML{}, nil
	case "rtf":
		return &RTF{}, nil
	case "odt":
		return &ODT{Title: title}, nil
	case "obsidian", "md", "markdown":
		return &Obsidian{FileName: title}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// imageFileName builds the per-step image name used by the HTML and ODT
// exporters: step number plus a short id suffix so renumbered exports
// never collide.
func imageFileName(s *step.Step) string {
	return fmt.Sprintf("step_%d_%s.png", s.Number, shortID(s))
}

func shortID(s *step.Step) string {
	return s.ID.String()[:8]
}

// pngSize returns the pixel dimensions of a PNG payload.
func pngSize(data []byte) (w, h int, err error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ensureDir creates the directory holding path if needed.
func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// titleFor derives a document title from an output path.
func titleFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
