package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bsr/internal/step"
)

// Obsidian writes a markdown note plus step images into an Obsidian vault.
// The render target is the vault root; it must contain a .obsidian
// directory.
type Obsidian struct {
	// FileName is the note name without the .md extension.
	FileName string
	// Subfolder optionally places the note below the vault root.
	Subfolder string
}

// Render writes the note and its images into the vault at target.
func (o *Obsidian) Render(steps []*step.Step, target string) error {
	if _, err := os.Stat(filepath.Join(target, ".obsidian")); err != nil {
		return fmt.Errorf("export obsidian: %s is not an Obsidian vault (no .obsidian directory)", target)
	}

	imageDir, err := o.imageFolder(target)
	if err != nil {
		return fmt.Errorf("export obsidian: %w", err)
	}

	noteDir := target
	if o.Subfolder != "" {
		noteDir = filepath.Join(target, o.Subfolder)
		if err := os.MkdirAll(noteDir, 0o755); err != nil {
			return fmt.Errorf("export obsidian: %w", err)
		}
	}
	notePath := filepath.Join(noteDir, o.FileName+".md")

	relImageDir, err := filepath.Rel(target, imageDir)
	if err != nil {
		relImageDir = ""
	}

	used := make(map[string]bool)
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "## Step %d: %s\n\n", s.Number, s.Text)
		if len(s.Screenshot) > 0 {
			// Prefer a readable name; fall back to an id suffix on
			// collision (same note exported twice into one vault, or
			// duplicate step numbers from a legacy file).
			name := fmt.Sprintf("%s_step%d.png", o.FileName, s.Number)
			if used[name] {
				name = fmt.Sprintf("%s_step%d_%s.png", o.FileName, s.Number, shortID(s))
			}
			used[name] = true
			if err := os.WriteFile(filepath.Join(imageDir, name), s.Screenshot, 0o644); err != nil {
				return fmt.Errorf("export obsidian: write image: %w", err)
			}
			link := filepath.ToSlash(filepath.Join(relImageDir, name))
			fmt.Fprintf(&b, "![[%s]]\n\n", link)
		}
		b.WriteString("---\n\n")
	}
	fmt.Fprintf(&b, "\nGenerated with [Better Steps Recorder](%s)\n", projectURL)

	if err := os.WriteFile(notePath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("export obsidian: %w", err)
	}
	return nil
}

// imageFolder picks the vault's configured attachment folder, or a BSR
// default when the vault settings do not name one.
func (o *Obsidian) imageFolder(vault string) (string, error) {
	dir := filepath.Join(vault, "BSR", "images")
	if data, err := os.ReadFile(filepath.Join(vault, ".obsidian", "app.json")); err == nil {
		var settings struct {
			AttachmentFolderPath string `json:"attachmentFolderPath"`
		}
		if json.Unmarshal(data, &settings) == nil && settings.AttachmentFolderPath != "" &&
			!strings.HasPrefix(settings.AttachmentFolderPath, ".") {
			dir = filepath.Join(vault, settings.AttachmentFolderPath)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
