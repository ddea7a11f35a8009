package export

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"bsr/internal/step"
)

// RTF writes a Rich Text Format document with the screenshots embedded as
// \pngblip pictures.
type RTF struct{}

// Render writes the RTF document to target.
func (RTF) Render(steps []*step.Step, target string) error {
	if err := ensureDir(target); err != nil {
		return fmt.Errorf("export rtf: %w", err)
	}
	title := titleFor(target)

	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0 Segoe UI;}}` + "\n")
	fmt.Fprintf(&b, `{\pard\b\fs32 %s\par}\par`+"\n", escapeRTF(title))

	for _, s := range steps {
		fmt.Fprintf(&b, `{\pard\b\fs24 Step %d: %s\par}`+"\n", s.Number, escapeRTF(s.Text))
		if len(s.Screenshot) > 0 {
			if err := writeRTFImage(&b, s.Screenshot); err != nil {
				return fmt.Errorf("export rtf: step %d: %w", s.Number, err)
			}
		}
		b.WriteString(`{\pard\fs18 ----------------------------\par}\par` + "\n")
	}

	fmt.Fprintf(&b, `{\pard\qc\fs16 Generated with Better Steps Recorder (%s)\par}`+"\n", escapeRTF(projectURL))
	b.WriteString("}\n")

	if err := os.WriteFile(target, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("export rtf: %w", err)
	}
	return nil
}

// writeRTFImage embeds a PNG. Dimensions are declared twice: \picw/\pich
// in hundredths of a millimetre and the goal sizes in twips, both assuming
// the 96 dpi screens the capture came from.
func writeRTFImage(b *strings.Builder, data []byte) error {
	w, h, err := pngSize(data)
	if err != nil {
		return err
	}
	hmm := func(px int) int { return px * 2540 / 96 }
	twips := func(px int) int { return px * 1440 / 96 }

	// Keep wide captures inside a letter page's printable width.
	const maxTwips = 9000
	goalW, goalH := twips(w), twips(h)
	if goalW > maxTwips {
		goalH = goalH * maxTwips / goalW
		goalW = maxTwips
	}

	fmt.Fprintf(b, `{\pard{\pict\pngblip\picw%d\pich%d\picwgoal%d\pichgoal%d `,
		hmm(w), hmm(h), goalW, goalH)
	b.WriteString(hex.EncodeToString(data))
	b.WriteString(`}\par}` + "\n")
	return nil
}

func escapeRTF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)
	escaped := r.Replace(s)
	var b strings.Builder
	for _, c := range escaped {
		if c > 127 {
			fmt.Fprintf(&b, `\u%d?`, int16(c))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
