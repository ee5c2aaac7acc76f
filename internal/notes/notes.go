// Package notes renders pipeline output as markdown and exports it to
// markdown and docx files.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Notes is the rendered result of one lecture.
type Notes struct {
	Title      string
	Transcript string
	Summary    string
	Quiz       string
	CreatedAt  time.Time
}

// Section headings, in render order.
const (
	HeadingTranscript = "Transcript"
	HeadingSummary    = "Study Notes"
	HeadingQuiz       = "Quiz"
)

const emptyPlaceholder = "_(empty)_"

var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Render returns the three sections as one markdown document.
func Render(n Notes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	if !n.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "_%s_\n\n", n.CreatedAt.Format("2006-01-02 15:04"))
	}
	writeSection(&b, HeadingTranscript, n.Transcript)
	writeSection(&b, HeadingSummary, n.Summary)
	writeSection(&b, HeadingQuiz, n.Quiz)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, heading, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		body = emptyPlaceholder
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, body)
}

// Export writes <base>.md and <base>.docx into dir and returns their paths.
// base is derived from the title.
func Export(dir string, n Notes) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}

	base := FileBase(n.Title)
	md := Render(n)

	mdPath := filepath.Join(dir, base+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	docxPath := filepath.Join(dir, base+".docx")
	if err := writeDocx(n, docxPath); err != nil {
		return []string{mdPath}, fmt.Errorf("write docx: %w", err)
	}

	return []string{mdPath, docxPath}, nil
}

// FileBase turns a title into a file name without extension.
func FileBase(title string) string {
	base := strings.TrimSuffix(title, filepath.Ext(title))
	base = strings.Trim(reUnsafe.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		return "lecture"
	}
	return base
}
