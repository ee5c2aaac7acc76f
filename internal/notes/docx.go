package notes

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName   = "Times New Roman"
	fontSize   = 13
	titleSize  = 16
	headSize   = 14
	textColor  = "000000"
	mutedColor = "555555"
)

var (
	reBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reHeader = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
)

// docxWriter lays out one notes document.
type docxWriter struct {
	doc *docx.RootDoc
}

// writeDocx saves n as a styled docx file at path.
func writeDocx(n Notes, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}
	w := &docxWriter{doc: doc}

	w.bold(n.Title, titleSize)
	if !n.CreatedAt.IsZero() {
		w.muted(n.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.section(HeadingTranscript, n.Transcript)
	w.section(HeadingSummary, n.Summary)
	w.section(HeadingQuiz, n.Quiz)

	return doc.SaveTo(path)
}

func (w *docxWriter) section(heading, body string) {
	w.bold(heading, headSize)

	body = strings.TrimSpace(body)
	if body == "" {
		w.muted("(empty)")
		return
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == "---":
		case reHeader.MatchString(line):
			w.bold(reHeader.FindStringSubmatch(line)[1], fontSize)
		case reBullet.MatchString(line):
			w.rich("• " + reBullet.FindStringSubmatch(line)[1])
		default:
			w.rich(line)
		}
	}
}

func (w *docxWriter) bold(text string, size uint64) {
	w.doc.AddParagraph("").AddText(cleanMarkdownInline(text)).
		Font(fontName).Size(size).Color(textColor).Bold(true)
}

func (w *docxWriter) muted(text string) {
	w.doc.AddParagraph("").AddText(text).
		Font(fontName).Size(fontSize).Color(mutedColor).Italic(true)
}

// rich writes one paragraph, turning **spans** into bold runs.
func (w *docxWriter) rich(text string) {
	p := w.doc.AddParagraph("")
	last := 0
	for _, loc := range reBold.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			p.AddText(cleanMarkdownInline(text[last:loc[0]])).Font(fontName).Size(fontSize).Color(textColor)
		}
		p.AddText(cleanMarkdownInline(text[loc[2]:loc[3]])).Font(fontName).Size(fontSize).Color(textColor).Bold(true)
		last = loc[1]
	}
	if last < len(text) {
		p.AddText(cleanMarkdownInline(text[last:])).Font(fontName).Size(fontSize).Color(textColor)
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
