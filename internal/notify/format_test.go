package notify_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hepwatch/arxivbot/internal/feed"
	"github.com/hepwatch/arxivbot/internal/notify"
)

func sampleEntry() feed.Entry {
	return feed.Entry{
		ID:       "2101.00001",
		Title:    "Holography & the Swampland",
		Authors:  []string{"Cumrun Vafa", "Jane Doe"},
		Comments: "42 pages",
		Abstract: "We study <swampland> bounds.",
		AbsURL:   "https://arxiv.org/abs/2101.00001",
		PDFURL:   "https://arxiv.org/pdf/2101.00001",
	}
}

func TestFormatEntry(t *testing.T) {
	text := notify.FormatEntry(sampleEntry())

	assert.Contains(t, text, "Title:- Holography &amp; the Swampland")
	assert.Contains(t, text, "Comment:- 42 pages")
	assert.Contains(t, text, "Abstract:- We study &lt;swampland&gt; bounds.")
	assert.Contains(t, text, `HTML:- <a href="https://arxiv.org/abs/2101.00001">arXiv</a>`)
	assert.Contains(t, text, `PDF:- <a href="https://arxiv.org/pdf/2101.00001">PDF</a>`)
}

func TestFormatEntryAuthorLinks(t *testing.T) {
	text := notify.FormatEntry(sampleEntry())

	assert.Contains(t, text, `<a href="https://inspirehep.net/authors?sort=bestmatch&size=25&page=1&q=%22Cumrun+Vafa%22">Cumrun Vafa</a>`)
	assert.Contains(t, text, ">Jane Doe</a>")
}

func TestFormatEntrySkipsEmptyFields(t *testing.T) {
	text := notify.FormatEntry(feed.Entry{
		ID:     "2101.00002",
		Title:  "Minimal",
		AbsURL: "https://arxiv.org/abs/2101.00002",
	})

	assert.NotContains(t, text, "Author:-")
	assert.NotContains(t, text, "Comment:-")
	assert.NotContains(t, text, "Abstract:-")
	assert.Contains(t, text, "Title:- Minimal")
}

func TestFormatEntryTruncatesLongAbstract(t *testing.T) {
	e := sampleEntry()
	e.Abstract = strings.Repeat("very long abstract ", 500)

	text := notify.FormatEntry(e)
	assert.LessOrEqual(t, len(text), 4000)
	assert.Contains(t, text, "...")
	// The link lines come after the abstract and must survive the cut.
	assert.True(t, strings.HasSuffix(text, `>PDF</a>`))
}

func TestFormatEntryTruncatesMultiByteAbstract(t *testing.T) {
	e := sampleEntry()
	e.Abstract = strings.Repeat("αβγδε", 900)

	text := notify.FormatEntry(e)
	assert.LessOrEqual(t, len(text), 4000)
	assert.True(t, utf8.ValidString(text), "truncation must not split a rune")
	assert.Contains(t, text, "Abstract:- αβγδε")
	assert.True(t, strings.HasSuffix(text, `>PDF</a>`))
}

func TestFormatEntryDropsAbstractWhenRestIsHuge(t *testing.T) {
	e := sampleEntry()
	e.Title = strings.Repeat("T", 3900)
	e.Abstract = "short"

	text := notify.FormatEntry(e)
	assert.LessOrEqual(t, len(text), 4000)
	assert.True(t, utf8.ValidString(text))
	assert.NotContains(t, text, "Abstract:-")
}
