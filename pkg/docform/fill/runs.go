package fill

import (
	"strings"

	"github.com/wenlake/docform/pkg/docform/ooxml"
)

// runSpan locates a placeholder inside a paragraph's runs. Offsets are
// measured in the run's own text, not the paragraph text.
type runSpan struct {
	startRun int // index into the paragraph's runs
	endRun   int
	startOff int // offset of the placeholder inside the start run
	endOff   int // offset just past the placeholder inside the end run
}

// findPlaceholderSpan walks the concatenated run texts looking for the
// placeholder, which Word frequently splits across style runs. Returns
// nil when the placeholder does not line up with the run boundaries.
func findPlaceholderSpan(runs []*ooxml.Run, full string) *runSpan {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.GetText())
	}
	text := b.String()
	start := strings.Index(text, full)
	if start < 0 {
		return nil
	}
	end := start + len(full)

	span := &runSpan{startRun: -1, endRun: -1}
	pos := 0
	for i, r := range runs {
		n := len(r.GetText())
		if span.startRun < 0 && pos <= start && start < pos+n {
			span.startRun = i
			span.startOff = start - pos
		}
		if pos < end && end <= pos+n {
			span.endRun = i
			span.endOff = end - pos
			break
		}
		pos += n
	}
	if span.startRun < 0 || span.endRun < 0 {
		return nil
	}
	return span
}

// inlineReplace substitutes one placeholder occurrence with value while
// keeping the surrounding runs, so character formatting survives the
// fill. When the placeholder spans several runs the value lands in the
// first one and the runs in between are emptied.
func inlineReplace(p *ooxml.Paragraph, full, value string) {
	runs := p.Runs()
	span := findPlaceholderSpan(runs, full)
	if span == nil {
		// The placeholder may still be visible at paragraph level
		// (broken up by non-run children). Rebuilding the text loses
		// per-run styling, which beats leaving the placeholder behind.
		text := p.Text()
		if !strings.Contains(text, full) || len(runs) == 0 {
			return
		}
		runs[0].SetText(strings.ReplaceAll(text, full, value))
		for _, r := range runs[1:] {
			r.SetText("")
		}
		return
	}

	if span.startRun == span.endRun {
		r := runs[span.startRun]
		text := r.GetText()
		r.SetText(text[:span.startOff] + value + text[span.endOff:])
		return
	}

	first := runs[span.startRun]
	first.SetText(first.GetText()[:span.startOff] + value)
	for i := span.startRun + 1; i < span.endRun; i++ {
		runs[i].SetText("")
	}
	last := runs[span.endRun]
	last.SetText(last.GetText()[span.endOff:])
}
