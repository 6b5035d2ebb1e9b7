package extract

import (
	"regexp"
	"strings"
)

// terminatorPattern ends a value at a natural boundary: sentence
// punctuation, list separators, a newline, or a run of spaces.
var terminatorPattern = regexp.MustCompile(`[。.;；,，\n]|\s{2,}`)

// prefixOnlyCap bounds the value length when no terminator follows the
// matched prefix.
const prefixOnlyCap = 50

// positionalValue derives the value of a placeholder from the target
// text by aligning it against the placeholder's surroundings in the
// template text. full is the complete matched span ({{姓名}} etc).
//
// Forms tried in order: label-prefixed, between prefix and suffix,
// after a bare prefix up to a terminator, and whole-cell.
func positionalValue(full, templateText, targetText string) string {
	escaped := regexp.QuoteMeta(full)

	// Label-prefixed: "姓名：{{姓名}}" aligns to "姓名：张三".
	labelRe, err := regexp.Compile(`([^:：]+)[:：]\s*` + escaped)
	if err == nil {
		if m := labelRe.FindStringSubmatch(templateText); m != nil {
			label := strings.TrimSpace(m[1])
			valueRe, err := regexp.Compile(regexp.QuoteMeta(label) + `[:：]\s*(.*?)(?:$|\n|,|，|;|；|\s\s)`)
			if err == nil {
				if vm := valueRe.FindStringSubmatch(targetText); vm != nil {
					if v := strings.TrimSpace(vm[1]); v != "" {
						return v
					}
				}
			}
		}
	}

	// Position substitution: text between the placeholder's literal
	// prefix and suffix in the template maps to the value in the target.
	if idx := strings.Index(templateText, full); idx >= 0 {
		prefix := templateText[:idx]
		suffix := templateText[idx+len(full):]

		if strings.Contains(targetText, prefix) && strings.Contains(targetText, suffix) {
			betweenRe, err := regexp.Compile(regexp.QuoteMeta(prefix) + `(.*?)` + regexp.QuoteMeta(suffix))
			if err == nil {
				if m := betweenRe.FindStringSubmatch(targetText); m != nil {
					if v := strings.TrimSpace(m[1]); v != "" {
						return v
					}
				}
			}
		}

		if strings.TrimSpace(prefix) != "" && strings.Contains(targetText, prefix) {
			after := strings.TrimSpace(targetText[strings.Index(targetText, prefix)+len(prefix):])
			if loc := terminatorPattern.FindStringIndex(after); loc != nil {
				if v := strings.TrimSpace(after[:loc[0]]); v != "" {
					return v
				}
			} else if v := capRunes(after, prefixOnlyCap); v != "" {
				return v
			}
		}
	}

	// Whole-cell: the template cell is nothing but the placeholder.
	if strings.TrimSpace(templateText) == full {
		return strings.TrimSpace(targetText)
	}

	return ""
}

func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return strings.TrimSpace(string(runes[:n]))
	}
	return strings.TrimSpace(s)
}
