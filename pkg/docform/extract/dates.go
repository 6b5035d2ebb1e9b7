package extract

import (
	"regexp"
	"strings"
)

// Field names that receive date handling instead of the positional rule.
const (
	StartDateField = "开始日期"
	EndDateField   = "结束日期"
)

// IsDateField reports whether the placeholder name is one of the two
// date fields.
func IsDateField(name string) bool {
	return name == StartDateField || name == EndDateField
}

// The cascade is ordered: full CJK range, bare CJK date, numeric range,
// bare numeric date, and finally a blank range form left by an unfilled
// template (年 月 日 至 年 月 日).
var dateCascade = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}年\s*\d{1,2}月\s*\d{1,2}日)\s*[至到\-~]\s*(\d{4}年\s*\d{1,2}月\s*\d{1,2}日)`),
	regexp.MustCompile(`(\d{4}年\s*\d{1,2}月\s*\d{1,2}日)`),
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})\s*[至到\-~]\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(年\s+月\s+日)\s+[至到\-~]\s*\n?(年\s+月\s+日)`),
}

// rangeSeparatorPattern validates that a cell holds a date range before
// the table tier splits it.
var cjkDateRangePattern = dateCascade[0]

// extractDate resolves a start/end date field directly from the target
// text, ignoring the template's surrounding text. Range patterns yield
// the first capture for the start field and the second for the end
// field; singleton patterns yield their only capture for either.
func extractDate(name, targetText string) string {
	for _, re := range dateCascade {
		m := re.FindStringSubmatch(targetText)
		if m == nil {
			continue
		}
		if len(m) == 3 {
			if name == StartDateField {
				return strings.TrimSpace(m[1])
			}
			return strings.TrimSpace(m[2])
		}
		return strings.TrimSpace(m[1])
	}
	return ""
}
