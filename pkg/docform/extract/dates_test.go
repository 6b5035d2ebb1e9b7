package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDateCJKRange(t *testing.T) {
	text := "2023年1月1日 至 2023年12月31日"
	assert.Equal(t, "2023年1月1日", extractDate(StartDateField, text))
	assert.Equal(t, "2023年12月31日", extractDate(EndDateField, text))
}

func TestExtractDateSingleCJK(t *testing.T) {
	text := "2023年5月1日"
	assert.Equal(t, "2023年5月1日", extractDate(StartDateField, text))
	assert.Equal(t, "2023年5月1日", extractDate(EndDateField, text))
}

func TestExtractDateNumericRange(t *testing.T) {
	text := "2023-01-01 到 2023-12-31"
	assert.Equal(t, "2023-01-01", extractDate(StartDateField, text))
	assert.Equal(t, "2023-12-31", extractDate(EndDateField, text))
}

func TestExtractDateNumericSlash(t *testing.T) {
	assert.Equal(t, "2023/6/15", extractDate(StartDateField, "日期：2023/6/15"))
}

func TestExtractDateBlankRangeForm(t *testing.T) {
	text := "年 月 日 至 年 月 日"
	assert.Equal(t, "年 月 日", extractDate(StartDateField, text))
	assert.Equal(t, "年 月 日", extractDate(EndDateField, text))
}

func TestExtractDateNoMatch(t *testing.T) {
	assert.Equal(t, "", extractDate(StartDateField, "没有日期的文本"))
}

func TestIsDateField(t *testing.T) {
	assert.True(t, IsDateField(StartDateField))
	assert.True(t, IsDateField(EndDateField))
	assert.False(t, IsDateField("姓名"))
}
