package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionalValueLabelPrefixed(t *testing.T) {
	v := positionalValue("{{姓名}}", "姓名：{{姓名}}", "姓名：张三")
	assert.Equal(t, "张三", v)
}

func TestPositionalValueLabelWithASCIIColon(t *testing.T) {
	v := positionalValue("${name}", "name: ${name}", "name: Alice")
	assert.Equal(t, "Alice", v)
}

func TestPositionalValueLabelStopsAtSeparator(t *testing.T) {
	v := positionalValue("{{姓名}}", "姓名：{{姓名}}", "姓名：张三，性别：男")
	assert.Equal(t, "张三", v)
}

func TestPositionalValueBetweenPrefixAndSuffix(t *testing.T) {
	v := positionalValue("{{编号}}", "合同编号为{{编号}}号文件", "合同编号为A-102号文件")
	assert.Equal(t, "A-102", v)
}

func TestPositionalValuePrefixOnlyTerminator(t *testing.T) {
	v := positionalValue("{{备注}}", "备注说明{{备注}}", "备注说明加急处理。其余不变")
	assert.Equal(t, "加急处理", v)
}

func TestPositionalValuePrefixOnlyCapsLongText(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += "甲"
	}
	v := positionalValue("{{备注}}", "备注说明{{备注}}", "备注说明"+long)
	assert.Len(t, []rune(v), prefixOnlyCap)
}

func TestPositionalValueWholeCell(t *testing.T) {
	v := positionalValue("{{姓名}}", " {{姓名}} ", "  张三\n")
	assert.Equal(t, "张三", v)
}

func TestPositionalValueNoAlignment(t *testing.T) {
	v := positionalValue("{{姓名}}", "姓名：{{姓名}}", "完全不相关的文本")
	assert.Equal(t, "", v)
}
