package judge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareOutputsExactMatch(t *testing.T) {
	assert.True(t, CompareOutputs("hello\nworld\n", "hello\nworld\n"))
}

func TestCompareOutputsTrailingNewlineInsensitive(t *testing.T) {
	assert.True(t, CompareOutputs("hello\n", "hello"))
	assert.True(t, CompareOutputs("hello", "hello\n"))
	assert.True(t, CompareOutputs("hello\n", "hello\n\n\n"))
}

func TestCompareOutputsTrailingSpacePerLineIgnored(t *testing.T) {
	assert.True(t, CompareOutputs("a b\nc d\n", "a b   \nc d\t\n"))
}

func TestCompareOutputsIntraLineWhitespaceSensitive(t *testing.T) {
	assert.False(t, CompareOutputs("a b", "a  b"))
	assert.False(t, CompareOutputs("ab", "a b"))
}

func TestCompareOutputsDifferentContent(t *testing.T) {
	assert.False(t, CompareOutputs("hello", "world"))
	assert.False(t, CompareOutputs("1\n2\n3\n", "1\n2\n"))
	assert.False(t, CompareOutputs("1\n2\n", "1\n2\n3\n"))
}

func TestCompareOutputsTrailingBlankLines(t *testing.T) {
	assert.True(t, CompareOutputs("x\n\n\n", "x"))
	assert.True(t, CompareOutputs("x", "x\n   \n\t\n"))
	// blank line in the middle is significant
	assert.False(t, CompareOutputs("x\n\ny", "x\ny"))
}

func TestCompareOutputsEmpty(t *testing.T) {
	assert.True(t, CompareOutputs("", ""))
	assert.True(t, CompareOutputs("", "\n"))
	assert.False(t, CompareOutputs("", "x"))
}

func TestCompareOutputsLongLines(t *testing.T) {
	long := strings.Repeat("a", 100*1024)
	assert.True(t, CompareOutputs(long, long))
	assert.False(t, CompareOutputs(long, long+"b"))
}
