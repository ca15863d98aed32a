package judge

import (
	"bufio"
	"bytes"
	"strings"
	"unicode"
)

const maxLineBytes = 1 << 20

// CompareOutputs reports whether actual matches expected under judge-style
// comparison: trailing whitespace on each line and trailing blank lines are
// ignored, whitespace inside a line is significant.
func CompareOutputs(expected, actual string) bool {
	expScan := newLineScanner(expected)
	actScan := newLineScanner(actual)

	for {
		exp, hasExp := scanTrimRight(expScan)
		act, hasAct := scanTrimRight(actScan)

		// EOF on both sides at the same time
		if !hasExp && !hasAct {
			return true
		}
		if exp != act {
			return false
		}
		if hasExp && hasAct {
			continue
		}
		// one side is done; the other may only have blank lines left
		return onlyBlankLeft(expScan) && onlyBlankLeft(actScan)
	}
}

func newLineScanner(s string) *bufio.Scanner {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func scanTrimRight(sc *bufio.Scanner) (string, bool) {
	if sc.Scan() {
		return string(bytes.TrimRightFunc(sc.Bytes(), unicode.IsSpace)), true
	}
	return "", false
}

func onlyBlankLeft(sc *bufio.Scanner) bool {
	for sc.Scan() {
		if len(bytes.TrimRightFunc(sc.Bytes(), unicode.IsSpace)) != 0 {
			return false
		}
	}
	return true
}
