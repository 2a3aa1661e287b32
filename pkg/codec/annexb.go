package codec

import (
	"bufio"
	"bytes"
	"io"
)

// nalAUD is the H.264 access unit delimiter NAL unit type.
const nalAUD = 9

// maxAccessUnit bounds the scanner buffer. A single 8K intra frame at high
// quality stays well below this.
const maxAccessUnit = 64 << 20

// SplitAccessUnits is a bufio.SplitFunc for an H.264 Annex-B byte stream in
// which every access unit starts with an access unit delimiter. Each token is
// one complete access unit including its start codes. Bytes preceding the
// first delimiter are kept with the first access unit.
func SplitAccessUnits(data []byte, atEOF bool) (advance int, token []byte, err error) {
	first := findAUD(data, 0)
	if first >= 0 {
		if next := findAUD(data, first+3); next >= 0 {
			return next, data[:next], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// findAUD returns the offset of the first start code at or after from that
// introduces an AUD, including the leading zero of a 4-byte start code.
func findAUD(data []byte, from int) int {
	startCode := []byte{0, 0, 1}
	for i := from; i+3 < len(data); {
		j := bytes.Index(data[i:len(data)-1], startCode)
		if j < 0 {
			return -1
		}
		pos := i + j
		if data[pos+3]&0x1F == nalAUD {
			if pos > from && data[pos-1] == 0 {
				return pos - 1
			}
			return pos
		}
		i = pos + 3
	}
	return -1
}

// NewAccessUnitScanner returns a scanner yielding the access units of r.
func NewAccessUnitScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 1<<20), maxAccessUnit)
	s.Split(SplitAccessUnits)
	return s
}
