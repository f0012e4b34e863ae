// Package siser frames blocks of data as records in an append-only text file.
//
// Each record is a header line followed by data:
//
//	--- ${len(data)} ${unix_ms} ${name}\n
//	${data}
//
// If data doesn't end with a newline, one is added for readability.
package siser

import (
	"bytes"
	"strconv"
	"time"
)

var hdrPrefix = []byte("--- ")

// MarshalLine returns d framed as a record.
// If t is zero, timestamp is not written.
func MarshalLine(name string, t time.Time, d []byte) []byte {
	var wb bytes.Buffer
	// it's ok to estimate more, estimating less will require an alloc
	wb.Grow(len(hdrPrefix) + len(name) + len(d) + 32)

	wb.Write(hdrPrefix)
	dataLen := len(d)
	wb.WriteString(strconv.Itoa(dataLen))
	if !t.IsZero() {
		wb.WriteByte(' ')
		wb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	}
	if name != "" {
		wb.WriteByte(' ')
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	if dataLen > 0 {
		wb.Write(d)
		if d[dataLen-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}
