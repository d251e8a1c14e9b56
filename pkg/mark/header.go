// Package mark implements the entry framing protocol on top of marked
// transport stream packets: a Writer that copies an existing stream untouched
// and appends staged entries, and a Reader that scans a stream and reassembles
// the entries it finds.
package mark

import (
	"bytes"
	"math"
	"strconv"

	"github.com/beam-cloud/tsmark/pkg/common"
)

// frame builds the byte sequence carried across an entry's packets:
// the ASCII decimal payload length, a colon, the entry name, a single NUL
// terminator, then the raw payload bytes.
func frame(e common.Entry) []byte {
	buf := make([]byte, 0, len(e.Name)+len(e.Data)+24)
	buf = strconv.AppendInt(buf, int64(len(e.Data)), 10)
	buf = append(buf, ':')
	buf = append(buf, e.Name...)
	buf = append(buf, 0)
	return append(buf, e.Data...)
}

type header struct {
	name     string
	dataSize int
}

// parseHeader scans buf for the single NUL byte that terminates an entry
// header and parses the "<digits>:<name>" text before it. It reports how many
// bytes the header occupied, terminator included. A buffer with no NUL yet,
// or header text that does not match the digits-colon-name shape, returns
// ok=false: the header may still complete as more packets arrive, so this is
// never an error.
func parseHeader(buf []byte) (h header, n int, ok bool) {
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return header{}, 0, false
	}

	size := 0
	i := 0
	for i < end && buf[i] >= '0' && buf[i] <= '9' {
		if size > (math.MaxInt-9)/10 {
			return header{}, 0, false
		}
		size = size*10 + int(buf[i]-'0')
		i++
	}
	if i >= end || buf[i] != ':' {
		return header{}, 0, false
	}

	h.dataSize = size
	h.name = string(buf[i+1 : end])
	return h, end + 1, true
}
