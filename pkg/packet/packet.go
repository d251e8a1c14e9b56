// Package packet implements the fixed-size MPEG transport stream packet unit
// and the marker scheme that tags packets carrying embedded entry data.
//
// A marked packet reserves its first 12 bytes: the sync byte, the bytes
// 0x1F 0xFF 0x10 (which place the packet on the null PID with a payload-only
// header, so real demuxers drop it), the product tag "AWMK", and a sub-tag
// that is "file" for the first packet of an entry and "data" for every packet
// after it. The remaining 176 bytes carry entry-framed payload.
package packet

import (
	"bytes"
	"errors"
	"io"

	"github.com/beam-cloud/tsmark/pkg/common"
)

const (
	// Size is the fixed MPEG-TS packet size.
	Size = 188

	// SyncByte is the first byte of every valid transport stream packet.
	SyncByte = 0x47

	// MarkerSize is the number of bytes reserved at the front of a marked
	// packet.
	MarkerSize = 12

	// PayloadSize is the number of entry payload bytes a marked packet carries.
	PayloadSize = Size - MarkerSize
)

// Kind classifies a packet by its 12-byte marker region.
type Kind int

const (
	// KindNone marks pass-through stream content not owned by this protocol.
	KindNone Kind = iota
	// KindStart is the first packet of an embedded entry.
	KindStart
	// KindContinuation carries an entry's remaining bytes.
	KindContinuation
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindContinuation:
		return "continuation"
	default:
		return "none"
	}
}

var (
	markerStart        = []byte{SyncByte, 0x1F, 0xFF, 0x10, 'A', 'W', 'M', 'K', 'f', 'i', 'l', 'e'}
	markerContinuation = []byte{SyncByte, 0x1F, 0xFF, 0x10, 'A', 'W', 'M', 'K', 'd', 'a', 't', 'a'}
)

// Packet is one 188-byte transport stream unit.
type Packet struct {
	buf [Size]byte
}

// Read fills the packet with exactly 188 bytes from r. It returns
// (false, nil) on a clean end of stream (zero bytes available),
// (false, common.ErrShortRead) when fewer than 188 bytes remain, and
// (false, common.ErrBadSync) when a full packet was read but its first byte
// is not the sync byte. Callers must distinguish clean EOF from an error.
func (p *Packet) Read(r io.Reader) (bool, error) {
	_, err := io.ReadFull(r, p.buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return false, common.ErrShortRead
		}
		return false, err
	}
	if p.buf[0] != SyncByte {
		return false, common.ErrBadSync
	}
	return true, nil
}

// Write emits the full 188 bytes to w, returning common.ErrShortWrite if the
// sink accepted fewer.
func (p *Packet) Write(w io.Writer) error {
	n, err := w.Write(p.buf[:])
	if err != nil {
		return err
	}
	if n != Size {
		return common.ErrShortWrite
	}
	return nil
}

// Clear zero-fills the packet and stamps the marker region for kind.
func (p *Packet) Clear(kind Kind) {
	p.buf = [Size]byte{}
	switch kind {
	case KindStart:
		copy(p.buf[:], markerStart)
	case KindContinuation:
		copy(p.buf[:], markerContinuation)
	}
}

// Kind classifies the packet by comparing its marker region against the two
// fixed marker values.
func (p *Packet) Kind() Kind {
	switch {
	case bytes.Equal(p.buf[:MarkerSize], markerStart):
		return KindStart
	case bytes.Equal(p.buf[:MarkerSize], markerContinuation):
		return KindContinuation
	default:
		return KindNone
	}
}

// Payload returns the 176-byte payload region for in-place reads and writes.
func (p *Packet) Payload() []byte {
	return p.buf[MarkerSize:]
}

// Bytes returns the full 188-byte buffer.
func (p *Packet) Bytes() []byte {
	return p.buf[:]
}
