package mark

import (
	"io"

	"github.com/beam-cloud/tsmark/pkg/common"
	"github.com/beam-cloud/tsmark/pkg/packet"
)

// ReaderStats counts the work done by Load, accumulated across calls.
type ReaderStats struct {
	PacketsScanned    int64
	MarkedPackets     int64
	EntriesRecovered  int64
	PartialsDiscarded int64
}

// Reader scans a transport stream for marked packets and reassembles the
// embedded entries. Pass-through packets are ignored entirely.
type Reader struct {
	entries []common.Entry
	stats   ReaderStats
}

func NewReader() *Reader {
	return &Reader{}
}

// Load consumes the stream packet by packet until a clean end of stream,
// feeding marked packets through the reassembly state machine. Short reads
// and sync errors abort and propagate; an entry still incomplete when the
// stream ends is silently dropped (counted in Stats).
func (r *Reader) Load(in io.Reader) error {
	var asm assembler

	// Fold the discard count into the stats on every exit path; an entry
	// still in progress when Load stops (clean EOF or error) is lost too.
	defer func() {
		if asm.active {
			asm.discarded++
		}
		r.stats.PartialsDiscarded += asm.discarded
	}()

	var p packet.Packet
	for {
		ok, err := p.Read(in)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		r.stats.PacketsScanned++

		kind := p.Kind()
		if kind == packet.KindNone {
			continue
		}
		r.stats.MarkedPackets++

		if entry, done := asm.feed(kind, p.Payload()); done {
			r.entries = append(r.entries, entry)
			r.stats.EntriesRecovered++
		}
	}

	return nil
}

// Entries returns the recovered entries in discovery order.
func (r *Reader) Entries() []common.Entry {
	return r.entries
}

// Stats reports counters accumulated by Load.
func (r *Reader) Stats() ReaderStats {
	return r.stats
}

// assembler reconstructs one entry at a time from marked packet payloads.
// A start packet always begins a fresh accumulation, discarding any entry
// still in progress; a continuation packet with no accumulation in progress
// is dropped.
type assembler struct {
	active      bool
	headerKnown bool
	hdr         header
	buf         []byte
	discarded   int64
}

// feed consumes one marked packet's 176-byte payload region and returns a
// completed entry once the accumulated bytes cover the header's declared
// payload length.
func (a *assembler) feed(kind packet.Kind, payload []byte) (common.Entry, bool) {
	switch kind {
	case packet.KindStart:
		if a.active {
			a.discarded++
		}
		a.active = true
		a.headerKnown = false
		a.buf = append([]byte(nil), payload...)
	case packet.KindContinuation:
		if !a.active {
			return common.Entry{}, false
		}
		a.buf = append(a.buf, payload...)
	default:
		return common.Entry{}, false
	}

	if !a.headerKnown {
		hdr, n, ok := parseHeader(a.buf)
		if !ok {
			// Header not complete (or not yet parseable); wait for more data.
			return common.Entry{}, false
		}
		a.hdr = hdr
		a.buf = a.buf[n:]
		a.headerKnown = true
	}

	if len(a.buf) < a.hdr.dataSize {
		return common.Entry{}, false
	}

	// Copy out exactly dataSize bytes; a zero-length entry still gets a
	// non-nil slice so it round-trips to the representation it was
	// appended with.
	data := make([]byte, a.hdr.dataSize)
	copy(data, a.buf)
	entry := common.Entry{Name: a.hdr.name, Data: data}
	a.active = false
	a.headerKnown = false
	a.buf = nil
	return entry, true
}
