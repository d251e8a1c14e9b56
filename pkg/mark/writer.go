package mark

import (
	"io"
	"os"

	"github.com/beam-cloud/tsmark/pkg/common"
	"github.com/beam-cloud/tsmark/pkg/packet"
)

// WriterStats counts the work done by the most recent Process call.
type WriterStats struct {
	PacketsCopied  int64
	PacketsEmitted int64
	EntriesWritten int64
}

// Writer stages named entries and appends them to a transport stream as
// marked packets, after copying the existing stream through untouched.
type Writer struct {
	entries []common.Entry
	stats   WriterStats
}

func NewWriter() *Writer {
	return &Writer{}
}

// Append stages one entry for the next Process call. The name and data are
// accepted as-is; no I/O happens here.
func (w *Writer) Append(name string, data []byte) {
	w.entries = append(w.entries, common.Entry{Name: name, Data: data})
}

// AppendFile stages the contents of a file under the given entry name.
func (w *Writer) AppendFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	w.Append(name, data)
	return nil
}

// Process copies in to out packet by packet until a clean end of stream, then
// emits every staged entry as a run of marked packets: the framed byte
// sequence (header plus payload) split into 176-byte chunks, the first chunk
// in a start packet and the rest in continuation packets, the final chunk
// zero-padded. Any read, sync, or write failure aborts the whole operation.
func (w *Writer) Process(in io.Reader, out io.Writer) error {
	w.stats = WriterStats{}

	var p packet.Packet
	for {
		ok, err := p.Read(in)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := p.Write(out); err != nil {
			return err
		}
		w.stats.PacketsCopied++
	}

	for _, entry := range w.entries {
		framed := frame(entry)

		// The header is never empty, so every entry emits at least one packet.
		kind := packet.KindStart
		for off := 0; off < len(framed); off += packet.PayloadSize {
			end := off + packet.PayloadSize
			if end > len(framed) {
				end = len(framed)
			}
			p.Clear(kind)
			copy(p.Payload(), framed[off:end])
			if err := p.Write(out); err != nil {
				return err
			}
			w.stats.PacketsEmitted++
			kind = packet.KindContinuation
		}
		w.stats.EntriesWritten++
	}

	return nil
}

// Stats reports counters from the most recent Process call.
func (w *Writer) Stats() WriterStats {
	return w.stats
}
