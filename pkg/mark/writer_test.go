package mark

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/tsmark/pkg/common"
	"github.com/beam-cloud/tsmark/pkg/packet"
)

// passThroughStream builds n valid packets of arbitrary stream content.
func passThroughStream(n int) []byte {
	buf := make([]byte, 0, n*packet.Size)
	for i := 0; i < n; i++ {
		pkt := make([]byte, packet.Size)
		pkt[0] = packet.SyncByte
		for j := 1; j < packet.Size; j++ {
			pkt[j] = byte(i*31 + j)
		}
		buf = append(buf, pkt...)
	}
	return buf
}

func packetKinds(t *testing.T, stream []byte) []packet.Kind {
	t.Helper()
	require.Zero(t, len(stream)%packet.Size, "stream must be whole packets")

	var kinds []packet.Kind
	r := bytes.NewReader(stream)
	for {
		var p packet.Packet
		ok, err := p.Read(r)
		require.NoError(t, err)
		if !ok {
			break
		}
		kinds = append(kinds, p.Kind())
	}
	return kinds
}

func TestProcessPassThroughFidelity(t *testing.T) {
	input := passThroughStream(5)

	w := NewWriter()
	w.Append("notes.txt", []byte("hello"))

	var out bytes.Buffer
	require.NoError(t, w.Process(bytes.NewReader(input), &out))

	// The prefix must be byte-identical to the input; new packets only after.
	require.GreaterOrEqual(t, out.Len(), len(input))
	require.Equal(t, input, out.Bytes()[:len(input)])

	stats := w.Stats()
	require.Equal(t, int64(5), stats.PacketsCopied)
}

func TestProcessEmptyBaseStream(t *testing.T) {
	w := NewWriter()
	var out bytes.Buffer
	require.NoError(t, w.Process(bytes.NewReader(nil), &out))
	require.Zero(t, out.Len())
}

func TestProcessPacketCounts(t *testing.T) {
	// Header overhead: "5:a.txt\x00" is 8 bytes, "200:b.bin\x00" is 10.
	tests := []struct {
		name        string
		entryName   string
		dataLen     int
		wantPackets int
	}{
		{name: "single packet", entryName: "a.txt", dataLen: 5, wantPackets: 1},
		{name: "start plus one continuation", entryName: "b.bin", dataLen: 200, wantPackets: 2},
		{name: "empty payload", entryName: "empty", dataLen: 0, wantPackets: 1},
		{name: "many packets", entryName: "big.bin", dataLen: 5000, wantPackets: 29},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			w.Append(tc.entryName, bytes.Repeat([]byte{0xEE}, tc.dataLen))

			var out bytes.Buffer
			require.NoError(t, w.Process(bytes.NewReader(nil), &out))
			require.Equal(t, tc.wantPackets*packet.Size, out.Len())

			kinds := packetKinds(t, out.Bytes())
			require.Equal(t, packet.KindStart, kinds[0])
			for _, k := range kinds[1:] {
				require.Equal(t, packet.KindContinuation, k)
			}
		})
	}
}

func TestProcessExactChunkBoundary(t *testing.T) {
	// "346:x\x00" is 6 bytes; 6+346 = 352 = 2*176. Exactly two packets, no
	// dangling empty packet.
	w := NewWriter()
	w.Append("x", bytes.Repeat([]byte{0x42}, 346))

	var out bytes.Buffer
	require.NoError(t, w.Process(bytes.NewReader(nil), &out))
	require.Equal(t, 2*packet.Size, out.Len())
}

func TestProcessConcreteScenario(t *testing.T) {
	w := NewWriter()
	w.Append("a.txt", []byte("12345"))
	w.Append("b.bin", bytes.Repeat([]byte{7}, 200))

	var out bytes.Buffer
	require.NoError(t, w.Process(bytes.NewReader(nil), &out))

	kinds := packetKinds(t, out.Bytes())
	require.Equal(t, []packet.Kind{packet.KindStart, packet.KindStart, packet.KindContinuation}, kinds)

	r := NewReader()
	require.NoError(t, r.Load(bytes.NewReader(out.Bytes())))
	entries := r.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "a.txt", entries[0].Name)
	require.Equal(t, []byte("12345"), entries[0].Data)
	require.Equal(t, "b.bin", entries[1].Name)
	require.Equal(t, bytes.Repeat([]byte{7}, 200), entries[1].Data)
}

func TestProcessCorruptedSync(t *testing.T) {
	input := passThroughStream(3)
	input[packet.Size] = 0x00 // clobber the second packet's sync byte

	w := NewWriter()
	var out bytes.Buffer
	err := w.Process(bytes.NewReader(input), &out)
	require.ErrorIs(t, err, common.ErrBadSync)

	// Processing stopped before the corrupt packet.
	require.Equal(t, packet.Size, out.Len())
}

func TestProcessTruncatedStream(t *testing.T) {
	input := passThroughStream(2)[:packet.Size+50]

	w := NewWriter()
	var out bytes.Buffer
	err := w.Process(bytes.NewReader(input), &out)
	require.ErrorIs(t, err, common.ErrShortRead)
}

// failingWriter errors after accepting limit bytes.
type failingWriter struct {
	written int
	limit   int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, errors.New("sink full")
	}
	w.written += len(p)
	return len(p), nil
}

func TestProcessWriteFailurePropagates(t *testing.T) {
	input := passThroughStream(4)

	w := NewWriter()
	w.Append("a", []byte{1})
	err := w.Process(bytes.NewReader(input), &failingWriter{limit: 2 * packet.Size})
	require.Error(t, err)
}

func TestAppendFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.bin")
	data := bytes.Repeat([]byte{0x99}, 300)
	require.NoError(t, os.WriteFile(path, data, 0644))

	w := NewWriter()
	require.NoError(t, w.AppendFile("payload.bin", path))

	var out bytes.Buffer
	require.NoError(t, w.Process(bytes.NewReader(nil), &out))

	r := NewReader()
	require.NoError(t, r.Load(bytes.NewReader(out.Bytes())))
	require.Len(t, r.Entries(), 1)
	require.Equal(t, data, r.Entries()[0].Data)
}

func TestAppendFileMissing(t *testing.T) {
	w := NewWriter()
	require.Error(t, w.AppendFile("nope", t.TempDir()+"/does-not-exist"))
}
