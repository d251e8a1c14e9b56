package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/tsmark/pkg/common"
)

// validPacket builds a pass-through packet with the sync byte and filler body.
func validPacket(fill byte) []byte {
	buf := make([]byte, Size)
	buf[0] = SyncByte
	for i := 1; i < Size; i++ {
		buf[i] = fill
	}
	return buf
}

func TestPacketRead(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantOK  bool
		wantErr error
	}{
		{
			name:   "clean end of stream",
			input:  nil,
			wantOK: false,
		},
		{
			name:    "short read",
			input:   validPacket(0xAB)[:100],
			wantOK:  false,
			wantErr: common.ErrShortRead,
		},
		{
			name:    "bad sync byte",
			input:   append([]byte{0x00}, validPacket(0xAB)[1:]...),
			wantOK:  false,
			wantErr: common.ErrBadSync,
		},
		{
			name:   "full packet",
			input:  validPacket(0xAB),
			wantOK: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Packet
			ok, err := p.Read(bytes.NewReader(tc.input))
			require.Equal(t, tc.wantOK, ok)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPacketReadPreservesBytes(t *testing.T) {
	src := validPacket(0x5C)
	var p Packet
	ok, err := p.Read(bytes.NewReader(src))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, src, p.Bytes())
}

func TestPacketWrite(t *testing.T) {
	var p Packet
	p.Clear(KindStart)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	require.Equal(t, Size, buf.Len())
	require.Equal(t, p.Bytes(), buf.Bytes())
}

// truncatingWriter accepts fewer bytes than offered without reporting an error.
type truncatingWriter struct{ max int }

func (w *truncatingWriter) Write(p []byte) (int, error) {
	if len(p) > w.max {
		return w.max, nil
	}
	return len(p), nil
}

func TestPacketWriteShort(t *testing.T) {
	var p Packet
	p.Clear(KindContinuation)
	err := p.Write(&truncatingWriter{max: 90})
	require.ErrorIs(t, err, common.ErrShortWrite)
}

func TestPacketClearAndKind(t *testing.T) {
	var p Packet

	p.Clear(KindStart)
	require.Equal(t, KindStart, p.Kind())
	require.Equal(t, byte(SyncByte), p.Bytes()[0])

	p.Clear(KindContinuation)
	require.Equal(t, KindContinuation, p.Kind())

	// Clear must zero the payload region.
	for _, b := range p.Payload() {
		require.Equal(t, byte(0), b)
	}
}

func TestPacketKindPassThrough(t *testing.T) {
	var p Packet
	ok, err := p.Read(bytes.NewReader(validPacket(0x11)))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, KindNone, p.Kind())
}

func TestPacketKindIgnoresPayload(t *testing.T) {
	// Marker bytes inside the payload region must not affect classification.
	var p Packet
	p.Clear(KindStart)
	copy(p.Payload(), append([]byte(nil), markerContinuation...))
	require.Equal(t, KindStart, p.Kind())
}

func TestPayloadRegionSize(t *testing.T) {
	var p Packet
	require.Len(t, p.Payload(), PayloadSize)
	require.Equal(t, 176, PayloadSize)
}
