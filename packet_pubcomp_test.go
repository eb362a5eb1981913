//nolint:dupl // Similar test structure for similar packet types
package mqtt311

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubcompPacketType(t *testing.T) {
	p := &PubcompPacket{}
	assert.Equal(t, PacketPUBCOMP, p.Type())
}

func TestPubcompPacketID(t *testing.T) {
	p := &PubcompPacket{}
	p.SetPacketID(12345)
	assert.Equal(t, uint16(12345), p.GetPacketID())
}

func TestPubcompEncodeDecode(t *testing.T) {
	tests := []struct {
		name     string
		packetID uint16
	}{
		{"min packet ID", 1},
		{"typical packet ID", 1234},
		{"max packet ID", 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PubcompPacket{PacketID: tt.packetID}

			var buf bytes.Buffer
			n, err := p.Encode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			var header FixedHeader
			_, err = header.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, PacketPUBCOMP, header.PacketType)
			assert.Equal(t, byte(0x00), header.Flags)
			assert.Equal(t, uint32(2), header.RemainingLength)

			decoded := &PubcompPacket{}
			_, err = decoded.Decode(&buf, header)
			require.NoError(t, err)
			assert.Equal(t, tt.packetID, decoded.PacketID)
		})
	}
}

func TestPubcompWireFormat(t *testing.T) {
	p := &PubcompPacket{PacketID: 0x1234}

	var buf bytes.Buffer
	_, err := p.Encode(&buf)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x70, 0x02, 0x12, 0x34}, buf.Bytes())
}

func TestPubcompEncodeZeroPacketID(t *testing.T) {
	p := &PubcompPacket{PacketID: 0}

	var buf bytes.Buffer
	_, err := p.Encode(&buf)
	assert.ErrorIs(t, err, ErrPacketIDRequired)
}

func TestPubcompDecodeErrors(t *testing.T) {
	t.Run("wrong packet type", func(t *testing.T) {
		header := FixedHeader{PacketType: PacketPUBREL, Flags: 0x00, RemainingLength: 2}
		p := &PubcompPacket{}
		_, err := p.Decode(bytes.NewReader([]byte{0x00, 0x01}), header)
		assert.ErrorIs(t, err, ErrInvalidPacketType)
	})

	t.Run("invalid flags", func(t *testing.T) {
		header := FixedHeader{PacketType: PacketPUBCOMP, Flags: 0x02, RemainingLength: 2}
		p := &PubcompPacket{}
		_, err := p.Decode(bytes.NewReader([]byte{0x00, 0x01}), header)
		assert.ErrorIs(t, err, ErrInvalidPacketFlags)
	})

	t.Run("wrong remaining length", func(t *testing.T) {
		header := FixedHeader{PacketType: PacketPUBCOMP, Flags: 0x00, RemainingLength: 0}
		p := &PubcompPacket{}
		_, err := p.Decode(bytes.NewReader(nil), header)
		assert.ErrorIs(t, err, ErrProtocolViolation)
	})
}

func BenchmarkPubcompEncode(b *testing.B) {
	p := &PubcompPacket{PacketID: 1234}
	var buf bytes.Buffer
	buf.Grow(4)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		buf.Reset()
		_, _ = p.Encode(&buf)
	}
}
