package mqtt311

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishPacketType(t *testing.T) {
	p := &PublishPacket{}
	assert.Equal(t, PacketPUBLISH, p.Type())
}

func TestPublishPacketID(t *testing.T) {
	p := &PublishPacket{}
	p.SetPacketID(12345)
	assert.Equal(t, uint16(12345), p.GetPacketID())
}

func TestPublishPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		packet PublishPacket
	}{
		{
			name: "QoS 0 minimal",
			packet: PublishPacket{
				Topic:   "test/topic",
				Payload: []byte("hello"),
				QoS:     QoS0,
			},
		},
		{
			name: "QoS 1",
			packet: PublishPacket{
				Topic:    "test/topic",
				Payload:  []byte("hello"),
				QoS:      QoS1,
				PacketID: 1,
			},
		},
		{
			name: "QoS 2",
			packet: PublishPacket{
				Topic:    "test/topic",
				Payload:  []byte("hello"),
				QoS:      QoS2,
				PacketID: 2,
			},
		},
		{
			name: "QoS 1 DUP",
			packet: PublishPacket{
				Topic:    "test/topic",
				Payload:  []byte("hello"),
				QoS:      QoS1,
				DUP:      true,
				PacketID: 100,
			},
		},
		{
			name: "QoS 0 RETAIN",
			packet: PublishPacket{
				Topic:   "test/topic",
				Payload: []byte("hello"),
				QoS:     QoS0,
				Retain:  true,
			},
		},
		{
			name: "QoS 2 DUP RETAIN",
			packet: PublishPacket{
				Topic:    "test/topic",
				Payload:  []byte("hello"),
				QoS:      QoS2,
				DUP:      true,
				Retain:   true,
				PacketID: 65535,
			},
		},
		{
			name: "empty payload",
			packet: PublishPacket{
				Topic:   "test/topic",
				Payload: nil,
				QoS:     QoS0,
			},
		},
		{
			name: "large payload",
			packet: PublishPacket{
				Topic:   "test/topic",
				Payload: bytes.Repeat([]byte{0xAB}, 1024),
				QoS:     QoS0,
			},
		},
		{
			name: "UTF-8 topic",
			packet: PublishPacket{
				Topic:   "test/世界/topic",
				Payload: []byte("message"),
				QoS:     QoS0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.packet.Encode(&buf)
			require.NoError(t, err)
			assert.Greater(t, n, 0)

			// Decode fixed header first
			var header FixedHeader
			_, err = header.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, PacketPUBLISH, header.PacketType)

			// Decode PUBLISH packet
			var decoded PublishPacket
			bodyLen, err := decoded.Decode(&buf, header)
			require.NoError(t, err)
			assert.Equal(t, int(header.RemainingLength), bodyLen)

			// Verify fields
			assert.Equal(t, tt.packet.Topic, decoded.Topic)
			assert.Equal(t, tt.packet.Payload, decoded.Payload)
			assert.Equal(t, tt.packet.QoS, decoded.QoS)
			assert.Equal(t, tt.packet.Retain, decoded.Retain)
			assert.Equal(t, tt.packet.DUP, decoded.DUP)
			if tt.packet.QoS > 0 {
				assert.Equal(t, tt.packet.PacketID, decoded.PacketID)
			}
		})
	}
}

func TestPublishPacketWireFormat(t *testing.T) {
	packet := PublishPacket{
		Topic:    "a/b",
		Payload:  []byte("hi"),
		QoS:      QoS1,
		PacketID: 1,
	}

	var buf bytes.Buffer
	_, err := packet.Encode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x32, 0x09, // Fixed header, QoS 1
		0x00, 0x03, 'a', '/', 'b', // Topic name
		0x00, 0x01, // Packet ID
		'h', 'i', // Payload
	}, buf.Bytes())
}

func TestPublishPacketValidation(t *testing.T) {
	tests := []struct {
		name    string
		packet  PublishPacket
		wantErr error
	}{
		{
			name: "valid QoS 0",
			packet: PublishPacket{
				Topic:   "topic",
				Payload: []byte("data"),
				QoS:     QoS0,
			},
			wantErr: nil,
		},
		{
			name: "valid QoS 1",
			packet: PublishPacket{
				Topic:    "topic",
				Payload:  []byte("data"),
				QoS:      QoS1,
				PacketID: 1,
			},
			wantErr: nil,
		},
		{
			name: "valid QoS 2",
			packet: PublishPacket{
				Topic:    "topic",
				Payload:  []byte("data"),
				QoS:      QoS2,
				PacketID: 1,
			},
			wantErr: nil,
		},
		{
			name: "empty topic",
			packet: PublishPacket{
				Topic: "",
				QoS:   QoS0,
			},
			wantErr: ErrEmptyTopic,
		},
		{
			name: "topic with wildcard",
			packet: PublishPacket{
				Topic: "sensors/+/temp",
				QoS:   QoS0,
			},
			wantErr: ErrInvalidTopicName,
		},
		{
			name: "invalid QoS 3",
			packet: PublishPacket{
				Topic: "topic",
				QoS:   QoS(3),
			},
			wantErr: ErrInvalidQoS,
		},
		{
			name: "DUP with QoS 0",
			packet: PublishPacket{
				Topic: "topic",
				QoS:   QoS0,
				DUP:   true,
			},
			wantErr: ErrInvalidPacketFlags,
		},
		{
			name: "QoS 1 without packet ID",
			packet: PublishPacket{
				Topic:    "topic",
				QoS:      QoS1,
				PacketID: 0,
			},
			wantErr: ErrPacketIDRequired,
		},
		{
			name: "QoS 2 without packet ID",
			packet: PublishPacket{
				Topic:    "topic",
				QoS:      QoS2,
				PacketID: 0,
			},
			wantErr: ErrPacketIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.packet.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPublishPacketDecodeErrors(t *testing.T) {
	t.Run("wrong packet type", func(t *testing.T) {
		header := FixedHeader{
			PacketType:      PacketCONNECT,
			RemainingLength: 10,
		}

		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(make([]byte, 10)), header)
		assert.ErrorIs(t, err, ErrInvalidPacketType)
	})

	t.Run("invalid QoS 3", func(t *testing.T) {
		header := FixedHeader{
			PacketType:      PacketPUBLISH,
			Flags:           0x06, // QoS 3
			RemainingLength: 10,
		}

		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(make([]byte, 10)), header)
		assert.ErrorIs(t, err, ErrInvalidQoS)
	})

	t.Run("empty topic name", func(t *testing.T) {
		data := []byte{0x00, 0x00, 'x'} // Zero-length topic, one payload byte
		header := FixedHeader{
			PacketType:      PacketPUBLISH,
			Flags:           0x00,
			RemainingLength: uint32(len(data)),
		}

		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(data), header)
		assert.ErrorIs(t, err, ErrTopicNameEmpty)
	})

	t.Run("truncated packet ID", func(t *testing.T) {
		data := []byte{0x00, 0x01, 't', 0x00} // Topic plus one byte of packet ID
		header := FixedHeader{
			PacketType:      PacketPUBLISH,
			Flags:           0x02, // QoS 1
			RemainingLength: 5,
		}

		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(data), header)
		assert.Error(t, err)
	})
}

func TestPublishPacketFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags byte
		dup   bool
		qos   QoS
		ret   bool
	}{
		{"all zero", 0x00, false, QoS0, false},
		{"retain", 0x01, false, QoS0, true},
		{"qos1", 0x02, false, QoS1, false},
		{"qos2", 0x04, false, QoS2, false},
		{"dup", 0x08, true, QoS0, false},
		{"all set qos1", 0x0B, true, QoS1, true},
		{"all set qos2", 0x0D, true, QoS2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PublishPacket{
				DUP:    tt.dup,
				QoS:    tt.qos,
				Retain: tt.ret,
			}
			assert.Equal(t, tt.flags, p.flags())

			var p2 PublishPacket
			p2.setFlags(tt.flags)
			assert.Equal(t, tt.dup, p2.DUP)
			assert.Equal(t, tt.qos, p2.QoS)
			assert.Equal(t, tt.ret, p2.Retain)
		})
	}
}

func TestPublishPacketToPublication(t *testing.T) {
	packet := PublishPacket{
		Topic:    "test/topic",
		Payload:  []byte("hello"),
		QoS:      QoS1,
		Retain:   true,
		PacketID: 42,
	}

	pub := packet.ToPublication()

	assert.Equal(t, "test/topic", pub.Topic)
	assert.Equal(t, []byte("hello"), pub.Payload)
	assert.Equal(t, QoS1, pub.QoS)
	assert.True(t, pub.Retain)
}

func TestPublishPacketFromPublication(t *testing.T) {
	pub := &Publication{
		Topic:   "test/topic",
		Payload: []byte("hello"),
		QoS:     QoS2,
		Retain:  true,
	}

	var packet PublishPacket
	packet.FromPublication(pub)

	assert.Equal(t, "test/topic", packet.Topic)
	assert.Equal(t, []byte("hello"), packet.Payload)
	assert.Equal(t, QoS2, packet.QoS)
	assert.True(t, packet.Retain)
	assert.Zero(t, packet.PacketID)
}

// Benchmarks

func BenchmarkPublishPacketEncode(b *testing.B) {
	packets := []struct {
		name   string
		packet PublishPacket
	}{
		{
			name: "minimal",
			packet: PublishPacket{
				Topic:   "t",
				Payload: []byte("x"),
				QoS:     QoS0,
			},
		},
		{
			name: "typical",
			packet: PublishPacket{
				Topic:    "sensors/temperature/living-room",
				Payload:  []byte(`{"value": 23.5, "unit": "celsius"}`),
				QoS:      QoS1,
				PacketID: 1,
			},
		},
		{
			name: "large payload",
			packet: PublishPacket{
				Topic:    "data/bulk",
				Payload:  bytes.Repeat([]byte{0xAB}, 4096),
				QoS:      QoS2,
				PacketID: 100,
			},
		},
	}

	for _, tt := range packets {
		b.Run(tt.name, func(b *testing.B) {
			var buf bytes.Buffer
			buf.Grow(len(tt.packet.Payload) + 100)

			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				buf.Reset()
				_, _ = tt.packet.Encode(&buf)
			}
		})
	}
}

func BenchmarkPublishPacketDecode(b *testing.B) {
	packets := []struct {
		name   string
		packet PublishPacket
	}{
		{
			name: "minimal",
			packet: PublishPacket{
				Topic:   "t",
				Payload: []byte("x"),
				QoS:     QoS0,
			},
		},
		{
			name: "typical",
			packet: PublishPacket{
				Topic:    "sensors/temperature",
				Payload:  []byte(`{"value": 23.5}`),
				QoS:      QoS1,
				PacketID: 1,
			},
		},
	}

	for _, tt := range packets {
		var buf bytes.Buffer
		_, _ = tt.packet.Encode(&buf)
		data := buf.Bytes()

		b.Run(tt.name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				r := bytes.NewReader(data)
				var header FixedHeader
				_, _ = header.Decode(r)
				var p PublishPacket
				_, _ = p.Decode(r, header)
			}
		})
	}
}

// Fuzz tests

func FuzzPublishPacketDecode(f *testing.F) {
	// Valid PUBLISH packet seeds
	qos0Packet := PublishPacket{
		Topic:   "test/topic",
		Payload: []byte("hello"),
		QoS:     QoS0,
	}
	var buf bytes.Buffer
	_, _ = qos0Packet.Encode(&buf)
	f.Add(buf.Bytes())

	qos1Packet := PublishPacket{
		Topic:    "test/topic",
		Payload:  []byte("hello"),
		QoS:      QoS1,
		PacketID: 1,
	}
	buf.Reset()
	_, _ = qos1Packet.Encode(&buf)
	f.Add(buf.Bytes())

	qos2Packet := PublishPacket{
		Topic:    "test/topic",
		Payload:  []byte("hello"),
		QoS:      QoS2,
		PacketID: 1,
		DUP:      true,
		Retain:   true,
	}
	buf.Reset()
	_, _ = qos2Packet.Encode(&buf)
	f.Add(buf.Bytes())

	// Edge cases
	f.Add([]byte{0x30, 0x00})                               // Empty
	f.Add([]byte{0x30, 0x03, 0x00, 0x01, 't'})              // Minimal topic, no payload
	f.Add([]byte{0x32, 0x05, 0x00, 0x01, 't', 0x00, 0x01})  // QoS 1 with packet ID
	f.Add([]byte{0x36, 0x05, 0x00, 0x01, 't', 0x00, 0x01})  // QoS 3 (invalid)

	// Random generated seeds
	for range 10 {
		size := rand.IntN(128) + 1
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(rand.IntN(256))
		}
		f.Add(data)
	}

	f.Fuzz(func(_ *testing.T, data []byte) {
		r := bytes.NewReader(data)
		var header FixedHeader
		n, err := header.Decode(r)
		if err != nil {
			return
		}
		if header.PacketType != PacketPUBLISH {
			return
		}

		remaining := data[n:]
		if len(remaining) < int(header.RemainingLength) {
			return
		}

		var p PublishPacket
		_, _ = p.Decode(bytes.NewReader(remaining), header)
	})
}
