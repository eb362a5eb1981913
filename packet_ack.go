package mqtt311

import "io"

// encodeAck encodes a simple acknowledgment packet (PUBACK, PUBREC, PUBREL,
// PUBCOMP, UNSUBACK): a fixed header followed by the 2-byte packet identifier.
func encodeAck(w io.Writer, packetType PacketType, flags byte, packetID uint16) (int, error) {
	header := FixedHeader{
		PacketType:      packetType,
		Flags:           flags,
		RemainingLength: 2,
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write([]byte{byte(packetID >> 8), byte(packetID)})
	return total + n, err
}

// decodeAck decodes a simple acknowledgment packet. The remaining length
// must be exactly 2.
func decodeAck(r io.Reader, header FixedHeader) (uint16, int, error) {
	if header.RemainingLength != 2 {
		return 0, 0, ErrProtocolViolation
	}

	var idBuf [2]byte
	n, err := io.ReadFull(r, idBuf[:])
	if err != nil {
		return 0, n, err
	}

	return uint16(idBuf[0])<<8 | uint16(idBuf[1]), n, nil
}
