package codec

import "encoding/binary"

// EncodeFrame encodes p and prepends the 4-byte big-endian length prefix,
// returning a single buffer ready to write as one WebSocket binary frame.
func EncodeFrame(p Packet) ([]byte, error) {
	w := GetWriter()
	defer w.Put()

	if err := Encode(w, p); err != nil {
		return nil, err
	}

	payload := w.Bytes()
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out, nil
}

// DecodeFrame strips the 4-byte length prefix from frame, validates it
// against the actual payload length, and decodes the packet it carries.
func DecodeFrame(frame []byte) (Packet, error) {
	if len(frame) < 4 {
		return nil, newDecodeError("frame shorter than length prefix: %d bytes", len(frame))
	}
	n := binary.BigEndian.Uint32(frame[:4])
	payload := frame[4:]
	if uint32(len(payload)) != n {
		return nil, newDecodeError("frame length mismatch: header says %d, got %d", n, len(payload))
	}
	if len(payload) == 0 {
		return nil, newDecodeError("empty frame payload")
	}
	return Decode(NewReader(payload))
}
