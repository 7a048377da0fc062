package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

// Writer accumulates the fields of one packet in declaration order.
// Uses big-endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations across the hub's broadcast hot path.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: bytes.NewBuffer(make([]byte, 0, 256))}
	},
}

// GetWriter returns a Writer from the pool, already reset.
func GetWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns w to the pool. Do not use w after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a standalone Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, capacity))}
}

func (w *Writer) WriteByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *Writer) WriteUint32(val uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], val)
	w.buf.Write(tmp[:])
}

func (w *Writer) WriteInt64(val int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(val))
	w.buf.Write(tmp[:])
}

func (w *Writer) WriteFloat64(val float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(val))
	w.buf.Write(tmp[:])
}

// WriteString writes a uint16 length prefix followed by the string's UTF-8
// bytes.
func (w *Writer) WriteString(s string) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(s)))
	w.buf.Write(tmp[:])
	w.buf.WriteString(s)
}

func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// Bytes returns the accumulated payload, tag byte included.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Reset() {
	w.buf.Reset()
}
