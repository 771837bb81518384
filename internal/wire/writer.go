// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"math"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

// Writer accumulates an encoded payload. Every value type in this package
// has a matching SizeOf* predictor (size.go) so a frame can reserve the
// exact capacity up front with Grow and encode without any further
// reallocation — this is the "size-predictive" codec spec.md §4.1 asks for.
type Writer struct {
	bb *bytebufferpool.ByteBuffer
}

var pool bytebufferpool.Pool

// AcquireWriter returns a pooled Writer. Callers must call Release when
// done with the encoded bytes.
func AcquireWriter() *Writer {
	return &Writer{bb: pool.Get()}
}

// Release returns the Writer's backing buffer to the pool. The Writer and
// any slice previously returned by Bytes() must not be used afterward.
func (w *Writer) Release() {
	pool.Put(w.bb)
	w.bb = nil
}

// Grow ensures capacity for at least n more bytes without triggering a
// reallocation mid-encode.
func (w *Writer) Grow(n int) {
	if cap(w.bb.B)-len(w.bb.B) < n {
		grown := make([]byte, len(w.bb.B), len(w.bb.B)+n)
		copy(grown, w.bb.B)
		w.bb.B = grown
	}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.bb.Len() }

// Bytes returns the accumulated bytes. Valid until Release is called.
func (w *Writer) Bytes() []byte { return w.bb.Bytes() }

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.bb.WriteByte(b)
}

// Write appends raw bytes.
func (w *Writer) Write(b []byte) (int, error) {
	return w.bb.Write(b)
}

// WriteBool writes the AMQP 't' type.
func (w *Writer) WriteBool(v bool) {
	if v {
		_ = w.WriteByte(1)
	} else {
		_ = w.WriteByte(0)
	}
}

// WriteInt8 writes the AMQP 'b' type.
func (w *Writer) WriteInt8(v int8) { _ = w.WriteByte(byte(v)) }

// WriteUint8 writes the AMQP 'B' type.
func (w *Writer) WriteUint8(v uint8) { _ = w.WriteByte(v) }

// WriteUint16 writes a big-endian uint16 (AMQP 'u').
func (w *Writer) WriteUint16(v uint16) {
	_, _ = w.Write([]byte{byte(v >> 8), byte(v)})
}

// WriteInt16 writes a big-endian int16 (AMQP 'U').
func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

// WriteUint32 writes a big-endian uint32 (AMQP 'i').
func (w *Writer) WriteUint32(v uint32) {
	_, _ = w.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// WriteInt32 writes a big-endian int32 (AMQP 'I').
func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

// WriteUint64 writes a big-endian uint64 (AMQP 'l').
func (w *Writer) WriteUint64(v uint64) {
	w.WriteUint32(uint32(v >> 32))
	w.WriteUint32(uint32(v))
}

// WriteInt64 writes a big-endian int64 (AMQP 'L').
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteFloat32 writes the AMQP 'f' type.
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 writes the AMQP 'd' type.
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteShortstr writes the AMQP 's' type. Strings longer than 255 bytes
// cannot be represented and return an error.
func (w *Writer) WriteShortstr(s string) error {
	if len(s) > math.MaxUint8 {
		return errors.Errorf("wire: short string %q exceeds 255 bytes", s)
	}
	w.WriteUint8(uint8(len(s)))
	_, err := w.bb.WriteString(s)
	return err
}

// WriteLongstr writes the AMQP 'S'/'x' type.
func (w *Writer) WriteLongstr(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return errors.Errorf("wire: long string of %d bytes exceeds uint32 length prefix", len(b))
	}
	w.WriteUint32(uint32(len(b)))
	_, err := w.Write(b)
	return err
}
