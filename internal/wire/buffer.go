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

// Package wire implements the AMQP 0-9-1 primitive wire codec (C1): reading
// and writing the scalar types, strings, field tables and arrays that make
// up method payloads and content-header properties. All multibyte integers
// are big-endian.
package wire

import (
	"math"

	"github.com/pkg/errors"
)

// ErrShortBuffer is returned (wrapped) by every Reader method that would
// need to read past the remaining bytes. Callers translate this into
// camqp.ErrMalformedFrame.
var ErrShortBuffer = errors.New("wire: short buffer")

// Reader is a cursor over an immutable byte slice. It never copies or
// mutates the underlying bytes and never buffers across calls: the frame
// layer is responsible for presenting a complete frame's payload.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Bytes returns the remaining unread bytes without consuming them.
func (r *Reader) Bytes() []byte { return r.buf[r.pos:] }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads and returns a raw slice of n bytes (a view into the
// underlying buffer, not a copy).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBool reads the AMQP 't' type: a single byte, nonzero is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadInt8 reads the AMQP 'b' type.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadUint8 reads the AMQP 'B' type.
func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

// ReadUint16 reads a big-endian uint16 (AMQP 'u').
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.buf[r.pos])<<8 | uint16(r.buf[r.pos+1])
	r.pos += 2
	return v, nil
}

// ReadInt16 reads a big-endian int16 (AMQP 'U').
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32 (AMQP 'i').
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos])<<24 | uint32(r.buf[r.pos+1])<<16 |
		uint32(r.buf[r.pos+2])<<8 | uint32(r.buf[r.pos+3])
	r.pos += 4
	return v, nil
}

// ReadInt32 reads a big-endian int32 (AMQP 'I').
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64 (AMQP 'l').
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	hi, _ := r.ReadUint32()
	lo, err := r.ReadUint32()
	return uint64(hi)<<32 | uint64(lo), err
}

// ReadInt64 reads a big-endian int64 (AMQP 'L').
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads the AMQP 'f' type.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads the AMQP 'd' type.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadShortstr reads the AMQP 's' type: a uint8 length prefix followed by
// that many bytes.
func (r *Reader) ReadShortstr() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLongstr reads the AMQP 'S'/'x' type: a uint32 length prefix followed
// by that many bytes.
func (r *Reader) ReadLongstr() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
