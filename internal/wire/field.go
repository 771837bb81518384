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
	"time"

	"github.com/pkg/errors"
)

// Tag bytes for field-table/array value types (spec.md §3).
const (
	TagBool       byte = 't'
	TagInt8       byte = 'b'
	TagUint8      byte = 'B'
	TagInt16      byte = 'U'
	TagUint16     byte = 'u'
	TagInt32      byte = 'I'
	TagUint32     byte = 'i'
	TagInt64      byte = 'L'
	TagUint64     byte = 'l'
	TagFloat32    byte = 'f'
	TagFloat64    byte = 'd'
	TagDecimal    byte = 'D'
	TagShortstr   byte = 's'
	TagLongstr    byte = 'S'
	TagByteArray  byte = 'x'
	TagTimestamp  byte = 'T'
	TagVoid       byte = 'V'
	TagArray      byte = 'A'
	TagTable      byte = 'F'
)

// ErrUnknownFieldType is returned (wrapped) for an unrecognised tag byte.
var ErrUnknownFieldType = errors.New("wire: unknown field type")

// Binary marks a []byte that should be encoded with the 'x' byte-array tag
// instead of the 'S' long-string tag.
type Binary []byte

// ReadTimestamp reads the AMQP 'T' type: a uint64 count of seconds since
// the Unix epoch.
func (r *Reader) ReadTimestamp() (time.Time, error) {
	secs, err := r.ReadUint64()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// WriteTimestamp writes the AMQP 'T' type.
func (w *Writer) WriteTimestamp(t time.Time) {
	w.WriteUint64(uint64(t.Unix()))
}

// ReadField reads one tagged value: a one-byte type tag followed by the
// type's encoding.
func (r *Reader) ReadField() (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return r.readFieldValue(tag)
}

func (r *Reader) readFieldValue(tag byte) (any, error) {
	switch tag {
	case TagBool:
		return r.ReadBool()
	case TagInt8:
		return r.ReadInt8()
	case TagUint8:
		return r.ReadUint8()
	case TagInt16:
		return r.ReadInt16()
	case TagUint16:
		return r.ReadUint16()
	case TagInt32:
		return r.ReadInt32()
	case TagUint32:
		return r.ReadUint32()
	case TagInt64:
		return r.ReadInt64()
	case TagUint64:
		return r.ReadUint64()
	case TagFloat32:
		return r.ReadFloat32()
	case TagFloat64:
		return r.ReadFloat64()
	case TagDecimal:
		return r.ReadDecimal()
	case TagShortstr:
		return r.ReadShortstr()
	case TagLongstr:
		b, err := r.ReadLongstr()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case TagByteArray:
		b, err := r.ReadLongstr()
		if err != nil {
			return nil, err
		}
		return Binary(b), nil
	case TagTimestamp:
		return r.ReadTimestamp()
	case TagVoid:
		return nil, nil
	case TagArray:
		return r.ReadArray()
	case TagTable:
		return r.ReadTable()
	default:
		return nil, errors.Wrapf(ErrUnknownFieldType, "tag %q (0x%02x)", tag, tag)
	}
}

// WriteField writes one tagged value: a type tag byte followed by the
// type's encoding, dispatching on v's Go type.
func (w *Writer) WriteField(v any) error {
	switch t := v.(type) {
	case nil:
		return w.WriteByte(TagVoid)
	case bool:
		if err := w.WriteByte(TagBool); err != nil {
			return err
		}
		w.WriteBool(t)
		return nil
	case int8:
		if err := w.WriteByte(TagInt8); err != nil {
			return err
		}
		w.WriteInt8(t)
		return nil
	case uint8:
		if err := w.WriteByte(TagUint8); err != nil {
			return err
		}
		w.WriteUint8(t)
		return nil
	case int16:
		if err := w.WriteByte(TagInt16); err != nil {
			return err
		}
		w.WriteInt16(t)
		return nil
	case uint16:
		if err := w.WriteByte(TagUint16); err != nil {
			return err
		}
		w.WriteUint16(t)
		return nil
	case int32:
		if err := w.WriteByte(TagInt32); err != nil {
			return err
		}
		w.WriteInt32(t)
		return nil
	case uint32:
		if err := w.WriteByte(TagUint32); err != nil {
			return err
		}
		w.WriteUint32(t)
		return nil
	case int64:
		if err := w.WriteByte(TagInt64); err != nil {
			return err
		}
		w.WriteInt64(t)
		return nil
	case uint64:
		if err := w.WriteByte(TagUint64); err != nil {
			return err
		}
		w.WriteUint64(t)
		return nil
	case int:
		return w.WriteField(int64(t))
	case float32:
		if err := w.WriteByte(TagFloat32); err != nil {
			return err
		}
		w.WriteFloat32(t)
		return nil
	case float64:
		if err := w.WriteByte(TagFloat64); err != nil {
			return err
		}
		w.WriteFloat64(t)
		return nil
	case Decimal:
		if err := w.WriteByte(TagDecimal); err != nil {
			return err
		}
		w.WriteDecimal(t)
		return nil
	case string:
		if err := w.WriteByte(TagLongstr); err != nil {
			return err
		}
		return w.WriteLongstr([]byte(t))
	case Binary:
		if err := w.WriteByte(TagByteArray); err != nil {
			return err
		}
		return w.WriteLongstr(t)
	case []byte:
		return w.WriteField(Binary(t))
	case time.Time:
		if err := w.WriteByte(TagTimestamp); err != nil {
			return err
		}
		w.WriteTimestamp(t)
		return nil
	case []any:
		if err := w.WriteByte(TagArray); err != nil {
			return err
		}
		return w.WriteArray(t)
	case Table:
		if err := w.WriteByte(TagTable); err != nil {
			return err
		}
		return w.WriteTable(t)
	default:
		return errors.Errorf("wire: cannot encode field of type %T", v)
	}
}

// ReadArray reads the AMQP 'A' type: a uint32 byte length followed by a
// sequence of tagged values filling exactly that many bytes.
func (r *Reader) ReadArray() ([]any, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	end := r.pos + int(n)
	var out []any
	for r.pos < end {
		v, err := r.ReadField()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteArray writes the AMQP 'A' type, length-prefixing the encoded
// elements.
func (w *Writer) WriteArray(vals []any) error {
	inner := AcquireWriter()
	defer inner.Release()
	for _, v := range vals {
		if err := inner.WriteField(v); err != nil {
			return err
		}
	}
	w.WriteUint32(uint32(inner.Len()))
	_, err := w.Write(inner.Bytes())
	return err
}

// ReadTable reads the AMQP 'F' type: a uint32 byte length followed by a
// sequence of (short-name, tagged-value) pairs filling exactly that many
// bytes.
func (r *Reader) ReadTable() (Table, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return Table{}, err
	}
	if err := r.need(int(n)); err != nil {
		return Table{}, err
	}
	end := r.pos + int(n)
	t := NewTable()
	for r.pos < end {
		key, err := r.ReadShortstr()
		if err != nil {
			return Table{}, err
		}
		val, err := r.ReadField()
		if err != nil {
			return Table{}, err
		}
		t.Set(key, val)
	}
	return t, nil
}

// WriteTable writes the AMQP 'F' type, length-prefixing the encoded pairs.
func (w *Writer) WriteTable(t Table) error {
	inner := AcquireWriter()
	defer inner.Release()
	var werr error
	t.Range(func(key string, value any) bool {
		if werr = inner.WriteShortstr(key); werr != nil {
			return false
		}
		if werr = inner.WriteField(value); werr != nil {
			return false
		}
		return true
	})
	if werr != nil {
		return werr
	}
	w.WriteUint32(uint32(inner.Len()))
	_, err := w.Write(inner.Bytes())
	return err
}
