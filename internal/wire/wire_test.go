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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	w := AcquireWriter()
	defer w.Release()

	w.WriteUint16(0xBEEF)
	w.WriteInt32(-12345)
	w.WriteUint64(0x1122334455667788)
	w.WriteFloat64(3.25)
	require.NoError(t, w.WriteShortstr("hello"))
	require.NoError(t, w.WriteLongstr([]byte("a longer string of bytes")))

	r := NewReader(w.Bytes())

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, -12345, i32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), u64)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.25, f64)

	s, err := r.ReadShortstr()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	ls, err := r.ReadLongstr()
	require.NoError(t, err)
	assert.Equal(t, "a longer string of bytes", string(ls))

	assert.Zero(t, r.Remaining())
}

func TestBigEndianDiscipline(t *testing.T) {
	w := AcquireWriter()
	defer w.Release()
	w.WriteUint32(0x01020304)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, w.Bytes())
}

func TestShortstrTooLong(t *testing.T) {
	w := AcquireWriter()
	defer w.Release()
	err := w.WriteShortstr(strings.Repeat("x", 256))
	assert.Error(t, err)
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestTableRoundTripAndEqual(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x-message-ttl", int32(60000))
	tbl.Set("x-dead-letter-exchange", "dlx")
	nested := NewTable()
	nested.Set("inner", true)
	tbl.Set("nested", nested)
	tbl.Set("arr", []any{int32(1), int32(2), "three"})

	w := AcquireWriter()
	defer w.Release()
	require.NoError(t, w.WriteTable(tbl))

	size, err := SizeOfTable(tbl)
	require.NoError(t, err)
	// WriteTable doesn't include its own tag (callers prepend it via
	// WriteField); SizeOfTable does. Account for that one byte here.
	assert.Equal(t, size-1, w.Len())

	r := NewReader(w.Bytes())
	decoded, err := r.ReadTable()
	require.NoError(t, err)

	assert.True(t, tbl.Equal(decoded))
	assert.Equal(t, tbl.Keys(), decoded.Keys())

	reordered := NewTable()
	reordered.Set("nested", nested)
	reordered.Set("x-message-ttl", int32(60000))
	reordered.Set("arr", []any{int32(1), int32(2), "three"})
	reordered.Set("x-dead-letter-exchange", "dlx")
	assert.True(t, tbl.Equal(reordered), "Equal must be order-independent")
	assert.NotEqual(t, tbl.Keys(), reordered.Keys())
}

func TestTableHashShortCircuit(t *testing.T) {
	a := NewTable()
	a.Set("k", "v")
	b := NewTable()
	b.Set("k", "v")
	c := NewTable()
	c.Set("k", "other")

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestTableUnpack(t *testing.T) {
	tbl := NewTable()
	tbl.Set("ttl", int32(1000))
	tbl.Set("name", "q1")

	var dest struct {
		TTL  int32  `config:"ttl"`
		Name string `config:"name"`
	}
	require.NoError(t, tbl.Unpack(&dest))
	assert.EqualValues(t, 1000, dest.TTL)
	assert.Equal(t, "q1", dest.Name)
}

func TestFieldRoundTripEveryType(t *testing.T) {
	values := []any{
		nil,
		true,
		int8(-5),
		uint8(5),
		int16(-500),
		uint16(500),
		int32(-70000),
		uint32(70000),
		int64(-5000000000),
		uint64(5000000000),
		float32(1.5),
		float64(2.5),
		Decimal{Scale: 2, Value: 1234},
		"a string",
		Binary("raw bytes"),
		time.Unix(1700000000, 0).UTC(),
	}

	for _, v := range values {
		w := AcquireWriter()
		err := w.WriteField(v)
		require.NoError(t, err)

		size, err := SizeOfField(v)
		require.NoError(t, err)
		assert.Equal(t, size, w.Len(), "size predictor mismatch for %T", v)

		r := NewReader(w.Bytes())
		got, err := r.ReadField()
		require.NoError(t, err)
		assert.Zero(t, r.Remaining())

		switch want := v.(type) {
		case time.Time:
			assert.True(t, want.Equal(got.(time.Time)))
		case Binary:
			assert.Equal(t, want, got.(Binary))
		default:
			assert.EqualValues(t, want, got)
		}
		w.Release()
	}
}

func TestUnknownFieldType(t *testing.T) {
	r := NewReader([]byte{'?'})
	_, err := r.ReadField()
	assert.ErrorIs(t, err, ErrUnknownFieldType)
}
