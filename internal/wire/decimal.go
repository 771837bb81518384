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
	"fmt"
	"math"
)

// Decimal is the AMQP 'D' type: a scaled decimal represented as a one-byte
// exponent plus an int32 mantissa, value = Value * 10^(-Scale).
type Decimal struct {
	Scale uint8
	Value int32
}

// Float64 returns the decimal's value as a float64. The wire codec never
// performs this conversion itself (spec.md names the wire shape only); it
// is a convenience for callers.
func (d Decimal) Float64() float64 {
	return float64(d.Value) / math.Pow10(int(d.Scale))
}

func (d Decimal) String() string {
	return fmt.Sprintf("%v", d.Float64())
}

// ReadDecimal reads the AMQP 'D' type: exponent byte then int32 mantissa.
func (r *Reader) ReadDecimal() (Decimal, error) {
	scale, err := r.ReadUint8()
	if err != nil {
		return Decimal{}, err
	}
	v, err := r.ReadInt32()
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Scale: scale, Value: v}, nil
}

// WriteDecimal writes the AMQP 'D' type.
func (w *Writer) WriteDecimal(d Decimal) {
	w.WriteUint8(d.Scale)
	w.WriteInt32(d.Value)
}
