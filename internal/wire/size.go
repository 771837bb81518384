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

// SizeOfShortstr returns the encoded size of a short string, including its
// one-byte length prefix.
func SizeOfShortstr(s string) int { return 1 + len(s) }

// SizeOfLongstr returns the encoded size of a long string/byte-array body,
// including its four-byte length prefix but excluding any type tag.
func SizeOfLongstr(b []byte) int { return 4 + len(b) }

// sizeOfTableBody returns the size of a table's length-prefixed body
// (everything WriteTable emits: the four-byte length plus every pair),
// excluding the leading type tag byte a containing WriteField would add.
func sizeOfTableBody(t Table) (int, error) {
	total := 4
	var sizeErr error
	t.Range(func(key string, value any) bool {
		n, err := SizeOfField(value)
		if err != nil {
			sizeErr = err
			return false
		}
		total += SizeOfShortstr(key) + n
		return true
	})
	return total, sizeErr
}

// SizeOfTable returns the encoded size of t including its 'F' type tag, as
// produced by WriteField(t).
func SizeOfTable(t Table) (int, error) {
	n, err := sizeOfTableBody(t)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

// sizeOfArrayBody returns the size of an array's length-prefixed body,
// excluding the leading type tag byte.
func sizeOfArrayBody(vals []any) (int, error) {
	total := 4
	for _, v := range vals {
		n, err := SizeOfField(v)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// SizeOfArray returns the encoded size of vals including its 'A' type tag,
// as produced by WriteField(vals).
func SizeOfArray(vals []any) (int, error) {
	n, err := sizeOfArrayBody(vals)
	if err != nil {
		return 0, err
	}
	return 1 + n, nil
}

// SizeOfField returns the encoded size of a tagged value as WriteField
// would emit it, including the one-byte type tag.
func SizeOfField(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 1, nil
	case bool, int8, uint8:
		return 1 + 1, nil
	case int16, uint16:
		return 1 + 2, nil
	case int32, uint32, float32:
		return 1 + 4, nil
	case int64, uint64, float64:
		return 1 + 8, nil
	case int:
		return 1 + 8, nil
	case Decimal:
		return 1 + 1 + 4, nil
	case string:
		return 1 + SizeOfLongstr([]byte(t)), nil
	case Binary:
		return 1 + SizeOfLongstr(t), nil
	case []byte:
		return 1 + SizeOfLongstr(t), nil
	case time.Time:
		return 1 + 8, nil
	case []any:
		n, err := sizeOfArrayBody(t)
		if err != nil {
			return 0, err
		}
		return 1 + n, nil
	case Table:
		n, err := sizeOfTableBody(t)
		if err != nil {
			return 0, err
		}
		return 1 + n, nil
	default:
		return 0, errors.Errorf("wire: cannot size field of type %T", v)
	}
}
