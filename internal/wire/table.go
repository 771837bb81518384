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
	"bytes"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Table is a field table: an ordered sequence of (short-name, tagged-value)
// pairs (spec.md §3). Keys are looked up case-sensitively; re-Set of an
// existing key replaces its value in place, preserving original position so
// that decode-then-reencode round-trips byte for byte. Table equality
// (Equal) is structural — the same key/value pairs regardless of order.
type Table struct {
	keys   []string
	values map[string]any
}

// NewTable returns an empty Table.
func NewTable() Table {
	return Table{values: make(map[string]any)}
}

// Len returns the number of entries.
func (t Table) Len() int { return len(t.keys) }

// Has reports whether key is present.
func (t Table) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Get returns the raw value for key and whether it was present.
func (t Table) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Set inserts or replaces key's value, preserving its original position on
// replace and appending on insert.
func (t *Table) Set(key string, value any) {
	if t.values == nil {
		t.values = make(map[string]any)
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Del removes key, if present.
func (t *Table) Del(key string) {
	if _, ok := t.values[key]; !ok {
		return
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the entries in insertion/decode order.
func (t Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Range calls fn for every entry in order, stopping early if fn returns
// false.
func (t Table) Range(fn func(key string, value any) bool) {
	for _, k := range t.keys {
		if !fn(k, t.values[k]) {
			return
		}
	}
}

// GetString returns key's value coerced to a string via a lenient cast
// (spf13/cast); ok is false if key is absent.
func (t Table) GetString(key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok {
		return "", false
	}
	s, err := cast.ToStringE(v)
	return s, err == nil
}

// GetInt64 returns key's value coerced to an int64.
func (t Table) GetInt64(key string) (int64, bool) {
	v, ok := t.Get(key)
	if !ok {
		return 0, false
	}
	i, err := cast.ToInt64E(v)
	return i, err == nil
}

// GetBool returns key's value coerced to a bool.
func (t Table) GetBool(key string) (bool, bool) {
	v, ok := t.Get(key)
	if !ok {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	return b, err == nil
}

// Unpack decodes the table into dest (a pointer to a struct) via
// mitchellh/mapstructure, using the same "config" tag convention the rest
// of the repo's ambient config stack uses. Handy for queue/exchange
// declare arguments such as x-message-ttl, x-dead-letter-exchange.
func (t Table) Unpack(dest any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "config",
		Result:  dest,
	})
	if err != nil {
		return err
	}
	return dec.Decode(t.values)
}

// Equal reports structural equality: the same set of key/value pairs,
// independent of order. Nested Tables and []any slices are compared
// recursively.
func (t Table) Equal(other Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t.Hash() != other.Hash() {
		return false
	}
	for _, k := range t.keys {
		v1 := t.values[k]
		v2, ok := other.values[k]
		if !ok || !valuesEqual(v1, v2) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case Table:
		bv, ok := b.(Table)
		return ok && av.Equal(bv)
	case Binary:
		bv, ok := b.(Binary)
		return ok && bytes.Equal(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Hash returns a content hash (xxhash over a canonical, sort-order-
// independent serialization) usable as a fast structural-equality
// short-circuit before falling back to Equal for a definitive answer.
// Two tables with the same Hash are not guaranteed equal (collisions are
// possible); two tables with different Hash are guaranteed unequal.
func (t Table) Hash() uint64 {
	keys := t.Keys()
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(cast.ToString(t.values[k]))
		sb.WriteByte(';')
	}
	return xxhash.Sum64String(sb.String())
}
