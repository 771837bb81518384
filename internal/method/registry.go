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

// Package method implements the AMQP 0-9-1 method registry (C3): a typed
// record per method, class/method id pairs grounded directly on the
// teacher's class/method table, and the dispatch table the channel/
// connection kernels use to decode an incoming method frame without a type
// switch at every call site.
package method

import (
	"github.com/pkg/errors"

	"github.com/packetd/camqp/internal/wire"
)

// Class ids (spec.md §4.3; values grounded on the teacher's classConnection
// etc constants).
const (
	ClassConnection uint16 = 10
	ClassChannel    uint16 = 20
	ClassExchange   uint16 = 40
	ClassQueue      uint16 = 50
	ClassBasic      uint16 = 60
	ClassTx         uint16 = 90
	ClassConfirm    uint16 = 85
)

// Method is a decoded/encodable AMQP method. Each concrete type is a typed
// record per spec.md's "runtime polymorphism over method variants" design
// note (§9): a tagged union keyed by (ClassID, MethodID) with central
// dispatch, rather than virtual dispatch.
type Method interface {
	ClassID() uint16
	MethodID() uint16
	// Write encodes the method-specific fields (not the class/method id
	// header, which the frame layer's caller writes once up front).
	Write(w *wire.Writer) error
	// Read decodes the method-specific fields from r, which is positioned
	// just after the class/method id header.
	Read(r *wire.Reader) error
}

// Synchronous is implemented by methods that are a request half of a
// synchronous request/response pair — these cause the channel kernel to
// push a deferred before the frame is sent (spec.md §4.3/§4.5). Async
// one-way methods (publish, ack, nack, reject, recover-async) do not
// implement it.
type Synchronous interface {
	// Synchronous reports whether this method expects a reply to be
	// awaited. A nowait variant still implements Synchronous as a type but
	// returns false (spec.md §4.3): the channel kernel then pushes no
	// deferred and runs the caller's success handler immediately.
	Synchronous() bool
}

// key identifies a method uniquely across all classes.
type key struct {
	class  uint16
	method uint16
}

var factories = map[key]func() Method{}

func register(class, methodID uint16, factory func() Method) {
	factories[key{class, methodID}] = factory
}

// New returns a zero-value Method for (class, methodID), ready for Read, or
// nil if the pair is unrecognised.
func New(class, methodID uint16) Method {
	f, ok := factories[key{class, methodID}]
	if !ok {
		return nil
	}
	return f()
}

// ErrUnknownMethod is returned (wrapped) when a (class, methodID) pair has
// no registered factory.
var ErrUnknownMethod = errors.New("method: unrecognised class/method id")

// Decode reads the class id, method id, and method-specific fields from r,
// returning the decoded Method.
func Decode(r *wire.Reader) (Method, error) {
	class, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	id, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	m := New(class, id)
	if m == nil {
		return nil, errors.Wrapf(ErrUnknownMethod, "class=%d method=%d", class, id)
	}
	if err := m.Read(r); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode writes the class id, method id, and method-specific fields to w.
func Encode(w *wire.Writer, m Method) error {
	w.WriteUint16(m.ClassID())
	w.WriteUint16(m.MethodID())
	return m.Write(w)
}

// ReplyPairs maps a synchronous request method name to its "-Ok" reply
// method name, grounded directly on the teacher's classMethodPairs table.
// Used by the channel kernel to sanity-check that an incoming reply matches
// the head of the deferred FIFO.
var ReplyPairs = map[string]string{
	"connection.start":   "connection.start-ok",
	"connection.secure":  "connection.secure-ok",
	"connection.tune":    "connection.tune-ok",
	"connection.open":    "connection.open-ok",
	"connection.close":   "connection.close-ok",
	"channel.open":       "channel.open-ok",
	"channel.flow":       "channel.flow-ok",
	"channel.close":      "channel.close-ok",
	"exchange.declare":   "exchange.declare-ok",
	"exchange.delete":    "exchange.delete-ok",
	"exchange.bind":      "exchange.bind-ok",
	"exchange.unbind":    "exchange.unbind-ok",
	"queue.declare":      "queue.declare-ok",
	"queue.bind":         "queue.bind-ok",
	"queue.unbind":       "queue.unbind-ok",
	"queue.purge":        "queue.purge-ok",
	"queue.delete":       "queue.delete-ok",
	"basic.qos":          "basic.qos-ok",
	"basic.consume":      "basic.consume-ok",
	"basic.cancel":       "basic.cancel-ok",
	"basic.get":          "basic.get-ok",
	"basic.recover":      "basic.recover-ok",
	"tx.select":          "tx.select-ok",
	"tx.commit":          "tx.commit-ok",
	"tx.rollback":        "tx.rollback-ok",
	"confirm.select":     "confirm.select-ok",
}

// packBits packs up to 8 bools into one byte, bit 0 = bits[0].
func packBits(bits ...bool) byte {
	var b byte
	for i, v := range bits {
		if v {
			b |= 1 << uint(i)
		}
	}
	return b
}

func bitSet(b byte, i int) bool {
	return b&(1<<uint(i)) != 0
}
