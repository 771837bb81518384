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

package method

import "github.com/packetd/camqp/internal/wire"

func init() {
	register(ClassBasic, 10, func() Method { return &BasicQos{} })
	register(ClassBasic, 11, func() Method { return &BasicQosOk{} })
	register(ClassBasic, 20, func() Method { return &BasicConsume{} })
	register(ClassBasic, 21, func() Method { return &BasicConsumeOk{} })
	register(ClassBasic, 30, func() Method { return &BasicCancel{} })
	register(ClassBasic, 31, func() Method { return &BasicCancelOk{} })
	register(ClassBasic, 40, func() Method { return &BasicPublish{} })
	register(ClassBasic, 50, func() Method { return &BasicReturn{} })
	register(ClassBasic, 60, func() Method { return &BasicDeliver{} })
	register(ClassBasic, 70, func() Method { return &BasicGet{} })
	register(ClassBasic, 71, func() Method { return &BasicGetOk{} })
	register(ClassBasic, 72, func() Method { return &BasicGetEmpty{} })
	register(ClassBasic, 80, func() Method { return &BasicAck{} })
	register(ClassBasic, 90, func() Method { return &BasicReject{} })
	register(ClassBasic, 100, func() Method { return &BasicRecoverAsync{} })
	register(ClassBasic, 110, func() Method { return &BasicRecover{} })
	register(ClassBasic, 111, func() Method { return &BasicRecoverOk{} })
	register(ClassBasic, 120, func() Method { return &BasicNack{} })
}

type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (*BasicQos) ClassID() uint16   { return ClassBasic }
func (*BasicQos) MethodID() uint16  { return 10 }
func (*BasicQos) Synchronous() bool { return true }

func (m *BasicQos) Write(w *wire.Writer) error {
	w.WriteUint32(m.PrefetchSize)
	w.WriteUint16(m.PrefetchCount)
	return w.WriteByte(packBits(m.Global))
}

func (m *BasicQos) Read(r *wire.Reader) (err error) {
	if m.PrefetchSize, err = r.ReadUint32(); err != nil {
		return err
	}
	if m.PrefetchCount, err = r.ReadUint16(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Global = bitSet(flags, 0)
	return nil
}

type BasicQosOk struct{}

func (*BasicQosOk) ClassID() uint16         { return ClassBasic }
func (*BasicQosOk) MethodID() uint16        { return 11 }
func (*BasicQosOk) Write(*wire.Writer) error { return nil }
func (*BasicQosOk) Read(*wire.Reader) error  { return nil }

type BasicConsume struct {
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   wire.Table
}

func (*BasicConsume) ClassID() uint16     { return ClassBasic }
func (*BasicConsume) MethodID() uint16    { return 20 }
func (m *BasicConsume) Synchronous() bool { return !m.NoWait }

func (m *BasicConsume) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.ConsumerTag); err != nil {
		return err
	}
	if err := w.WriteByte(packBits(m.NoLocal, m.NoAck, m.Exclusive, m.NoWait)); err != nil {
		return err
	}
	return w.WriteTable(m.Arguments)
}

func (m *BasicConsume) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Queue, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.ConsumerTag, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.NoLocal, m.NoAck, m.Exclusive, m.NoWait =
		bitSet(flags, 0), bitSet(flags, 1), bitSet(flags, 2), bitSet(flags, 3)
	m.Arguments, err = r.ReadTable()
	return err
}

type BasicConsumeOk struct {
	ConsumerTag string
}

func (*BasicConsumeOk) ClassID() uint16  { return ClassBasic }
func (*BasicConsumeOk) MethodID() uint16 { return 21 }
func (m *BasicConsumeOk) Write(w *wire.Writer) error { return w.WriteShortstr(m.ConsumerTag) }
func (m *BasicConsumeOk) Read(r *wire.Reader) (err error) {
	m.ConsumerTag, err = r.ReadShortstr()
	return err
}

type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (*BasicCancel) ClassID() uint16     { return ClassBasic }
func (*BasicCancel) MethodID() uint16    { return 30 }
func (m *BasicCancel) Synchronous() bool { return !m.NoWait }

func (m *BasicCancel) Write(w *wire.Writer) error {
	if err := w.WriteShortstr(m.ConsumerTag); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.NoWait))
}

func (m *BasicCancel) Read(r *wire.Reader) error {
	var err error
	if m.ConsumerTag, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.NoWait = bitSet(flags, 0)
	return nil
}

type BasicCancelOk struct {
	ConsumerTag string
}

func (*BasicCancelOk) ClassID() uint16  { return ClassBasic }
func (*BasicCancelOk) MethodID() uint16 { return 31 }
func (m *BasicCancelOk) Write(w *wire.Writer) error { return w.WriteShortstr(m.ConsumerTag) }
func (m *BasicCancelOk) Read(r *wire.Reader) (err error) {
	m.ConsumerTag, err = r.ReadShortstr()
	return err
}

// BasicPublish is asynchronous: it does not implement Synchronous, and
// precedes a header frame plus zero or more body frames (spec.md §6).
type BasicPublish struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (*BasicPublish) ClassID() uint16  { return ClassBasic }
func (*BasicPublish) MethodID() uint16 { return 40 }

func (m *BasicPublish) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.RoutingKey); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.Mandatory, m.Immediate))
}

func (m *BasicPublish) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.RoutingKey, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Mandatory, m.Immediate = bitSet(flags, 0), bitSet(flags, 1)
	return nil
}

// BasicReturn precedes the header/body of an unroutable mandatory/immediate
// publish bounced back to the publisher (spec.md §6, message.go Envelope).
type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (*BasicReturn) ClassID() uint16  { return ClassBasic }
func (*BasicReturn) MethodID() uint16 { return 50 }

func (m *BasicReturn) Write(w *wire.Writer) error {
	w.WriteUint16(m.ReplyCode)
	if err := w.WriteShortstr(m.ReplyText); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	return w.WriteShortstr(m.RoutingKey)
}

func (m *BasicReturn) Read(r *wire.Reader) (err error) {
	if m.ReplyCode, err = r.ReadUint16(); err != nil {
		return err
	}
	if m.ReplyText, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	m.RoutingKey, err = r.ReadShortstr()
	return err
}

// BasicDeliver precedes the header/body of a push delivery to a consumer.
type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (*BasicDeliver) ClassID() uint16  { return ClassBasic }
func (*BasicDeliver) MethodID() uint16 { return 60 }

func (m *BasicDeliver) Write(w *wire.Writer) error {
	if err := w.WriteShortstr(m.ConsumerTag); err != nil {
		return err
	}
	w.WriteUint64(m.DeliveryTag)
	if err := w.WriteByte(packBits(m.Redelivered)); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	return w.WriteShortstr(m.RoutingKey)
}

func (m *BasicDeliver) Read(r *wire.Reader) (err error) {
	if m.ConsumerTag, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.DeliveryTag, err = r.ReadUint64(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Redelivered = bitSet(flags, 0)
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	m.RoutingKey, err = r.ReadShortstr()
	return err
}

type BasicGet struct {
	Queue string
	NoAck bool
}

func (*BasicGet) ClassID() uint16   { return ClassBasic }
func (*BasicGet) MethodID() uint16  { return 70 }
func (*BasicGet) Synchronous() bool { return true }

func (m *BasicGet) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.NoAck))
}

func (m *BasicGet) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Queue, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.NoAck = bitSet(flags, 0)
	return nil
}

// BasicGetOk precedes the header/body of a polled message. ReplyPairs lists
// basic.get-ok for basic.get, but the channel kernel matches basic.get
// explicitly because basic.get-empty is an equally valid reply.
type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (*BasicGetOk) ClassID() uint16  { return ClassBasic }
func (*BasicGetOk) MethodID() uint16 { return 71 }

func (m *BasicGetOk) Write(w *wire.Writer) error {
	w.WriteUint64(m.DeliveryTag)
	if err := w.WriteByte(packBits(m.Redelivered)); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.RoutingKey); err != nil {
		return err
	}
	w.WriteUint32(m.MessageCount)
	return nil
}

func (m *BasicGetOk) Read(r *wire.Reader) (err error) {
	if m.DeliveryTag, err = r.ReadUint64(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Redelivered = bitSet(flags, 0)
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.RoutingKey, err = r.ReadShortstr(); err != nil {
		return err
	}
	m.MessageCount, err = r.ReadUint32()
	return err
}

type BasicGetEmpty struct{}

func (*BasicGetEmpty) ClassID() uint16  { return ClassBasic }
func (*BasicGetEmpty) MethodID() uint16 { return 72 }
func (*BasicGetEmpty) Write(w *wire.Writer) error { return w.WriteShortstr("") }
func (*BasicGetEmpty) Read(r *wire.Reader) error {
	_, err := r.ReadShortstr()
	return err
}

// BasicAck is asynchronous: client->server delivery acks and the
// server->client confirm acks share this wire shape (spec.md §7).
type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (*BasicAck) ClassID() uint16  { return ClassBasic }
func (*BasicAck) MethodID() uint16 { return 80 }

func (m *BasicAck) Write(w *wire.Writer) error {
	w.WriteUint64(m.DeliveryTag)
	return w.WriteByte(packBits(m.Multiple))
}

func (m *BasicAck) Read(r *wire.Reader) (err error) {
	if m.DeliveryTag, err = r.ReadUint64(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Multiple = bitSet(flags, 0)
	return nil
}

type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (*BasicReject) ClassID() uint16  { return ClassBasic }
func (*BasicReject) MethodID() uint16 { return 90 }

func (m *BasicReject) Write(w *wire.Writer) error {
	w.WriteUint64(m.DeliveryTag)
	return w.WriteByte(packBits(m.Requeue))
}

func (m *BasicReject) Read(r *wire.Reader) (err error) {
	if m.DeliveryTag, err = r.ReadUint64(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Requeue = bitSet(flags, 0)
	return nil
}

// BasicRecoverAsync is deprecated by basic.recover; the client still sends
// it through Channel.BasicRecoverAsync, and the broker never replies to it.
type BasicRecoverAsync struct {
	Requeue bool
}

func (*BasicRecoverAsync) ClassID() uint16  { return ClassBasic }
func (*BasicRecoverAsync) MethodID() uint16 { return 100 }
func (m *BasicRecoverAsync) Write(w *wire.Writer) error { return w.WriteByte(packBits(m.Requeue)) }
func (m *BasicRecoverAsync) Read(r *wire.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Requeue = bitSet(flags, 0)
	return nil
}

type BasicRecover struct {
	Requeue bool
}

func (*BasicRecover) ClassID() uint16   { return ClassBasic }
func (*BasicRecover) MethodID() uint16  { return 110 }
func (*BasicRecover) Synchronous() bool { return true }
func (m *BasicRecover) Write(w *wire.Writer) error { return w.WriteByte(packBits(m.Requeue)) }
func (m *BasicRecover) Read(r *wire.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Requeue = bitSet(flags, 0)
	return nil
}

type BasicRecoverOk struct{}

func (*BasicRecoverOk) ClassID() uint16         { return ClassBasic }
func (*BasicRecoverOk) MethodID() uint16        { return 111 }
func (*BasicRecoverOk) Write(*wire.Writer) error { return nil }
func (*BasicRecoverOk) Read(*wire.Reader) error  { return nil }

// BasicNack is the RabbitMQ extension to basic.reject that adds Multiple,
// mirroring BasicAck's cumulative range shape (spec.md §7, confirm.go).
type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (*BasicNack) ClassID() uint16  { return ClassBasic }
func (*BasicNack) MethodID() uint16 { return 120 }

func (m *BasicNack) Write(w *wire.Writer) error {
	w.WriteUint64(m.DeliveryTag)
	return w.WriteByte(packBits(m.Multiple, m.Requeue))
}

func (m *BasicNack) Read(r *wire.Reader) (err error) {
	if m.DeliveryTag, err = r.ReadUint64(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Multiple, m.Requeue = bitSet(flags, 0), bitSet(flags, 1)
	return nil
}
