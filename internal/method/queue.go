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
	register(ClassQueue, 10, func() Method { return &QueueDeclare{} })
	register(ClassQueue, 11, func() Method { return &QueueDeclareOk{} })
	register(ClassQueue, 20, func() Method { return &QueueBind{} })
	register(ClassQueue, 21, func() Method { return &QueueBindOk{} })
	register(ClassQueue, 50, func() Method { return &QueueUnbind{} })
	register(ClassQueue, 51, func() Method { return &QueueUnbindOk{} })
	register(ClassQueue, 30, func() Method { return &QueuePurge{} })
	register(ClassQueue, 31, func() Method { return &QueuePurgeOk{} })
	register(ClassQueue, 40, func() Method { return &QueueDelete{} })
	register(ClassQueue, 41, func() Method { return &QueueDeleteOk{} })
}

type QueueDeclare struct {
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  wire.Table
}

func (*QueueDeclare) ClassID() uint16    { return ClassQueue }
func (*QueueDeclare) MethodID() uint16   { return 10 }
func (m *QueueDeclare) Synchronous() bool { return !m.NoWait }

func (m *QueueDeclare) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	if err := w.WriteByte(packBits(m.Passive, m.Durable, m.Exclusive, m.AutoDelete, m.NoWait)); err != nil {
		return err
	}
	return w.WriteTable(m.Arguments)
}

func (m *QueueDeclare) Read(r *wire.Reader) error {
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
	m.Passive, m.Durable, m.Exclusive, m.AutoDelete, m.NoWait =
		bitSet(flags, 0), bitSet(flags, 1), bitSet(flags, 2), bitSet(flags, 3), bitSet(flags, 4)
	m.Arguments, err = r.ReadTable()
	return err
}

type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (*QueueDeclareOk) ClassID() uint16  { return ClassQueue }
func (*QueueDeclareOk) MethodID() uint16 { return 11 }

func (m *QueueDeclareOk) Write(w *wire.Writer) error {
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	w.WriteUint32(m.MessageCount)
	w.WriteUint32(m.ConsumerCount)
	return nil
}

func (m *QueueDeclareOk) Read(r *wire.Reader) (err error) {
	if m.Queue, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.MessageCount, err = r.ReadUint32(); err != nil {
		return err
	}
	m.ConsumerCount, err = r.ReadUint32()
	return err
}

type QueueBind struct {
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  wire.Table
}

func (*QueueBind) ClassID() uint16    { return ClassQueue }
func (*QueueBind) MethodID() uint16   { return 20 }
func (m *QueueBind) Synchronous() bool { return !m.NoWait }

func (m *QueueBind) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.RoutingKey); err != nil {
		return err
	}
	if err := w.WriteByte(packBits(m.NoWait)); err != nil {
		return err
	}
	return w.WriteTable(m.Arguments)
}

func (m *QueueBind) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Queue, err = r.ReadShortstr(); err != nil {
		return err
	}
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
	m.NoWait = bitSet(flags, 0)
	m.Arguments, err = r.ReadTable()
	return err
}

type QueueBindOk struct{}

func (*QueueBindOk) ClassID() uint16         { return ClassQueue }
func (*QueueBindOk) MethodID() uint16        { return 21 }
func (*QueueBindOk) Write(*wire.Writer) error { return nil }
func (*QueueBindOk) Read(*wire.Reader) error  { return nil }

// QueueUnbind has no nowait field historically — unbind always waits for
// the server's confirmation (matches the teacher's pamqp method table).
type QueueUnbind struct {
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  wire.Table
}

func (*QueueUnbind) ClassID() uint16    { return ClassQueue }
func (*QueueUnbind) MethodID() uint16   { return 50 }
func (*QueueUnbind) Synchronous() bool  { return true }

func (m *QueueUnbind) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.RoutingKey); err != nil {
		return err
	}
	return w.WriteTable(m.Arguments)
}

func (m *QueueUnbind) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Queue, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.RoutingKey, err = r.ReadShortstr(); err != nil {
		return err
	}
	m.Arguments, err = r.ReadTable()
	return err
}

type QueueUnbindOk struct{}

func (*QueueUnbindOk) ClassID() uint16         { return ClassQueue }
func (*QueueUnbindOk) MethodID() uint16        { return 51 }
func (*QueueUnbindOk) Write(*wire.Writer) error { return nil }
func (*QueueUnbindOk) Read(*wire.Reader) error  { return nil }

type QueuePurge struct {
	Queue  string
	NoWait bool
}

func (*QueuePurge) ClassID() uint16    { return ClassQueue }
func (*QueuePurge) MethodID() uint16   { return 30 }
func (m *QueuePurge) Synchronous() bool { return !m.NoWait }

func (m *QueuePurge) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.NoWait))
}

func (m *QueuePurge) Read(r *wire.Reader) error {
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
	m.NoWait = bitSet(flags, 0)
	return nil
}

type QueuePurgeOk struct {
	MessageCount uint32
}

func (*QueuePurgeOk) ClassID() uint16  { return ClassQueue }
func (*QueuePurgeOk) MethodID() uint16 { return 31 }
func (m *QueuePurgeOk) Write(w *wire.Writer) error {
	w.WriteUint32(m.MessageCount)
	return nil
}
func (m *QueuePurgeOk) Read(r *wire.Reader) (err error) {
	m.MessageCount, err = r.ReadUint32()
	return err
}

type QueueDelete struct {
	Queue    string
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

func (*QueueDelete) ClassID() uint16    { return ClassQueue }
func (*QueueDelete) MethodID() uint16   { return 40 }
func (m *QueueDelete) Synchronous() bool { return !m.NoWait }

func (m *QueueDelete) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Queue); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.IfUnused, m.IfEmpty, m.NoWait))
}

func (m *QueueDelete) Read(r *wire.Reader) error {
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
	m.IfUnused, m.IfEmpty, m.NoWait = bitSet(flags, 0), bitSet(flags, 1), bitSet(flags, 2)
	return nil
}

type QueueDeleteOk struct {
	MessageCount uint32
}

func (*QueueDeleteOk) ClassID() uint16  { return ClassQueue }
func (*QueueDeleteOk) MethodID() uint16 { return 41 }
func (m *QueueDeleteOk) Write(w *wire.Writer) error {
	w.WriteUint32(m.MessageCount)
	return nil
}
func (m *QueueDeleteOk) Read(r *wire.Reader) (err error) {
	m.MessageCount, err = r.ReadUint32()
	return err
}
