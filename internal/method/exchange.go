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
	register(ClassExchange, 10, func() Method { return &ExchangeDeclare{} })
	register(ClassExchange, 11, func() Method { return &ExchangeDeclareOk{} })
	register(ClassExchange, 20, func() Method { return &ExchangeDelete{} })
	register(ClassExchange, 21, func() Method { return &ExchangeDeleteOk{} })
	register(ClassExchange, 30, func() Method { return &ExchangeBind{} })
	register(ClassExchange, 31, func() Method { return &ExchangeBindOk{} })
	register(ClassExchange, 40, func() Method { return &ExchangeUnbind{} })
	register(ClassExchange, 51, func() Method { return &ExchangeUnbindOk{} })
}

type ExchangeDeclare struct {
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  wire.Table
}

func (*ExchangeDeclare) ClassID() uint16 { return ClassExchange }
func (*ExchangeDeclare) MethodID() uint16 { return 10 }
func (m *ExchangeDeclare) Synchronous() bool { return !m.NoWait }

func (m *ExchangeDeclare) Write(w *wire.Writer) error {
	w.WriteUint16(0) // reserved
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Type); err != nil {
		return err
	}
	if err := w.WriteByte(packBits(m.Passive, m.Durable, m.AutoDelete, m.Internal, m.NoWait)); err != nil {
		return err
	}
	return w.WriteTable(m.Arguments)
}

func (m *ExchangeDeclare) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Type, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Passive, m.Durable, m.AutoDelete, m.Internal, m.NoWait =
		bitSet(flags, 0), bitSet(flags, 1), bitSet(flags, 2), bitSet(flags, 3), bitSet(flags, 4)
	m.Arguments, err = r.ReadTable()
	return err
}

type ExchangeDeclareOk struct{}

func (*ExchangeDeclareOk) ClassID() uint16         { return ClassExchange }
func (*ExchangeDeclareOk) MethodID() uint16        { return 11 }
func (*ExchangeDeclareOk) Write(*wire.Writer) error { return nil }
func (*ExchangeDeclareOk) Read(*wire.Reader) error  { return nil }

type ExchangeDelete struct {
	Exchange string
	IfUnused bool
	NoWait   bool
}

func (*ExchangeDelete) ClassID() uint16      { return ClassExchange }
func (*ExchangeDelete) MethodID() uint16     { return 20 }
func (m *ExchangeDelete) Synchronous() bool  { return !m.NoWait }

func (m *ExchangeDelete) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Exchange); err != nil {
		return err
	}
	return w.WriteByte(packBits(m.IfUnused, m.NoWait))
}

func (m *ExchangeDelete) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Exchange, err = r.ReadShortstr(); err != nil {
		return err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.IfUnused, m.NoWait = bitSet(flags, 0), bitSet(flags, 1)
	return nil
}

type ExchangeDeleteOk struct{}

func (*ExchangeDeleteOk) ClassID() uint16         { return ClassExchange }
func (*ExchangeDeleteOk) MethodID() uint16        { return 21 }
func (*ExchangeDeleteOk) Write(*wire.Writer) error { return nil }
func (*ExchangeDeleteOk) Read(*wire.Reader) error  { return nil }

type ExchangeBind struct {
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   wire.Table
}

func (*ExchangeBind) ClassID() uint16     { return ClassExchange }
func (*ExchangeBind) MethodID() uint16    { return 30 }
func (m *ExchangeBind) Synchronous() bool { return !m.NoWait }

func (m *ExchangeBind) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Destination); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Source); err != nil {
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

func (m *ExchangeBind) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Destination, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Source, err = r.ReadShortstr(); err != nil {
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

type ExchangeBindOk struct{}

func (*ExchangeBindOk) ClassID() uint16         { return ClassExchange }
func (*ExchangeBindOk) MethodID() uint16        { return 31 }
func (*ExchangeBindOk) Write(*wire.Writer) error { return nil }
func (*ExchangeBindOk) Read(*wire.Reader) error  { return nil }

type ExchangeUnbind struct {
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   wire.Table
}

func (*ExchangeUnbind) ClassID() uint16     { return ClassExchange }
func (*ExchangeUnbind) MethodID() uint16    { return 40 }
func (m *ExchangeUnbind) Synchronous() bool { return !m.NoWait }

func (m *ExchangeUnbind) Write(w *wire.Writer) error {
	w.WriteUint16(0)
	if err := w.WriteShortstr(m.Destination); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Source); err != nil {
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

func (m *ExchangeUnbind) Read(r *wire.Reader) error {
	if _, err := r.ReadUint16(); err != nil {
		return err
	}
	var err error
	if m.Destination, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Source, err = r.ReadShortstr(); err != nil {
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

type ExchangeUnbindOk struct{}

func (*ExchangeUnbindOk) ClassID() uint16         { return ClassExchange }
func (*ExchangeUnbindOk) MethodID() uint16        { return 51 }
func (*ExchangeUnbindOk) Write(*wire.Writer) error { return nil }
func (*ExchangeUnbindOk) Read(*wire.Reader) error  { return nil }
