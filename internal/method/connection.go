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
	register(ClassConnection, 10, func() Method { return &ConnectionStart{} })
	register(ClassConnection, 11, func() Method { return &ConnectionStartOk{} })
	register(ClassConnection, 20, func() Method { return &ConnectionSecure{} })
	register(ClassConnection, 21, func() Method { return &ConnectionSecureOk{} })
	register(ClassConnection, 30, func() Method { return &ConnectionTune{} })
	register(ClassConnection, 31, func() Method { return &ConnectionTuneOk{} })
	register(ClassConnection, 40, func() Method { return &ConnectionOpen{} })
	register(ClassConnection, 41, func() Method { return &ConnectionOpenOk{} })
	register(ClassConnection, 50, func() Method { return &ConnectionClose{} })
	register(ClassConnection, 51, func() Method { return &ConnectionCloseOk{} })
	register(ClassConnection, 60, func() Method { return &ConnectionBlocked{} })
	register(ClassConnection, 61, func() Method { return &ConnectionUnblocked{} })
}

type ConnectionStart struct {
	VersionMajor    uint8
	VersionMinor    uint8
	ServerProperties wire.Table
	Mechanisms      string
	Locales         string
}

func (*ConnectionStart) ClassID() uint16  { return ClassConnection }
func (*ConnectionStart) MethodID() uint16 { return 10 }

func (m *ConnectionStart) Write(w *wire.Writer) error {
	w.WriteUint8(m.VersionMajor)
	w.WriteUint8(m.VersionMinor)
	if err := w.WriteTable(m.ServerProperties); err != nil {
		return err
	}
	if err := w.WriteLongstr([]byte(m.Mechanisms)); err != nil {
		return err
	}
	return w.WriteLongstr([]byte(m.Locales))
}

func (m *ConnectionStart) Read(r *wire.Reader) (err error) {
	if m.VersionMajor, err = r.ReadUint8(); err != nil {
		return err
	}
	if m.VersionMinor, err = r.ReadUint8(); err != nil {
		return err
	}
	if m.ServerProperties, err = r.ReadTable(); err != nil {
		return err
	}
	mech, err := r.ReadLongstr()
	if err != nil {
		return err
	}
	m.Mechanisms = string(mech)
	loc, err := r.ReadLongstr()
	if err != nil {
		return err
	}
	m.Locales = string(loc)
	return nil
}

type ConnectionStartOk struct {
	ClientProperties wire.Table
	Mechanism        string
	Response         []byte
	Locale           string
}

func (*ConnectionStartOk) ClassID() uint16  { return ClassConnection }
func (*ConnectionStartOk) MethodID() uint16 { return 11 }

func (m *ConnectionStartOk) Write(w *wire.Writer) error {
	if err := w.WriteTable(m.ClientProperties); err != nil {
		return err
	}
	if err := w.WriteShortstr(m.Mechanism); err != nil {
		return err
	}
	if err := w.WriteLongstr(m.Response); err != nil {
		return err
	}
	return w.WriteShortstr(m.Locale)
}

func (m *ConnectionStartOk) Read(r *wire.Reader) (err error) {
	if m.ClientProperties, err = r.ReadTable(); err != nil {
		return err
	}
	if m.Mechanism, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.Response, err = r.ReadLongstr(); err != nil {
		return err
	}
	m.Locale, err = r.ReadShortstr()
	return err
}

type ConnectionSecure struct {
	Challenge []byte
}

func (*ConnectionSecure) ClassID() uint16  { return ClassConnection }
func (*ConnectionSecure) MethodID() uint16 { return 20 }
func (m *ConnectionSecure) Write(w *wire.Writer) error { return w.WriteLongstr(m.Challenge) }
func (m *ConnectionSecure) Read(r *wire.Reader) (err error) {
	m.Challenge, err = r.ReadLongstr()
	return err
}

type ConnectionSecureOk struct {
	Response []byte
}

func (*ConnectionSecureOk) ClassID() uint16  { return ClassConnection }
func (*ConnectionSecureOk) MethodID() uint16 { return 21 }
func (m *ConnectionSecureOk) Write(w *wire.Writer) error { return w.WriteLongstr(m.Response) }
func (m *ConnectionSecureOk) Read(r *wire.Reader) (err error) {
	m.Response, err = r.ReadLongstr()
	return err
}

type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTune) ClassID() uint16  { return ClassConnection }
func (*ConnectionTune) MethodID() uint16 { return 30 }

func (m *ConnectionTune) Write(w *wire.Writer) error {
	w.WriteUint16(m.ChannelMax)
	w.WriteUint32(m.FrameMax)
	w.WriteUint16(m.Heartbeat)
	return nil
}

func (m *ConnectionTune) Read(r *wire.Reader) (err error) {
	if m.ChannelMax, err = r.ReadUint16(); err != nil {
		return err
	}
	if m.FrameMax, err = r.ReadUint32(); err != nil {
		return err
	}
	m.Heartbeat, err = r.ReadUint16()
	return err
}

type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTuneOk) ClassID() uint16  { return ClassConnection }
func (*ConnectionTuneOk) MethodID() uint16 { return 31 }

func (m *ConnectionTuneOk) Write(w *wire.Writer) error {
	w.WriteUint16(m.ChannelMax)
	w.WriteUint32(m.FrameMax)
	w.WriteUint16(m.Heartbeat)
	return nil
}

func (m *ConnectionTuneOk) Read(r *wire.Reader) (err error) {
	if m.ChannelMax, err = r.ReadUint16(); err != nil {
		return err
	}
	if m.FrameMax, err = r.ReadUint32(); err != nil {
		return err
	}
	m.Heartbeat, err = r.ReadUint16()
	return err
}

type ConnectionOpen struct {
	VirtualHost string
}

func (*ConnectionOpen) ClassID() uint16   { return ClassConnection }
func (*ConnectionOpen) MethodID() uint16  { return 40 }
func (m *ConnectionOpen) Synchronous() bool { return true }

func (m *ConnectionOpen) Write(w *wire.Writer) error {
	if err := w.WriteShortstr(m.VirtualHost); err != nil {
		return err
	}
	if err := w.WriteShortstr(""); err != nil { // reserved-1: capabilities
		return err
	}
	w.WriteBool(false) // reserved-2: insist
	return nil
}

func (m *ConnectionOpen) Read(r *wire.Reader) (err error) {
	if m.VirtualHost, err = r.ReadShortstr(); err != nil {
		return err
	}
	if _, err = r.ReadShortstr(); err != nil {
		return err
	}
	_, err = r.ReadBool()
	return err
}

type ConnectionOpenOk struct{}

func (*ConnectionOpenOk) ClassID() uint16  { return ClassConnection }
func (*ConnectionOpenOk) MethodID() uint16 { return 41 }
func (m *ConnectionOpenOk) Write(w *wire.Writer) error { return w.WriteShortstr("") }
func (m *ConnectionOpenOk) Read(r *wire.Reader) error {
	_, err := r.ReadShortstr()
	return err
}

type ConnectionClose struct {
	ReplyCode uint16
	ReplyText string
	ClassId   uint16
	MethodId  uint16
}

func (*ConnectionClose) ClassID() uint16    { return ClassConnection }
func (*ConnectionClose) MethodID() uint16   { return 50 }
func (m *ConnectionClose) Synchronous() bool { return true }

func (m *ConnectionClose) Write(w *wire.Writer) error {
	w.WriteUint16(m.ReplyCode)
	if err := w.WriteShortstr(m.ReplyText); err != nil {
		return err
	}
	w.WriteUint16(m.ClassId)
	w.WriteUint16(m.MethodId)
	return nil
}

func (m *ConnectionClose) Read(r *wire.Reader) (err error) {
	if m.ReplyCode, err = r.ReadUint16(); err != nil {
		return err
	}
	if m.ReplyText, err = r.ReadShortstr(); err != nil {
		return err
	}
	if m.ClassId, err = r.ReadUint16(); err != nil {
		return err
	}
	m.MethodId, err = r.ReadUint16()
	return err
}

type ConnectionCloseOk struct{}

func (*ConnectionCloseOk) ClassID() uint16   { return ClassConnection }
func (*ConnectionCloseOk) MethodID() uint16  { return 51 }
func (*ConnectionCloseOk) Write(*wire.Writer) error { return nil }
func (*ConnectionCloseOk) Read(*wire.Reader) error  { return nil }

type ConnectionBlocked struct {
	Reason string
}

func (*ConnectionBlocked) ClassID() uint16  { return ClassConnection }
func (*ConnectionBlocked) MethodID() uint16 { return 60 }
func (m *ConnectionBlocked) Write(w *wire.Writer) error { return w.WriteShortstr(m.Reason) }
func (m *ConnectionBlocked) Read(r *wire.Reader) (err error) {
	m.Reason, err = r.ReadShortstr()
	return err
}

type ConnectionUnblocked struct{}

func (*ConnectionUnblocked) ClassID() uint16   { return ClassConnection }
func (*ConnectionUnblocked) MethodID() uint16  { return 61 }
func (*ConnectionUnblocked) Write(*wire.Writer) error { return nil }
func (*ConnectionUnblocked) Read(*wire.Reader) error  { return nil }
