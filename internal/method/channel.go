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
	register(ClassChannel, 10, func() Method { return &ChannelOpen{} })
	register(ClassChannel, 11, func() Method { return &ChannelOpenOk{} })
	register(ClassChannel, 20, func() Method { return &ChannelFlow{} })
	register(ClassChannel, 21, func() Method { return &ChannelFlowOk{} })
	register(ClassChannel, 40, func() Method { return &ChannelClose{} })
	register(ClassChannel, 41, func() Method { return &ChannelCloseOk{} })
}

type ChannelOpen struct{}

func (*ChannelOpen) ClassID() uint16    { return ClassChannel }
func (*ChannelOpen) MethodID() uint16   { return 10 }
func (*ChannelOpen) Synchronous() bool  { return true }
func (*ChannelOpen) Write(w *wire.Writer) error { return w.WriteShortstr("") }
func (*ChannelOpen) Read(r *wire.Reader) error {
	_, err := r.ReadShortstr()
	return err
}

type ChannelOpenOk struct{}

func (*ChannelOpenOk) ClassID() uint16  { return ClassChannel }
func (*ChannelOpenOk) MethodID() uint16 { return 11 }
func (*ChannelOpenOk) Write(w *wire.Writer) error { return w.WriteLongstr(nil) }
func (*ChannelOpenOk) Read(r *wire.Reader) error {
	_, err := r.ReadLongstr()
	return err
}

type ChannelFlow struct {
	Active bool
}

func (*ChannelFlow) ClassID() uint16   { return ClassChannel }
func (*ChannelFlow) MethodID() uint16  { return 20 }
func (*ChannelFlow) Synchronous() bool { return true }
func (m *ChannelFlow) Write(w *wire.Writer) error {
	w.WriteBool(m.Active)
	return nil
}
func (m *ChannelFlow) Read(r *wire.Reader) (err error) {
	m.Active, err = r.ReadBool()
	return err
}

type ChannelFlowOk struct {
	Active bool
}

func (*ChannelFlowOk) ClassID() uint16  { return ClassChannel }
func (*ChannelFlowOk) MethodID() uint16 { return 21 }
func (m *ChannelFlowOk) Write(w *wire.Writer) error {
	w.WriteBool(m.Active)
	return nil
}
func (m *ChannelFlowOk) Read(r *wire.Reader) (err error) {
	m.Active, err = r.ReadBool()
	return err
}

type ChannelClose struct {
	ReplyCode uint16
	ReplyText string
	ClassId   uint16
	MethodId  uint16
}

func (*ChannelClose) ClassID() uint16    { return ClassChannel }
func (*ChannelClose) MethodID() uint16   { return 40 }
func (*ChannelClose) Synchronous() bool  { return true }

func (m *ChannelClose) Write(w *wire.Writer) error {
	w.WriteUint16(m.ReplyCode)
	if err := w.WriteShortstr(m.ReplyText); err != nil {
		return err
	}
	w.WriteUint16(m.ClassId)
	w.WriteUint16(m.MethodId)
	return nil
}

func (m *ChannelClose) Read(r *wire.Reader) (err error) {
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

type ChannelCloseOk struct{}

func (*ChannelCloseOk) ClassID() uint16   { return ClassChannel }
func (*ChannelCloseOk) MethodID() uint16  { return 41 }
func (*ChannelCloseOk) Write(*wire.Writer) error { return nil }
func (*ChannelCloseOk) Read(*wire.Reader) error  { return nil }
