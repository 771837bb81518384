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
	register(ClassConfirm, 10, func() Method { return &ConfirmSelect{} })
	register(ClassConfirm, 11, func() Method { return &ConfirmSelectOk{} })
}

// ConfirmSelect switches the channel into publisher-confirm mode (C7,
// confirm.go's Tagger/Throttle wrapper). Nowait resolves its deferred
// immediately rather than waiting on the wire (spec.md §7).
type ConfirmSelect struct {
	NoWait bool
}

func (*ConfirmSelect) ClassID() uint16     { return ClassConfirm }
func (*ConfirmSelect) MethodID() uint16    { return 10 }
func (m *ConfirmSelect) Synchronous() bool { return !m.NoWait }

func (m *ConfirmSelect) Write(w *wire.Writer) error {
	return w.WriteByte(packBits(m.NoWait))
}

func (m *ConfirmSelect) Read(r *wire.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.NoWait = bitSet(flags, 0)
	return nil
}

type ConfirmSelectOk struct{}

func (*ConfirmSelectOk) ClassID() uint16         { return ClassConfirm }
func (*ConfirmSelectOk) MethodID() uint16        { return 11 }
func (*ConfirmSelectOk) Write(*wire.Writer) error { return nil }
func (*ConfirmSelectOk) Read(*wire.Reader) error  { return nil }
