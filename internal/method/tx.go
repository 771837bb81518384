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
	register(ClassTx, 10, func() Method { return &TxSelect{} })
	register(ClassTx, 11, func() Method { return &TxSelectOk{} })
	register(ClassTx, 20, func() Method { return &TxCommit{} })
	register(ClassTx, 21, func() Method { return &TxCommitOk{} })
	register(ClassTx, 30, func() Method { return &TxRollback{} })
	register(ClassTx, 31, func() Method { return &TxRollbackOk{} })
}

type TxSelect struct{}

func (*TxSelect) ClassID() uint16         { return ClassTx }
func (*TxSelect) MethodID() uint16        { return 10 }
func (*TxSelect) Synchronous() bool       { return true }
func (*TxSelect) Write(*wire.Writer) error { return nil }
func (*TxSelect) Read(*wire.Reader) error  { return nil }

type TxSelectOk struct{}

func (*TxSelectOk) ClassID() uint16         { return ClassTx }
func (*TxSelectOk) MethodID() uint16        { return 11 }
func (*TxSelectOk) Write(*wire.Writer) error { return nil }
func (*TxSelectOk) Read(*wire.Reader) error  { return nil }

type TxCommit struct{}

func (*TxCommit) ClassID() uint16         { return ClassTx }
func (*TxCommit) MethodID() uint16        { return 20 }
func (*TxCommit) Synchronous() bool       { return true }
func (*TxCommit) Write(*wire.Writer) error { return nil }
func (*TxCommit) Read(*wire.Reader) error  { return nil }

type TxCommitOk struct{}

func (*TxCommitOk) ClassID() uint16         { return ClassTx }
func (*TxCommitOk) MethodID() uint16        { return 21 }
func (*TxCommitOk) Write(*wire.Writer) error { return nil }
func (*TxCommitOk) Read(*wire.Reader) error  { return nil }

type TxRollback struct{}

func (*TxRollback) ClassID() uint16         { return ClassTx }
func (*TxRollback) MethodID() uint16        { return 30 }
func (*TxRollback) Synchronous() bool       { return true }
func (*TxRollback) Write(*wire.Writer) error { return nil }
func (*TxRollback) Read(*wire.Reader) error  { return nil }

type TxRollbackOk struct{}

func (*TxRollbackOk) ClassID() uint16         { return ClassTx }
func (*TxRollbackOk) MethodID() uint16        { return 31 }
func (*TxRollbackOk) Write(*wire.Writer) error { return nil }
func (*TxRollbackOk) Read(*wire.Reader) error  { return nil }
