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

package camqp

import "time"

// Transport is the collaborator the kernel depends on for everything
// outside the protocol itself (spec.md §4.8): byte delivery, heartbeat
// timers, and upstream lifecycle notification. The kernel never opens
// sockets, resolves names, or manages TLS — that is entirely this
// interface's job, supplied by the caller.
type Transport interface {
	// SendBytes writes buf synchronously and in full; the transport is
	// responsible for buffering a partial OS write, not the kernel.
	SendBytes(buf []byte) error

	// ScheduleTimer arranges for fn to be invoked after d elapses and
	// returns a cancellation function. Used for the client-side heartbeat
	// deadline; the kernel calls the returned canceler whenever it
	// reschedules or tears down.
	ScheduleTimer(d time.Duration, fn func()) (cancel func())

	// ReportError notifies the caller of a kernel-detected failure. The
	// kernel has already transitioned to Closed by the time this is called.
	ReportError(err error)

	// ReportConnected notifies the caller that the handshake completed and
	// the connection is in the Connected state.
	ReportConnected()

	// ReportClosed notifies the caller that the connection reached Closed,
	// whether by local request, peer close, or error.
	ReportClosed()
}
