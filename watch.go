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

// Watchable is embedded by any object that fans out to user callbacks and
// must tolerate being destroyed from inside one of them (spec.md §4.9).
// The kernel is single-threaded (§5), so no locking is required — a single
// dead flag is enough to invalidate every outstanding Monitor.
type Watchable struct {
	dead bool
}

// Watch returns a Monitor witnessing w's liveness. Call sites construct one
// immediately before invoking a user callback that might destroy w.
func (w *Watchable) Watch() *Monitor {
	return &Monitor{target: w}
}

// destroy marks w and all of its outstanding monitors dead. Idempotent.
func (w *Watchable) destroy() {
	w.dead = true
}

// Monitor is a single-use destruction witness for one Watchable.
type Monitor struct {
	target *Watchable
}

// Dead reports whether the watched object was destroyed since Watch was
// called. Call sites poll this immediately after a user callback returns
// and abort the remaining fan-out if it reports true.
func (m *Monitor) Dead() bool {
	return m.target == nil || m.target.dead
}
