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

import "github.com/packetd/camqp/internal/method"

// deferredKind distinguishes the plain one-shot request/reply deferred from
// the two kinds that keep firing callbacks after their head resolution
// (spec.md §4.5): a consumer keeps delivering messages after consume-ok, a
// get keeps nothing further but shares the "data-bearing Ok" shape.
type deferredKind int

const (
	deferredSync deferredKind = iota
	deferredConsume
	deferredGet
)

// deferred is a one-shot continuation: it resolves exactly once with either
// a decoded reply method or an error, then runs its finalize hook regardless
// of which (spec.md §9 "Deferred continuations"). Handlers are installed by
// the call site before the request frame is sent, so a synchronous
// resolution (e.g. nowait) can never race the handler registration.
type deferred struct {
	// request is the lower-cased "class.method" name of the request this
	// deferred is waiting on a reply for, e.g. "queue.declare". The channel
	// kernel uses method.ReplyPairs[request] to recognise the matching
	// "-ok" reply at the head of its FIFO.
	request string
	kind     deferredKind
	resolved bool

	onSuccess  func(method.Method)
	onError    func(error)
	onFinalize func()
}

func newDeferred(request string, kind deferredKind) *deferred {
	return &deferred{request: request, kind: kind}
}

// OnSuccess installs the reply handler. Returns d for chaining.
func (d *deferred) OnSuccess(fn func(method.Method)) *deferred {
	d.onSuccess = fn
	return d
}

// OnError installs the failure handler. Returns d for chaining.
func (d *deferred) OnError(fn func(error)) *deferred {
	d.onError = fn
	return d
}

// OnFinalize installs a hook that runs after either outcome. Returns d for
// chaining.
func (d *deferred) OnFinalize(fn func()) *deferred {
	d.onFinalize = fn
	return d
}

// resolve completes d successfully with m. A second call is a no-op: a
// deferred resolves once (spec.md §9).
func (d *deferred) resolve(m method.Method) {
	if d.resolved {
		return
	}
	d.resolved = true
	if d.onSuccess != nil {
		d.onSuccess(m)
	}
	if d.onFinalize != nil {
		d.onFinalize()
	}
}

// fail completes d with err. A second call is a no-op.
func (d *deferred) fail(err error) {
	if d.resolved {
		return
	}
	d.resolved = true
	if d.onError != nil {
		d.onError(err)
	}
	if d.onFinalize != nil {
		d.onFinalize()
	}
}
