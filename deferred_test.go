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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetd/camqp/internal/method"
)

func TestDeferredResolvesOnceOnSuccess(t *testing.T) {
	var successes, finals int
	d := newDeferred("queue.declare", deferredSync).
		OnSuccess(func(method.Method) { successes++ }).
		OnFinalize(func() { finals++ })

	d.resolve(&method.QueueDeclareOk{Queue: "q"})
	d.resolve(&method.QueueDeclareOk{Queue: "q"}) // second call is a no-op
	d.fail(errors.New("too late"))                // also a no-op

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, finals)
}

func TestDeferredResolvesOnceOnError(t *testing.T) {
	var errs, finals int
	d := newDeferred("channel.open", deferredSync).
		OnError(func(error) { errs++ }).
		OnFinalize(func() { finals++ })

	d.fail(errors.New("boom"))
	d.resolve(&method.ChannelOpenOk{})

	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, finals)
}
