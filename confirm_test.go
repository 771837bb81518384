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
	"github.com/stretchr/testify/require"
)

func noopSend(string, string, bool, bool, Properties, []byte) error { return nil }

func TestCumulativeAckResolvesInAscendingOrder(t *testing.T) {
	c := newConfirmer(noopSend)
	var resolved []uint64
	for i := uint64(1); i <= 4; i++ {
		id := i
		c.Publish("logs", "rk", false, false, Properties{}, nil,
			func() { resolved = append(resolved, id) }, nil, nil)
	}

	c.OnAck(3, true)
	c.OnAck(4, false)

	assert.Equal(t, []uint64{1, 2, 3, 4}, resolved)
	assert.Empty(t, c.handlers)
}

func TestNackSingleDoesNotResolveOthers(t *testing.T) {
	c := newConfirmer(noopSend)
	var acked, nacked int
	c.Publish("logs", "rk", false, false, Properties{}, nil, func() { acked++ }, nil, nil)
	c.Publish("logs", "rk", false, false, Properties{}, nil, func() { acked++ }, func() { nacked++ }, nil)

	c.OnNack(2, false)

	assert.Equal(t, 0, acked)
	assert.Equal(t, 1, nacked)
	assert.Len(t, c.handlers, 1) // id 1 still outstanding
}

func TestNackWithSelfDestructionStopsFanOut(t *testing.T) {
	c := newConfirmer(noopSend)
	var ran []int
	c.Publish("logs", "rk", false, false, Properties{}, nil, nil, func() { ran = append(ran, 1); c.destroy() }, nil)
	c.Publish("logs", "rk", false, false, Properties{}, nil, nil, func() { ran = append(ran, 2) }, nil)

	c.OnNack(2, true)

	assert.Equal(t, []int{1}, ran)
}

func TestThrottleWindowBoundsOutstandingAndDrainsInOrder(t *testing.T) {
	var sent []string
	send := func(_, routingKey string, _, _ bool, _ Properties, _ []byte) error {
		sent = append(sent, routingKey)
		return nil
	}

	c := newConfirmer(send)
	c.SetThrottle(2)

	c.Publish("logs", "a", false, false, Properties{}, nil, nil, nil, nil)
	c.Publish("logs", "b", false, false, Properties{}, nil, nil, nil, nil)
	c.Publish("logs", "c", false, false, Properties{}, nil, nil, nil, nil) // queued, window full

	assert.Equal(t, []string{"a", "b"}, sent)
	assert.Equal(t, 2, c.outstanding)
	require.Len(t, c.queue, 1)

	c.OnAck(1, false) // frees a slot, "c" should drain
	assert.Equal(t, []string{"a", "b", "c"}, sent)
	assert.Empty(t, c.queue)
}

func TestFailNotifiesAllOutstandingAsLost(t *testing.T) {
	c := newConfirmer(noopSend)
	var lost int
	c.Publish("logs", "a", false, false, Properties{}, nil, nil, nil, func(error) { lost++ })
	c.Publish("logs", "b", false, false, Properties{}, nil, nil, nil, func(error) { lost++ })

	c.Fail(errors.New("channel closed"))

	assert.Equal(t, 2, lost)
	assert.Empty(t, c.handlers)
}
