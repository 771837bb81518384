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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/camqp/internal/method"
	"github.com/packetd/camqp/internal/wire"
)

func openedChannel(t *testing.T) (*Connection, *Channel, *fakeTransport) {
	t.Helper()
	conn, tr := handshakeConnection(t)
	var opened *Channel
	_, err := conn.OpenChannel(func(ch *Channel, err error) { opened = ch })
	require.NoError(t, err)
	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.ChannelOpenOk{})))
	tr.sent = nil
	return conn, opened, tr
}

// TestCumulativeConfirmThroughChannel reproduces scenario 4 end to end,
// through Channel.EnableConfirms + Confirmer rather than the Confirmer unit
// alone.
func TestCumulativeConfirmThroughChannel(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	var confirmer *Confirmer
	require.NoError(t, ch.EnableConfirms(false, func(c *Confirmer, err error) {
		require.NoError(t, err)
		confirmer = c
	}))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ConfirmSelectOk{})))
	require.NotNil(t, confirmer)
	tr.sent = nil

	var order []int
	for i := 1; i <= 4; i++ {
		i := i
		confirmer.Publish("ex", "rk", false, false, Properties{}, []byte("m"),
			func() { order = append(order, i) }, func() {}, func(error) {})
	}
	require.Len(t, tr.sent, 12) // 4 * (publish+header+body)

	ch.confirm.OnAck(3, true)
	ch.confirm.OnAck(4, false)
	assert.Equal(t, []int{1, 2, 3, 4}, order)
}

// TestNackWithChannelDestructionThroughChannel reproduces scenario 5.
func TestNackWithChannelDestructionThroughChannel(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	var confirmer *Confirmer
	require.NoError(t, ch.EnableConfirms(false, func(c *Confirmer, err error) { confirmer = c }))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ConfirmSelectOk{})))
	tr.sent = nil

	var nacked []int
	confirmer.Publish("ex", "rk", false, false, Properties{}, []byte("m"),
		func() {}, func() { nacked = append(nacked, 1); ch.destroy() }, func(error) {})
	confirmer.Publish("ex", "rk", false, false, Properties{}, []byte("m"),
		func() {}, func() { nacked = append(nacked, 2) }, func(error) {})

	confirmer.OnNack(2, true)
	assert.Equal(t, []int{1}, nacked)
}

// TestBasicGetEmptyResolvesWithoutMessage exercises the basic.get-ok/
// basic.get-empty special-cased FIFO head.
func TestBasicGetEmptyResolvesWithoutMessage(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	var ok bool
	var called bool
	require.NoError(t, ch.BasicGet("q", false, func(msg Message, got bool, err error) {
		called = true
		ok = got
		require.NoError(t, err)
	}))
	require.Len(t, tr.sent, 1)
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.BasicGetEmpty{})))
	assert.True(t, called)
	assert.False(t, ok)
}

// TestBasicGetOkDeliversReassembledMessage exercises the data-bearing path.
func TestBasicGetOkDeliversReassembledMessage(t *testing.T) {
	conn, ch, _ := openedChannel(t)

	var got Message
	var ok bool
	require.NoError(t, ch.BasicGet("q", false, func(msg Message, found bool, err error) {
		require.NoError(t, err)
		got, ok = msg, found
	}))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.BasicGetOk{
		DeliveryTag: 1, Exchange: "ex", RoutingKey: "rk", MessageCount: 0,
	})))
	var props Properties
	props.SetContentType("text/plain")
	require.NoError(t, conn.Feed(encodeHeaderFrame(t, ch.ID(), 5, props)))
	require.NoError(t, conn.Feed(encodeBodyFrame(t, ch.ID(), []byte("hello"))))

	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got.Body)
	assert.Equal(t, "text/plain", got.Properties.ContentType)
	assert.Equal(t, uint64(1), got.Envelope.DeliveryTag)
}

// TestReplyOrderingAcrossPipelinedRequests reproduces the "Reply ordering"
// property: R1, R2, R3 sent in order resolve in that order regardless of
// interleaving.
func TestReplyOrderingAcrossPipelinedRequests(t *testing.T) {
	conn, ch, _ := openedChannel(t)

	var order []string
	require.NoError(t, ch.QueueDeclare("a", false, false, false, false, wire.Table{}, func(QueueDeclareResult, error) {
		order = append(order, "a")
	}))
	require.NoError(t, ch.QueueDeclare("b", false, false, false, false, wire.Table{}, func(QueueDeclareResult, error) {
		order = append(order, "b")
	}))
	require.NoError(t, ch.QueueDeclare("c", false, false, false, false, wire.Table{}, func(QueueDeclareResult, error) {
		order = append(order, "c")
	}))

	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.QueueDeclareOk{Queue: "a"})))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.QueueDeclareOk{Queue: "b"})))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.QueueDeclareOk{Queue: "c"})))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// TestNoWaitResolvesImmediately checks that a nowait request converts to
// asynchronous at the call site instead of pushing a FIFO entry.
func TestNoWaitResolvesImmediately(t *testing.T) {
	_, ch, _ := openedChannel(t)

	var resolved bool
	require.NoError(t, ch.ExchangeDelete("ex", false, true, func(err error) {
		resolved = true
		require.NoError(t, err)
	}))
	assert.True(t, resolved)
	assert.Empty(t, ch.fifo)
}

// TestExchangeBindAndUnbind exercises both exchange-to-exchange methods
// end to end through the FIFO.
func TestExchangeBindAndUnbind(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	var bound bool
	require.NoError(t, ch.ExchangeBind("dst", "src", "rk", false, wire.Table{}, func(err error) {
		bound = true
		require.NoError(t, err)
	}))
	require.Len(t, tr.sent, 1)
	_, sent := decodeMethodFrame(t, tr.sent[0])
	bind, ok := sent.(*method.ExchangeBind)
	require.True(t, ok)
	assert.Equal(t, "dst", bind.Destination)
	assert.Equal(t, "src", bind.Source)
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ExchangeBindOk{})))
	assert.True(t, bound)
	tr.sent = nil

	var unbound bool
	require.NoError(t, ch.ExchangeUnbind("dst", "src", "rk", false, wire.Table{}, func(err error) {
		unbound = true
		require.NoError(t, err)
	}))
	require.Len(t, tr.sent, 1)
	_, sent = decodeMethodFrame(t, tr.sent[0])
	_, ok = sent.(*method.ExchangeUnbind)
	require.True(t, ok)
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ExchangeUnbindOk{})))
	assert.True(t, unbound)
}

// TestBasicRecoverWaitsForOk exercises the synchronous basic.recover path.
func TestBasicRecoverWaitsForOk(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	var recovered bool
	require.NoError(t, ch.BasicRecover(true, func(err error) {
		recovered = true
		require.NoError(t, err)
	}))
	require.Len(t, tr.sent, 1)
	_, sent := decodeMethodFrame(t, tr.sent[0])
	rec, ok := sent.(*method.BasicRecover)
	require.True(t, ok)
	assert.True(t, rec.Requeue)
	assert.False(t, recovered)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.BasicRecoverOk{})))
	assert.True(t, recovered)
}

// TestBasicRecoverAsyncNeverWaits exercises the fire-and-forget variant: no
// FIFO entry is pushed since the broker never replies.
func TestBasicRecoverAsyncNeverWaits(t *testing.T) {
	_, ch, tr := openedChannel(t)

	require.NoError(t, ch.BasicRecoverAsync(false))
	require.Len(t, tr.sent, 1)
	_, sent := decodeMethodFrame(t, tr.sent[0])
	_, ok := sent.(*method.BasicRecoverAsync)
	require.True(t, ok)
	assert.Empty(t, ch.fifo)
}

// TestChannelFlowRepliesAndGatesPublish reproduces a broker-initiated
// channel.flow: the channel must reply with channel.flow-ok immediately
// (not through the FIFO) and refuse further publishes until flow resumes.
func TestChannelFlowRepliesAndGatesPublish(t *testing.T) {
	conn, ch, tr := openedChannel(t)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ChannelFlow{Active: false})))
	require.Len(t, tr.sent, 1)
	_, sent := decodeMethodFrame(t, tr.sent[0])
	flowOk, ok := sent.(*method.ChannelFlowOk)
	require.True(t, ok)
	assert.False(t, flowOk.Active)
	assert.Empty(t, ch.fifo, "channel.flow must not be matched through the FIFO")

	err := ch.Publish("ex", "rk", false, false, Properties{}, []byte("m"))
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrChannelFlowStopped))

	tr.sent = nil
	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ChannelFlow{Active: true})))
	require.NoError(t, ch.Publish("ex", "rk", false, false, Properties{}, []byte("m")))
}

// TestUnmatchedReplyWithEmptyFIFOIsRecoverable reproduces a reply arriving
// for a request that already resolved locally via nowait: it must not tear
// the channel down.
func TestUnmatchedReplyWithEmptyFIFOIsRecoverable(t *testing.T) {
	conn, ch, _ := openedChannel(t)

	require.NoError(t, ch.ExchangeDeclare("ex", "direct", false, false, false, true, wire.Table{}, nil))
	assert.Empty(t, ch.fifo)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, ch.ID(), &method.ExchangeDeclareOk{})))
	assert.Equal(t, channelConnected, ch.state)
}
