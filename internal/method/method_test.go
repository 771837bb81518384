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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/camqp/internal/wire"
)

var args = func() wire.Table {
	var t wire.Table
	t.Set("x-max-length", int64(10))
	return t
}()

// roundTrip encodes m, decodes it back through the registry, and returns the
// decoded Method for further field assertions.
func roundTrip(t *testing.T, m Method) Method {
	t.Helper()
	w := wire.AcquireWriter()
	defer w.Release()

	require.NoError(t, Encode(w, m))

	r := wire.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, m.ClassID(), got.ClassID())
	assert.Equal(t, m.MethodID(), got.MethodID())
	return got
}

func TestMethodRoundTrips(t *testing.T) {
	cases := []Method{
		&ConnectionStart{VersionMajor: 0, VersionMinor: 9, ServerProperties: args, Mechanisms: "PLAIN", Locales: "en_US"},
		&ConnectionStartOk{ClientProperties: args, Mechanism: "PLAIN", Response: []byte{0, 'g', 0, 'p'}, Locale: "en_US"},
		&ConnectionSecure{Challenge: []byte("nonce")},
		&ConnectionSecureOk{Response: []byte("answer")},
		&ConnectionTune{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60},
		&ConnectionTuneOk{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60},
		&ConnectionOpen{VirtualHost: "/"},
		&ConnectionOpenOk{},
		&ConnectionClose{ReplyCode: 200, ReplyText: "bye", ClassId: 0, MethodId: 0},
		&ConnectionCloseOk{},
		&ConnectionBlocked{Reason: "low on memory"},
		&ConnectionUnblocked{},

		&ChannelOpen{},
		&ChannelOpenOk{},
		&ChannelFlow{Active: true},
		&ChannelFlowOk{Active: false},
		&ChannelClose{ReplyCode: 404, ReplyText: "not found", ClassId: 60, MethodId: 40},
		&ChannelCloseOk{},

		&ExchangeDeclare{Exchange: "logs", Type: "topic", Durable: true, Arguments: args},
		&ExchangeDeclareOk{},
		&ExchangeDelete{Exchange: "logs", IfUnused: true},
		&ExchangeDeleteOk{},
		&ExchangeBind{Destination: "a", Source: "b", RoutingKey: "rk", Arguments: args},
		&ExchangeBindOk{},
		&ExchangeUnbind{Destination: "a", Source: "b", RoutingKey: "rk", Arguments: args},
		&ExchangeUnbindOk{},

		&QueueDeclare{Queue: "q1", Durable: true, Arguments: args},
		&QueueDeclareOk{Queue: "q1", MessageCount: 3, ConsumerCount: 1},
		&QueueBind{Queue: "q1", Exchange: "logs", RoutingKey: "rk", Arguments: args},
		&QueueBindOk{},
		&QueueUnbind{Queue: "q1", Exchange: "logs", RoutingKey: "rk", Arguments: args},
		&QueueUnbindOk{},
		&QueuePurge{Queue: "q1"},
		&QueuePurgeOk{MessageCount: 42},
		&QueueDelete{Queue: "q1", IfEmpty: true},
		&QueueDeleteOk{MessageCount: 0},

		&BasicQos{PrefetchSize: 0, PrefetchCount: 10, Global: false},
		&BasicQosOk{},
		&BasicConsume{Queue: "q1", ConsumerTag: "ctag-1", Arguments: args},
		&BasicConsumeOk{ConsumerTag: "ctag-1"},
		&BasicCancel{ConsumerTag: "ctag-1"},
		&BasicCancelOk{ConsumerTag: "ctag-1"},
		&BasicPublish{Exchange: "logs", RoutingKey: "rk", Mandatory: true},
		&BasicReturn{ReplyCode: 312, ReplyText: "no route", Exchange: "logs", RoutingKey: "rk"},
		&BasicDeliver{ConsumerTag: "ctag-1", DeliveryTag: 7, Exchange: "logs", RoutingKey: "rk"},
		&BasicGet{Queue: "q1"},
		&BasicGetOk{DeliveryTag: 7, Exchange: "logs", RoutingKey: "rk", MessageCount: 1},
		&BasicGetEmpty{},
		&BasicAck{DeliveryTag: 5, Multiple: true},
		&BasicReject{DeliveryTag: 5, Requeue: true},
		&BasicRecoverAsync{Requeue: true},
		&BasicRecover{Requeue: false},
		&BasicRecoverOk{},
		&BasicNack{DeliveryTag: 5, Multiple: true, Requeue: false},

		&TxSelect{}, &TxSelectOk{},
		&TxCommit{}, &TxCommitOk{},
		&TxRollback{}, &TxRollbackOk{},

		&ConfirmSelect{NoWait: false},
		&ConfirmSelectOk{},
	}

	seen := map[key]bool{}
	for _, m := range cases {
		k := key{m.ClassID(), m.MethodID()}
		require.False(t, seen[k], "duplicate test case for class=%d method=%d", k.class, k.method)
		seen[k] = true

		got := roundTrip(t, m)
		assert.Equal(t, m, got, "class=%d method=%d", m.ClassID(), m.MethodID())
	}

	// Every registered factory should have been exercised above.
	for k := range factories {
		assert.True(t, seen[k], "no round-trip test case for class=%d method=%d", k.class, k.method)
	}
}

func TestSynchronousNoWaitSuppressesWait(t *testing.T) {
	wait := &QueueDeclare{Queue: "q1"}
	assert.True(t, wait.Synchronous())

	nowait := &QueueDeclare{Queue: "q1", NoWait: true}
	assert.False(t, nowait.Synchronous())

	assert.True(t, (&ConnectionOpen{}).Synchronous())
	assert.True(t, (&ChannelClose{}).Synchronous())
}

func TestReplyPairsCoverSynchronousMethods(t *testing.T) {
	names := map[string]bool{}
	for req, ok := range ReplyPairs {
		names[req] = true
		assert.NotEmpty(t, ok)
	}
	for _, want := range []string{
		"connection.open", "channel.open", "exchange.declare",
		"queue.declare", "basic.qos", "basic.consume", "tx.select",
	} {
		assert.True(t, names[want], "missing ReplyPairs entry for %s", want)
	}
}

func TestUnknownMethodDecode(t *testing.T) {
	w := wire.AcquireWriter()
	defer w.Release()
	w.WriteUint16(999)
	w.WriteUint16(999)

	r := wire.NewReader(w.Bytes())
	_, err := Decode(r)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
