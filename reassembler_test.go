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
)

func TestWholeMessageReassembly(t *testing.T) {
	var rs reassembler
	var got Message
	env := Envelope{Kind: deliveryDeliver, ConsumerTag: "ctag-1", DeliveryTag: 1}

	require.NoError(t, rs.beginWhole(env, func(m Message) { got = m }))
	require.NoError(t, rs.header(11, Properties{}))
	require.NoError(t, rs.body([]byte("hello ")))
	require.NoError(t, rs.body([]byte("world")))

	assert.Equal(t, "hello world", string(got.Body))
	assert.Equal(t, env, got.Envelope)
	assert.False(t, rs.active())
}

func TestStreamingReassemblyTruncatesOversizeTail(t *testing.T) {
	var rs reassembler
	var begins int
	var headers int
	var chunks [][]byte
	var completed bool

	h := StreamingHandler{
		Begin:    func(Envelope, uint64) { begins++ },
		Headers:  func(Properties) { headers++ },
		Data:     func(c []byte) { chunks = append(chunks, append([]byte(nil), c...)) },
		Complete: func() { completed = true },
	}

	env := Envelope{Kind: deliveryDeliver}
	require.NoError(t, rs.beginStreaming(env, h))
	require.NoError(t, rs.header(9, Properties{}))
	require.NoError(t, rs.body([]byte("hello "))) // 6 bytes, cumulative 6
	require.NoError(t, rs.body([]byte("world"))) // 5 bytes, but only 3 remain

	require.Equal(t, 1, begins)
	require.Equal(t, 1, headers)
	require.Len(t, chunks, 2)
	assert.Equal(t, "hello ", string(chunks[0]))
	assert.Equal(t, "wor", string(chunks[1]))
	assert.True(t, completed)
	assert.False(t, rs.active())
}

func TestReassemblerRejectsFrameOutOfSequence(t *testing.T) {
	var rs reassembler
	err := rs.body([]byte("x"))
	assert.True(t, IsKind(err, ErrProtocolError))

	require.NoError(t, rs.beginWhole(Envelope{}, func(Message) {}))
	err = rs.body([]byte("x")) // header hasn't arrived yet
	assert.True(t, IsKind(err, ErrProtocolError))
}

func TestZeroLengthBodyCompletesImmediately(t *testing.T) {
	var rs reassembler
	var got Message
	require.NoError(t, rs.beginWhole(Envelope{}, func(m Message) { got = m }))
	require.NoError(t, rs.header(0, Properties{}))

	assert.Empty(t, got.Body)
	assert.False(t, rs.active())
}
