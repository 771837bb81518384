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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/camqp/internal/frame"
	"github.com/packetd/camqp/internal/method"
	"github.com/packetd/camqp/internal/wire"
)

// fakeTransport records every outbound write and lets a test hand back
// broker bytes via a Connection directly (no real socket).
type fakeTransport struct {
	sent      [][]byte
	connected int
	closed    int
	errs      []error
}

func (f *fakeTransport) SendBytes(buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.sent = append(f.sent, cp)
	return nil
}
func (f *fakeTransport) ScheduleTimer(time.Duration, func()) (cancel func()) { return func() {} }
func (f *fakeTransport) ReportError(err error)                              { f.errs = append(f.errs, err) }
func (f *fakeTransport) ReportConnected()                                   { f.connected++ }
func (f *fakeTransport) ReportClosed()                                      { f.closed++ }

func encodeMethodFrame(t *testing.T, channel uint16, m method.Method) []byte {
	t.Helper()
	w := wire.AcquireWriter()
	defer w.Release()
	require.NoError(t, method.Encode(w, m))
	buf, err := frame.Encode(nil, frame.Frame{Type: frame.TypeMethod, Channel: channel, Payload: w.Bytes()}, 0)
	require.NoError(t, err)
	return buf
}

func encodeHeaderFrame(t *testing.T, channel uint16, bodySize uint64, props Properties) []byte {
	t.Helper()
	w := wire.AcquireWriter()
	defer w.Release()
	w.WriteUint16(classBasic)
	w.WriteUint16(0)
	w.WriteUint64(bodySize)
	require.NoError(t, WriteProperties(w, props))
	buf, err := frame.Encode(nil, frame.Frame{Type: frame.TypeHeader, Channel: channel, Payload: w.Bytes()}, 0)
	require.NoError(t, err)
	return buf
}

func encodeBodyFrame(t *testing.T, channel uint16, chunk []byte) []byte {
	t.Helper()
	buf, err := frame.Encode(nil, frame.Frame{Type: frame.TypeBody, Channel: channel, Payload: chunk}, 0)
	require.NoError(t, err)
	return buf
}

// decodeMethodFrame parses one outbound buffer assumed to be a single
// method frame (as every sendMethod/sendFrameDirect call produces here).
func decodeMethodFrame(t *testing.T, buf []byte) (uint16, method.Method) {
	t.Helper()
	var d frame.Decoder
	n, fr, err := d.Step(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, frame.TypeMethod, fr.Type)
	m, err := method.Decode(wire.NewReader(fr.Payload))
	require.NoError(t, err)
	return fr.Channel, m
}

// TestHandshakeSequence reproduces scenario 1: protocol header, start/
// start-ok, tune/tune-ok, open/open-ok, Connected.
func TestHandshakeSequence(t *testing.T) {
	tr := &fakeTransport{}
	cfg := DefaultConfig()
	conn := NewConnection(tr, cfg)

	var openErr error
	require.NoError(t, conn.Start(func(err error) { openErr = err }))
	require.Len(t, tr.sent, 1)
	assert.Equal(t, []byte(protocolHeader), tr.sent[0])

	start := &method.ConnectionStart{
		VersionMajor: 0, VersionMinor: 9,
		ServerProperties: wire.NewTable(),
		Mechanisms:       "PLAIN EXTERNAL",
		Locales:          "en_US",
	}
	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, start)))
	require.Len(t, tr.sent, 2)
	ch, sent := decodeMethodFrame(t, tr.sent[1])
	assert.Equal(t, uint16(0), ch)
	startOk, ok := sent.(*method.ConnectionStartOk)
	require.True(t, ok)
	assert.Equal(t, "PLAIN", startOk.Mechanism)
	assert.Equal(t, []byte("\x00guest\x00guest"), startOk.Response)

	tune := &method.ConnectionTune{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60}
	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, tune)))
	require.Len(t, tr.sent, 4) // tune-ok, then open

	_, tuneOkSent := decodeMethodFrame(t, tr.sent[2])
	tuneOk, ok := tuneOkSent.(*method.ConnectionTuneOk)
	require.True(t, ok)
	assert.Equal(t, uint16(2047), tuneOk.ChannelMax)
	assert.Equal(t, uint32(131072), tuneOk.FrameMax)
	assert.Equal(t, uint16(60), tuneOk.Heartbeat)

	_, openSent := decodeMethodFrame(t, tr.sent[3])
	open, ok := openSent.(*method.ConnectionOpen)
	require.True(t, ok)
	assert.Equal(t, "/", open.VirtualHost)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, &method.ConnectionOpenOk{})))
	assert.Equal(t, connConnected, conn.state)
	assert.NoError(t, openErr)
	assert.Equal(t, 1, tr.connected)
}

func handshakeConnection(t *testing.T) (*Connection, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	conn := NewConnection(tr, DefaultConfig())
	require.NoError(t, conn.Start(nil))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, &method.ConnectionStart{
		ServerProperties: wire.NewTable(), Mechanisms: "PLAIN", Locales: "en_US",
	})))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, &method.ConnectionTune{
		ChannelMax: 2047, FrameMax: 4096, Heartbeat: 0,
	})))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, 0, &method.ConnectionOpenOk{})))
	require.Equal(t, connConnected, conn.state)
	tr.sent = nil
	return conn, tr
}

// TestDeclareAndPublish reproduces scenario 2.
func TestDeclareAndPublish(t *testing.T) {
	conn, tr := handshakeConnection(t)

	var opened *Channel
	_, err := conn.OpenChannel(func(ch *Channel, err error) {
		require.NoError(t, err)
		opened = ch
	})
	require.NoError(t, err)
	require.Len(t, tr.sent, 1)
	chanID, m := decodeMethodFrame(t, tr.sent[0])
	_, ok := m.(*method.ChannelOpen)
	require.True(t, ok)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, chanID, &method.ChannelOpenOk{})))
	require.NotNil(t, opened)
	tr.sent = nil

	var result QueueDeclareResult
	var declareErr error
	require.NoError(t, opened.QueueDeclare("q", true, false, false, false, wire.Table{}, func(r QueueDeclareResult, err error) {
		result, declareErr = r, err
	}))
	require.Len(t, tr.sent, 1)
	_, sent := decodeMethodFrame(t, tr.sent[0])
	qd, ok := sent.(*method.QueueDeclare)
	require.True(t, ok)
	assert.Equal(t, method.ClassQueue, qd.ClassID())
	assert.Equal(t, uint16(10), qd.MethodID())
	assert.True(t, qd.Durable)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.QueueDeclareOk{
		Queue: "q", MessageCount: 0, ConsumerCount: 0,
	})))
	require.NoError(t, declareErr)
	assert.Equal(t, QueueDeclareResult{Queue: "q"}, result)
}

// TestLargePublishFragmentation reproduces scenario 3: maxFrame=4096
// produces body chunks of 4088, 4088, 1824 bytes for a 10000-byte body.
func TestLargePublishFragmentation(t *testing.T) {
	conn, tr := handshakeConnection(t) // maxFrame negotiated to 4096

	var opened *Channel
	_, err := conn.OpenChannel(func(ch *Channel, err error) { opened = ch })
	require.NoError(t, err)
	_, m := decodeMethodFrame(t, tr.sent[0])
	_ = m
	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.ChannelOpenOk{})))
	tr.sent = nil

	body := make([]byte, 10000)
	for i := range body {
		body[i] = byte(i)
	}
	require.NoError(t, opened.Publish("ex", "rk", false, false, Properties{}, body))

	require.Len(t, tr.sent, 5) // publish + header + 3 body frames
	_, publishSent := decodeMethodFrame(t, tr.sent[0])
	_, ok := publishSent.(*method.BasicPublish)
	require.True(t, ok)

	var d frame.Decoder
	_, headerFr, err := d.Step(tr.sent[1])
	require.NoError(t, err)
	assert.Equal(t, frame.TypeHeader, headerFr.Type)

	var bodyLens []int
	var total int
	for _, buf := range tr.sent[2:] {
		_, fr, err := d.Step(buf)
		require.NoError(t, err)
		assert.Equal(t, frame.TypeBody, fr.Type)
		bodyLens = append(bodyLens, len(fr.Payload))
		total += len(fr.Payload)
	}
	assert.Equal(t, []int{4088, 4088, 1824}, bodyLens)
	assert.Equal(t, 10000, total)
}

// TestStreamingDeliveryThroughConnection reproduces scenario 6 end to end:
// basic.deliver, header(bodySize=9), then two body frames totalling 11
// bytes, truncated to the declared 9.
func TestStreamingDeliveryThroughConnection(t *testing.T) {
	conn, tr := handshakeConnection(t)

	var opened *Channel
	_, err := conn.OpenChannel(func(ch *Channel, err error) { opened = ch })
	require.NoError(t, err)
	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.ChannelOpenOk{})))
	tr.sent = nil

	var gotConsumeOk bool
	var chunks [][]byte
	var began, headered, completed int
	h := StreamingHandler{
		Begin:    func(Envelope, uint64) { began++ },
		Headers:  func(Properties) { headered++ },
		Data:     func(chunk []byte) { cp := append([]byte(nil), chunk...); chunks = append(chunks, cp) },
		Complete: func() { completed++ },
	}
	require.NoError(t, opened.BasicConsumeStreaming("q", "ctag-1", false, false, false, false, wire.Table{},
		h, func(tag string, err error) {
			require.NoError(t, err)
			gotConsumeOk = true
		}))
	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.BasicConsumeOk{ConsumerTag: "ctag-1"})))
	require.True(t, gotConsumeOk)

	require.NoError(t, conn.Feed(encodeMethodFrame(t, opened.ID(), &method.BasicDeliver{ConsumerTag: "ctag-1"})))
	require.NoError(t, conn.Feed(encodeHeaderFrame(t, opened.ID(), 9, Properties{})))
	require.NoError(t, conn.Feed(encodeBodyFrame(t, opened.ID(), []byte("hello "))))
	require.NoError(t, conn.Feed(encodeBodyFrame(t, opened.ID(), []byte("world"))))

	assert.Equal(t, 1, began)
	assert.Equal(t, 1, headered)
	assert.Equal(t, 1, completed)
	require.Len(t, chunks, 2)
	assert.Equal(t, []byte("hello "), chunks[0])
	assert.Equal(t, []byte("wor"), chunks[1])
}
