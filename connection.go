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
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/packetd/camqp/internal/frame"
	"github.com/packetd/camqp/internal/method"
	"github.com/packetd/camqp/internal/wire"
	"github.com/packetd/camqp/logger"
)

// heartbeatInterval is how often this side emits a heartbeat: the
// negotiated interval (spec.md §4.4 ties it to broker policy of sending at
// least one heartbeat per negotiated period).
func heartbeatInterval(negotiated uint16) time.Duration {
	return time.Duration(negotiated) * time.Second
}

// heartbeatTimeout is how long this side waits for a heartbeat (or any
// other frame) from the peer before declaring the connection dead, per the
// AMQP recommendation of allowing up to twice the negotiated interval
// before giving up.
func heartbeatTimeout(negotiated uint16) time.Duration {
	return 2 * time.Duration(negotiated) * time.Second
}

type connState int

const (
	connProtocol connState = iota
	connHandshake
	connConnected
	connClosing
	connClosed
)

const (
	protocolHeader = "AMQP\x00\x00\x09\x01"

	classBasic = method.ClassBasic
)

// pendingSend is one user-initiated frame queued while the connection
// hasn't yet reached Connected (spec.md §4.4).
type pendingSend struct {
	payload []byte
}

// Connection is the top-level protocol kernel: one per TCP-equivalent
// transport. It owns the handshake FSM, channel multiplexing, and the
// outbound byte stream. It drives no I/O itself — Transport does that — and
// is not safe for concurrent use (spec.md §4.4, §5).
type Connection struct {
	Watchable

	cfg       Config
	transport Transport
	decoder   frame.Decoder
	recvBuf   []byte

	state connState

	channelMax uint16
	maxFrame   uint32
	heartbeat  uint16

	channels         map[uint16]*Channel
	nextFreeChannel  uint16
	maxChannels      uint16

	pending       []pendingSend
	pendingBytes  int

	cancelHeartbeatSend func()
	cancelHeartbeatRecv func()

	onOpen   func(error)
	onClosed func(error)
}

// NewConnection builds a Connection bound to transport with cfg. Call
// Start to begin the handshake.
func NewConnection(transport Transport, cfg Config) *Connection {
	return &Connection{
		cfg:         cfg,
		transport:   transport,
		channels:    make(map[uint16]*Channel),
		maxChannels: 0xFFFF,
	}
}

func (c *Connection) log() logger.Interface {
	return c.cfg.logger()
}

// Start sends the protocol header and begins the handshake. onOpen is
// called once (with nil on success, an *Error otherwise) when the
// connection reaches Connected or fails before doing so.
func (c *Connection) Start(onOpen func(error)) error {
	c.onOpen = onOpen
	c.state = connHandshake
	c.log().Infof("sending protocol header")
	return c.transport.SendBytes([]byte(protocolHeader))
}

// Feed presents newly received bytes to the connection. The transport
// collaborator calls this as data arrives; Feed never blocks and performs
// no I/O itself (spec.md §4.2/§4.8).
func (c *Connection) Feed(data []byte) error {
	c.recvBuf = append(c.recvBuf, data...)
	for {
		consumed, fr, err := c.decoder.Step(c.recvBuf)
		if err != nil {
			e := wrapError(ErrFrameFramingError, err, "decoding incoming frame")
			c.fail(e)
			return e
		}
		if consumed == 0 {
			break
		}
		tail := c.recvBuf[consumed:]
		c.recvBuf = append(c.recvBuf[:0], tail...)

		if err := c.handleFrame(fr); err != nil {
			c.fail(err)
			return err
		}
	}
	return nil
}

// handleFrame dispatches one decoded frame.
func (c *Connection) handleFrame(fr *frame.Frame) error {
	c.resetHeartbeatRecvTimer()

	if fr.Type == frame.TypeHeartbeat {
		return nil
	}

	if fr.Channel == 0 {
		return c.handleChannelZero(fr)
	}

	ch, ok := c.channels[fr.Channel]
	if !ok {
		return newError(ErrProtocolError, "frame for unknown channel %d", fr.Channel)
	}

	switch fr.Type {
	case frame.TypeMethod:
		m, err := method.Decode(wire.NewReader(fr.Payload))
		if err != nil {
			return wrapError(ErrMalformedFrame, err, "decoding method on channel %d", fr.Channel)
		}
		c.log().Debugf("channel %d: method frame dispatched: %s", fr.Channel, method.Name(m))
		return ch.handleMethod(m)
	case frame.TypeHeader:
		bodySize, props, err := decodeContentHeader(fr.Payload)
		if err != nil {
			return err
		}
		return ch.handleContentHeader(bodySize, props)
	case frame.TypeBody:
		return ch.handleContentBody(fr.Payload)
	default:
		return newError(ErrProtocolError, "unrecognised frame type %d", fr.Type)
	}
}

func (c *Connection) handleChannelZero(fr *frame.Frame) error {
	if fr.Type != frame.TypeMethod {
		return newError(ErrProtocolError, "non-method frame on channel 0")
	}
	m, err := method.Decode(wire.NewReader(fr.Payload))
	if err != nil {
		return wrapError(ErrMalformedFrame, err, "decoding channel-0 method")
	}
	c.log().Debugf("channel 0: method frame dispatched: %s", method.Name(m))

	switch mm := m.(type) {
	case *method.ConnectionStart:
		return c.handleStart(mm)
	case *method.ConnectionTune:
		return c.handleTune(mm)
	case *method.ConnectionOpenOk:
		return c.handleOpenOk()
	case *method.ConnectionClose:
		c.sendFrameDirect(0, &method.ConnectionCloseOk{})
		peerErr := PeerCloseError(int(mm.ReplyCode), mm.ReplyText)
		c.fail(peerErr)
		return nil
	case *method.ConnectionCloseOk:
		c.state = connClosed
		c.transport.ReportClosed()
		if c.onClosed != nil {
			cb := c.onClosed
			c.onClosed = nil
			cb(nil)
		}
		c.destroy()
		return nil
	case *method.ConnectionBlocked, *method.ConnectionUnblocked:
		return nil
	default:
		return newError(ErrProtocolError, "unexpected channel-0 method %s", method.Name(m))
	}
}

func (c *Connection) handleStart(m *method.ConnectionStart) error {
	auth := c.cfg.Auth
	resp := &method.ConnectionStartOk{
		ClientProperties: wire.NewTable(),
		Mechanism:        auth.Mechanism(),
		Response:         auth.Response(),
		Locale:           "en_US",
	}
	return c.sendFrameDirect(0, resp)
}

func (c *Connection) handleTune(m *method.ConnectionTune) error {
	c.channelMax = negotiateU16(m.ChannelMax, c.cfg.ChannelMax)
	c.maxFrame = negotiateU32(m.FrameMax, c.cfg.FrameMax)
	c.heartbeat = negotiateU16(m.Heartbeat, c.cfg.Heartbeat)
	if c.channelMax > 0 {
		c.maxChannels = c.channelMax
	}

	if err := c.sendFrameDirect(0, &method.ConnectionTuneOk{
		ChannelMax: c.channelMax, FrameMax: c.maxFrame, Heartbeat: c.heartbeat,
	}); err != nil {
		return err
	}
	c.armHeartbeat()
	return c.sendFrameDirect(0, &method.ConnectionOpen{VirtualHost: c.cfg.VirtualHost})
}

func (c *Connection) handleOpenOk() error {
	c.state = connConnected
	c.transport.ReportConnected()
	if c.onOpen != nil {
		cb := c.onOpen
		c.onOpen = nil
		cb(nil)
	}
	return c.flushPending()
}

// negotiateU16 treats 0 from either side as "no preference" and takes the
// other's value; if both propose nonzero values, the lower wins (spec.md
// §4.4 tuning negotiation).
func negotiateU16(broker, client uint16) uint16 {
	if broker == 0 {
		return client
	}
	if client == 0 {
		return broker
	}
	if client < broker {
		return client
	}
	return broker
}

func negotiateU32(broker, client uint32) uint32 {
	if broker == 0 {
		return client
	}
	if client == 0 {
		return broker
	}
	if client < broker {
		return client
	}
	return broker
}

func (c *Connection) armHeartbeat() {
	if c.heartbeat == 0 {
		return
	}
	interval := heartbeatInterval(c.heartbeat)
	c.cancelHeartbeatSend = c.transport.ScheduleTimer(interval, func() {
		_ = c.sendFrameDirect(0, nil)
		c.armHeartbeat()
	})
}

func (c *Connection) resetHeartbeatRecvTimer() {
	if c.heartbeat == 0 {
		return
	}
	if c.cancelHeartbeatRecv != nil {
		c.cancelHeartbeatRecv()
	}
	c.cancelHeartbeatRecv = c.transport.ScheduleTimer(heartbeatTimeout(c.heartbeat), func() {
		c.fail(newError(ErrProtocolError, "missed heartbeat from peer"))
	})
}

// OpenChannel allocates a channel id and sends channel.open.
func (c *Connection) OpenChannel(onOpen func(*Channel, error)) (*Channel, error) {
	if c.state != connConnected {
		err := newError(ErrConnectionClosed, "connection is not open")
		if onOpen != nil {
			onOpen(nil, err)
		}
		return nil, err
	}

	id, err := c.allocateChannelID()
	if err != nil {
		if onOpen != nil {
			onOpen(nil, err)
		}
		return nil, err
	}

	ch := newChannel(id, c)
	c.channels[id] = ch
	if err := ch.Open(func(err error) {
		if err != nil {
			delete(c.channels, id)
		}
		if onOpen != nil {
			onOpen(ch, err)
		}
	}); err != nil {
		delete(c.channels, id)
		return nil, err
	}
	return ch, nil
}

// allocateChannelID scans from nextFreeChannel, wrapping at maxChannels
// (0xFFFF if unbounded), returning 0 if every id is in use.
func (c *Connection) allocateChannelID() (uint16, error) {
	if c.maxChannels == 0 {
		c.maxChannels = 0xFFFF
	}
	start := c.nextFreeChannel
	if start == 0 {
		start = 1
	}
	id := start
	for i := uint32(0); i < uint32(c.maxChannels); i++ {
		if _, used := c.channels[id]; !used {
			c.nextFreeChannel = id + 1
			if c.nextFreeChannel == 0 || c.nextFreeChannel > c.maxChannels {
				c.nextFreeChannel = 1
			}
			c.log().Debugf("channel %d allocated", id)
			return id, nil
		}
		id++
		if id == 0 || id > c.maxChannels {
			id = 1
		}
	}
	return 0, newError(ErrChannelLimitExceeded, "no free channel id available (max %d)", c.maxChannels)
}

// sendMethod frames and sends m on channel id, queuing it if the connection
// hasn't reached Connected yet.
func (c *Connection) sendMethod(channelID uint16, m method.Method) error {
	w := wire.AcquireWriter()
	defer w.Release()
	if err := method.Encode(w, m); err != nil {
		return wrapError(ErrMalformedFrame, err, "encoding method")
	}
	return c.sendFramePayload(channelID, frame.TypeMethod, w.Bytes())
}

// sendHeader emits the content-header frame for a publish.
func (c *Connection) sendHeader(channelID uint16, bodySize uint64, props Properties) error {
	w := wire.AcquireWriter()
	defer w.Release()
	w.WriteUint16(classBasic)
	w.WriteUint16(0) // weight, always 0
	w.WriteUint64(bodySize)
	if err := WriteProperties(w, props); err != nil {
		return wrapError(ErrMalformedFrame, err, "encoding content header")
	}
	return c.sendFramePayload(channelID, frame.TypeHeader, w.Bytes())
}

// sendBody emits zero or more body frames for body, each capped at
// maxFrame-8 bytes (the per-frame header+sentinel overhead), per spec.md
// §4.5's fragmentation rule.
func (c *Connection) sendBody(channelID uint16, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	chunkSize := c.bodyChunkSize()
	for off := 0; off < len(body); off += chunkSize {
		end := off + chunkSize
		if end > len(body) {
			end = len(body)
		}
		if err := c.sendFramePayload(channelID, frame.TypeBody, body[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connection) bodyChunkSize() int {
	if c.maxFrame == 0 {
		return 1 << 20
	}
	n := int(c.maxFrame) - (frame.HeaderLen + 1)
	if n < 1 {
		n = 1
	}
	return n
}

// sendFramePayload routes through the pending queue pre-Connected, or
// sends immediately once Connected.
func (c *Connection) sendFramePayload(channelID uint16, typ uint8, payload []byte) error {
	if c.state != connConnected {
		return c.enqueuePending(channelID, typ, payload)
	}
	return c.writeFrame(channelID, typ, payload)
}

func (c *Connection) writeFrame(channelID uint16, typ uint8, payload []byte) error {
	buf, err := frame.Encode(nil, frame.Frame{Type: typ, Channel: channelID, Payload: payload}, c.maxFrame)
	if err != nil {
		return wrapError(ErrFrameTooLarge, err, "encoding frame for channel %d", channelID)
	}
	return c.transport.SendBytes(buf)
}

// enqueuePending buffers a frame into the bounded pre-Connected queue,
// failing ErrConnectionBufferFull once cfg.pendingLimit() is exceeded
// (spec.md §4.4).
func (c *Connection) enqueuePending(channelID uint16, typ uint8, payload []byte) error {
	limit := c.cfg.pendingLimit()
	if c.pendingBytes+len(payload) > limit {
		return newError(ErrConnectionBufferFull, "pre-connect send buffer exceeds %d bytes", limit)
	}
	buf, err := frame.Encode(nil, frame.Frame{Type: typ, Channel: channelID, Payload: payload}, 0)
	if err != nil {
		return wrapError(ErrMalformedFrame, err, "encoding queued frame")
	}
	c.pending = append(c.pending, pendingSend{payload: buf})
	c.pendingBytes += len(payload)
	return nil
}

func (c *Connection) flushPending() error {
	pending := c.pending
	c.pending = nil
	c.pendingBytes = 0
	for _, p := range pending {
		if err := c.transport.SendBytes(p.payload); err != nil {
			return wrapError(ErrConnectionClosed, err, "flushing queued send")
		}
	}
	return nil
}

// sendFrameDirect sends a channel-0 handshake frame immediately, bypassing
// the pending queue: these frames are what drives Handshake forward, and
// are sent before maxFrame is negotiated (spec.md §4.4). m == nil sends a
// bare heartbeat frame.
func (c *Connection) sendFrameDirect(channelID uint16, m method.Method) error {
	if m == nil {
		buf, err := frame.Encode(nil, frame.Frame{Type: frame.TypeHeartbeat, Channel: channelID}, 0)
		if err != nil {
			return err
		}
		return c.transport.SendBytes(buf)
	}
	w := wire.AcquireWriter()
	defer w.Release()
	if err := method.Encode(w, m); err != nil {
		return wrapError(ErrMalformedFrame, err, "encoding handshake method")
	}
	buf, err := frame.Encode(nil, frame.Frame{Type: frame.TypeMethod, Channel: channelID, Payload: w.Bytes()}, 0)
	if err != nil {
		return err
	}
	return c.transport.SendBytes(buf)
}

// Close begins a graceful shutdown: connection.close, awaiting close-ok.
func (c *Connection) Close(code uint16, text string, onClosed func(error)) error {
	c.onClosed = onClosed
	c.state = connClosing
	return c.sendFrameDirect(0, &method.ConnectionClose{ReplyCode: code, ReplyText: text})
}

// fail tears the connection down: every channel's pending work fails with
// err, in ascending channel-id order, aggregated via a multierror so a
// caller inspecting the failure sees every channel's outcome rather than
// just the first (spec.md §4.4/§7).
func (c *Connection) fail(err error) {
	if c.state == connClosed {
		return
	}
	c.log().Errorf("connection failing: %v", err)
	c.state = connClosed
	if c.cancelHeartbeatSend != nil {
		c.cancelHeartbeatSend()
	}
	if c.cancelHeartbeatRecv != nil {
		c.cancelHeartbeatRecv()
	}

	var merr *multierror.Error
	ids := sortedChannelIDs(c.channels)
	channels := c.channels
	c.channels = nil
	for _, id := range ids {
		ch := channels[id]
		ch.failAll(err)
		merr = multierror.Append(merr, err)
	}

	if c.onOpen != nil {
		cb := c.onOpen
		c.onOpen = nil
		cb(err)
	}
	if c.onClosed != nil {
		cb := c.onClosed
		c.onClosed = nil
		cb(err)
	}
	reported := merr.ErrorOrNil()
	if reported == nil {
		reported = err
	}
	c.transport.ReportError(reported)
	c.transport.ReportClosed()
	c.destroy()
}

func sortedChannelIDs(m map[uint16]*Channel) []uint16 {
	ids := make([]uint16, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

func decodeContentHeader(payload []byte) (uint64, Properties, error) {
	r := wire.NewReader(payload)
	if _, err := r.ReadUint16(); err != nil { // class id
		return 0, Properties{}, wrapError(ErrMalformedFrame, err, "reading content header class id")
	}
	if _, err := r.ReadUint16(); err != nil { // weight
		return 0, Properties{}, wrapError(ErrMalformedFrame, err, "reading content header weight")
	}
	bodySize, err := r.ReadUint64()
	if err != nil {
		return 0, Properties{}, wrapError(ErrMalformedFrame, err, "reading content header body size")
	}
	props, err := ReadProperties(r)
	if err != nil {
		return 0, Properties{}, wrapError(ErrMalformedFrame, err, "reading content header properties")
	}
	return bodySize, props, nil
}
