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
	"math"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

type reassemblerState int

const (
	stateIdle reassemblerState = iota
	stateAwaitingHeader
	stateAwaitingBody
)

// CompletionMode selects how a reassembler delivers a message once it
// starts (spec.md §4.6).
type CompletionMode int

const (
	// ModeWhole buffers the entire body and invokes one callback on
	// completion.
	ModeWhole CompletionMode = iota
	// ModeStreaming invokes begin/headers/data*/complete without buffering.
	ModeStreaming
)

// StreamingHandler is the callback set for ModeStreaming reassembly.
type StreamingHandler struct {
	Begin    func(Envelope, uint64)
	Headers  func(Properties)
	Data     func(chunk []byte)
	Complete func()
}

var bodyPool bytebufferpool.Pool

// reassembler drives one channel's deliver/get-ok/return → header → body*
// sequence (spec.md §4.6). A channel owns exactly one at a time since the
// wire protocol never interleaves two in-flight content sequences on the
// same channel.
type reassembler struct {
	state reassemblerState
	mode  CompletionMode

	envelope Envelope
	bodySize uint64
	received uint64

	streaming StreamingHandler
	onWhole   func(Message)

	props Properties
	buf   *bytebufferpool.ByteBuffer

	// warn logs recoverable protocol noise (a peer-bug truncated tail);
	// nil is valid and simply discards the message.
	warn func(format string, args ...any)
}

// beginWhole starts whole-message reassembly for env; onComplete fires once
// with the fully assembled Message.
func (rs *reassembler) beginWhole(env Envelope, onComplete func(Message)) error {
	if rs.state != stateIdle {
		return errors.WithStack(newError(ErrProtocolError, "reassembler: content sequence already in progress"))
	}
	rs.state = stateAwaitingHeader
	rs.mode = ModeWhole
	rs.envelope = env
	rs.onWhole = onComplete
	rs.buf = bodyPool.Get()
	return nil
}

// beginStreaming starts streaming reassembly for env; h.Begin and h.Headers
// fire when the content header arrives.
func (rs *reassembler) beginStreaming(env Envelope, h StreamingHandler) error {
	if rs.state != stateIdle {
		return errors.WithStack(newError(ErrProtocolError, "reassembler: content sequence already in progress"))
	}
	rs.state = stateAwaitingHeader
	rs.mode = ModeStreaming
	rs.envelope = env
	rs.streaming = h
	return nil
}

// header consumes the content-header frame's bodySize/properties.
func (rs *reassembler) header(bodySize uint64, props Properties) error {
	if rs.state != stateAwaitingHeader {
		return errors.WithStack(newError(ErrProtocolError, "reassembler: unexpected header frame"))
	}
	if bodySize > math.MaxInt {
		return errors.WithStack(newError(ErrProtocolError, "reassembler: body size exceeds addressable size"))
	}

	rs.bodySize = bodySize
	rs.props = props

	if rs.mode == ModeStreaming {
		if rs.streaming.Begin != nil {
			rs.streaming.Begin(rs.envelope, bodySize)
		}
		if rs.streaming.Headers != nil {
			rs.streaming.Headers(props)
		}
	}

	if bodySize == 0 {
		return rs.complete()
	}
	rs.state = stateAwaitingBody
	return nil
}

// body consumes one body frame's payload. Bytes beyond the declared
// bodySize are discarded (spec.md §4.6 "Safety" — a peer-bug tail).
func (rs *reassembler) body(chunk []byte) error {
	if rs.state != stateAwaitingBody {
		return errors.WithStack(newError(ErrProtocolError, "reassembler: unexpected body frame"))
	}

	remaining := rs.bodySize - rs.received
	if uint64(len(chunk)) > remaining {
		if rs.warn != nil {
			rs.warn("reassembler: truncating body frame to declared bodySize=%d (received=%d, frame carried %d)", rs.bodySize, rs.received, len(chunk))
		}
		chunk = chunk[:remaining]
	}
	rs.received += uint64(len(chunk))

	switch rs.mode {
	case ModeWhole:
		rs.buf.Write(chunk)
	case ModeStreaming:
		if rs.streaming.Data != nil {
			rs.streaming.Data(chunk)
		}
	}

	if rs.received >= rs.bodySize {
		return rs.complete()
	}
	return nil
}

func (rs *reassembler) complete() error {
	switch rs.mode {
	case ModeWhole:
		body := append([]byte(nil), rs.buf.B...)
		bodyPool.Put(rs.buf)
		rs.buf = nil
		if rs.onWhole != nil {
			rs.onWhole(Message{Envelope: rs.envelope, Properties: rs.props, Body: body})
		}
	case ModeStreaming:
		if rs.streaming.Complete != nil {
			rs.streaming.Complete()
		}
	}
	rs.reset()
	return nil
}

// active reports whether a content sequence is in progress.
func (rs *reassembler) active() bool { return rs.state != stateIdle }

func (rs *reassembler) reset() {
	rs.state = stateIdle
	rs.mode = ModeWhole
	rs.envelope = Envelope{}
	rs.bodySize = 0
	rs.received = 0
	rs.streaming = StreamingHandler{}
	rs.onWhole = nil
	rs.props = Properties{}
	rs.buf = nil
}
