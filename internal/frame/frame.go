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

// Package frame implements the AMQP 0-9-1 frame layer (C2): the 7-byte
// header, the trailing 0xCE sentinel, and the incremental, non-buffering
// parser the connection kernel drives with whatever bytes the transport
// collaborator hands it.
package frame

import (
	"github.com/pkg/errors"
)

// Frame types (spec.md §3).
const (
	TypeMethod    uint8 = 1
	TypeHeader    uint8 = 2
	TypeBody      uint8 = 3
	TypeHeartbeat uint8 = 8
)

// FrameEnd is the mandatory trailing sentinel byte of every frame.
const FrameEnd byte = 0xCE

// HeaderLen is the fixed size of the frame header: type (1) + channel (2) +
// payload length (4).
const HeaderLen = 7

var (
	// ErrFramingError is returned (wrapped) when the trailing byte isn't
	// 0xCE.
	ErrFramingError = errors.New("frame: missing 0xCE frame end")
	// ErrTooLarge is returned (wrapped) when an encoded frame would exceed
	// the negotiated max-frame size.
	ErrTooLarge = errors.New("frame: exceeds negotiated max-frame size")
)

// Frame is a decoded frame: a type, the channel it's addressed to, and its
// raw payload (everything between the header and the trailing sentinel).
// Payload is a view into the caller-supplied buffer and must be copied by
// the caller if retained past the current Step call.
type Frame struct {
	Type    uint8
	Channel uint16
	Payload []byte
}

// Decoder incrementally parses frames out of a byte stream. It performs no
// buffering of its own: Step consumes one complete frame from the head of
// buf and returns how many bytes were consumed. If buf holds a partial
// frame, Step consumes nothing from that partial tail and the caller is
// responsible for re-presenting those same bytes, plus more, on the next
// call (spec.md §4.2).
type Decoder struct{}

// Expected returns the minimum number of bytes required to make progress
// decoding the next frame out of buf: either enough to read the 7-byte
// header, or (once the header is known) the header plus the payload it
// declares plus the trailing sentinel byte.
func Expected(buf []byte) int {
	if len(buf) < HeaderLen {
		return HeaderLen
	}
	payloadLen := be32(buf[3:7])
	return HeaderLen + int(payloadLen) + 1
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// Step attempts to decode exactly one frame from the head of buf. It
// returns the number of bytes consumed (0 if buf doesn't yet hold a
// complete frame) and the decoded frame, or an error if buf holds a
// complete but malformed frame.
func (d *Decoder) Step(buf []byte) (consumed int, fr *Frame, err error) {
	need := Expected(buf)
	if len(buf) < need {
		return 0, nil, nil
	}

	typ := buf[0]
	channel := be16(buf[1:3])
	payloadLen := be32(buf[3:7])
	payload := buf[HeaderLen : HeaderLen+int(payloadLen)]
	end := buf[HeaderLen+int(payloadLen)]
	if end != FrameEnd {
		return 0, nil, errors.Wrapf(ErrFramingError, "got 0x%02x", end)
	}

	return need, &Frame{Type: typ, Channel: channel, Payload: payload}, nil
}

// Encode appends fr's wire representation — header, payload, sentinel — to
// dst and returns the result. maxFrame is the negotiated frame-max; 0 means
// unbounded. Encode fails FrameTooLarge before writing anything if the
// resulting frame would exceed it.
func Encode(dst []byte, fr Frame, maxFrame uint32) ([]byte, error) {
	total := HeaderLen + len(fr.Payload) + 1
	if maxFrame > 0 && uint32(total) > maxFrame {
		return nil, errors.Wrapf(ErrTooLarge, "frame of %d bytes exceeds max-frame %d", total, maxFrame)
	}

	dst = append(dst, fr.Type, byte(fr.Channel>>8), byte(fr.Channel))
	n := uint32(len(fr.Payload))
	dst = append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	dst = append(dst, fr.Payload...)
	dst = append(dst, FrameEnd)
	return dst, nil
}
