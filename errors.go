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
	"fmt"

	"github.com/pkg/errors"
)

// Error is the taxonomy spec'd for the kernel (spec.md §7). Every error the
// kernel returns or hands to a deferred's error handler is one of these.
type Error struct {
	Kind    ErrorKind
	Message string
	// Code/Text carry a broker-reported reply when Kind is PeerClose.
	Code int
	Text string
	// cause holds the wrapped underlying error, if any, for Unwrap.
	cause error
}

// ErrorKind enumerates the taxonomy of spec.md §7.
type ErrorKind int

const (
	// ErrMalformedFrame: a decode read past the remaining frame bytes.
	ErrMalformedFrame ErrorKind = iota
	// ErrFrameFramingError: the trailing sentinel byte was not 0xCE.
	ErrFrameFramingError
	// ErrFrameTooLarge: an encoded frame would exceed the negotiated max-frame.
	ErrFrameTooLarge
	// ErrUnknownFieldType: a field-table value tag the codec does not recognise.
	ErrUnknownFieldType
	// ErrProtocolError: unexpected method, wrong channel, or out-of-sequence
	// body frames.
	ErrProtocolError
	// ErrHandshakeFailed: the broker reported failure during connection open.
	ErrHandshakeFailed
	// ErrChannelClosed: an operation was attempted on a closed channel.
	ErrChannelClosed
	// ErrConnectionClosed: an operation was attempted on a closed connection.
	ErrConnectionClosed
	// ErrChannelLimitExceeded: no free channel id was available to allocate.
	ErrChannelLimitExceeded
	// ErrConnectionBufferFull: the pre-handshake pending-send queue is full.
	ErrConnectionBufferFull
	// ErrPeerClose: the broker initiated a close; Code/Text carry its reply.
	ErrPeerClose
	// ErrChannelFlowStopped: the broker asked this channel to pause sending
	// content (channel.flow Active=false); publishing is refused until it
	// lifts the pause.
	ErrChannelFlowStopped
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedFrame:
		return "MalformedFrame"
	case ErrFrameFramingError:
		return "FrameFramingError"
	case ErrFrameTooLarge:
		return "FrameTooLarge"
	case ErrUnknownFieldType:
		return "UnknownFieldType"
	case ErrProtocolError:
		return "ProtocolError"
	case ErrHandshakeFailed:
		return "HandshakeFailed"
	case ErrChannelClosed:
		return "ChannelClosed"
	case ErrConnectionClosed:
		return "ConnectionClosed"
	case ErrChannelLimitExceeded:
		return "ChannelLimitExceeded"
	case ErrConnectionBufferFull:
		return "ConnectionBufferFull"
	case ErrPeerClose:
		return "PeerClose"
	case ErrChannelFlowStopped:
		return "ChannelFlowStopped"
	default:
		return "Unknown"
	}
}

func (e *Error) Error() string {
	if e.Kind == ErrPeerClose {
		return fmt.Sprintf("amqp: peer closed (code=%d): %s", e.Code, e.Text)
	}
	if e.Message == "" {
		return fmt.Sprintf("amqp: %s", e.Kind)
	}
	return fmt.Sprintf("amqp: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, so errors.Is/errors.As work
// across the pkg/errors-wrapped chain the kernel builds internally.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.WithStack(cause),
	}
}

// PeerCloseError constructs the ErrPeerClose variant carrying the broker's
// reply-code/text verbatim, per spec.md §7.
func PeerCloseError(code int, text string) *Error {
	return &Error{Kind: ErrPeerClose, Code: code, Text: text}
}

// IsKind reports whether err is an *Error of the given kind, unwrapping
// wrapped causes along the way.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
