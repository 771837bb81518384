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

	"github.com/packetd/camqp/internal/wire"
)

// Property-presence bits for the AMQP 0-9-1 basic content-header class,
// high bit first as they appear on the wire. Bit 0 (continuation) and bit 1
// (reserved) are never set by this kernel and are rejected on decode — no
// basic-class message needs a second flag word.
const (
	flagContentType uint16 = 1 << 15
	flagContentEncoding uint16 = 1 << 14
	flagHeaders uint16 = 1 << 13
	flagDeliveryMode uint16 = 1 << 12
	flagPriority uint16 = 1 << 11
	flagCorrelationID uint16 = 1 << 10
	flagReplyTo uint16 = 1 << 9
	flagExpiration uint16 = 1 << 8
	flagMessageID uint16 = 1 << 7
	flagTimestamp uint16 = 1 << 6
	flagType uint16 = 1 << 5
	flagUserID uint16 = 1 << 4
	flagAppID uint16 = 1 << 3
	flagClusterID uint16 = 1 << 2
)

// Properties holds the 14 optional basic-class content properties
// (spec.md §3/glossary "Envelope"). Only fields whose presence bit is set
// in `present` are written to the wire or were read from it; the explicit
// Set* methods exist so zero-valued-but-intended fields (DeliveryMode=0,
// an empty ContentType) round-trip correctly instead of being silently
// dropped by a "non-zero means present" heuristic.
type Properties struct {
	ContentType     string
	ContentEncoding string
	Headers         wire.Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string
	ClusterID       string

	present uint16
}

func (p *Properties) SetContentType(v string) *Properties {
	p.ContentType, p.present = v, p.present|flagContentType
	return p
}
func (p *Properties) SetContentEncoding(v string) *Properties {
	p.ContentEncoding, p.present = v, p.present|flagContentEncoding
	return p
}
func (p *Properties) SetHeaders(v wire.Table) *Properties {
	p.Headers, p.present = v, p.present|flagHeaders
	return p
}
func (p *Properties) SetDeliveryMode(v uint8) *Properties {
	p.DeliveryMode, p.present = v, p.present|flagDeliveryMode
	return p
}
func (p *Properties) SetPriority(v uint8) *Properties {
	p.Priority, p.present = v, p.present|flagPriority
	return p
}
func (p *Properties) SetCorrelationID(v string) *Properties {
	p.CorrelationID, p.present = v, p.present|flagCorrelationID
	return p
}
func (p *Properties) SetReplyTo(v string) *Properties {
	p.ReplyTo, p.present = v, p.present|flagReplyTo
	return p
}
func (p *Properties) SetExpiration(v string) *Properties {
	p.Expiration, p.present = v, p.present|flagExpiration
	return p
}
func (p *Properties) SetMessageID(v string) *Properties {
	p.MessageID, p.present = v, p.present|flagMessageID
	return p
}
func (p *Properties) SetTimestamp(v time.Time) *Properties {
	p.Timestamp, p.present = v, p.present|flagTimestamp
	return p
}
func (p *Properties) SetType(v string) *Properties {
	p.Type, p.present = v, p.present|flagType
	return p
}
func (p *Properties) SetUserID(v string) *Properties {
	p.UserID, p.present = v, p.present|flagUserID
	return p
}
func (p *Properties) SetAppID(v string) *Properties {
	p.AppID, p.present = v, p.present|flagAppID
	return p
}
func (p *Properties) SetClusterID(v string) *Properties {
	p.ClusterID, p.present = v, p.present|flagClusterID
	return p
}

// Has reports whether bit (one of the flag* constants) was present.
func (p Properties) Has(bit uint16) bool { return p.present&bit != 0 }

// WriteProperties encodes the property-flags word followed by each present
// field's value, in the wire's fixed high-to-low bit order.
func WriteProperties(w *wire.Writer, p Properties) error {
	w.WriteUint16(p.present)

	if p.Has(flagContentType) {
		if err := w.WriteShortstr(p.ContentType); err != nil {
			return err
		}
	}
	if p.Has(flagContentEncoding) {
		if err := w.WriteShortstr(p.ContentEncoding); err != nil {
			return err
		}
	}
	if p.Has(flagHeaders) {
		if err := w.WriteTable(p.Headers); err != nil {
			return err
		}
	}
	if p.Has(flagDeliveryMode) {
		w.WriteUint8(p.DeliveryMode)
	}
	if p.Has(flagPriority) {
		w.WriteUint8(p.Priority)
	}
	if p.Has(flagCorrelationID) {
		if err := w.WriteShortstr(p.CorrelationID); err != nil {
			return err
		}
	}
	if p.Has(flagReplyTo) {
		if err := w.WriteShortstr(p.ReplyTo); err != nil {
			return err
		}
	}
	if p.Has(flagExpiration) {
		if err := w.WriteShortstr(p.Expiration); err != nil {
			return err
		}
	}
	if p.Has(flagMessageID) {
		if err := w.WriteShortstr(p.MessageID); err != nil {
			return err
		}
	}
	if p.Has(flagTimestamp) {
		w.WriteTimestamp(p.Timestamp)
	}
	if p.Has(flagType) {
		if err := w.WriteShortstr(p.Type); err != nil {
			return err
		}
	}
	if p.Has(flagUserID) {
		if err := w.WriteShortstr(p.UserID); err != nil {
			return err
		}
	}
	if p.Has(flagAppID) {
		if err := w.WriteShortstr(p.AppID); err != nil {
			return err
		}
	}
	if p.Has(flagClusterID) {
		if err := w.WriteShortstr(p.ClusterID); err != nil {
			return err
		}
	}
	return nil
}

// ReadProperties decodes a property-flags word and the fields it marks
// present, in the same fixed order WriteProperties writes them.
func ReadProperties(r *wire.Reader) (Properties, error) {
	flags, err := r.ReadUint16()
	if err != nil {
		return Properties{}, err
	}
	if flags&0x0003 != 0 {
		return Properties{}, newError(ErrMalformedFrame, "content header: unsupported property flag bits 0x%04x", flags&0x0003)
	}
	p := Properties{present: flags}

	if p.Has(flagContentType) {
		if p.ContentType, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagContentEncoding) {
		if p.ContentEncoding, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagHeaders) {
		if p.Headers, err = r.ReadTable(); err != nil {
			return p, err
		}
	}
	if p.Has(flagDeliveryMode) {
		if p.DeliveryMode, err = r.ReadUint8(); err != nil {
			return p, err
		}
	}
	if p.Has(flagPriority) {
		if p.Priority, err = r.ReadUint8(); err != nil {
			return p, err
		}
	}
	if p.Has(flagCorrelationID) {
		if p.CorrelationID, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagReplyTo) {
		if p.ReplyTo, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagExpiration) {
		if p.Expiration, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagMessageID) {
		if p.MessageID, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagTimestamp) {
		if p.Timestamp, err = r.ReadTimestamp(); err != nil {
			return p, err
		}
	}
	if p.Has(flagType) {
		if p.Type, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagUserID) {
		if p.UserID, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagAppID) {
		if p.AppID, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	if p.Has(flagClusterID) {
		if p.ClusterID, err = r.ReadShortstr(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// deliveryKind distinguishes the three method shapes that trigger a
// reassembly sequence (spec.md §4.6).
type deliveryKind int

const (
	deliveryDeliver deliveryKind = iota
	deliveryGetOk
	deliveryReturn
)

// Envelope carries the fields of whichever method triggered reassembly.
// Fields irrelevant to the triggering Kind are left zero.
type Envelope struct {
	Kind deliveryKind

	ConsumerTag  string // deliveryDeliver
	DeliveryTag  uint64 // deliveryDeliver, deliveryGetOk
	Redelivered  bool   // deliveryDeliver, deliveryGetOk
	Exchange     string
	RoutingKey   string
	MessageCount uint32 // deliveryGetOk

	ReplyCode uint16 // deliveryReturn
	ReplyText string // deliveryReturn
}

// Message is a fully reassembled basic-class message: the triggering
// envelope, its content properties, and its body.
type Message struct {
	Envelope   Envelope
	Properties Properties
	Body       []byte
}
