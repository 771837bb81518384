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

import "sort"

// publishFunc is the raw send operation a Confirmer drives once a slot is
// available: basic.publish + header + body frames (channel.go's Publish).
type publishFunc func(exchange, routingKey string, mandatory, immediate bool, props Properties, body []byte) error

// confirmHandler is the per-publication-id callback triple spec.md §4.7
// calls the "reliable" wrapper.
type confirmHandler struct {
	onAck  func()
	onNack func()
	onLost func(error)
}

type pendingPublish struct {
	id                    uint64
	exchange, routingKey  string
	mandatory, immediate  bool
	props                 Properties
	body                  []byte
}

// Confirmer layers publisher-confirm tagging, outstanding-window throttling,
// and cumulative ack/nack resolution over a channel already in confirm.select
// mode (spec.md §4.7). It embeds Watchable so a handler that destroys the
// owning channel mid-fan-out cannot corrupt the remaining iteration (§4.9).
type Confirmer struct {
	Watchable

	next        uint64
	throttle    int
	outstanding int
	handlers    map[uint64]*confirmHandler
	queue       []pendingPublish
	send        publishFunc
}

// newConfirmer returns a Confirmer whose publication ids start at 1, the
// Tagger convention spec.md §4.7 specifies.
func newConfirmer(send publishFunc) *Confirmer {
	return &Confirmer{next: 1, handlers: map[uint64]*confirmHandler{}, send: send}
}

// SetThrottle bounds the number of published-but-unconfirmed messages. A
// lower value only takes effect as existing confirms free slots — in-flight
// publications are never recalled (spec.md §4.7).
func (c *Confirmer) SetThrottle(n int) { c.throttle = n }

// Publish tags body with the next publication id and either sends it now or
// holds it in the throttle queue if the outstanding window is full. The
// returned id is stable across the queued/sent-immediately distinction.
func (c *Confirmer) Publish(exchange, routingKey string, mandatory, immediate bool, props Properties, body []byte, onAck, onNack func(), onLost func(error)) uint64 {
	id := c.next
	c.next++
	c.handlers[id] = &confirmHandler{onAck: onAck, onNack: onNack, onLost: onLost}

	if c.throttle > 0 && c.outstanding >= c.throttle {
		c.queue = append(c.queue, pendingPublish{id, exchange, routingKey, mandatory, immediate, props, body})
		return id
	}
	c.dispatch(pendingPublish{id, exchange, routingKey, mandatory, immediate, props, body})
	return id
}

func (c *Confirmer) dispatch(p pendingPublish) {
	c.outstanding++
	if err := c.send(p.exchange, p.routingKey, p.mandatory, p.immediate, p.props, p.body); err != nil {
		c.outstanding--
		if h, ok := c.handlers[p.id]; ok {
			delete(c.handlers, p.id)
			if h.onLost != nil {
				h.onLost(err)
			}
		}
	}
}

// drainQueue releases queued publications strictly in ascending id order as
// the outstanding window permits (spec.md §8 "Throttle window").
func (c *Confirmer) drainQueue() {
	for len(c.queue) > 0 {
		if c.throttle > 0 && c.outstanding >= c.throttle {
			return
		}
		p := c.queue[0]
		c.queue = c.queue[1:]
		c.dispatch(p)
	}
}

// OnAck resolves publication(s) acknowledged by the broker.
func (c *Confirmer) OnAck(tag uint64, multiple bool) { c.resolve(tag, multiple, true) }

// OnNack resolves publication(s) rejected by the broker.
func (c *Confirmer) OnNack(tag uint64, multiple bool) { c.resolve(tag, multiple, false) }

// resolve implements the cumulative-ack rule (spec.md §4.7/§8): multiple=false
// resolves exactly id==tag if known; multiple=true resolves every id ≤ tag,
// ascending. The open question on ordering relative to throttle-window
// advancement is resolved here as: every matched handler fires before the
// freed slots are offered to the queue (SPEC_FULL.md "OPEN QUESTION
// DECISIONS").
func (c *Confirmer) resolve(tag uint64, multiple, ack bool) {
	var ids []uint64
	if multiple {
		for id := range c.handlers {
			if id <= tag {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	} else if _, ok := c.handlers[tag]; ok {
		ids = []uint64{tag}
	}

	mon := c.Watch()
	for _, id := range ids {
		if mon.Dead() {
			return
		}
		h, ok := c.handlers[id]
		if !ok {
			continue
		}
		delete(c.handlers, id)
		if ack {
			if h.onAck != nil {
				h.onAck()
			}
		} else if h.onNack != nil {
			h.onNack()
		}
		if c.outstanding > 0 {
			c.outstanding--
		}
	}
	if mon.Dead() {
		return
	}
	c.drainQueue()
}

// Fail notifies every outstanding and queued handler that the channel died,
// then clears all state. Uses drain-then-dispatch (spec.md §9) so a handler
// that reaches back into the confirmer cannot observe a half-cleared map.
func (c *Confirmer) Fail(err error) {
	handlers := c.handlers
	c.handlers = map[uint64]*confirmHandler{}
	c.queue = nil
	c.outstanding = 0

	mon := c.Watch()
	for _, h := range handlers {
		if mon.Dead() {
			return
		}
		if h.onLost != nil {
			h.onLost(err)
		}
	}
}
