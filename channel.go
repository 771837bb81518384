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
	"github.com/google/uuid"

	"github.com/packetd/camqp/internal/method"
	"github.com/packetd/camqp/internal/wire"
)

type channelState int

const (
	channelConnected channelState = iota
	channelClosing
	channelClosed
)

// ConsumerHandler receives every message delivered to a registered
// consumer tag, fully reassembled (spec.md §4.6 whole-message mode).
type ConsumerHandler func(Message)

// consumerRegistration is exactly one of the two completion modes
// (spec.md §4.6): a consumer either wants whole messages buffered for it,
// or wants the raw begin/headers/data/complete stream with no buffering.
type consumerRegistration struct {
	whole     ConsumerHandler
	streaming *StreamingHandler
}

// Channel is a logical in-order duplex stream multiplexed over one
// connection (spec.md §4.5/glossary). Every synchronous operation pushes a
// deferred onto a FIFO before its frame is emitted; incoming "-ok" replies
// resolve the head. The channel is not safe for concurrent use — like the
// rest of the kernel it assumes a single cooperative executor (spec.md §5).
type Channel struct {
	Watchable

	id    uint16
	conn  *Connection
	state channelState

	fifo        []*deferred
	consumers   map[string]consumerRegistration
	reassembler reassembler
	confirm     *Confirmer

	returnHandler func(Message)
	inTx          bool
	flowActive    bool
}

func newChannel(id uint16, conn *Connection) *Channel {
	ch := &Channel{
		id:         id,
		conn:       conn,
		consumers:  make(map[string]consumerRegistration),
		flowActive: true,
	}
	ch.reassembler.warn = func(format string, args ...any) { conn.log().Warnf(format, args...) }
	return ch
}

// ID returns the channel's negotiated numeric id.
func (ch *Channel) ID() uint16 { return ch.id }

// SetReturnHandler installs the channel-level fallback for unroutable
// mandatory/immediate publishes that carry no per-publication return
// handler (spec.md §4.5).
func (ch *Channel) SetReturnHandler(h func(Message)) { ch.returnHandler = h }

func (ch *Channel) closedErr() error {
	return newError(ErrChannelClosed, "channel %d is closed", ch.id)
}

// destroy marks the channel dead together with its Confirmer, so a confirm
// handler that destroys the channel also stops the confirm fan-out.
func (ch *Channel) destroy() {
	ch.Watchable.destroy()
	if ch.confirm != nil {
		ch.confirm.destroy()
	}
}

// invoke is the generic synchronous-call path: push a deferred (unless the
// method is asynchronous or carries nowait), send the method frame, and
// resolve immediately for the async/nowait case (spec.md §4.3: "nowait
// converts a request to asynchronous at the call site").
func (ch *Channel) invoke(request string, m method.Method, onSuccess func(method.Method), onError func(error)) error {
	if ch.state != channelConnected {
		err := ch.closedErr()
		if onError != nil {
			onError(err)
		}
		return err
	}

	wait := false
	if s, ok := m.(method.Synchronous); ok {
		wait = s.Synchronous()
	}

	var d *deferred
	if wait {
		d = newDeferred(request, deferredSync).OnSuccess(onSuccess).OnError(onError)
		ch.fifo = append(ch.fifo, d)
	}

	if err := ch.conn.sendMethod(ch.id, m); err != nil {
		if wait {
			ch.fifo = ch.fifo[:len(ch.fifo)-1]
		}
		if onError != nil {
			onError(err)
		}
		return err
	}

	if !wait && onSuccess != nil {
		onSuccess(nil)
	}
	return nil
}

// resolveFIFO matches an incoming reply against the head of the FIFO
// (spec.md §4.5). A mismatch between the head deferred's expected reply and
// the received method is ProtocolError.
func (ch *Channel) resolveFIFO(m method.Method) error {
	if len(ch.fifo) == 0 {
		// A reply with nothing in the FIFO to match it almost always means
		// the request that provoked it was sent with nowait and already
		// resolved locally; treat it as recoverable noise, not a protocol
		// violation that should tear the connection down.
		ch.conn.log().Warnf("unexpected reply %s on channel %d: no pending request (likely a nowait request)", method.Name(m), ch.id)
		return nil
	}
	d := ch.fifo[0]
	got := method.Name(m)

	if d.request == "basic.get" {
		if got != "basic.get-ok" && got != "basic.get-empty" {
			return newError(ErrProtocolError, "expected basic.get-ok/basic.get-empty, got %s", got)
		}
	} else if expected := method.ReplyPairs[d.request]; got != expected {
		return newError(ErrProtocolError, "expected %s, got %s", expected, got)
	}

	ch.fifo = ch.fifo[1:]
	d.resolve(m)
	return nil
}

// handleMethod dispatches one decoded method frame addressed to this
// channel.
func (ch *Channel) handleMethod(m method.Method) error {
	switch mm := m.(type) {
	case *method.ChannelClose:
		_ = ch.conn.sendMethod(ch.id, &method.ChannelCloseOk{})
		err := newError(ErrProtocolError, "channel closed by peer: code=%d text=%s", mm.ReplyCode, mm.ReplyText)
		ch.conn.log().Errorf("channel %d closed by peer: code=%d text=%s", ch.id, mm.ReplyCode, mm.ReplyText)
		ch.failAll(err)
		ch.state = channelClosed
		ch.destroy()
		return nil

	case *method.ChannelFlow:
		ch.flowActive = mm.Active
		return ch.conn.sendMethod(ch.id, &method.ChannelFlowOk{Active: mm.Active})

	case *method.BasicDeliver:
		reg, ok := ch.consumers[mm.ConsumerTag]
		if !ok {
			return newError(ErrProtocolError, "basic.deliver for unknown consumer tag %q", mm.ConsumerTag)
		}
		env := Envelope{
			Kind: deliveryDeliver, ConsumerTag: mm.ConsumerTag, DeliveryTag: mm.DeliveryTag,
			Redelivered: mm.Redelivered, Exchange: mm.Exchange, RoutingKey: mm.RoutingKey,
		}
		if reg.streaming != nil {
			return ch.reassembler.beginStreaming(env, *reg.streaming)
		}
		return ch.reassembler.beginWhole(env, reg.whole)

	case *method.BasicGetOk, *method.BasicGetEmpty:
		return ch.resolveFIFO(m)

	case *method.BasicReturn:
		env := Envelope{
			Kind: deliveryReturn, ReplyCode: mm.ReplyCode, ReplyText: mm.ReplyText,
			Exchange: mm.Exchange, RoutingKey: mm.RoutingKey,
		}
		handler := ch.returnHandler
		return ch.reassembler.beginWhole(env, func(msg Message) {
			if handler != nil {
				handler(msg)
			}
		})

	case *method.BasicAck:
		if ch.confirm != nil {
			ch.confirm.OnAck(mm.DeliveryTag, mm.Multiple)
		}
		return nil

	case *method.BasicNack:
		if ch.confirm != nil {
			ch.confirm.OnNack(mm.DeliveryTag, mm.Multiple)
		}
		return nil

	case *method.BasicCancel:
		delete(ch.consumers, mm.ConsumerTag)
		if !mm.NoWait {
			return ch.conn.sendMethod(ch.id, &method.BasicCancelOk{ConsumerTag: mm.ConsumerTag})
		}
		return nil

	default:
		return ch.resolveFIFO(m)
	}
}

func (ch *Channel) handleContentHeader(bodySize uint64, props Properties) error {
	return ch.reassembler.header(bodySize, props)
}

func (ch *Channel) handleContentBody(chunk []byte) error {
	return ch.reassembler.body(chunk)
}

// failAll fails every pending deferred and discards consumer registrations,
// draining the FIFO before iterating so a handler that reopens/destroys the
// channel cannot invalidate the loop (spec.md §9).
func (ch *Channel) failAll(err error) {
	fifo := ch.fifo
	ch.fifo = nil
	ch.consumers = make(map[string]consumerRegistration)

	mon := ch.Watch()
	for _, d := range fifo {
		if mon.Dead() {
			return
		}
		d.fail(err)
	}
	if ch.confirm != nil {
		ch.confirm.Fail(err)
	}
}

// Open sends channel.open and resolves onOpen once the broker replies.
func (ch *Channel) Open(onOpen func(error)) error {
	return ch.invoke("channel.open", &method.ChannelOpen{}, func(method.Method) {
		if onOpen != nil {
			onOpen(nil)
		}
	}, onOpen)
}

// Close sends channel.close and transitions to Closing until the broker
// confirms with channel.close-ok.
func (ch *Channel) Close(code uint16, text string, onClosed func(error)) error {
	err := ch.invoke("channel.close", &method.ChannelClose{ReplyCode: code, ReplyText: text}, func(method.Method) {
		ch.state = channelClosed
		ch.destroy()
		if onClosed != nil {
			onClosed(nil)
		}
	}, onClosed)
	if err != nil {
		return err
	}
	ch.state = channelClosing
	return nil
}

// ExchangeDeclare declares an exchange.
func (ch *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args wire.Table, onDone func(error)) error {
	m := &method.ExchangeDeclare{Exchange: name, Type: kind, Durable: durable, AutoDelete: autoDelete, Internal: internal, NoWait: noWait, Arguments: args}
	return ch.invoke("exchange.declare", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// ExchangeDelete deletes an exchange.
func (ch *Channel) ExchangeDelete(name string, ifUnused, noWait bool, onDone func(error)) error {
	m := &method.ExchangeDelete{Exchange: name, IfUnused: ifUnused, NoWait: noWait}
	return ch.invoke("exchange.delete", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// ExchangeBind binds one exchange to another (the RabbitMQ exchange-to-
// exchange extension).
func (ch *Channel) ExchangeBind(destination, source, routingKey string, noWait bool, args wire.Table, onDone func(error)) error {
	m := &method.ExchangeBind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: args}
	return ch.invoke("exchange.bind", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// ExchangeUnbind removes an exchange-to-exchange binding.
func (ch *Channel) ExchangeUnbind(destination, source, routingKey string, noWait bool, args wire.Table, onDone func(error)) error {
	m := &method.ExchangeUnbind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: args}
	return ch.invoke("exchange.unbind", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// QueueDeclareResult carries queue.declare-ok's data-bearing reply fields.
type QueueDeclareResult struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

// QueueDeclare declares a queue.
func (ch *Channel) QueueDeclare(name string, durable, exclusive, autoDelete, noWait bool, args wire.Table, onDone func(QueueDeclareResult, error)) error {
	m := &method.QueueDeclare{Queue: name, Durable: durable, Exclusive: exclusive, AutoDelete: autoDelete, NoWait: noWait, Arguments: args}
	return ch.invoke("queue.declare", m, func(r method.Method) {
		if onDone == nil {
			return
		}
		if ok, good := r.(*method.QueueDeclareOk); good {
			onDone(QueueDeclareResult{ok.Queue, ok.MessageCount, ok.ConsumerCount}, nil)
		} else {
			onDone(QueueDeclareResult{Queue: name}, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone(QueueDeclareResult{}, err)
		}
	})
}

// QueueBind binds queue to exchange with routingKey.
func (ch *Channel) QueueBind(queue, exchange, routingKey string, noWait bool, args wire.Table, onDone func(error)) error {
	m := &method.QueueBind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, NoWait: noWait, Arguments: args}
	return ch.invoke("queue.bind", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// QueueUnbind removes a binding. queue.unbind has no nowait variant.
func (ch *Channel) QueueUnbind(queue, exchange, routingKey string, args wire.Table, onDone func(error)) error {
	m := &method.QueueUnbind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, Arguments: args}
	return ch.invoke("queue.unbind", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// QueuePurge purges a queue and reports the number of messages purged.
func (ch *Channel) QueuePurge(queue string, noWait bool, onDone func(messageCount uint32, err error)) error {
	m := &method.QueuePurge{Queue: queue, NoWait: noWait}
	return ch.invoke("queue.purge", m, func(r method.Method) {
		if onDone == nil {
			return
		}
		if ok, good := r.(*method.QueuePurgeOk); good {
			onDone(ok.MessageCount, nil)
		} else {
			onDone(0, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone(0, err)
		}
	})
}

// QueueDelete deletes a queue and reports the number of messages it held.
func (ch *Channel) QueueDelete(queue string, ifUnused, ifEmpty, noWait bool, onDone func(messageCount uint32, err error)) error {
	m := &method.QueueDelete{Queue: queue, IfUnused: ifUnused, IfEmpty: ifEmpty, NoWait: noWait}
	return ch.invoke("queue.delete", m, func(r method.Method) {
		if onDone == nil {
			return
		}
		if ok, good := r.(*method.QueueDeleteOk); good {
			onDone(ok.MessageCount, nil)
		} else {
			onDone(0, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone(0, err)
		}
	})
}

// BasicQos sets the prefetch limits for this channel.
func (ch *Channel) BasicQos(prefetchSize uint32, prefetchCount uint16, global bool, onDone func(error)) error {
	m := &method.BasicQos{PrefetchSize: prefetchSize, PrefetchCount: prefetchCount, Global: global}
	return ch.invoke("basic.qos", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// BasicConsume registers handler under consumerTag (or a generated tag, if
// empty) once the broker confirms the subscription.
func (ch *Channel) BasicConsume(queue, consumerTag string, noLocal, noAck, exclusive, noWait bool, args wire.Table, handler ConsumerHandler, onDone func(consumerTag string, err error)) error {
	if consumerTag == "" {
		consumerTag = "ctag-" + uuid.NewString()
	}
	m := &method.BasicConsume{Queue: queue, ConsumerTag: consumerTag, NoLocal: noLocal, NoAck: noAck, Exclusive: exclusive, NoWait: noWait, Arguments: args}
	return ch.invoke("basic.consume", m, func(method.Method) {
		ch.consumers[consumerTag] = consumerRegistration{whole: handler}
		if onDone != nil {
			onDone(consumerTag, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone("", err)
		}
	})
}

// BasicConsumeStreaming is BasicConsume's non-buffering variant: h is
// invoked directly as each frame of a delivery arrives, with no whole-
// message buffering (spec.md §4.6 streaming completion mode).
func (ch *Channel) BasicConsumeStreaming(queue, consumerTag string, noLocal, noAck, exclusive, noWait bool, args wire.Table, h StreamingHandler, onDone func(consumerTag string, err error)) error {
	if consumerTag == "" {
		consumerTag = "ctag-" + uuid.NewString()
	}
	m := &method.BasicConsume{Queue: queue, ConsumerTag: consumerTag, NoLocal: noLocal, NoAck: noAck, Exclusive: exclusive, NoWait: noWait, Arguments: args}
	return ch.invoke("basic.consume", m, func(method.Method) {
		ch.consumers[consumerTag] = consumerRegistration{streaming: &h}
		if onDone != nil {
			onDone(consumerTag, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone("", err)
		}
	})
}

// BasicCancel deregisters a consumer tag.
func (ch *Channel) BasicCancel(consumerTag string, noWait bool, onDone func(error)) error {
	m := &method.BasicCancel{ConsumerTag: consumerTag, NoWait: noWait}
	return ch.invoke("basic.cancel", m, func(method.Method) {
		delete(ch.consumers, consumerTag)
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// BasicRecover asks the broker to redeliver every unacknowledged message on
// this channel, requeuing first if requeue is set, and waits for
// basic.recover-ok.
func (ch *Channel) BasicRecover(requeue bool, onDone func(error)) error {
	m := &method.BasicRecover{Requeue: requeue}
	return ch.invoke("basic.recover", m, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// BasicRecoverAsync is the deprecated fire-and-forget predecessor of
// BasicRecover: the broker never replies, so there is nothing to wait on.
func (ch *Channel) BasicRecoverAsync(requeue bool) error {
	if ch.state != channelConnected {
		return ch.closedErr()
	}
	return ch.conn.sendMethod(ch.id, &method.BasicRecoverAsync{Requeue: requeue})
}

// BasicGet polls a single message. onDone's ok flag is false for an empty
// queue (basic.get-empty).
func (ch *Channel) BasicGet(queue string, noAck bool, onDone func(msg Message, ok bool, err error)) error {
	if ch.state != channelConnected {
		err := ch.closedErr()
		if onDone != nil {
			onDone(Message{}, false, err)
		}
		return err
	}

	d := newDeferred("basic.get", deferredGet).
		OnSuccess(func(r method.Method) {
			switch rr := r.(type) {
			case *method.BasicGetOk:
				env := Envelope{
					Kind: deliveryGetOk, DeliveryTag: rr.DeliveryTag, Redelivered: rr.Redelivered,
					Exchange: rr.Exchange, RoutingKey: rr.RoutingKey, MessageCount: rr.MessageCount,
				}
				_ = ch.reassembler.beginWhole(env, func(msg Message) {
					if onDone != nil {
						onDone(msg, true, nil)
					}
				})
			case *method.BasicGetEmpty:
				if onDone != nil {
					onDone(Message{}, false, nil)
				}
			}
		}).
		OnError(func(err error) {
			if onDone != nil {
				onDone(Message{}, false, err)
			}
		})
	ch.fifo = append(ch.fifo, d)

	if err := ch.conn.sendMethod(ch.id, &method.BasicGet{Queue: queue, NoAck: noAck}); err != nil {
		ch.fifo = ch.fifo[:len(ch.fifo)-1]
		if onDone != nil {
			onDone(Message{}, false, err)
		}
		return err
	}
	return nil
}

// Publish emits basic.publish, then the content header, then zero or more
// body frames, each obeying maxFrame-8 (spec.md §4.5). Publish itself is
// asynchronous; use EnableConfirms for delivery guarantees.
func (ch *Channel) Publish(exchange, routingKey string, mandatory, immediate bool, props Properties, body []byte) error {
	if ch.state != channelConnected {
		return ch.closedErr()
	}
	if !ch.flowActive {
		return newError(ErrChannelFlowStopped, "channel %d: publish refused while channel.flow is inactive", ch.id)
	}
	if err := ch.conn.sendMethod(ch.id, &method.BasicPublish{Exchange: exchange, RoutingKey: routingKey, Mandatory: mandatory, Immediate: immediate}); err != nil {
		return err
	}
	if err := ch.conn.sendHeader(ch.id, uint64(len(body)), props); err != nil {
		return err
	}
	return ch.conn.sendBody(ch.id, body)
}

// Ack acknowledges one or more deliveries.
func (ch *Channel) Ack(deliveryTag uint64, multiple bool) error {
	return ch.conn.sendMethod(ch.id, &method.BasicAck{DeliveryTag: deliveryTag, Multiple: multiple})
}

// Nack negatively acknowledges one or more deliveries.
func (ch *Channel) Nack(deliveryTag uint64, multiple, requeue bool) error {
	return ch.conn.sendMethod(ch.id, &method.BasicNack{DeliveryTag: deliveryTag, Multiple: multiple, Requeue: requeue})
}

// Reject rejects a single delivery.
func (ch *Channel) Reject(deliveryTag uint64, requeue bool) error {
	return ch.conn.sendMethod(ch.id, &method.BasicReject{DeliveryTag: deliveryTag, Requeue: requeue})
}

// TxSelect puts the channel into transactional mode (spec.md §4.5).
func (ch *Channel) TxSelect(onDone func(error)) error {
	return ch.invoke("tx.select", &method.TxSelect{}, func(method.Method) {
		ch.inTx = true
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// TxCommit releases every publish/ack issued since the last commit/rollback.
func (ch *Channel) TxCommit(onDone func(error)) error {
	return ch.invoke("tx.commit", &method.TxCommit{}, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// TxRollback discards every publish/ack issued since the last commit/rollback.
func (ch *Channel) TxRollback(onDone func(error)) error {
	return ch.invoke("tx.rollback", &method.TxRollback{}, func(method.Method) {
		if onDone != nil {
			onDone(nil)
		}
	}, onDone)
}

// EnableConfirms puts the channel into publisher-confirm mode and returns
// the Confirmer that wraps it (spec.md §4.7). Publish through the returned
// Confirmer, not Channel.Publish, once this has resolved.
func (ch *Channel) EnableConfirms(noWait bool, onDone func(*Confirmer, error)) error {
	m := &method.ConfirmSelect{NoWait: noWait}
	return ch.invoke("confirm.select", m, func(method.Method) {
		ch.confirm = newConfirmer(func(exchange, routingKey string, mandatory, immediate bool, props Properties, body []byte) error {
			return ch.Publish(exchange, routingKey, mandatory, immediate, props, body)
		})
		if onDone != nil {
			onDone(ch.confirm, nil)
		}
	}, func(err error) {
		if onDone != nil {
			onDone(nil, err)
		}
	})
}
