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

// names maps each registered (class, method) id pair to its dotted
// "class.method" name, the same vocabulary ReplyPairs uses. Populated once
// at first use from the literal table in buildNames, which lists every
// method by hand; a newly registered method needs its own entry there.
var names map[key]string

func buildNames() map[key]string {
	return map[key]string{
		{ClassConnection, 10}: "connection.start",
		{ClassConnection, 11}: "connection.start-ok",
		{ClassConnection, 20}: "connection.secure",
		{ClassConnection, 21}: "connection.secure-ok",
		{ClassConnection, 30}: "connection.tune",
		{ClassConnection, 31}: "connection.tune-ok",
		{ClassConnection, 40}: "connection.open",
		{ClassConnection, 41}: "connection.open-ok",
		{ClassConnection, 50}: "connection.close",
		{ClassConnection, 51}: "connection.close-ok",
		{ClassConnection, 60}: "connection.blocked",
		{ClassConnection, 61}: "connection.unblocked",

		{ClassChannel, 10}: "channel.open",
		{ClassChannel, 11}: "channel.open-ok",
		{ClassChannel, 20}: "channel.flow",
		{ClassChannel, 21}: "channel.flow-ok",
		{ClassChannel, 40}: "channel.close",
		{ClassChannel, 41}: "channel.close-ok",

		{ClassExchange, 10}: "exchange.declare",
		{ClassExchange, 11}: "exchange.declare-ok",
		{ClassExchange, 20}: "exchange.delete",
		{ClassExchange, 21}: "exchange.delete-ok",
		{ClassExchange, 30}: "exchange.bind",
		{ClassExchange, 31}: "exchange.bind-ok",
		{ClassExchange, 40}: "exchange.unbind",
		{ClassExchange, 51}: "exchange.unbind-ok",

		{ClassQueue, 10}: "queue.declare",
		{ClassQueue, 11}: "queue.declare-ok",
		{ClassQueue, 20}: "queue.bind",
		{ClassQueue, 21}: "queue.bind-ok",
		{ClassQueue, 50}: "queue.unbind",
		{ClassQueue, 51}: "queue.unbind-ok",
		{ClassQueue, 30}: "queue.purge",
		{ClassQueue, 31}: "queue.purge-ok",
		{ClassQueue, 40}: "queue.delete",
		{ClassQueue, 41}: "queue.delete-ok",

		{ClassBasic, 10}:  "basic.qos",
		{ClassBasic, 11}:  "basic.qos-ok",
		{ClassBasic, 20}:  "basic.consume",
		{ClassBasic, 21}:  "basic.consume-ok",
		{ClassBasic, 30}:  "basic.cancel",
		{ClassBasic, 31}:  "basic.cancel-ok",
		{ClassBasic, 40}:  "basic.publish",
		{ClassBasic, 50}:  "basic.return",
		{ClassBasic, 60}:  "basic.deliver",
		{ClassBasic, 70}:  "basic.get",
		{ClassBasic, 71}:  "basic.get-ok",
		{ClassBasic, 72}:  "basic.get-empty",
		{ClassBasic, 80}:  "basic.ack",
		{ClassBasic, 90}:  "basic.reject",
		{ClassBasic, 100}: "basic.recover-async",
		{ClassBasic, 110}: "basic.recover",
		{ClassBasic, 111}: "basic.recover-ok",
		{ClassBasic, 120}: "basic.nack",

		{ClassTx, 10}: "tx.select",
		{ClassTx, 11}: "tx.select-ok",
		{ClassTx, 20}: "tx.commit",
		{ClassTx, 21}: "tx.commit-ok",
		{ClassTx, 30}: "tx.rollback",
		{ClassTx, 31}: "tx.rollback-ok",

		{ClassConfirm, 10}: "confirm.select",
		{ClassConfirm, 11}: "confirm.select-ok",
	}
}

// Name returns the dotted "class.method" name for m, or "" if unrecognised.
func Name(m Method) string {
	if names == nil {
		names = buildNames()
	}
	return names[key{m.ClassID(), m.MethodID()}]
}
