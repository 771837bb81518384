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
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Address is a parsed AMQP connection URI (spec.md §6):
// {amqp|amqps}://[user[:pass]@]host[:port][/vhost][?k1=v1&k2=v2...].
// Comparison is case-insensitive on Host only; every other field compares
// verbatim (spec.md §9's resolution of the "inverted vhost comparison" open
// question: the documented total order is (Secure, Login, Host-lower, Port,
// Vhost, Options), lexicographic).
type Address struct {
	Secure   bool
	Login    string
	Password string
	Host     string
	Port     int
	Vhost    string
	Options  map[string]string
}

const (
	defaultPort       = 5672
	defaultSecurePort = 5671
)

// ParseAddress parses an AMQP connection URI.
func ParseAddress(uri string) (Address, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Address{}, errors.Wrap(err, "address: malformed uri")
	}

	var a Address
	switch strings.ToLower(u.Scheme) {
	case "amqp":
		a.Secure = false
	case "amqps":
		a.Secure = true
	default:
		return Address{}, errors.Errorf("address: unrecognised scheme %q", u.Scheme)
	}

	if u.User != nil {
		a.Login = u.User.Username()
		a.Password, _ = u.User.Password()
	}

	a.Host = u.Hostname()
	if a.Host == "" {
		return Address{}, errors.New("address: missing host")
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Address{}, errors.Wrap(err, "address: malformed port")
		}
		a.Port = port
	} else if a.Secure {
		a.Port = defaultSecurePort
	} else {
		a.Port = defaultPort
	}

	a.Vhost = strings.TrimPrefix(u.Path, "/")
	if a.Vhost == "" {
		a.Vhost = "/"
	}

	if q := u.Query(); len(q) > 0 {
		a.Options = make(map[string]string, len(q))
		for k, v := range q {
			if len(v) > 0 {
				a.Options[strings.ToLower(k)] = v[0]
			}
		}
	}
	return a, nil
}

func (a Address) optionsKey() string {
	if len(a.Options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a.Options))
	for k := range a.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(a.Options[k])
		b.WriteByte('&')
	}
	return b.String()
}

// Less implements the total order spec.md §9 specifies:
// (Secure, Login, Host-lower, Port, Vhost, Options) lexicographic.
func (a Address) Less(b Address) bool {
	if a.Secure != b.Secure {
		return !a.Secure
	}
	if a.Login != b.Login {
		return a.Login < b.Login
	}
	ah, bh := strings.ToLower(a.Host), strings.ToLower(b.Host)
	if ah != bh {
		return ah < bh
	}
	if a.Port != b.Port {
		return a.Port < b.Port
	}
	if a.Vhost != b.Vhost {
		return a.Vhost < b.Vhost
	}
	return a.optionsKey() < b.optionsKey()
}

// Equal reports whether a and b are identical under Less's total order.
func (a Address) Equal(b Address) bool {
	return !a.Less(b) && !b.Less(a)
}

// ConnectionOrder selects how OrderAddresses arranges a list of candidate
// brokers before the caller attempts them in sequence (spec.md §6
// "connection_order").
type ConnectionOrder string

const (
	OrderStandard   ConnectionOrder = "standard"
	OrderReverse    ConnectionOrder = "reverse"
	OrderRandom     ConnectionOrder = "random"
	OrderAscending  ConnectionOrder = "ascending"
	OrderDescending ConnectionOrder = "descending"
)

// OrderAddresses returns a copy of addrs arranged per mode. OrderRandom
// requires an explicit *rand.Rand so shuffling is reproducible in tests and
// never depends on hidden global state; google/uuid is deliberately not
// reused here; it grounds consumer-tag generation in channel.go, which is an
// unrelated identifier-uniqueness concern, not a shuffle seed.
func OrderAddresses(addrs []Address, mode ConnectionOrder, rnd *rand.Rand) []Address {
	out := make([]Address, len(addrs))
	copy(out, addrs)

	switch mode {
	case OrderReverse:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	case OrderAscending:
		sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	case OrderDescending:
		sort.Slice(out, func(i, j int) bool { return out[j].Less(out[i]) })
	case OrderRandom:
		if rnd != nil {
			rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		}
	case OrderStandard, "":
		// no-op: caller's original order
	}
	return out
}
