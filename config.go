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

	"github.com/packetd/camqp/confengine"
	"github.com/packetd/camqp/logger"
)

// Authentication is the SASL collaborator (spec.md §4.4): the kernel asks it
// for a mechanism name and a response payload and does not hash, encode, or
// canonicalise either.
type Authentication interface {
	Mechanism() string
	Response() []byte
}

// PlainAuth implements SASL PLAIN: the response is "\0user\0pass".
type PlainAuth struct {
	Username string
	Password string
}

func (a PlainAuth) Mechanism() string { return "PLAIN" }

func (a PlainAuth) Response() []byte {
	return []byte(fmt.Sprintf("\x00%s\x00%s", a.Username, a.Password))
}

// ExternalAuth implements SASL EXTERNAL: an empty response, identity is
// established out of band (e.g. a client TLS certificate).
type ExternalAuth struct{}

func (ExternalAuth) Mechanism() string { return "EXTERNAL" }
func (ExternalAuth) Response() []byte  { return nil }

// Config bounds the tuning negotiation and supplies the vhost/auth inputs
// to the Handshake→Connected transition (spec.md §4.4). Zero values mean
// "no preference": the kernel takes the broker's proposal as-is for that
// field (min(client, server) degenerates to server when client is 0).
type Config struct {
	VirtualHost string
	ChannelMax  uint16
	FrameMax    uint32
	Heartbeat   uint16
	Auth        Authentication

	// MaxPendingBytes bounds the pre-Connected send queue (spec.md §4.4).
	// Zero or negative means FrameMax*ChannelMax, with 131072 standing in
	// for an unset FrameMax and 2047 for an unset ChannelMax.
	MaxPendingBytes int

	Logger logger.Interface
}

// DefaultConfig returns the zero-preference configuration: vhost "/",
// guest/guest PLAIN auth, and no client-side caps on channel-max/frame-max/
// heartbeat (the broker's proposal wins outright).
func DefaultConfig() Config {
	return Config{
		VirtualHost: "/",
		Auth:        PlainAuth{Username: "guest", Password: "guest"},
		Logger:      logger.Nop(),
	}
}

func (c Config) logger() logger.Interface {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}

func (c Config) pendingLimit() int {
	if c.MaxPendingBytes > 0 {
		return c.MaxPendingBytes
	}
	fm, cm := c.FrameMax, uint32(c.ChannelMax)
	if fm == 0 {
		fm = 131072
	}
	if cm == 0 {
		cm = 2047
	}
	return int(fm * cm)
}

// tuningConfig captures the fields LoadConfigPath can override via YAML,
// mirroring confengine's Unpack-based loading convention.
type tuningConfig struct {
	VirtualHost string `config:"vhost"`
	ChannelMax  uint16 `config:"channel_max"`
	FrameMax    uint32 `config:"frame_max"`
	Heartbeat   uint16 `config:"heartbeat"`
}

// LoadDefaults reads tuning defaults (vhost/channel_max/frame_max/heartbeat)
// from a YAML file via confengine/go-ucfg and overlays them onto base,
// leaving fields absent from the file untouched.
func LoadDefaults(path string, base Config) (Config, error) {
	eng, err := confengine.LoadConfigPath(path)
	if err != nil {
		return base, err
	}

	var tc tuningConfig
	if err := eng.Unpack(&tc); err != nil {
		return base, err
	}

	if tc.VirtualHost != "" {
		base.VirtualHost = tc.VirtualHost
	}
	if tc.ChannelMax != 0 {
		base.ChannelMax = tc.ChannelMax
	}
	if tc.FrameMax != 0 {
		base.FrameMax = tc.FrameMax
	}
	if tc.Heartbeat != 0 {
		base.Heartbeat = tc.Heartbeat
	}
	return base, nil
}
