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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainAuthResponse(t *testing.T) {
	a := PlainAuth{Username: "guest", Password: "guest"}
	assert.Equal(t, "PLAIN", a.Mechanism())
	assert.Equal(t, "\x00guest\x00guest", string(a.Response()))
}

func TestExternalAuthResponse(t *testing.T) {
	a := ExternalAuth{}
	assert.Equal(t, "EXTERNAL", a.Mechanism())
	assert.Empty(t, a.Response())
}

func TestPendingLimitDefaultsMatchBrokerProposal(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 131072*2047, c.pendingLimit())

	c.MaxPendingBytes = 1024
	assert.Equal(t, 1024, c.pendingLimit())
}

func TestLoadDefaultsOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vhost: /prod\nheartbeat: 30\n"), 0o600))

	base := DefaultConfig()
	got, err := LoadDefaults(path, base)
	require.NoError(t, err)

	assert.Equal(t, "/prod", got.VirtualHost)
	assert.Equal(t, uint16(30), got.Heartbeat)
	assert.Equal(t, base.Auth, got.Auth) // untouched field preserved
}
