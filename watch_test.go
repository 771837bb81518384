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

import "testing"

func TestMonitorSurvivesSelfDestruction(t *testing.T) {
	w := &Watchable{}
	m := w.Watch()
	if m.Dead() {
		t.Fatal("monitor reports dead before destroy")
	}

	w.destroy()
	if !m.Dead() {
		t.Fatal("monitor did not observe destroy")
	}
}

func TestReentrantFanOutStopsAfterDestruction(t *testing.T) {
	w := &Watchable{}
	var ran []int
	callbacks := []func(){
		func() { ran = append(ran, 1) },
		func() { ran = append(ran, 2); w.destroy() },
		func() { ran = append(ran, 3) },
	}

	m := w.Watch()
	for _, cb := range callbacks {
		if m.Dead() {
			break
		}
		cb()
	}

	if len(ran) != 2 {
		t.Fatalf("expected fan-out to stop after destruction, ran=%v", ran)
	}
}
