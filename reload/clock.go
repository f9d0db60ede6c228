/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package reload supports live reloading during development: a file watcher detecting template changes, a
// websocket broadcaster telling open pages to reload, and a clock producing cache busters.
package reload

import (
	"strconv"
	"time"

	"github.com/openziti/foundation/v2/concurrenz"
)

// Clock produces timestamp cache busters. Outside development the buster is fixed at launch time, so resources
// busted by timestamp alone are still refreshed on restart.
type Clock struct {
	launch      time.Time
	refreshed   concurrenz.AtomicValue[time.Time]
	development bool
}

func NewClock(development bool) *Clock {
	clock := &Clock{launch: time.Now(), development: development}
	clock.refreshed.Store(clock.launch)
	return clock
}

// Touch records a refresh. It has no visible effect outside development.
func (clock *Clock) Touch() {
	clock.refreshed.Store(time.Now())
}

// Refreshed returns the time of the last refresh, initially the launch time.
func (clock *Clock) Refreshed() time.Time {
	if !clock.development {
		return clock.launch
	}
	return clock.refreshed.Load()
}

// Buster returns a query string of the form "?v=<millis>".
func (clock *Clock) Buster() string {
	return "?v=" + strconv.FormatInt(clock.Refreshed().UnixMilli(), 10)
}
