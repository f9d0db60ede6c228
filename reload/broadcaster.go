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

package reload

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xsite/dom"
)

// Path is where the Broadcaster is mounted.
const Path = "/xsite/reload"

// Broadcaster keeps websocket connections from open pages and tells them to reload.
type Broadcaster struct {
	lock    sync.Mutex
	clients map[*websocket.Conn]struct{}
	timeout time.Duration
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: map[*websocket.Conn]struct{}{},
		timeout: 5 * time.Second,
	}
}

func (b *Broadcaster) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	conn, err := websocket.Accept(writer, request, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		pfxlog.Logger().WithError(err).Debug("failed to accept reload connection")
		return
	}

	ctx := conn.CloseRead(request.Context())
	b.lock.Lock()
	b.clients[conn] = struct{}{}
	b.lock.Unlock()

	<-ctx.Done()

	b.lock.Lock()
	delete(b.clients, conn)
	b.lock.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// Clients returns the number of connected pages.
func (b *Broadcaster) Clients() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.clients)
}

// Broadcast sends message to every connected page and returns the number of successful deliveries.
func (b *Broadcaster) Broadcast(ctx context.Context, message string) int {
	b.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.lock.Unlock()

	delivered := 0
	for _, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, b.timeout)
		err := conn.Write(writeCtx, websocket.MessageText, []byte(message))
		cancel()
		if err != nil {
			pfxlog.Logger().WithError(err).Debug("failed to notify page of reload")
			continue
		}
		delivered++
	}
	return delivered
}

// Close disconnects all pages.
func (b *Broadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for conn := range b.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	b.clients = map[*websocket.Conn]struct{}{}
}

const script = `(function(){var s=location.protocol==="https:"?"wss://":"ws://";` +
	`var w=new WebSocket(s+location.host+"` + Path + `");w.onmessage=function(){location.reload();};})();`

// Script returns the element that connects a page to the Broadcaster.
func Script() *dom.Element {
	return dom.NewElement("script").AddText(script)
}
