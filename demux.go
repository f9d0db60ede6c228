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

package xsite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/michaelquigley/pfxlog"
)

// DemuxFactory generates a http.Handler that interrogates a http.Request and routes it to one of several SiteHandler
// instances. The selected SiteHandler is added to the context with a key of SiteContextKey.
type DemuxFactory interface {
	Build(handlers []SiteHandler) (DemuxHandler, error)
}

type DemuxHandler interface {
	DefaultHttpHandlerProvider
	http.Handler
}

type DemuxHandlerImpl struct {
	DefaultHttpHandlerProviderImpl
	Handler http.Handler
}

var _ DemuxHandler = &DemuxHandlerImpl{}

func (d *DemuxHandlerImpl) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	d.Handler.ServeHTTP(writer, request)
}

// HostDemuxFactory is a DemuxFactory that routes http.Request requests to a SiteHandler by the request's host name.
// Requests for unknown hosts go to the default SiteHandler.
type HostDemuxFactory struct {
	DefaultHttpHandlerProviderImpl
}

var _ DemuxFactory = &HostDemuxFactory{}

// Build performs SiteHandler selection based on host names. A host claimed by two sites is an error.
func (factory *HostDemuxFactory) Build(handlers []SiteHandler) (DemuxHandler, error) {
	defaultSite, err := getDefault(handlers)

	if err != nil {
		return nil, err
	}

	handlerMap := map[string]SiteHandler{}

	for _, handler := range handlers {
		for _, host := range handler.Hosts() {
			host = normalizeHost(host)
			if existing, ok := handlerMap[host]; ok {
				return nil, fmt.Errorf("duplicate host [%s] detected for both bindings [%s] and [%s]", host, handler.Binding(), existing.Binding())
			}
			handlerMap[host] = handler
		}
	}

	demux := &DemuxHandlerImpl{}
	demux.Handler = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		handler, found := handlerMap[normalizeHost(request.Host)]
		if !found {
			handler = defaultSite
		}

		if handler != nil {
			//store the SiteHandler on the request context, useful for logging by downstream http handlers
			ctx := context.WithValue(request.Context(), SiteContextKey, handler)
			handler.ServeHTTP(writer, request.WithContext(ctx))
			return
		}

		if defaultHttpHandler := demux.GetDefaultHttpHandler(); defaultHttpHandler != nil {
			defaultHttpHandler.ServeHTTP(writer, request)
			return
		}

		notFoundHandler(writer, request)
	})

	for _, handler := range handlers {
		if site := handler.Site(); site != nil {
			site.SetParent(demux)
		}
	}

	return demux, nil
}

// normalizeHost lower cases a host and strips the port.
func normalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// getDefault determines from a slice of SiteHandler which will act as the default site
// should a request not match any host. The default is determined in one of two ways:
// 1) a handler declares itself the default
// 2) no handler declares itself the default
//
// If a handler declares itself the default, only one is allowed to do so and if another
// handler does so, it will generate an error. If no handler declares itself, the
// last handler will be used.
func getDefault(handlers []SiteHandler) (SiteHandler, error) {
	var defaults []SiteHandler

	if len(handlers) == 0 {
		return nil, errors.New("no handlers provided")
	}

	for _, handler := range handlers {
		if handler.IsDefault() {
			defaults = append(defaults, handler)
		}
	}

	if len(defaults) == 0 {
		lastHandler := handlers[len(handlers)-1]
		pfxlog.Logger().Warnf("no default sites were found, using the last site [Binding: %s, Type: %T] as the default", lastHandler.Binding(), lastHandler)
		return lastHandler, nil
	}

	if len(defaults) > 1 {
		var names []string
		for _, handler := range defaults {
			name := fmt.Sprintf("[Binding: %s, Type: %T]", handler.Binding(), handler)
			names = append(names, name)
		}

		strNames := strings.Join(names, ",")
		return nil, errors.New("too many default sites found, ensure that only one site is marked as the default: " + strNames)
	}

	return defaults[0], nil
}
