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

import "context"

type ContextKey string

const (
	SiteContextKey     = ContextKey("xsite.Site.ContextKey")
	ServerContextKey   = ContextKey("xsite.Server.ContextKey")
	LocationContextKey = ContextKey("xsite.Location.ContextKey")
)

// SiteHandlerFromRequestContext is a utility function to retrieve the SiteHandler the host demux http.Handler
// deferred to from the http.Request context.
func SiteHandlerFromRequestContext(ctx context.Context) SiteHandler {
	if val := ctx.Value(SiteContextKey); val != nil {
		if handler, ok := val.(SiteHandler); ok {
			return handler
		}
	}
	return nil
}

// ServerContextFromRequestContext is a utility function to retrieve a *ServerContext reference from the http.Request
// that provides access to configuration like BindPointConfig, ServerConfig, and InstanceConfig values.
func ServerContextFromRequestContext(ctx context.Context) *ServerContext {
	if val := ctx.Value(ServerContextKey); val != nil {
		if serverContext, ok := val.(*ServerContext); ok {
			return serverContext
		}
	}
	return nil
}

// LocationFromRequestContext returns the location the Router matched for the request.
func LocationFromRequestContext(ctx context.Context) *Location {
	if val := ctx.Value(LocationContextKey); val != nil {
		if location, ok := val.(*Location); ok {
			return location
		}
	}
	return nil
}
