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

/*
Package xsite maps URL paths to content through a tree of locations and serves the result over HTTP.

Locations

A Location describes how one URL path or subtree is handled: a page rendered from a template, a static resource, a
redirect, a removed ("gone") page or an arbitrary http.Handler. Locations form a tree. Children inherit the resource
directory, viewer, language and supertitle of their parents, relative paths are resolved against the nearest ancestor
path and sitemap priorities decay by 0.1 per level. Compile resolves and validates a tree once; the compiled tree is
read-only.

Routing

A Router is built from the flattened, compiled tree. Exact paths are looked up first, then the longest subtree that
contains the request path. Aliases of pages redirect to the primary path while aliases of redirects and gone pages
respond the same way as the path itself.

Sites

A Site owns the template file system, the widget registry and the current location tree. Build and Reload compile a
fresh tree and publish it together with its router in one atomic step, so requests never observe a half-built state
and a failed reload keeps the previous tree. Pages are rendered by a Viewer; the default TemplatePage expands custom
elements of the location's template through the widget package.

Servers

Each Instance defines a configuration section (default `web`) holding an array of ServerConfig's. Every ServerConfig
hosts one or more sites, defined by SiteConfig's and built by the SiteFactory registered for their binding, and
listens on one or more BindPointConfig's. Sites sharing a server are selected by host name through HostDemuxFactory.
*/
package xsite
