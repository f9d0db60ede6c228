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
	"net/http"
	"net/url"
)

// Mapping selects the request handler of a location. Every non-virtual location carries exactly one Mapping.
type Mapping interface {
	// Kind names the mapping in logs and route listings.
	Kind() string
	mapping()
}

// PageMapping renders the location through a Viewer. A nil Viewer is replaced with the viewer inherited from the
// location's ancestors or the site during compilation.
type PageMapping struct {
	Viewer Viewer
}

func (PageMapping) Kind() string { return "page" }
func (PageMapping) mapping()     {}

// ResourceMapping serves a static file as is. Path is resolved against the location's resource directory.
type ResourceMapping struct {
	Path string
}

func (ResourceMapping) Kind() string { return "resource" }
func (ResourceMapping) mapping()     {}

// RedirectMapping redirects to a fixed URL, which may be relative.
type RedirectMapping struct {
	Target string
	Status int
}

func (RedirectMapping) Kind() string { return "redirect" }
func (RedirectMapping) mapping()     {}

// RewriteMapping computes the redirect target from the request URL.
type RewriteMapping struct {
	Rewrite func(u *url.URL) string
	Status  int
}

func (RewriteMapping) Kind() string { return "rewrite" }
func (RewriteMapping) mapping()     {}

// GoneMapping answers 410 through the site's gone page.
type GoneMapping struct{}

func (GoneMapping) Kind() string { return "gone" }
func (GoneMapping) mapping()     {}

// HandlerMapping delegates to an arbitrary http.Handler.
type HandlerMapping struct {
	Handler http.Handler
}

func (HandlerMapping) Kind() string { return "handler" }
func (HandlerMapping) mapping()     {}

var redirectStatuses = []int{
	http.StatusMovedPermanently,
	http.StatusFound,
	http.StatusSeeOther,
	http.StatusTemporaryRedirect,
	http.StatusPermanentRedirect,
}

func validRedirectStatus(status int) bool {
	for _, candidate := range redirectStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// duplicatesAliases reports whether aliases of a location with this mapping serve the same response as its path.
// Aliases of everything else redirect to the path.
func duplicatesAliases(mapping Mapping) bool {
	switch mapping.(type) {
	case RedirectMapping, RewriteMapping, GoneMapping:
		return true
	default:
		return false
	}
}
