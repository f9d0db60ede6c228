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
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type route struct {
	location *Location
	handler  http.Handler
}

// Router dispatches requests to compiled locations. Exact paths are matched first, then the longest registered
// subtree containing the path. Unmatched requests go to the default handler chain, which ends in a 404. A Router is
// immutable once built and safe for concurrent use.
type Router struct {
	DefaultHttpHandlerProviderImpl
	paths     map[string]*route
	subtrees  map[string]*route
	resources map[string]string
}

var _ DefaultHttpHandlerProvider = &Router{}

// NewRouter builds the dispatch tables from compiled locations. Aliases of pages, handlers and resources redirect to
// the location's path. Aliases of redirects and gone locations answer the same way as the path itself. Two
// locations claiming the same path or subtree yield a *DuplicateError.
func NewRouter(locations []*Location) (*Router, error) {
	router := &Router{
		paths:     map[string]*route{},
		subtrees:  map[string]*route{},
		resources: map[string]string{},
	}

	for _, location := range locations {
		if location.virtual {
			continue
		}
		if !location.compiled {
			return nil, locationError(location, errors.New("location is not compiled"))
		}

		handler, err := router.handlerFor(location)
		if err != nil {
			return nil, locationError(location, err)
		}

		if location.subtree != "" {
			if err = router.add(true, location.subtree, &route{location, handler}); err != nil {
				return nil, err
			}
			continue
		}

		if err = router.add(false, location.path, &route{location, handler}); err != nil {
			return nil, err
		}
		aliasHandler := handler
		if !duplicatesAliases(location.mapping) {
			aliasHandler = newRedirectHandler(location.path, http.StatusMovedPermanently)
		}
		for _, alias := range location.aliases {
			if err = router.add(false, alias, &route{location, aliasHandler}); err != nil {
				return nil, err
			}
		}
	}

	return router, nil
}

func (router *Router) add(subtree bool, key string, r *route) error {
	table := router.paths
	if subtree {
		table = router.subtrees
	}
	if existing, found := table[key]; found {
		return &DuplicateError{
			Path:    key,
			Subtree: subtree,
			First:   existing.location,
			Second:  r.location,
		}
	}
	table[key] = r
	return nil
}

func (router *Router) handlerFor(location *Location) (http.Handler, error) {
	site := location.site
	switch mapping := location.mapping.(type) {
	case PageMapping:
		return &pageHandler{location: location, viewer: mapping.Viewer, status: http.StatusOK}, nil
	case ResourceMapping:
		handler, err := newResourceHandler(site.FS(), mapping.Path)
		if err != nil {
			return nil, err
		}
		router.resources[location.path] = handler.hash
		return handler, nil
	case RedirectMapping:
		return newRedirectHandler(mapping.Target, mapping.Status), nil
	case RewriteMapping:
		return newRewriteHandler(mapping), nil
	case GoneMapping:
		return &pageHandler{location: location, viewer: site.GoneViewer(), status: http.StatusGone}, nil
	case HandlerMapping:
		return mapping.Handler, nil
	default:
		return nil, ErrMissingMapping
	}
}

func (router *Router) lookup(path string) *route {
	if r, found := router.paths[path]; found {
		return r
	}
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	subtree := path
	if !strings.HasSuffix(subtree, "/") {
		subtree = subtree[:strings.LastIndex(subtree, "/")+1]
	}
	for {
		if r, found := router.subtrees[subtree]; found {
			return r
		}
		if subtree == "/" {
			return nil
		}
		subtree = subtree[:strings.LastIndex(subtree[:len(subtree)-1], "/")+1]
	}
}

// Route returns the handler for a decoded URL path. Query strings are not part of the path.
func (router *Router) Route(path string) http.Handler {
	if r := router.lookup(path); r != nil {
		return r.handler
	}
	return router.notFound()
}

// Locate returns the location serving path or nil if nothing matches.
func (router *Router) Locate(path string) *Location {
	if r := router.lookup(path); r != nil {
		return r.location
	}
	return nil
}

// ResourceHash returns the content hash of the static resource mapped to path.
func (router *Router) ResourceHash(path string) (string, bool) {
	hash, found := router.resources[path]
	return hash, found
}

func (router *Router) notFound() http.Handler {
	if handler := router.GetDefaultHttpHandler(); handler != nil {
		return handler
	}
	return http.HandlerFunc(notFoundHandler)
}

// ServeHTTP routes the request by its URL path. The matched location is stored on the request context under
// LocationContextKey.
func (router *Router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r := router.lookup(request.URL.Path)
	if r == nil {
		router.notFound().ServeHTTP(writer, request)
		return
	}
	ctx := context.WithValue(request.Context(), LocationContextKey, r.location)
	r.handler.ServeHTTP(writer, request.WithContext(ctx))
}

// Print writes the routing table sorted by path, one route per line.
func (router *Router) Print(w io.Writer) error {
	type line struct{ key, kind, location string }
	var lines []line
	for path, r := range router.paths {
		kind := r.location.mapping.Kind()
		if path != r.location.path {
			kind = "alias"
		}
		lines = append(lines, line{path, kind, r.location.String()})
	}
	for subtree, r := range router.subtrees {
		lines = append(lines, line{subtree + "*", r.location.mapping.Kind(), r.location.String()})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].key < lines[j].key })
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-40s %-10s %s\n", l.key, l.kind, l.location); err != nil {
			return err
		}
	}
	return nil
}
