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

// Package fragment provides hierarchical naming scopes. A Scope yields stable element ids for widgets and key
// paths into preference storage, and collects content written by widgets while they render.
package fragment

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/openziti/xsite/dom"
	"github.com/pkg/errors"
)

// Scope is an immutable naming context. Its meaning depends on which associations are present:
//
//   - page: location and user (optionally a page instance id)
//   - user: user only
//   - location: location only
//   - global: neither location nor user
//   - temporary: no path at all, participates in no persistent storage
//
// Every scope owns a content sink. Nesting creates a scope with a fresh, empty sink.
type Scope struct {
	site     *url.URL
	location string
	user     string
	page     string
	path     []string
	sink     *dom.Fragment
}

func newScope(site *url.URL, location, user, page string, path []string) *Scope {
	return &Scope{site: site, location: location, user: user, page: page, path: path, sink: &dom.Fragment{}}
}

// Temporary returns a scope used when no ambient scope is available. Nesting a temporary scope yields another
// temporary scope and its preferences are never persisted.
func Temporary() *Scope {
	return newScope(nil, "", "", "", nil)
}

func Global() *Scope {
	return newScope(nil, "", "", "", []string{})
}

func ForSite(site *url.URL) *Scope {
	return newScope(site, "", "", "", []string{})
}

// ForLocation returns a scope shared by all users viewing the location on the site.
func ForLocation(site *url.URL, location string) *Scope {
	return newScope(site, location, "", "", []string{})
}

func ForUser(site *url.URL, user string) *Scope {
	return newScope(site, "", user, "", []string{})
}

// ForPage returns a scope bound to one user on one location. The page id identifies a single page view and may be
// empty.
func ForPage(site *url.URL, location, user, page string) *Scope {
	return newScope(site, location, user, page, []string{})
}

// ForPackage returns a global scope nested by the segments of a Go import path.
func ForPackage(pkgPath string) *Scope {
	scope := Global()
	for _, segment := range strings.Split(pkgPath, "/") {
		if segment != "" {
			scope.path = append(scope.path, segment)
		}
	}
	return scope
}

// ForType returns a global scope nested by the package path and name of the value's type.
func ForType(v interface{}) *Scope {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return Global()
	}
	scope := ForPackage(t.PkgPath())
	if t.Name() != "" {
		scope.path = append(scope.path, t.Name())
	}
	return scope
}

func (scope *Scope) Site() *url.URL {
	return scope.site
}

func (scope *Scope) Location() string {
	return scope.location
}

func (scope *Scope) User() string {
	return scope.user
}

func (scope *Scope) Page() string {
	return scope.page
}

// Path returns a copy of the segment path. Temporary scopes return nil.
func (scope *Scope) Path() []string {
	if scope.path == nil {
		return nil
	}
	return append([]string{}, scope.path...)
}

func (scope *Scope) IsTemporary() bool {
	return scope.path == nil
}

// Nest returns a child scope with one more path segment. Names may be arbitrary non-empty text.
func (scope *Scope) Nest(name string) (*Scope, error) {
	if name == "" {
		return nil, errors.New("fragment name must not be empty")
	}
	if scope.path == nil {
		return newScope(scope.site, scope.location, scope.user, scope.page, nil), nil
	}
	path := make([]string, len(scope.path), len(scope.path)+1)
	copy(path, scope.path)
	return newScope(scope.site, scope.location, scope.user, scope.page, append(path, name)), nil
}

// NestPath nests once per name.
func (scope *Scope) NestPath(names ...string) (*Scope, error) {
	current := scope
	for _, name := range names {
		var err error
		if current, err = current.Nest(name); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// MustNest is NestPath for names known to be valid. It panics on empty names.
func (scope *Scope) MustNest(names ...string) *Scope {
	nested, err := scope.NestPath(names...)
	if err != nil {
		panic(err)
	}
	return nested
}

// ForUserOnly drops the location and page, keeping the path.
func (scope *Scope) ForUserOnly() *Scope {
	return newScope(scope.site, "", scope.user, "", scope.path)
}

// ForLocationOnly drops the user and page, keeping the path.
func (scope *Scope) ForLocationOnly() *Scope {
	return newScope(scope.site, scope.location, "", "", scope.path)
}

// Key identifies a scope. Equal keys denote the same scope.
type Key struct {
	Site      string
	Location  string
	User      string
	Page      string
	Path      string
	Temporary bool
}

func (scope *Scope) Key() Key {
	key := Key{
		Location:  scope.location,
		User:      scope.user,
		Page:      scope.page,
		Temporary: scope.path == nil,
	}
	if scope.site != nil {
		key.Site = scope.site.String()
	}
	if scope.path != nil {
		key.Path = scope.ElementID()
	}
	return key
}

// Add appends content to the scope's sink.
func (scope *Scope) Add(children ...dom.Content) *Scope {
	scope.sink.Add(children...)
	return scope
}

// AddText appends a text leaf to the scope's sink.
func (scope *Scope) AddText(text string) *Scope {
	scope.sink.AddText(text)
	return scope
}

// Content returns the sink. The fragment is live and reflects later additions.
func (scope *Scope) Content() *dom.Fragment {
	return scope.sink
}

// Element returns the only element written to the sink.
func (scope *Scope) Element() (*dom.Element, error) {
	if len(scope.sink.Children) != 1 {
		return nil, errors.Errorf("expected exactly one element in fragment [%s], found %d nodes", scope.ElementID(), len(scope.sink.Children))
	}
	el, ok := scope.sink.Children[0].(*dom.Element)
	if !ok {
		return nil, errors.Errorf("fragment [%s] contains non-element content", scope.ElementID())
	}
	return el, nil
}

func (scope *Scope) String() string {
	builder := &strings.Builder{}
	switch {
	case scope.path == nil:
		builder.WriteString("temporary")
	case scope.location != "" && scope.user != "":
		builder.WriteString("page")
	case scope.location != "":
		builder.WriteString("location")
	case scope.user != "":
		builder.WriteString("user")
	default:
		builder.WriteString("global")
	}
	if scope.location != "" {
		builder.WriteString(" " + scope.location)
	}
	if scope.path != nil {
		builder.WriteString(" #" + scope.ElementID())
	}
	return builder.String()
}
