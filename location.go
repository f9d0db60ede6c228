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
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/openziti/xsite/dom"
	"github.com/pkg/errors"
)

type priorityState int

const (
	priorityInherited priorityState = iota
	prioritySet
	priorityDisabled
)

// Location describes how one URL path or subtree maps to content. Locations form a tree that is configured with the
// builder methods and then resolved once by Compile. Compiled locations are read-only and builder methods panic on
// them.
type Location struct {
	parent   *Location
	children []*Location
	site     *Site
	compiled bool

	key       string
	path      string
	subtree   string
	aliases   []string
	virtual   bool
	template  string
	resources string

	priority      float64
	priorityState priorityState

	title       string
	supertitle  string
	extitle     string
	breadcrumb  string
	description string
	language    string
	published   time.Time
	updated     time.Time
	lead        *dom.Fragment

	viewer   Viewer
	mapping  Mapping
	mappings int

	// first builder argument error, reported by Compile
	invalid error
}

func NewLocation() *Location {
	return &Location{}
}

func (location *Location) modify() {
	if location.compiled {
		panic(fmt.Sprintf("location [%s] is compiled and cannot be modified", location))
	}
}

func (location *Location) fail(err error) {
	if location.invalid == nil {
		location.invalid = err
	}
}

func (location *Location) setMapping(mapping Mapping) *Location {
	location.modify()
	location.mapping = mapping
	location.mappings++
	return location
}

// Add appends children.
func (location *Location) Add(children ...*Location) *Location {
	location.modify()
	for _, child := range children {
		if child == nil {
			continue
		}
		child.modify()
		child.parent = location
		location.children = append(location.children, child)
	}
	return location
}

// WithKey sets the key under which children declared by templates are merged into explicitly configured children.
func (location *Location) WithKey(key string) *Location {
	location.modify()
	location.key = key
	return location
}

// WithPath sets the exact URL path. Relative paths are resolved against the nearest ancestor path.
func (location *Location) WithPath(path string) *Location {
	location.modify()
	location.path = path
	return location
}

// WithSubtree maps every path below the prefix. The prefix must start and end with '/'.
func (location *Location) WithSubtree(subtree string) *Location {
	location.modify()
	if !strings.HasPrefix(subtree, "/") || !strings.HasSuffix(subtree, "/") {
		location.fail(errors.Wrapf(ErrInvalidSubtree, "subtree [%s]", subtree))
	}
	location.subtree = subtree
	return location
}

// WithAlias adds a path that leads to the same content. Relative aliases are resolved against the location's path.
func (location *Location) WithAlias(aliases ...string) *Location {
	location.modify()
	for _, alias := range aliases {
		if !containsString(location.aliases, alias) {
			location.aliases = append(location.aliases, alias)
		}
	}
	return location
}

// WithVirtual marks the location as a carrier of defaults for its children. Virtual locations are never routed.
func (location *Location) WithVirtual(virtual bool) *Location {
	location.modify()
	location.virtual = virtual
	return location
}

// WithPriority sets the sitemap priority, a value between 0 and 1.
func (location *Location) WithPriority(priority float64) *Location {
	location.modify()
	if priority < 0 || priority > 1 {
		location.fail(errors.Wrapf(ErrPriorityRange, "priority [%v]", priority))
	}
	location.priority = priority
	location.priorityState = prioritySet
	return location
}

// WithoutPriority excludes the location from the sitemap. Children inherit the exclusion.
func (location *Location) WithoutPriority() *Location {
	location.modify()
	location.priority = 0
	location.priorityState = priorityDisabled
	return location
}

// WithTemplate sets the template reference, relative to the resource directory. References without an extension
// get ".xml" appended.
func (location *Location) WithTemplate(template string) *Location {
	location.modify()
	location.template = template
	return location
}

// WithResources sets the resource directory. Relative directories are resolved against the parent's.
func (location *Location) WithResources(resources string) *Location {
	location.modify()
	location.resources = resources
	return location
}

// WithViewer sets the viewer inherited by page locations in this subtree.
func (location *Location) WithViewer(viewer Viewer) *Location {
	location.modify()
	location.viewer = viewer
	return location
}

func (location *Location) WithTitle(title string) *Location {
	location.modify()
	location.title = title
	return location
}

func (location *Location) WithSupertitle(supertitle string) *Location {
	location.modify()
	location.supertitle = supertitle
	return location
}

func (location *Location) WithExtitle(extitle string) *Location {
	location.modify()
	location.extitle = extitle
	return location
}

func (location *Location) WithBreadcrumb(breadcrumb string) *Location {
	location.modify()
	location.breadcrumb = breadcrumb
	return location
}

func (location *Location) WithDescription(description string) *Location {
	location.modify()
	location.description = description
	return location
}

func (location *Location) WithLanguage(language string) *Location {
	location.modify()
	location.language = language
	return location
}

func (location *Location) WithPublished(published time.Time) *Location {
	location.modify()
	location.published = published
	return location
}

func (location *Location) WithUpdated(updated time.Time) *Location {
	location.modify()
	location.updated = updated
	return location
}

func (location *Location) WithLead(lead *dom.Fragment) *Location {
	location.modify()
	location.lead = lead
	return location
}

// Page maps the location to a page rendered by viewer. A nil viewer selects the inherited one.
func (location *Location) Page(viewer Viewer) *Location {
	return location.setMapping(PageMapping{Viewer: viewer})
}

// Resource maps the location to a static file.
func (location *Location) Resource(path string) *Location {
	return location.setMapping(ResourceMapping{Path: path})
}

// Redirect maps the location to a permanent redirect. Use RedirectStatus to pick another status.
func (location *Location) Redirect(target string) *Location {
	return location.setMapping(RedirectMapping{Target: target, Status: http.StatusMovedPermanently})
}

// RedirectStatus changes the status of the redirect configured by Redirect, Rewrite or RedirectTree.
func (location *Location) RedirectStatus(status int) *Location {
	location.modify()
	if !validRedirectStatus(status) {
		location.fail(errors.Wrapf(ErrRedirectStatus, "status [%d]", status))
	}
	switch mapping := location.mapping.(type) {
	case RedirectMapping:
		mapping.Status = status
		location.mapping = mapping
	case RewriteMapping:
		mapping.Status = status
		location.mapping = mapping
	default:
		location.fail(errors.Errorf("redirect status [%d] set on location without redirect", status))
	}
	return location
}

// Rewrite maps the location to a redirect computed from the request URL.
func (location *Location) Rewrite(rewrite func(u *url.URL) string) *Location {
	return location.setMapping(RewriteMapping{Rewrite: rewrite, Status: http.StatusMovedPermanently})
}

// RedirectTree redirects into another tree rooted at prefix, which must be an absolute path ending with '/'. On a
// subtree location the part of the request path below the subtree is appended to prefix. On an exact path location
// the location's path is appended instead.
func (location *Location) RedirectTree(prefix string) *Location {
	target, err := url.Parse(prefix)
	if err != nil {
		location.fail(errors.Wrapf(err, "invalid redirect prefix [%s]", prefix))
		target = &url.URL{Path: "/"}
	} else if !strings.HasPrefix(target.Path, "/") || !strings.HasSuffix(target.Path, "/") {
		location.fail(errors.Errorf("redirect prefix [%s] must be an absolute path ending with '/'", prefix))
	}
	return location.Rewrite(func(u *url.URL) string {
		if location.subtree != "" {
			if strings.HasPrefix(u.Path, location.subtree) {
				return target.ResolveReference(&url.URL{Path: u.Path[len(location.subtree):]}).String()
			}
			return target.String()
		}
		if strings.HasPrefix(location.path, "/") {
			return target.ResolveReference(&url.URL{Path: location.path[1:]}).String()
		}
		return target.String()
	})
}

// Gone marks content that was removed.
func (location *Location) Gone() *Location {
	return location.setMapping(GoneMapping{})
}

// Handler maps the location to an arbitrary handler.
func (location *Location) Handler(handler http.Handler) *Location {
	return location.setMapping(HandlerMapping{Handler: handler})
}

// Component maps the location to a templ component.
func (location *Location) Component(component templ.Component) *Location {
	return location.Handler(templ.Handler(component))
}

func (location *Location) Parent() *Location {
	return location.parent
}

func (location *Location) Children() []*Location {
	return append([]*Location(nil), location.children...)
}

// Site returns the owning site. It is nil until the tree is compiled.
func (location *Location) Site() *Site {
	return location.site
}

func (location *Location) Compiled() bool {
	return location.compiled
}

// Ancestors returns the ancestors of the location, root first.
func (location *Location) Ancestors() []*Location {
	var ancestors []*Location
	for current := location.parent; current != nil; current = current.parent {
		ancestors = append([]*Location{current}, ancestors...)
	}
	return ancestors
}

// AncestorsAndSelf returns the ancestors of the location followed by the location itself.
func (location *Location) AncestorsAndSelf() []*Location {
	return append(location.Ancestors(), location)
}

// Descendants returns all locations below this one in document order.
func (location *Location) Descendants() []*Location {
	var descendants []*Location
	for _, child := range location.children {
		descendants = append(descendants, child.DescendantsAndSelf()...)
	}
	return descendants
}

func (location *Location) DescendantsAndSelf() []*Location {
	return append([]*Location{location}, location.Descendants()...)
}

func (location *Location) Key() string {
	return location.key
}

func (location *Location) Path() string {
	return location.path
}

func (location *Location) Subtree() string {
	return location.subtree
}

func (location *Location) Aliases() []string {
	return append([]string(nil), location.aliases...)
}

func (location *Location) Virtual() bool {
	return location.virtual
}

// Priority returns the sitemap priority and whether the location takes part in the sitemap at all.
func (location *Location) Priority() (float64, bool) {
	return location.priority, location.priorityState == prioritySet
}

// Template returns the resolved template reference, empty when the location has no template.
func (location *Location) Template() string {
	return location.template
}

func (location *Location) Resources() string {
	return location.resources
}

func (location *Location) Title() string {
	return location.title
}

func (location *Location) Supertitle() string {
	return location.supertitle
}

func (location *Location) Extitle() string {
	return location.extitle
}

func (location *Location) Breadcrumb() string {
	return location.breadcrumb
}

func (location *Location) Description() string {
	return location.description
}

func (location *Location) Language() string {
	return location.language
}

func (location *Location) Published() time.Time {
	return location.published
}

func (location *Location) Updated() time.Time {
	return location.updated
}

// Lead returns the lead content used in listings. It is shared and must not be modified.
func (location *Location) Lead() *dom.Fragment {
	return location.lead
}

// Viewer returns the viewer inherited by pages in this subtree.
func (location *Location) Viewer() Viewer {
	return location.viewer
}

func (location *Location) Mapping() Mapping {
	return location.mapping
}

// String identifies the location with whatever fields are available, which may be few if compilation failed early.
func (location *Location) String() string {
	suffix := ""
	if location.site != nil && location.site.URI() != nil {
		suffix = " @ " + location.site.URI().String()
	}
	switch {
	case location.path != "":
		return location.path + suffix
	case location.subtree != "":
		return location.subtree + suffix
	case location.template != "":
		return location.template + suffix
	case location.parent != nil:
		return "child of " + location.parent.String()
	default:
		return "location" + suffix
	}
}

func containsString(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
