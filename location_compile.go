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
	"math"
	"net/url"
	"path"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xsite/template"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

const priorityDecrement = 0.1

// Compile resolves and validates the location tree rooted at root in a single depth first pass and freezes it.
// Template references are loaded through the site's loader for their metadata only. The first configuration error
// aborts compilation and is returned as a *LocationError.
func Compile(root *Location, site *Site) error {
	if root.compiled {
		return locationError(root, ErrAlreadyCompiled)
	}
	if site == nil {
		return locationError(root, ErrMissingSite)
	}
	root.parent = nil
	root.site = site
	return root.compile()
}

// Flatten lists a compiled tree in document order.
func Flatten(root *Location) []*Location {
	return root.DescendantsAndSelf()
}

func (location *Location) compile() error {
	if location.compiled {
		return locationError(location, ErrAlreadyCompiled)
	}
	if location.parent != nil {
		location.site = location.parent.site
	}
	if location.invalid != nil {
		return locationError(location, location.invalid)
	}

	for _, step := range []func() error{location.preresolve, location.load, location.resolve, location.validate} {
		if err := step(); err != nil {
			return locationError(location, err)
		}
	}
	location.compiled = true

	for _, child := range location.children {
		child.parent = location
		if err := child.compile(); err != nil {
			return err
		}
	}
	return nil
}

// preresolve settles the resource directory and the template reference, which is all load needs.
func (location *Location) preresolve() error {
	base := "/"
	if location.parent != nil {
		base = location.parent.resources
	}
	if location.resources == "" {
		location.resources = base
	} else {
		location.resources = resolvePath(base, location.resources)
	}
	if !strings.HasSuffix(location.resources, "/") {
		location.resources += "/"
	}

	if location.template != "" {
		location.template = resolvePath(location.resources, location.template)
		if path.Ext(location.template) == "" {
			location.template += ".xml"
		}
	}
	return nil
}

// load merges template metadata into the location. Values configured on the location win over the template.
func (location *Location) load() error {
	if location.template == "" {
		return nil
	}
	loader := location.site.Loader()
	if loader == nil {
		return ErrMissingLoader
	}
	metadata, err := loader.Metadata(location.template)
	if err != nil {
		return err
	}
	location.merge(metadata)

	for _, ref := range metadata.Children {
		ref = resolvePath(location.resources, ref)
		if existing := location.child(ref); existing != nil {
			if existing.template == "" {
				existing.resources = directory(path.Dir(ref))
				existing.template = path.Base(ref)
			}
			continue
		}
		child := NewLocation().
			WithKey(ref).
			WithResources(directory(path.Dir(ref))).
			WithTemplate(path.Base(ref))
		child.parent = location
		location.children = append(location.children, child)
	}

	pfxlog.Logger().WithField("location", location.String()).Debugf("merged metadata of template [%s]", location.template)
	return nil
}

func (location *Location) child(key string) *Location {
	for _, child := range location.children {
		if child.key == key {
			return child
		}
	}
	return nil
}

func (location *Location) merge(metadata *template.Metadata) {
	if location.path == "" && location.subtree == "" {
		location.path = metadata.Path
	}
	for _, alias := range metadata.Aliases {
		if !containsString(location.aliases, alias) {
			location.aliases = append(location.aliases, alias)
		}
	}
	if location.priorityState == priorityInherited && metadata.Priority != nil {
		if *metadata.Priority < 0 || *metadata.Priority > 1 {
			location.fail(errors.Wrapf(ErrPriorityRange, "priority [%v] in template [%s]", *metadata.Priority, location.template))
		}
		location.priority = *metadata.Priority
		location.priorityState = prioritySet
	}
	location.title = fallback(location.title, metadata.Title)
	location.supertitle = fallback(location.supertitle, metadata.Supertitle)
	location.extitle = fallback(location.extitle, metadata.Extitle)
	location.breadcrumb = fallback(location.breadcrumb, metadata.Breadcrumb)
	location.description = fallback(location.description, metadata.Description)
	location.language = fallback(location.language, metadata.Language)
	if location.published.IsZero() {
		location.published = metadata.Published
	}
	if location.updated.IsZero() {
		location.updated = metadata.Updated
	}
	if location.lead == nil {
		location.lead = metadata.Lead
	}
}

// resolve fills in defaults and makes relative paths absolute.
func (location *Location) resolve() error {
	if location.invalid != nil {
		return location.invalid
	}
	parent := location.parent

	resource, isResource := location.mapping.(ResourceMapping)
	if isResource {
		resource.Path = resolvePath(location.resources, resource.Path)
		location.mapping = resource
	}

	if location.path == "" && location.subtree == "" {
		switch {
		case parent == nil:
			location.path = "/"
		case location.template != "":
			location.path = templateName(location.template)
		case isResource && resource.Path != "":
			location.path = path.Base(resource.Path)
		case location.virtual:
			location.path = parent.path
		}
	}
	if location.path != "" && !strings.HasPrefix(location.path, "/") {
		location.path = resolvePath(directory(location.basePath()), location.path)
	}

	for i, alias := range location.aliases {
		if location.path == "" {
			return ErrAliasWithoutPath
		}
		location.aliases[i] = resolvePath(location.path, alias)
	}

	if location.viewer == nil {
		if parent != nil {
			location.viewer = parent.viewer
		} else {
			location.viewer = location.site.Viewer()
		}
	}
	if location.mapping == nil && !location.virtual && location.template != "" {
		location.mapping = PageMapping{}
	}
	if page, ok := location.mapping.(PageMapping); ok && page.Viewer == nil {
		page.Viewer = location.viewer
		location.mapping = page
	}

	if location.priorityState == priorityInherited {
		switch {
		case parent == nil:
			location.priority = 1
			location.priorityState = prioritySet
		case parent.priorityState == prioritySet:
			location.priority = math.Max(0, math.Round((parent.priority-priorityDecrement)*1000)/1000)
			location.priorityState = prioritySet
		default:
			location.priorityState = priorityDisabled
		}
	}

	if location.language == "" {
		if parent != nil {
			location.language = parent.language
		} else {
			location.language = location.site.Language()
		}
	}
	if location.supertitle == "" {
		if parent != nil {
			location.supertitle = parent.supertitle
		} else {
			location.supertitle = location.site.Title()
		}
	}
	if location.breadcrumb == "" {
		location.breadcrumb = location.title
	}
	return nil
}

func (location *Location) validate() error {
	if location.path != "" && location.subtree != "" {
		return ErrPathConflict
	}
	if !location.virtual && location.path == "" && location.subtree == "" {
		return ErrMissingMatcher
	}
	if location.virtual && location.subtree != "" {
		return ErrVirtualSubtree
	}
	if location.path != "" && !strings.HasPrefix(location.path, "/") {
		return errors.Wrapf(ErrRelativePath, "path [%s]", location.path)
	}
	if location.path == "" && len(location.aliases) > 0 {
		return ErrAliasWithoutPath
	}
	if location.virtual && len(location.aliases) > 0 {
		return ErrVirtualAliases
	}
	for _, alias := range location.aliases {
		if !strings.HasPrefix(alias, "/") {
			return errors.Wrapf(ErrRelativePath, "alias [%s]", alias)
		}
	}

	if location.mappings > 1 {
		return ErrMultipleMappings
	}
	if location.virtual && location.mapping != nil {
		return ErrVirtualMapping
	}
	if !location.virtual && location.mapping == nil {
		return ErrMissingMapping
	}
	switch mapping := location.mapping.(type) {
	case RedirectMapping:
		if !validRedirectStatus(mapping.Status) {
			return errors.Wrapf(ErrRedirectStatus, "status [%d]", mapping.Status)
		}
	case RewriteMapping:
		if !validRedirectStatus(mapping.Status) {
			return errors.Wrapf(ErrRedirectStatus, "status [%d]", mapping.Status)
		}
		if mapping.Rewrite == nil {
			return ErrMissingMapping
		}
	case ResourceMapping:
		if location.subtree != "" {
			return ErrResourceOnSubtree
		}
		if mapping.Path == "" {
			return ErrMissingMapping
		}
	case HandlerMapping:
		if mapping.Handler == nil {
			return ErrMissingMapping
		}
	}

	if location.language != "" {
		if _, err := language.Parse(location.language); err != nil {
			return errors.Wrapf(ErrInvalidLanguage, "language [%s]", location.language)
		}
	}
	return nil
}

// resolvePath resolves relative against base the way URLs are resolved, so base is treated as a sibling unless it
// ends with '/'. Absolute and empty paths are returned unchanged.
func resolvePath(base, relative string) string {
	if relative == "" || strings.HasPrefix(relative, "/") {
		return relative
	}
	return (&url.URL{Path: base}).ResolveReference(&url.URL{Path: relative}).Path
}

// basePath is the path of the nearest ancestor that has one, or the root.
func (location *Location) basePath() string {
	for ancestor := location.parent; ancestor != nil; ancestor = ancestor.parent {
		if ancestor.path != "" {
			return ancestor.path
		}
	}
	return "/"
}

func directory(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// templateName returns the file name of a template reference up to its first dot.
func templateName(ref string) string {
	name := path.Base(ref)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func fallback(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
