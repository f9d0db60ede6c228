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
	"errors"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

var testTemplates = fstest.MapFS{
	"about.xml": {Data: []byte(`<template>
	<title>About</title>
	<description>Who we are</description>
	<priority>0.3</priority>
	<child>team</child>
	<article><x-title/></article>
</template>`)},
	"team.xml": {Data: []byte(`<template><title>Team</title></template>`)},
	"style.css": {Data: []byte(`body { margin: 0; }`)},
}

func newTestSite(t *testing.T, enumerate func() (*Location, error), options ...SiteOption) *Site {
	site, err := NewSite("https://example.com", enumerate, append([]SiteOption{WithFS(testTemplates), WithRunMode(RunModeTests)}, options...)...)
	require.NoError(t, err)
	return site
}

func compileTree(t *testing.T, root *Location) error {
	return Compile(root, newTestSite(t, func() (*Location, error) { return root, nil }))
}

func TestLocationMappings(t *testing.T) {
	t.Run("a location without a mapping is rejected", func(t *testing.T) {
		req := require.New(t)
		child := NewLocation().WithPath("/a")
		err := compileTree(t, NewLocation().Page(nil).Add(child))
		req.ErrorIs(err, ErrMissingMapping)

		var locationErr *LocationError
		req.True(errors.As(err, &locationErr))
		req.Same(child, locationErr.Location)
		req.Contains(err.Error(), "invalid location [/a @ https://example.com]")
	})

	t.Run("a location with two mappings is rejected", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Redirect("/elsewhere"))
		req.ErrorIs(err, ErrMultipleMappings)
	})

	t.Run("a virtual location cannot have a mapping", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithVirtual(true).Gone()))
		req.ErrorIs(err, ErrVirtualMapping)
	})

	t.Run("a virtual location cannot have a subtree", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithVirtual(true).WithSubtree("/v/")))
		req.ErrorIs(err, ErrVirtualSubtree)
	})

	t.Run("a resource cannot be mapped to a subtree", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithSubtree("/s/").Resource("style.css")))
		req.ErrorIs(err, ErrResourceOnSubtree)
	})

	t.Run("a subtree must start and end with a slash", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithSubtree("s").Gone()))
		req.ErrorIs(err, ErrInvalidSubtree)
	})

	t.Run("a path and a subtree cannot be combined", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithPath("/p").WithSubtree("/p/").Gone()))
		req.ErrorIs(err, ErrPathConflict)
	})

	t.Run("only redirect statuses are accepted", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithPath("/r").Redirect("/").RedirectStatus(http.StatusOK)))
		req.ErrorIs(err, ErrRedirectStatus)
	})

	t.Run("invalid languages are rejected", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).WithLanguage("bad language!"))
		req.ErrorIs(err, ErrInvalidLanguage)
	})

	t.Run("a template location defaults to a page", func(t *testing.T) {
		req := require.New(t)
		about := NewLocation().WithTemplate("about")
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(about)))

		mapping, ok := about.Mapping().(PageMapping)
		req.True(ok)
		req.NotNil(mapping.Viewer)
		req.Equal("page", about.Mapping().Kind())
	})
}

func TestLocationPaths(t *testing.T) {
	t.Run("the root defaults to slash", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().Page(nil)
		req.NoError(compileTree(t, root))
		req.Equal("/", root.Path())
	})

	t.Run("relative paths nest below the parent path", func(t *testing.T) {
		req := require.New(t)
		c := NewLocation().WithPath("c").Page(nil)
		b := NewLocation().WithPath("b").Page(nil).Add(c)
		a := NewLocation().WithPath("a").Page(nil).Add(b)
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(a)))

		req.Equal("/a", a.Path())
		req.Equal("/a/b", b.Path())
		req.Equal("/a/b/c", c.Path())
		req.Equal([]*Location{a.Parent(), a, b}, c.Ancestors())
	})

	t.Run("a relative root path resolves against the root", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().WithPath("home").Page(nil)
		req.NoError(compileTree(t, root))
		req.Equal("/home", root.Path())
	})

	t.Run("a relative path below a subtree resolves against the nearest path", func(t *testing.T) {
		req := require.New(t)
		c := NewLocation().WithPath("c").Gone()
		subtree := NewLocation().WithSubtree("/docs/").Gone().Add(c)
		req.NoError(compileTree(t, NewLocation().WithPath("/a").Page(nil).Add(subtree)))
		req.Equal("/a/c", c.Path())
	})

	t.Run("a relative path below subtrees only resolves against the root", func(t *testing.T) {
		req := require.New(t)
		c := NewLocation().WithPath("c").Gone()
		root := NewLocation().WithSubtree("/").Gone().Add(NewLocation().WithSubtree("/docs/").Gone().Add(c))
		req.NoError(compileTree(t, root))
		req.Equal("/c", c.Path())
	})

	t.Run("aliases resolve against the path", func(t *testing.T) {
		req := require.New(t)
		child := NewLocation().WithPath("/blog/first").WithAlias("1", "/old/first", "1").Page(nil)
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(child)))
		req.Equal([]string{"/blog/1", "/old/first"}, child.Aliases())
	})

	t.Run("aliases require a path", func(t *testing.T) {
		req := require.New(t)
		child := NewLocation().WithSubtree("/s/").WithAlias("/t/").Gone()
		req.ErrorIs(compileTree(t, NewLocation().Page(nil).Add(child)), ErrAliasWithoutPath)
	})

	t.Run("virtual locations cannot have aliases", func(t *testing.T) {
		req := require.New(t)
		child := NewLocation().WithVirtual(true).WithAlias("/v")
		req.ErrorIs(compileTree(t, NewLocation().Page(nil).Add(child)), ErrVirtualAliases)
	})

	t.Run("virtual locations pass defaults to their children", func(t *testing.T) {
		req := require.New(t)
		guide := NewLocation().WithPath("guide").WithTitle("Guide").Page(nil)
		group := NewLocation().WithVirtual(true).WithSupertitle("Docs").WithLanguage("de").Add(guide)
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(group)))

		req.Equal("/", group.Path())
		req.Equal("/guide", guide.Path())
		req.Equal("Docs", guide.Supertitle())
		req.Equal("de", guide.Language())
		req.Equal("Guide", guide.Breadcrumb())
	})

	t.Run("site defaults apply at the root", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().Page(nil)
		req.NoError(compileTree(t, root))
		req.Equal("en", root.Language())
		req.Equal("example.com", root.Supertitle())
	})
}

func TestLocationPriority(t *testing.T) {
	t.Run("priority decays by a tenth per level", func(t *testing.T) {
		req := require.New(t)
		grandchild := NewLocation().WithPath("b").Page(nil)
		child := NewLocation().WithPath("a").Page(nil).Add(grandchild)
		root := NewLocation().Page(nil).Add(child)
		req.NoError(compileTree(t, root))

		for expected, location := range map[float64]*Location{1: root, 0.9: child, 0.8: grandchild} {
			priority, found := location.Priority()
			req.True(found)
			req.Equal(expected, priority)
		}
	})

	t.Run("priority never drops below zero", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().Page(nil)
		current := root
		for i := 0; i < 12; i++ {
			next := NewLocation().WithPath("n").Page(nil)
			current.Add(next)
			current = next
		}
		req.NoError(compileTree(t, root))

		priority, found := current.Priority()
		req.True(found)
		req.Equal(0.0, priority)
	})

	t.Run("disabled priority is inherited", func(t *testing.T) {
		req := require.New(t)
		grandchild := NewLocation().WithPath("b").Page(nil)
		explicit := NewLocation().WithPath("c").WithPriority(0.5).Page(nil)
		child := NewLocation().WithPath("a").WithoutPriority().Page(nil).Add(grandchild, explicit)
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(child)))

		_, found := grandchild.Priority()
		req.False(found)
		priority, found := explicit.Priority()
		req.True(found)
		req.Equal(0.5, priority)
	})

	t.Run("out of range priorities are rejected", func(t *testing.T) {
		req := require.New(t)
		req.ErrorIs(compileTree(t, NewLocation().WithPriority(1.5).Page(nil)), ErrPriorityRange)
	})
}

func TestLocationTemplates(t *testing.T) {
	t.Run("template metadata fills in unset values", func(t *testing.T) {
		req := require.New(t)
		about := NewLocation().WithTemplate("about").WithDescription("Configured")
		root := NewLocation().Page(nil).Add(about)
		req.NoError(compileTree(t, root))

		req.Equal("/about.xml", about.Template())
		req.Equal("/about", about.Path())
		req.Equal("About", about.Title())
		req.Equal("Configured", about.Description())
		priority, _ := about.Priority()
		req.Equal(0.3, priority)
	})

	t.Run("template children become child locations", func(t *testing.T) {
		req := require.New(t)
		about := NewLocation().WithTemplate("about")
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(about)))

		children := about.Children()
		req.Len(children, 1)
		team := children[0]
		req.Equal("/team", team.Key())
		req.Equal("/team.xml", team.Template())
		req.Equal("/about/team", team.Path())
		req.Equal("Team", team.Title())
		priority, _ := team.Priority()
		req.Equal(0.2, priority)
	})

	t.Run("configured children claim template children by key", func(t *testing.T) {
		req := require.New(t)
		crew := NewLocation().WithKey("/team").WithPath("crew")
		about := NewLocation().WithTemplate("about").Add(crew)
		req.NoError(compileTree(t, NewLocation().Page(nil).Add(about)))

		req.Len(about.Children(), 1)
		req.Equal("/about/crew", crew.Path())
		req.Equal("/team.xml", crew.Template())
		req.Equal("Team", crew.Title())
	})

	t.Run("missing templates fail compilation", func(t *testing.T) {
		req := require.New(t)
		err := compileTree(t, NewLocation().Page(nil).Add(NewLocation().WithTemplate("missing")))
		var locationErr *LocationError
		req.True(errors.As(err, &locationErr))
		req.Equal("/missing.xml", locationErr.Location.Template())
	})
}

func TestLocationCompiled(t *testing.T) {
	t.Run("compiled locations cannot be modified", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().Page(nil)
		req.NoError(compileTree(t, root))
		req.True(root.Compiled())
		req.Panics(func() { root.WithTitle("changed") })
		req.Panics(func() { root.Add(NewLocation()) })
	})

	t.Run("a tree compiles only once", func(t *testing.T) {
		req := require.New(t)
		root := NewLocation().Page(nil)
		req.NoError(compileTree(t, root))
		req.ErrorIs(compileTree(t, root), ErrAlreadyCompiled)
	})

	t.Run("flatten lists locations in document order", func(t *testing.T) {
		req := require.New(t)
		a1 := NewLocation().WithPath("1").Page(nil)
		a := NewLocation().WithPath("a").Page(nil).Add(a1)
		b := NewLocation().WithPath("b").Page(nil)
		root := NewLocation().Page(nil).Add(a, b)
		req.NoError(compileTree(t, root))
		req.Equal([]*Location{root, a, a1, b}, Flatten(root))
	})
}
