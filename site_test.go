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
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/openziti/xsite/dom"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var siteTemplates = fstest.MapFS{
	"about.xml":  testTemplates["about.xml"],
	"team.xml":   testTemplates["team.xml"],
	"style.css":  testTemplates["style.css"],
	"crumbs.xml": {Data: []byte(`<template><title>Crumbs</title><article><x-breadcrumbs/></article></template>`)},
	"assets.xml": {Data: []byte(`<template><title>Assets</title><main><x-asset href="/style.css"/><x-asset src="/app.js"/></main></template>`)},
	"broken.xml": {Data: []byte(`<template><title>Broken</title><article><p>before</p><x-asset/></article></template>`)},
}

func testTree() (*Location, error) {
	return NewLocation().WithTitle("Home").Page(nil).Add(
		NewLocation().WithTemplate("about").WithPublished(time.Date(2021, 2, 3, 4, 5, 6, 0, time.UTC)).Add(
			NewLocation().WithTemplate("crumbs"),
		),
		NewLocation().WithTemplate("assets"),
		NewLocation().WithTemplate("broken").WithoutPriority(),
		NewLocation().WithPath("/gone").Gone(),
		NewLocation().Resource("style.css"),
	), nil
}

func newBuiltSite(t *testing.T, mode RunMode, options ...SiteOption) *Site {
	site, err := NewSite("https://example.com", testTree, append([]SiteOption{WithFS(siteTemplates), WithRunMode(mode)}, options...)...)
	require.NoError(t, err)
	require.NoError(t, site.Build())
	t.Cleanup(site.Close)
	return site
}

func TestSiteBuild(t *testing.T) {
	t.Run("an unbuilt site is unavailable", func(t *testing.T) {
		req := require.New(t)
		site, err := NewSite("https://example.com", testTree)
		req.NoError(err)
		req.Nil(site.Home())
		req.Equal(http.StatusServiceUnavailable, serve(site, "/").Code)
	})

	t.Run("building publishes the tree with the sitemap", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		req.NotNil(site.Home())
		req.Equal("/about/crumbs", site.Location("/about/crumbs").Path())
		req.Equal(SitemapPath, site.Location(SitemapPath).Path())
		req.Nil(site.Location("/missing"))
	})

	t.Run("a failed reload keeps the previous tree", func(t *testing.T) {
		req := require.New(t)
		broken := false
		site, err := NewSite("https://example.com", func() (*Location, error) {
			if broken {
				return NewLocation().Page(nil).Add(NewLocation().WithPath("/x").Gone(), NewLocation().WithPath("/x").Gone()), nil
			}
			return testTree()
		}, WithFS(siteTemplates))
		req.NoError(err)
		req.NoError(site.Build())
		home := site.Home()

		broken = true
		err = site.Reload()
		var duplicate *DuplicateError
		req.True(errors.As(err, &duplicate))
		req.Same(home, site.Home())
		req.Equal(http.StatusOK, serve(site, "/about").Code)

		broken = false
		req.NoError(site.Reload())
		req.NotSame(home, site.Home())
	})

	t.Run("a site without a tree fails to build", func(t *testing.T) {
		req := require.New(t)
		site, err := NewSite("https://example.com", func() (*Location, error) { return nil, nil })
		req.NoError(err)
		req.Error(site.Build())
	})

	t.Run("enumeration errors fail the build", func(t *testing.T) {
		req := require.New(t)
		cause := errors.New("locations unreadable")
		site, err := NewSite("https://example.com", func() (*Location, error) { return nil, cause })
		req.NoError(err)
		err = site.Build()
		req.ErrorIs(err, cause)
		req.Contains(err.Error(), "failed to enumerate locations: locations unreadable")
	})

	t.Run("a reused tree fails the build instead of panicking", func(t *testing.T) {
		req := require.New(t)
		root, _ := testTree()
		site, err := NewSite("https://example.com", func() (*Location, error) { return root, nil }, WithFS(siteTemplates))
		req.NoError(err)
		req.NoError(site.Build())
		home := site.Home()

		req.NotPanics(func() { err = site.Reload() })
		req.ErrorIs(err, ErrAlreadyCompiled)
		req.Same(home, site.Home())
	})

	t.Run("sites use the host as the default title", func(t *testing.T) {
		req := require.New(t)
		site, err := NewSite("https://docs.example.com:8443/", testTree)
		req.NoError(err)
		req.Equal("docs.example.com:8443", site.Title())
		req.Equal(RunModeProduction, site.RunMode())
		req.Equal("en", site.Language())
	})
}

func TestSitePages(t *testing.T) {
	t.Run("template pages expand built-in widgets", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		recorder := serve(site, "/about")
		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
		req.Equal("no-cache, no-store", recorder.Header().Get("Cache-Control"))

		body := recorder.Body.String()
		req.True(strings.HasPrefix(body, "<!DOCTYPE html>"))
		req.Contains(body, `<html lang="en">`)
		req.Contains(body, "<title>About - example.com</title>")
		req.Contains(body, `<meta name="description" content="Who we are"/>`)
		req.Contains(body, "<article><h1>About</h1></article>")
	})

	t.Run("breadcrumbs link the ancestors", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		body := serve(site, "/about/crumbs").Body.String()
		req.Contains(body, `<nav class="breadcrumbs"><a href="/">Home</a> » <a href="/about">About</a> » <span>Crumbs</span></nav>`)
	})

	t.Run("assets are cache busted", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		hash, found := site.Router().ResourceHash("/style.css")
		req.True(found)

		body := serve(site, "/assets").Body.String()
		req.Contains(body, `<link rel="stylesheet" href="/style.css?v=`+hash+`"/>`)
		req.Contains(body, `<script src="/app.js?v=`)
	})

	t.Run("asset urls", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		hash, _ := site.Router().ResourceHash("/style.css")
		req.Equal("/style.css?v="+hash, site.Asset("/style.css"))
		req.Equal("https://cdn.example.com/lib.js", site.Asset("https://cdn.example.com/lib.js"))
		req.Equal("//cdn.example.com/lib.js", site.Asset("//cdn.example.com/lib.js"))
		req.True(strings.HasPrefix(site.Asset("/other.js"), "/other.js?v="))
	})

	t.Run("gone pages answer 410", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeTests)
		recorder := serve(site, "/gone")
		req.Equal(http.StatusGone, recorder.Code)
		req.Contains(recorder.Body.String(), "This content is no longer available.")
	})

	t.Run("failed pages hide details in production", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeProduction)
		recorder := serve(site, "/broken")
		req.Equal(http.StatusInternalServerError, recorder.Code)
		body := recorder.Body.String()
		req.Contains(body, `<pre class="site-error">This content failed to load.</pre>`)
		req.NotContains(body, "asset requires")
	})

	t.Run("failed widgets are shown inline in development", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeDevelopment)
		recorder := serve(site, "/broken")
		req.Equal(http.StatusOK, recorder.Code)
		body := recorder.Body.String()
		req.Contains(body, "<p>before</p>")
		req.Contains(body, `<pre class="site-error">widget [asset] with id [asset] failed: asset requires src or href attribute`)
	})

	t.Run("viewer errors are shown in development", func(t *testing.T) {
		req := require.New(t)
		site := newBuiltSite(t, RunModeDevelopment, WithViewer(ViewerFunc(func(*Page) (*dom.Element, error) {
			return nil, errors.New("viewer exploded")
		})))
		recorder := serve(site, "/")
		req.Equal(http.StatusInternalServerError, recorder.Code)
		req.Contains(recorder.Body.String(), `<pre class="site-error">viewer exploded</pre>`)
	})

	t.Run("identified users get page scopes", func(t *testing.T) {
		req := require.New(t)
		var scopes []string
		viewer := ViewerFunc(func(page *Page) (*dom.Element, error) {
			scopes = append(scopes, page.Scope.User()+"@"+page.Scope.Location())
			req.Same(page, PageFromContext(page.Context()))
			return page.Document(dom.NewElement("body")), nil
		})
		site := newBuiltSite(t, RunModeTests, WithViewer(viewer), WithUser(func(request *http.Request) string {
			return request.Header.Get("X-User")
		}))

		serve(site, "/about", "X-User", "alice")
		serve(site, "/about")
		req.Equal([]string{"alice@/about", "@/about"}, scopes)
	})
}

func TestPageTitle(t *testing.T) {
	cases := []struct {
		name       string
		title      string
		supertitle string
		extitle    string
		expected   string
	}{
		{"title and supertitle are joined", "Post", "Blog", "", "Post - Blog"},
		{"an empty title shows the supertitle", "", "Blog", "", "Blog"},
		{"a title containing the supertitle stands alone", "Blog archive", "Blog", "", "Blog archive"},
		{"an explicit title wins", "Post", "Blog", "Everything", "Everything"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := require.New(t)
			location := NewLocation().WithTitle(c.title).WithSupertitle(c.supertitle).WithExtitle(c.extitle)
			req.Equal(c.expected, (&Page{Location: location}).Title())
		})
	}
}

func TestSitemap(t *testing.T) {
	req := require.New(t)
	site := newBuiltSite(t, RunModeTests)

	recorder := serve(site, SitemapPath)
	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("text/xml; charset=utf-8", recorder.Header().Get("Content-Type"))

	sitemap := recorder.Body.String()
	req.Contains(sitemap, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	req.Contains(sitemap, "<loc>https://example.com/</loc>")
	req.Contains(sitemap, "<priority>1</priority>")
	req.Contains(sitemap, "<loc>https://example.com/about</loc>\n    <lastmod>2021-02-03</lastmod>\n    <priority>0.3</priority>")
	req.Contains(sitemap, "<loc>https://example.com/about/crumbs</loc>")
	req.Contains(sitemap, "<priority>0.2</priority>")
	req.Contains(sitemap, "<loc>https://example.com/broken</loc>\n  </url>")
	req.NotContains(sitemap, "/gone")
	req.NotContains(sitemap, "/style.css")
	req.NotContains(sitemap, SitemapPath)
}

func TestParseRunMode(t *testing.T) {
	req := require.New(t)
	for _, mode := range []RunMode{RunModeTests, RunModeDevelopment, RunModeProduction} {
		parsed, err := ParseRunMode(strings.ToUpper(mode.String()))
		req.NoError(err)
		req.Equal(mode, parsed)
	}
	_, err := ParseRunMode("staging")
	req.Error(err)
}
