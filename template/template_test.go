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

package template

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/openziti/xsite/dom"
	"github.com/stretchr/testify/require"
)

const article = "\xEF\xBB\xBF" + `<template>
	<path>/blog/first</path>
	<alias>/blog/1</alias>
	<alias>  </alias>
	<title>
		First   post
	</title>
	<supertitle>Blog</supertitle>
	<priority>0.7</priority>
	<published>2020-03-04</published>
	<updated>2020-03-05 10:11</updated>
	<child>second.xml</child>
	<lead>Short <b>intro</b></lead>
	<article><h1>First</h1><x-asset src="x.png"/></article>
</template>`

func TestParseXML(t *testing.T) {
	t.Run("metadata and sections are read", func(t *testing.T) {
		req := require.New(t)
		parsed, err := ParseXML([]byte(article))
		req.NoError(err)

		req.Equal("/blog/first", parsed.Path)
		req.Equal([]string{"/blog/1"}, parsed.Aliases)
		req.Equal("First post", parsed.Title)
		req.Equal("Blog", parsed.Supertitle)
		req.NotNil(parsed.Priority)
		req.Equal(0.7, *parsed.Priority)
		req.Equal(time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC), parsed.Published)
		req.Equal(time.Date(2020, 3, 5, 10, 11, 0, 0, time.UTC), parsed.Updated)
		req.Equal([]string{"second.xml"}, parsed.Children)
		req.Equal("Short intro", dom.TextOf(parsed.Lead))
		req.NotNil(parsed.Article)
		req.Same(parsed.Article, parsed.Content())
		req.Nil(parsed.Body)
	})

	t.Run("unknown elements are rejected", func(t *testing.T) {
		req := require.New(t)
		_, err := ParseXML([]byte(`<template><subtitle>x</subtitle></template>`))
		req.Error(err)
		req.Contains(err.Error(), "subtitle")
	})

	t.Run("root element must be template", func(t *testing.T) {
		req := require.New(t)
		_, err := ParseXML([]byte(`<page/>`))
		req.Error(err)
	})

	t.Run("invalid dates are rejected", func(t *testing.T) {
		req := require.New(t)
		_, err := ParseXML([]byte(`<template><published>March 2020</published></template>`))
		req.Error(err)
	})
}

func TestParseDateTime(t *testing.T) {
	req := require.New(t)
	parsed, err := ParseDateTime("2021-12-31 23:59:58")
	req.NoError(err)
	req.Equal(time.Date(2021, 12, 31, 23, 59, 58, 0, time.UTC), parsed)
}

func TestParseMarkdown(t *testing.T) {
	t.Run("front matter provides metadata", func(t *testing.T) {
		req := require.New(t)
		parsed, err := ParseMarkdown("docs/getting-started.md", []byte("---\npath: /start\naliases: [/begin]\npriority: 0.4\npublished: 2022-01-02\n---\n# Hello\n\nSome *text*.\n"))
		req.NoError(err)
		req.Equal("/start", parsed.Path)
		req.Equal([]string{"/begin"}, parsed.Aliases)
		req.Equal("Getting Started", parsed.Title)
		req.Equal(0.4, *parsed.Priority)
		req.Equal(time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC), parsed.Published)
		req.Equal("article", parsed.Article.Tag)
		req.Contains(dom.String(parsed.Article), `<h1 id="hello">Hello</h1>`)
		req.Contains(dom.String(parsed.Article), `<em>text</em>`)
	})

	t.Run("files without front matter are plain markdown", func(t *testing.T) {
		req := require.New(t)
		parsed, err := ParseMarkdown("notes_today.md", []byte("plain"))
		req.NoError(err)
		req.Equal("Notes Today", parsed.Title)
		req.Equal("plain", strings.TrimSpace(dom.TextOf(parsed.Article)))
	})
}

func TestLoader(t *testing.T) {
	t.Run("templates are cached until content changes", func(t *testing.T) {
		req := require.New(t)
		fsys := fstest.MapFS{
			"pages/a.xml": &fstest.MapFile{Data: []byte(`<template><title>A</title></template>`)},
		}
		loader := NewLoader(fsys)

		first, err := loader.Load("/pages/a.xml")
		req.NoError(err)
		second, err := loader.Load("pages/a.xml")
		req.NoError(err)
		req.Same(first, second)

		fsys["pages/a.xml"] = &fstest.MapFile{Data: []byte(`<template><title>B</title></template>`)}
		third, err := loader.Load("pages/a.xml")
		req.NoError(err)
		req.NotSame(first, third)
		req.Equal("B", third.Title)
		req.NotEqual(first.Checksum, third.Checksum)
	})

	t.Run("metadata is detached from the cached template", func(t *testing.T) {
		req := require.New(t)
		loader := NewLoader(fstest.MapFS{
			"a.xml": &fstest.MapFile{Data: []byte(`<template><alias>/x</alias><body/></template>`)},
		})
		metadata, err := loader.Metadata("a.xml")
		req.NoError(err)
		metadata.Title = "changed"

		loaded, err := loader.Load("a.xml")
		req.NoError(err)
		req.Equal("", loaded.Title)
	})

	t.Run("missing templates fail", func(t *testing.T) {
		req := require.New(t)
		_, err := NewLoader(fstest.MapFS{}).Load("missing.xml")
		req.Error(err)
	})
}
