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

package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestElementAttributes(t *testing.T) {
	t.Run("set keeps the position of an existing attribute", func(t *testing.T) {
		req := require.New(t)
		el := NewElement("a").Set("href", "/x").Set("class", "c").Set("href", "/y")
		req.Equal([]Attr{{Name: "href", Value: "/y"}, {Name: "class", Value: "c"}}, el.Attrs)
	})

	t.Run("remove drops only the named attribute", func(t *testing.T) {
		req := require.New(t)
		el := NewElement("a").Set("id", "one").Set("class", "c").Remove("id")
		_, found := el.Attr("id")
		req.False(found)
		req.Equal("", el.ID())
		value, found := el.Attr("class")
		req.True(found)
		req.Equal("c", value)
	})

	t.Run("shallow copy does not share attribute storage", func(t *testing.T) {
		req := require.New(t)
		child := NewText("body")
		original := NewElement("div").Set("class", "a").Add(child)
		original.Key = "k"
		copied := original.ShallowCopy()
		copied.Set("class", "b")

		value, _ := original.Attr("class")
		req.Equal("a", value)
		req.Equal("k", copied.Key)
		req.Same(child, copied.Children[0].(*Text))
	})
}

func TestFlatten(t *testing.T) {
	req := require.New(t)
	a := NewElement("a")
	b := NewText("b")
	content := NewFragment(NewFragment(a), nil, NewFragment(NewFragment(b)))
	req.Equal([]Content{a, b}, Flatten(content))
}

func TestParseXML(t *testing.T) {
	t.Run("byte order mark and indentation are ignored", func(t *testing.T) {
		req := require.New(t)
		root, err := ParseXML([]byte("\xEF\xBB\xBF<template>\n  <title>Hello <b>world</b></title>\n</template>"))
		req.NoError(err)

		expected := NewElement("template").Add(
			NewElement("title").AddText("Hello ").Add(NewElement("b").AddText("world")),
		)
		req.Empty(cmp.Diff(expected, root))
	})

	t.Run("attributes keep document order", func(t *testing.T) {
		req := require.New(t)
		root, err := ParseXML([]byte(`<x-widget id="w" b="2" a="1"/>`))
		req.NoError(err)
		req.Equal([]Attr{{"id", "w"}, {"b", "2"}, {"a", "1"}}, root.Attrs)
		req.Equal("w", root.ID())
	})

	t.Run("malformed documents fail", func(t *testing.T) {
		req := require.New(t)
		_, err := ParseXML([]byte("<template><title></template>"))
		req.Error(err)
	})
}

func TestRender(t *testing.T) {
	t.Run("fragments render their children in place", func(t *testing.T) {
		req := require.New(t)
		content := NewFragment(
			NewElement("p").Set("class", "a").AddText("x & y"),
			NewText("tail"),
		)
		req.Equal(`<p class="a">x &amp; y</p>tail`, String(content))
	})

	t.Run("documents carry the doctype", func(t *testing.T) {
		req := require.New(t)
		buf := &strings.Builder{}
		req.NoError(RenderDocument(buf, NewElement("html").Add(NewElement("body"))))
		req.Equal("<!DOCTYPE html><html><body></body></html>", buf.String())
	})

	t.Run("html fragments parse back into content", func(t *testing.T) {
		req := require.New(t)
		fragment, err := ParseHTMLFragment(strings.NewReader(`<p>one <em>two</em></p><p>three</p>`))
		req.NoError(err)
		req.Len(fragment.Children, 2)
		req.Equal("one two", TextOf(fragment.Children[0]))
		req.Equal(`<p>one <em>two</em></p><p>three</p>`, String(fragment))
	})
}
