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

package widget

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openziti/xsite/dom"
	"github.com/openziti/xsite/fragment"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, xml string) *dom.Element {
	root, err := dom.ParseXML([]byte(xml))
	require.NoError(t, err)
	return root
}

func newRegistry(t *testing.T, widgets ...*Widget) *RegistryMap {
	registry := NewRegistryMap()
	require.NoError(t, registry.Add(widgets...))
	return registry
}

func TestAttributeMerge(t *testing.T) {
	foo := New("foo", func(wc *Context) (dom.Content, error) {
		return dom.NewElement("div").Set("class", "blue"), nil
	}).Consume("data-id")

	t.Run("source attributes win and consumed attributes are dropped", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, foo))
		result, err := compiler.Expand(context.Background(), parse(t, `<x-foo class="red" data-id="5"/>`))
		req.NoError(err)
		req.Equal(`<div class="red"></div>`, dom.String(result))
	})

	t.Run("dynamically consumed attributes are dropped", func(t *testing.T) {
		req := require.New(t)
		link := New("link", func(wc *Context) (dom.Content, error) {
			return dom.NewElement("a").Set("href", "/"+wc.Consume("target")), nil
		})
		compiler := NewCompiler(newRegistry(t, link))
		result, err := compiler.Expand(context.Background(), parse(t, `<x-link target="docs" title="Docs"/>`))
		req.NoError(err)
		req.Equal(`<a href="/docs" title="Docs"></a>`, dom.String(result))
	})

	t.Run("multiple result nodes skip merging", func(t *testing.T) {
		req := require.New(t)
		pair := New("pair", func(wc *Context) (dom.Content, error) {
			return dom.NewFragment(dom.NewElement("b"), dom.NewElement("i")), nil
		})
		compiler := NewCompiler(newRegistry(t, pair))
		result, err := compiler.Expand(context.Background(), parse(t, `<x-pair class="x"/>`))
		req.NoError(err)
		req.Equal(`<b></b><i></i>`, dom.String(result))
	})

	t.Run("key, children and hooks of the result are preserved", func(t *testing.T) {
		req := require.New(t)
		hooked := New("hooked", func(wc *Context) (dom.Content, error) {
			el := dom.NewElement("button").Set("class", "generated").AddText("Go")
			el.Key = "k1"
			el.Subscribe(dom.Hook{Event: "click", Handle: func(ctx context.Context) error { return nil }})
			return el, nil
		})
		compiler := NewCompiler(newRegistry(t, hooked))
		result, err := compiler.Expand(context.Background(), parse(t, `<x-hooked class="primary" id="go"/>`))
		req.NoError(err)

		el, ok := result.(*dom.Element)
		req.True(ok)
		req.Equal("k1", el.Key)
		req.Len(el.Hooks, 1)
		req.Equal("click", el.Hooks[0].Event)
		req.Equal(`<button class="primary" id="go">Go</button>`, dom.String(el))
	})
}

func TestExpand(t *testing.T) {
	echo := New("echo", func(wc *Context) (dom.Content, error) {
		return dom.NewElement("span").Set("data-scope", wc.Scope().ElementID()).Add(wc.Children()), nil
	})
	wrap := New("wrap", func(wc *Context) (dom.Content, error) {
		return dom.NewElement("section").Add(dom.NewElement("x-echo").AddText(wc.Consume("label"))), nil
	})

	t.Run("expansion is pure per call", func(t *testing.T) {
		req := require.New(t)
		source := parse(t, `<div><x-echo id="one">a</x-echo><p><x-wrap label="b"/></p></div>`)
		pristine := parse(t, `<div><x-echo id="one">a</x-echo><p><x-wrap label="b"/></p></div>`)
		compiler := NewCompiler(newRegistry(t, echo, wrap))

		first, err := compiler.Expand(context.Background(), source)
		req.NoError(err)
		second, err := compiler.Expand(context.Background(), source)
		req.NoError(err)

		req.Empty(cmp.Diff(first, second))
		req.Empty(cmp.Diff(pristine, source))
		req.Equal(`<div><span data-scope="one" id="one">a</span><p><section><span data-scope="wrap/echo">b</span></section></p></div>`, dom.String(first))
	})

	t.Run("transparent fragments are spliced", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, echo))
		result, err := compiler.Expand(context.Background(), parse(t, `<ul><fragment><li>1</li><x-echo>2</x-echo></fragment><li>3</li></ul>`))
		req.NoError(err)

		el := result.(*dom.Element)
		req.Len(el.Children, 3)
		req.Equal(`<ul><li>1</li><span data-scope="echo">2</span><li>3</li></ul>`, dom.String(el))
	})

	t.Run("widgets nest under the current scope", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, echo))
		ctx := fragment.Global().MustNest("page").Open(context.Background())
		result, err := compiler.Expand(ctx, parse(t, `<x-echo id="a b"/>`))
		req.NoError(err)
		req.Equal(`<span data-scope="page/a_b" id="a b"></span>`, dom.String(result))
	})

	t.Run("sink content precedes returned content", func(t *testing.T) {
		req := require.New(t)
		input := New("input", func(wc *Context) (dom.Content, error) {
			wc.Add(dom.NewElement("label").AddText("Name"))
			return dom.NewElement("input").Set("name", "name"), nil
		})
		compiler := NewCompiler(newRegistry(t, input))
		result, err := compiler.Expand(context.Background(), parse(t, `<form><x-input class="wide"/></form>`))
		req.NoError(err)
		req.Equal(`<form><label>Name</label><input name="name"/></form>`, dom.String(result))
	})

	t.Run("text passes through unchanged", func(t *testing.T) {
		req := require.New(t)
		text := dom.NewText("plain")
		result, err := NewCompiler(NewRegistryMap()).Expand(context.Background(), text)
		req.NoError(err)
		req.Same(text, result)
	})
}

func TestExpandErrors(t *testing.T) {
	broken := New("broken", func(wc *Context) (dom.Content, error) {
		return nil, errors.New("database unavailable")
	})
	panicky := New("panicky", func(wc *Context) (dom.Content, error) {
		panic("boom")
	})
	outer := New("outer", func(wc *Context) (dom.Content, error) {
		return wc.Expand(dom.NewElement("x-nonexistent"))
	})

	for _, diagnostics := range []bool{false, true} {
		compiler := NewCompiler(newRegistry(t, broken, panicky, outer), WithDiagnostics(diagnostics))

		t.Run("unknown widgets always fail", func(t *testing.T) {
			req := require.New(t)
			_, err := compiler.Expand(context.Background(), parse(t, `<div><x-nonexistent/></div>`))
			req.Error(err)
			var unknown *UnknownWidgetError
			req.True(errors.As(err, &unknown))
			req.Equal("nonexistent", unknown.Name)
			req.Contains(err.Error(), "nonexistent")
		})

		t.Run("unknown widgets expanded by widgets always fail", func(t *testing.T) {
			req := require.New(t)
			_, err := compiler.Expand(context.Background(), parse(t, `<x-outer/>`))
			var unknown *UnknownWidgetError
			req.True(errors.As(err, &unknown))
		})
	}

	t.Run("failed widgets abort the render without diagnostics", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, broken))
		_, err := compiler.Expand(context.Background(), parse(t, `<div><x-broken id="db"/></div>`))
		var failed *WidgetError
		req.True(errors.As(err, &failed))
		req.Equal("broken", failed.Name)
		req.Equal("db", failed.ID)
		req.EqualError(errors.Unwrap(err), "database unavailable")
	})

	t.Run("failed widgets render inline with diagnostics", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, broken), WithDiagnostics(true))
		result, err := compiler.Expand(context.Background(), parse(t, `<div><p>before</p><x-broken/></div>`))
		req.NoError(err)

		el := result.(*dom.Element)
		req.Len(el.Children, 2)
		pre := el.Children[1].(*dom.Element)
		req.Equal("pre", pre.Tag)
		class, _ := pre.Attr("class")
		req.Equal(ErrorClass, class)
		req.Contains(pre.Text(), "database unavailable")
	})

	t.Run("nested failures render inside the returning widget with diagnostics", func(t *testing.T) {
		req := require.New(t)
		wrapper := New("wrapper", func(wc *Context) (dom.Content, error) {
			return dom.NewElement("section").Add(dom.NewElement("x-broken")), nil
		})
		compiler := NewCompiler(newRegistry(t, broken, wrapper), WithDiagnostics(true))
		result, err := compiler.Expand(context.Background(), parse(t, `<x-wrapper/>`))
		req.NoError(err)

		section := result.(*dom.Element)
		req.Equal("section", section.Tag)
		req.Len(section.Children, 1)
		pre := section.Children[0].(*dom.Element)
		req.Equal("pre", pre.Tag)
		req.Contains(pre.Text(), "database unavailable")

		_, err = NewCompiler(newRegistry(t, broken, wrapper)).Expand(context.Background(), parse(t, `<x-wrapper/>`))
		var failed *WidgetError
		req.True(errors.As(err, &failed))
		req.Equal("broken", failed.Name)
	})

	t.Run("panics are recovered with a stack", func(t *testing.T) {
		req := require.New(t)
		compiler := NewCompiler(newRegistry(t, panicky))
		_, err := compiler.Expand(context.Background(), parse(t, `<x-panicky/>`))
		var failed *WidgetError
		req.True(errors.As(err, &failed))
		req.Contains(failed.Error(), "panic: boom")
		req.NotEmpty(failed.Stack)
	})
}

func TestRegistryMap(t *testing.T) {
	t.Run("duplicate names are rejected", func(t *testing.T) {
		req := require.New(t)
		registry := NewRegistryMap()
		w := New("a", func(wc *Context) (dom.Content, error) { return nil, nil })
		req.NoError(registry.Add(w))
		req.Error(registry.Add(w))
		req.NoError(registry.Add(w.Rename("b")))
		req.Equal([]string{"a", "b"}, registry.Names())
	})

	t.Run("chains fall through to later registries", func(t *testing.T) {
		req := require.New(t)
		first := NewRegistryMap()
		second := newRegistry(t, New("late", func(wc *Context) (dom.Content, error) { return nil, nil }))
		chain := Chain{first, second}
		req.NotNil(chain.Get("late"))
		req.Nil(chain.Get("missing"))
	})
}
