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

	"github.com/openziti/xsite/dom"
	"github.com/openziti/xsite/fragment"
)

// Context is handed to a widget while it expands one custom element.
type Context struct {
	ctx      context.Context
	compiler *Compiler
	widget   *Widget
	source   *dom.Element
	scope    *fragment.Scope
	consumed map[string]bool
}

func newContext(ctx context.Context, compiler *Compiler, w *Widget, source *dom.Element, scope *fragment.Scope) *Context {
	consumed := map[string]bool{}
	for _, name := range w.Consumes {
		consumed[name] = true
	}
	return &Context{
		ctx:      ctx,
		compiler: compiler,
		widget:   w,
		source:   source,
		scope:    scope,
		consumed: consumed,
	}
}

// Context returns the render context with the widget's scope installed as the current scope.
func (wc *Context) Context() context.Context {
	return wc.ctx
}

func (wc *Context) Name() string {
	return wc.widget.Name
}

// Source returns the custom element being expanded. It must not be modified.
func (wc *Context) Source() *dom.Element {
	return wc.source
}

func (wc *Context) Scope() *fragment.Scope {
	return wc.scope
}

// Attr reads a source attribute without consuming it.
func (wc *Context) Attr(name string) (string, bool) {
	return wc.source.Attr(name)
}

// Consume reads a source attribute and marks it consumed, so it is not copied onto the result element.
func (wc *Context) Consume(name string) string {
	wc.consumed[name] = true
	value, _ := wc.source.Attr(name)
	return value
}

// ConsumeAll marks attributes consumed.
func (wc *Context) ConsumeAll(names ...string) {
	for _, name := range names {
		wc.consumed[name] = true
	}
}

// Consumed reports whether the attribute is consumed.
func (wc *Context) Consumed(name string) bool {
	return wc.consumed[name]
}

// Children returns the source element's children or nil when it has none.
func (wc *Context) Children() *dom.Fragment {
	if len(wc.source.Children) == 0 {
		return nil
	}
	return dom.NewFragment(wc.source.Children...)
}

// Expand expands content within the widget's scope.
func (wc *Context) Expand(content dom.Content) (dom.Content, error) {
	return wc.compiler.Expand(wc.ctx, content)
}

// Add writes content to the widget's scope. It is emitted before the widget's returned content.
func (wc *Context) Add(children ...dom.Content) *Context {
	wc.scope.Add(children...)
	return wc
}
