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
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	"github.com/openziti/xsite/dom"
	"github.com/openziti/xsite/fragment"
)

// ErrorClass is the class of the inline block rendered for failed widgets in diagnostics mode.
const ErrorClass = "site-error"

// Compiler expands custom elements. It holds no per-render state and may be shared by concurrent renders.
type Compiler struct {
	registry    Registry
	diagnostics bool
}

type Option func(compiler *Compiler)

// WithDiagnostics renders failed widgets in place as error blocks instead of aborting the render. Unknown widgets
// abort the render regardless.
func WithDiagnostics(enabled bool) Option {
	return func(compiler *Compiler) {
		compiler.diagnostics = enabled
	}
}

func NewCompiler(registry Registry, options ...Option) *Compiler {
	compiler := &Compiler{registry: registry}
	for _, option := range options {
		option(compiler)
	}
	return compiler
}

func (compiler *Compiler) Diagnostics() bool {
	return compiler.diagnostics
}

// Expand returns a new content tree with every custom element replaced by its widget's output. The source tree is
// not modified. Widgets run in scopes nested under the current scope of ctx, or under the global scope when ctx
// carries none.
func (compiler *Compiler) Expand(ctx context.Context, source dom.Content) (dom.Content, error) {
	return compiler.expand(ctx, source)
}

func (compiler *Compiler) expand(ctx context.Context, source dom.Content) (dom.Content, error) {
	switch node := source.(type) {
	case nil:
		return nil, nil
	case *dom.Text:
		return node, nil
	case *dom.Fragment:
		if node == nil {
			return nil, nil
		}
		result := &dom.Fragment{}
		if err := compiler.expandChildren(ctx, node.Children, func(child dom.Content) { result.Add(child) }); err != nil {
			return nil, err
		}
		return result, nil
	case *dom.Element:
		if node == nil {
			return nil, nil
		}
		if node.Tag == FragmentTag {
			result := &dom.Fragment{}
			if err := compiler.expandChildren(ctx, node.Children, func(child dom.Content) { result.Add(child) }); err != nil {
				return nil, err
			}
			return result, nil
		}
		if strings.HasPrefix(node.Tag, Prefix) {
			return compiler.expandWidget(ctx, node)
		}
		compiled := &dom.Element{
			Tag:   node.Tag,
			Key:   node.Key,
			Attrs: append([]dom.Attr(nil), node.Attrs...),
			Hooks: append([]dom.Hook(nil), node.Hooks...),
		}
		if err := compiler.expandChildren(ctx, node.Children, func(child dom.Content) { compiled.Add(child) }); err != nil {
			return nil, err
		}
		return compiled, nil
	}
	return source, nil
}

// expandChildren expands children in document order. Children of transparent fragment elements are spliced.
func (compiler *Compiler) expandChildren(ctx context.Context, children []dom.Content, add func(dom.Content)) error {
	for _, child := range children {
		if el, ok := child.(*dom.Element); ok && el != nil && el.Tag == FragmentTag {
			if err := compiler.expandChildren(ctx, el.Children, add); err != nil {
				return err
			}
			continue
		}
		expanded, err := compiler.expand(ctx, child)
		if err != nil {
			return err
		}
		add(expanded)
	}
	return nil
}

func (compiler *Compiler) expandWidget(ctx context.Context, source *dom.Element) (dom.Content, error) {
	name := strings.TrimPrefix(source.Tag, Prefix)
	w := compiler.registry.Get(name)
	if w == nil {
		return nil, &UnknownWidgetError{Name: name}
	}

	id := source.ID()
	if id == "" {
		id = name
	}
	parent, ok := fragment.Current(ctx)
	if !ok {
		parent = fragment.Global()
	}
	scope, err := parent.Nest(id)
	if err != nil {
		return nil, err
	}

	wc := newContext(scope.Open(ctx), compiler, w, source, scope)
	result, err := invoke(w, wc)
	if err != nil {
		var unknown *UnknownWidgetError
		if errors.As(err, &unknown) {
			return nil, unknown
		}
		return compiler.failed(&WidgetError{Name: name, ID: scope.ElementID(), Err: err, Stack: stackOf(err)})
	}

	if len(scope.Content().Children) > 0 {
		result = dom.NewFragment(append(append([]dom.Content(nil), scope.Content().Children...), result)...)
	}
	result = compiler.merge(source, wc, result)

	return compiler.expand(wc.Context(), result)
}

// merge copies unconsumed source attributes onto a single result element. Source attributes win on conflict.
func (compiler *Compiler) merge(source *dom.Element, wc *Context, result dom.Content) dom.Content {
	nodes := dom.Flatten(result)
	if len(nodes) != 1 {
		return result
	}
	generated, ok := nodes[0].(*dom.Element)
	if !ok {
		return result
	}

	var attrs []dom.Attr
	for _, attr := range source.Attrs {
		if !wc.consumed[attr.Name] {
			attrs = append(attrs, attr)
		}
	}
	if len(attrs) == 0 {
		return generated
	}

	annotated := generated.ShallowCopy()
	annotated.SetAttrs(attrs...)
	return annotated
}

func (compiler *Compiler) failed(err *WidgetError) (dom.Content, error) {
	if !compiler.diagnostics {
		return nil, err
	}
	pfxlog.Logger().WithField("widget", err.Name).WithField("id", err.ID).Errorf("widget failed to expand: %v", err.Err)
	return dom.NewElement("pre").Set("class", ErrorClass).AddText(err.Details()), nil
}

func invoke(w *Widget, wc *Context) (result dom.Content, err error) {
	defer func() {
		if panicVal := recover(); panicVal != nil {
			err = &stackError{PanicError: PanicError{Value: panicVal}, stack: debugz.GenerateLocalStack()}
		}
	}()
	return w.Expand(wc)
}

type stackError struct {
	PanicError
	stack string
}

func stackOf(err error) string {
	var withStack *stackError
	if errors.As(err, &withStack) {
		return withStack.stack
	}
	return ""
}
