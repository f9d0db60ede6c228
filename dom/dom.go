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

// Package dom defines the content tree produced by templates and consumed by the HTML serializer.
//
// A tree is built from three node kinds: Text leaves, Fragment containers without tag semantics and tagged
// Element nodes. Trees handed out by loaders may be shared between renders, so code transforming a tree must build
// new nodes instead of editing existing ones in place.
package dom

import (
	"context"
	"strings"
)

// Content is a node of a content tree: *Text, *Fragment or *Element.
type Content interface {
	content()
}

// Text is a leaf node holding character data.
type Text struct {
	Value string
}

func (*Text) content() {}

// NewText creates a text leaf.
func NewText(value string) *Text {
	return &Text{Value: value}
}

// Fragment is a transparent container. Serializers emit its children in place of the fragment.
type Fragment struct {
	Children []Content
}

func (*Fragment) content() {}

// NewFragment creates a fragment, skipping nil children.
func NewFragment(children ...Content) *Fragment {
	return (&Fragment{}).Add(children...)
}

// Add appends children, skipping nil values.
func (f *Fragment) Add(children ...Content) *Fragment {
	for _, child := range children {
		if child != nil && !isNilContent(child) {
			f.Children = append(f.Children, child)
		}
	}
	return f
}

// AddText appends a text leaf.
func (f *Fragment) AddText(value string) *Fragment {
	return f.Add(NewText(value))
}

// Attr is a single named attribute. Names are unique within one element.
type Attr struct {
	Name  string
	Value string
}

// Hook is a behavior attached to an element, e.g. an event listener wired by the streaming layer.
type Hook struct {
	Event  string
	Handle func(ctx context.Context) error
}

// Element is a tagged node with ordered attributes, ordered children and attached hooks.
type Element struct {
	Tag      string
	Key      string
	Attrs    []Attr
	Children []Content
	Hooks    []Hook
}

func (*Element) content() {}

// NewElement creates an empty element with the given tag name.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// ID returns the id attribute or an empty string.
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Set sets an attribute. An existing attribute keeps its position and gets the new value.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// SetAttrs sets every attribute in order, overriding existing values.
func (e *Element) SetAttrs(attrs ...Attr) *Element {
	for _, attr := range attrs {
		e.Set(attr.Name, attr.Value)
	}
	return e
}

// Remove deletes the named attribute if present.
func (e *Element) Remove(name string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i:i], e.Attrs[i+1:]...)
			return e
		}
	}
	return e
}

// Add appends children, skipping nil values.
func (e *Element) Add(children ...Content) *Element {
	for _, child := range children {
		if child != nil && !isNilContent(child) {
			e.Children = append(e.Children, child)
		}
	}
	return e
}

// AddText appends a text leaf.
func (e *Element) AddText(value string) *Element {
	return e.Add(NewText(value))
}

// Subscribe attaches a hook.
func (e *Element) Subscribe(hook Hook) *Element {
	e.Hooks = append(e.Hooks, hook)
	return e
}

// ShallowCopy returns a new element with the same tag, key, attributes, children and hooks. Slices are copied, the
// children themselves are shared.
func (e *Element) ShallowCopy() *Element {
	return &Element{
		Tag:      e.Tag,
		Key:      e.Key,
		Attrs:    append([]Attr(nil), e.Attrs...),
		Children: append([]Content(nil), e.Children...),
		Hooks:    append([]Hook(nil), e.Hooks...),
	}
}

// Elements returns the element children, skipping text and fragments.
func (e *Element) Elements() []*Element {
	var result []*Element
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok {
			result = append(result, el)
		}
	}
	return result
}

// Text returns concatenated character data of the whole subtree.
func (e *Element) Text() string {
	builder := &strings.Builder{}
	collectText(builder, e)
	return builder.String()
}

// TextOf returns concatenated character data of any content node.
func TextOf(content Content) string {
	builder := &strings.Builder{}
	collectText(builder, content)
	return builder.String()
}

func collectText(builder *strings.Builder, content Content) {
	switch node := content.(type) {
	case *Text:
		builder.WriteString(node.Value)
	case *Fragment:
		for _, child := range node.Children {
			collectText(builder, child)
		}
	case *Element:
		for _, child := range node.Children {
			collectText(builder, child)
		}
	}
}

// Flatten returns top-level nodes of content with fragments unwrapped recursively.
func Flatten(content Content) []Content {
	var result []Content
	var visit func(Content)
	visit = func(node Content) {
		if node == nil || isNilContent(node) {
			return
		}
		if fragment, ok := node.(*Fragment); ok {
			for _, child := range fragment.Children {
				visit(child)
			}
			return
		}
		result = append(result, node)
	}
	visit(content)
	return result
}

func isNilContent(content Content) bool {
	switch node := content.(type) {
	case *Text:
		return node == nil
	case *Fragment:
		return node == nil
	case *Element:
		return node == nil
	}
	return false
}
