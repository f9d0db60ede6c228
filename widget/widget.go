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

// Package widget expands custom elements in content trees. A custom element is a tagged node named with the
// Prefix marker; the rest of its name selects a Widget from a Registry.
package widget

import (
	"fmt"
	"sort"

	"github.com/openziti/xsite/dom"
	"github.com/sirupsen/logrus"
)

const (
	// Prefix marks custom elements.
	Prefix = "x-"

	// FragmentTag is a transparent element. Its expanded children are spliced into the parent.
	FragmentTag = "fragment"
)

// Func produces the replacement for a custom element. Content written to the widget's scope through Context.Add
// precedes the returned content.
type Func func(wc *Context) (dom.Content, error)

// Widget binds a name to an expansion function and declares the source attributes it consumes.
type Widget struct {
	Name     string
	Consumes []string
	Expand   Func
}

// New creates a widget.
func New(name string, expand Func) *Widget {
	return &Widget{Name: name, Expand: expand}
}

// Consume declares attributes the widget takes as parameters. Consumed attributes are not copied onto the widget's
// result element.
func (w *Widget) Consume(attrs ...string) *Widget {
	w.Consumes = append(w.Consumes, attrs...)
	return w
}

// Rename returns a copy of the widget registered under another name.
func (w *Widget) Rename(name string) *Widget {
	return &Widget{Name: name, Consumes: append([]string(nil), w.Consumes...), Expand: w.Expand}
}

// Registry describes a registry of widgets by name
type Registry interface {
	Add(widgets ...*Widget) error
	Get(name string) *Widget
}

// RegistryMap is a basic Registry implementation backed by a map. It is populated at startup and read-only
// afterwards.
type RegistryMap struct {
	widgets map[string]*Widget
}

// NewRegistryMap creates a new RegistryMap
func NewRegistryMap() *RegistryMap {
	return &RegistryMap{
		widgets: map[string]*Widget{},
	}
}

// Add adds widgets to the registry. Errors if a widget with the same name is registered.
func (registry *RegistryMap) Add(widgets ...*Widget) error {
	for _, w := range widgets {
		logrus.Debugf("adding widget: %v", w.Name)
		if w.Name == "" {
			return fmt.Errorf("widget name must not be empty")
		}
		if w.Expand == nil {
			return fmt.Errorf("widget [%s] has no expansion function", w.Name)
		}
		if _, ok := registry.widgets[w.Name]; ok {
			return fmt.Errorf("widget [%s] already registered", w.Name)
		}
		registry.widgets[w.Name] = w
	}
	return nil
}

// Get retrieves a widget by name or nil if no such widget is registered
func (registry *RegistryMap) Get(name string) *Widget {
	return registry.widgets[name]
}

// Names lists registered widget names in lexical order.
func (registry *RegistryMap) Names() []string {
	var names []string
	for name := range registry.widgets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain looks widgets up in each registry in turn.
type Chain []Registry

func (chain Chain) Add(widgets ...*Widget) error {
	if len(chain) == 0 {
		return fmt.Errorf("cannot add widgets to an empty registry chain")
	}
	return chain[0].Add(widgets...)
}

func (chain Chain) Get(name string) *Widget {
	for _, registry := range chain {
		if registry == nil {
			continue
		}
		if w := registry.Get(name); w != nil {
			return w
		}
	}
	return nil
}
