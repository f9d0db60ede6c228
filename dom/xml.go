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
	"bytes"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ParseXML parses an XML document and returns its root element. A leading byte order mark is ignored. Comments,
// processing instructions and directives are dropped, and whitespace-only character data spanning lines is treated
// as indentation and removed.
func ParseXML(data []byte) (*Element, error) {
	data = bytes.TrimPrefix(data, byteOrderMark)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrap(err, "failed to parse xml")
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("xml document has no root element")
	}

	return FromXML(root), nil
}

// FromXML converts an etree element into a content element.
func FromXML(source *etree.Element) *Element {
	result := NewElement(qualifiedName(source.Space, source.Tag))
	for _, attr := range source.Attr {
		result.Set(qualifiedName(attr.Space, attr.Key), attr.Value)
	}

	for _, token := range source.Child {
		switch child := token.(type) {
		case *etree.Element:
			result.Add(FromXML(child))
		case *etree.CharData:
			if child.IsWhitespace() && strings.ContainsAny(child.Data, "\r\n") {
				continue
			}
			result.AddText(child.Data)
		}
	}

	return result
}

// ToXML converts a content element into an etree element. Fragments are unwrapped, hooks are not representable
// and are dropped.
func ToXML(source *Element) *etree.Element {
	result := etree.NewElement(source.Tag)
	for _, attr := range source.Attrs {
		result.CreateAttr(attr.Name, attr.Value)
	}
	for _, child := range source.Children {
		appendXML(result, child)
	}
	return result
}

func appendXML(parent *etree.Element, content Content) {
	switch node := content.(type) {
	case *Text:
		parent.CreateText(node.Value)
	case *Fragment:
		for _, child := range node.Children {
			appendXML(parent, child)
		}
	case *Element:
		parent.AddChild(ToXML(node))
	}
}

func qualifiedName(space, name string) string {
	if space == "" {
		return name
	}
	return space + ":" + name
}
