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
	"io"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render serializes content as HTML.
func Render(w io.Writer, content Content) error {
	for _, node := range ToHTML(content) {
		if err := html.Render(w, node); err != nil {
			return errors.Wrap(err, "failed to render html")
		}
	}
	return nil
}

// RenderDocument serializes a complete HTML document, prefixed with the html5 doctype.
func RenderDocument(w io.Writer, root *Element) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	for _, node := range ToHTML(root) {
		doc.AppendChild(node)
	}
	if err := html.Render(w, doc); err != nil {
		return errors.Wrap(err, "failed to render html document")
	}
	return nil
}

// String renders content as an HTML string. Serialization errors are rendered as an empty string.
func String(content Content) string {
	buf := &bytes.Buffer{}
	if err := Render(buf, content); err != nil {
		return ""
	}
	return buf.String()
}

// ToHTML converts content into detached html nodes. A fragment yields one node per flattened child.
func ToHTML(content Content) []*html.Node {
	var result []*html.Node
	for _, node := range Flatten(content) {
		switch typed := node.(type) {
		case *Text:
			result = append(result, &html.Node{Type: html.TextNode, Data: typed.Value})
		case *Element:
			result = append(result, elementToHTML(typed))
		}
	}
	return result
}

func elementToHTML(el *Element) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     el.Tag,
		DataAtom: atom.Lookup([]byte(el.Tag)),
	}
	for _, attr := range el.Attrs {
		node.Attr = append(node.Attr, html.Attribute{Key: attr.Name, Val: attr.Value})
	}
	for _, child := range el.Children {
		for _, converted := range ToHTML(child) {
			node.AppendChild(converted)
		}
	}
	return node
}

// FromHTML converts html nodes into content. Comments and doctype nodes are dropped.
func FromHTML(nodes ...*html.Node) *Fragment {
	result := &Fragment{}
	for _, node := range nodes {
		result.Add(fromHTMLNode(node))
	}
	return result
}

func fromHTMLNode(node *html.Node) Content {
	switch node.Type {
	case html.TextNode:
		return NewText(node.Data)
	case html.ElementNode:
		el := NewElement(node.Data)
		for _, attr := range node.Attr {
			name := attr.Key
			if attr.Namespace != "" {
				name = attr.Namespace + ":" + name
			}
			el.Set(name, attr.Val)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			el.Add(fromHTMLNode(child))
		}
		return el
	case html.DocumentNode:
		result := &Fragment{}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			result.Add(fromHTMLNode(child))
		}
		return result
	}
	return nil
}

// ParseHTMLFragment parses an HTML snippet as the content of a body element.
func ParseHTMLFragment(r io.Reader) (*Fragment, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse html fragment")
	}
	return FromHTML(nodes...), nil
}
