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

// Package template parses page template documents. A template carries location metadata (path, aliases, titles,
// dates, child references) and content sections that are expanded by the widget compiler when a page renders.
package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/openziti/xsite/dom"
	"github.com/pkg/errors"
)

// RootTag is the required root element of XML templates.
const RootTag = "template"

// Metadata is the part of a template needed to build location trees and listings.
type Metadata struct {
	Path        string
	Aliases     []string
	Title       string
	Supertitle  string
	Extitle     string
	Breadcrumb  string
	Description string
	Language    string
	Priority    *float64
	Published   time.Time
	Updated     time.Time
	Children    []string
	Lead        *dom.Fragment
}

// Template is a parsed template. Parsed templates are cached and shared, so content sections must be treated as
// read-only.
type Template struct {
	Metadata
	Body     *dom.Element
	Main     *dom.Element
	Article  *dom.Element
	Checksum string
}

// Content returns the most specific content section: body, then main, then article.
func (t *Template) Content() *dom.Element {
	switch {
	case t.Body != nil:
		return t.Body
	case t.Main != nil:
		return t.Main
	default:
		return t.Article
	}
}

// ParseXML parses an XML template document.
func ParseXML(data []byte) (*Template, error) {
	root, err := dom.ParseXML(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != RootTag {
		return nil, errors.Errorf("unrecognized top element [%s], expected [%s]", root.Tag, RootTag)
	}

	result := &Template{}
	for _, child := range root.Elements() {
		if err := result.apply(child); err != nil {
			return nil, errors.Wrapf(err, "invalid template element [%s]", child.Tag)
		}
	}
	return result, nil
}

func (t *Template) apply(child *dom.Element) error {
	text := NormalizeWhitespace(child.Text())
	switch child.Tag {
	case "body":
		t.Body = child
	case "main":
		t.Main = child
	case "article":
		t.Article = child
	case "path":
		t.Path = text
	case "alias":
		if text != "" {
			t.Aliases = append(t.Aliases, text)
		}
	case "title":
		t.Title = text
	case "supertitle":
		t.Supertitle = text
	case "extitle":
		t.Extitle = text
	case "breadcrumb":
		t.Breadcrumb = text
	case "description":
		t.Description = text
	case "language":
		t.Language = text
	case "priority":
		priority, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid priority [%s]", text)
		}
		t.Priority = &priority
	case "published":
		published, err := ParseDateTime(text)
		if err != nil {
			return err
		}
		t.Published = published
	case "updated":
		updated, err := ParseDateTime(text)
		if err != nil {
			return err
		}
		t.Updated = updated
	case "child":
		if text != "" {
			t.Children = append(t.Children, text)
		}
	case "lead":
		t.Lead = dom.NewFragment(child.Children...)
	default:
		return errors.New("unrecognized template element")
	}
	return nil
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses "yyyy-MM-dd[ HH:mm[:ss]]" in UTC.
func ParseDateTime(text string) (time.Time, error) {
	text = NormalizeWhitespace(text)
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date [%s], expected yyyy-MM-dd[ HH:mm[:ss]]", text)
}

// NormalizeWhitespace collapses whitespace runs into single spaces and trims the result.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
