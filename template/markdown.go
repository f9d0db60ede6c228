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
	"bytes"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/openziti/xsite/dom"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type frontMatter struct {
	Path        string   `yaml:"path"`
	Aliases     []string `yaml:"aliases"`
	Title       string   `yaml:"title"`
	Supertitle  string   `yaml:"supertitle"`
	Extitle     string   `yaml:"extitle"`
	Breadcrumb  string   `yaml:"breadcrumb"`
	Description string   `yaml:"description"`
	Language    string   `yaml:"language"`
	Priority    *float64 `yaml:"priority"`
	Published   string   `yaml:"published"`
	Updated     string   `yaml:"updated"`
	Children    []string `yaml:"children"`
	Lead        string   `yaml:"lead"`
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// ParseMarkdown parses a markdown template with optional YAML front matter. The rendered body becomes the article
// section. A missing title is derived from the file name.
func ParseMarkdown(name string, data []byte) (*Template, error) {
	matter := &frontMatter{}
	body, err := frontmatter.Parse(bytes.NewReader(data), matter)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid front matter in [%s]", name)
	}

	result := &Template{}
	result.Path = NormalizeWhitespace(matter.Path)
	for _, alias := range matter.Aliases {
		if alias = NormalizeWhitespace(alias); alias != "" {
			result.Aliases = append(result.Aliases, alias)
		}
	}
	result.Title = NormalizeWhitespace(matter.Title)
	if result.Title == "" {
		result.Title = titleFromName(name)
	}
	result.Supertitle = NormalizeWhitespace(matter.Supertitle)
	result.Extitle = NormalizeWhitespace(matter.Extitle)
	result.Breadcrumb = NormalizeWhitespace(matter.Breadcrumb)
	result.Description = NormalizeWhitespace(matter.Description)
	result.Language = NormalizeWhitespace(matter.Language)
	result.Priority = matter.Priority
	if matter.Published != "" {
		if result.Published, err = ParseDateTime(matter.Published); err != nil {
			return nil, errors.Wrapf(err, "invalid published date in [%s]", name)
		}
	}
	if matter.Updated != "" {
		if result.Updated, err = ParseDateTime(matter.Updated); err != nil {
			return nil, errors.Wrapf(err, "invalid updated date in [%s]", name)
		}
	}
	for _, child := range matter.Children {
		if child = NormalizeWhitespace(child); child != "" {
			result.Children = append(result.Children, child)
		}
	}
	if matter.Lead != "" {
		if result.Lead, err = renderMarkdown([]byte(matter.Lead)); err != nil {
			return nil, errors.Wrapf(err, "invalid lead in [%s]", name)
		}
	}

	content, err := renderMarkdown(body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render markdown [%s]", name)
	}
	result.Article = dom.NewElement("article").Add(content.Children...)
	return result, nil
}

func renderMarkdown(source []byte) (*dom.Fragment, error) {
	buf := &bytes.Buffer{}
	if err := markdown.Convert(source, buf); err != nil {
		return nil, err
	}
	return dom.ParseHTMLFragment(buf)
}

func titleFromName(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(base)
}
