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

package xsite

import (
	"bytes"
	"io"

	"github.com/openziti/xsite/template"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LocationConfig is the YAML form of a location tree.
//
//	path: /
//	title: Example
//	children:
//	  - template: about
//	  - subtree: /old/
//	    redirectTree: /archive/
//	  - path: style.css
//	    resource: style.css
type LocationConfig struct {
	Key          string            `yaml:"key"`
	Path         string            `yaml:"path"`
	Subtree      string            `yaml:"subtree"`
	Aliases      []string          `yaml:"aliases"`
	Virtual      bool              `yaml:"virtual"`
	Priority     *float64          `yaml:"priority"`
	NoPriority   bool              `yaml:"noPriority"`
	Template     string            `yaml:"template"`
	Resources    string            `yaml:"resources"`
	Title        string            `yaml:"title"`
	Supertitle   string            `yaml:"supertitle"`
	Extitle      string            `yaml:"extitle"`
	Breadcrumb   string            `yaml:"breadcrumb"`
	Description  string            `yaml:"description"`
	Language     string            `yaml:"language"`
	Published    string            `yaml:"published"`
	Updated      string            `yaml:"updated"`
	Page         bool              `yaml:"page"`
	Resource     string            `yaml:"resource"`
	Redirect     string            `yaml:"redirect"`
	RedirectTree string            `yaml:"redirectTree"`
	Status       int               `yaml:"status"`
	Gone         bool              `yaml:"gone"`
	Children     []*LocationConfig `yaml:"children"`
}

// ParseLocationConfig decodes a YAML location tree. Unknown keys are rejected.
func ParseLocationConfig(r io.Reader) (*LocationConfig, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	config := &LocationConfig{}
	if err := decoder.Decode(config); err != nil {
		if errors.Is(err, io.EOF) {
			return config, nil
		}
		return nil, errors.Wrap(err, "failed to parse location tree")
	}
	return config, nil
}

// ParseLocationConfigBytes is ParseLocationConfig for in-memory documents.
func ParseLocationConfigBytes(data []byte) (*LocationConfig, error) {
	return ParseLocationConfig(bytes.NewReader(data))
}

// Location builds an uncompiled location tree.
func (config *LocationConfig) Location() (*Location, error) {
	location := NewLocation().
		WithKey(config.Key).
		WithPath(config.Path).
		WithAlias(config.Aliases...).
		WithVirtual(config.Virtual).
		WithTemplate(config.Template).
		WithResources(config.Resources).
		WithTitle(config.Title).
		WithSupertitle(config.Supertitle).
		WithExtitle(config.Extitle).
		WithBreadcrumb(config.Breadcrumb).
		WithDescription(config.Description).
		WithLanguage(config.Language)

	if config.Subtree != "" {
		location.WithSubtree(config.Subtree)
	}
	if config.Priority != nil {
		location.WithPriority(*config.Priority)
	}
	if config.NoPriority {
		location.WithoutPriority()
	}
	if config.Published != "" {
		published, err := template.ParseDateTime(config.Published)
		if err != nil {
			return nil, err
		}
		location.WithPublished(published)
	}
	if config.Updated != "" {
		updated, err := template.ParseDateTime(config.Updated)
		if err != nil {
			return nil, err
		}
		location.WithUpdated(updated)
	}

	if config.Page {
		location.Page(nil)
	}
	if config.Resource != "" {
		location.Resource(config.Resource)
	}
	if config.Redirect != "" {
		location.Redirect(config.Redirect)
	}
	if config.RedirectTree != "" {
		location.RedirectTree(config.RedirectTree)
	}
	if config.Gone {
		location.Gone()
	}
	if config.Status != 0 {
		location.RedirectStatus(config.Status)
	}

	for i, childConfig := range config.Children {
		if childConfig == nil {
			return nil, errors.Errorf("child at index [%d] of location [%s] is empty", i, location)
		}
		child, err := childConfig.Location()
		if err != nil {
			return nil, errors.Wrapf(err, "error in child at index [%d] of location [%s]", i, location)
		}
		location.Add(child)
	}
	return location, nil
}
