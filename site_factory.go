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
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xsite/prefs"
	"github.com/openziti/xsite/widget"
	"github.com/pkg/errors"
)

const (
	TemplateSiteBinding  = "templates"
	DefaultLocationsFile = "locations.yaml"
)

// TemplateSiteOptions are the options of the templates binding.
type TemplateSiteOptions struct {
	URI         string
	Title       string
	Language    string
	Mode        RunMode
	Directory   string
	Locations   string
	Hosts       []string
	Default     bool
	Preferences string
}

// Parse parses the options map of a SiteConfig.
func (options *TemplateSiteOptions) Parse(config map[interface{}]interface{}) error {
	options.Mode = RunModeProduction
	options.Locations = DefaultLocationsFile

	for name, target := range map[string]*string{
		"uri":         &options.URI,
		"title":       &options.Title,
		"language":    &options.Language,
		"directory":   &options.Directory,
		"locations":   &options.Locations,
		"preferences": &options.Preferences,
	} {
		if _, err := stringOption(config, name, target); err != nil {
			return err
		}
	}

	if val, ok := config["mode"]; ok {
		modeStr, ok := val.(string)
		if !ok {
			return errors.New("could not use value for mode, not a string")
		}
		mode, err := ParseRunMode(modeStr)
		if err != nil {
			return err
		}
		options.Mode = mode
	}

	if val, ok := config["hosts"]; ok {
		hosts, ok := val.([]interface{})
		if !ok {
			return errors.New("hosts must be an array")
		}
		for i, hostVal := range hosts {
			host, ok := hostVal.(string)
			if !ok {
				return fmt.Errorf("host at index [%d] is not a string", i)
			}
			options.Hosts = append(options.Hosts, host)
		}
	}

	if val, ok := config["default"]; ok {
		isDefault, ok := val.(bool)
		if !ok {
			return errors.New("could not use value for default, not a boolean")
		}
		options.Default = isDefault
	}

	return nil
}

// Validate validates the options.
func (options *TemplateSiteOptions) Validate() error {
	if options.URI == "" {
		return errors.New("uri is required")
	}
	if options.Directory == "" {
		return errors.New("directory is required")
	}
	if info, err := os.Stat(options.Directory); err != nil {
		return errors.Wrapf(err, "invalid directory [%s]", options.Directory)
	} else if !info.IsDir() {
		return fmt.Errorf("directory [%s] is not a directory", options.Directory)
	}
	return nil
}

// TemplateSiteFactory builds sites from a template directory. The location tree is read from a YAML file inside the
// directory every time the site is built, so edits take effect on reload.
type TemplateSiteFactory struct {
	Widgets []*widget.Widget
}

var _ SiteFactory = &TemplateSiteFactory{}

func (factory *TemplateSiteFactory) Binding() string {
	return TemplateSiteBinding
}

// Validate checks the options of every templates site in the configuration.
func (factory *TemplateSiteFactory) Validate(config *InstanceConfig) error {
	for _, serverConfig := range config.ServerConfigs {
		for i, siteConfig := range serverConfig.Sites {
			if siteConfig.Binding() != TemplateSiteBinding {
				continue
			}
			options := &TemplateSiteOptions{}
			if err := options.Parse(siteConfig.Options()); err != nil {
				return fmt.Errorf("invalid options for site at index [%d] of server [%s]: %v", i, serverConfig.Name, err)
			}
			if err := options.Validate(); err != nil {
				return fmt.Errorf("invalid options for site at index [%d] of server [%s]: %v", i, serverConfig.Name, err)
			}
		}
	}
	return nil
}

func (factory *TemplateSiteFactory) New(_ *ServerConfig, optionsMap map[interface{}]interface{}) (SiteHandler, error) {
	options := &TemplateSiteOptions{}
	if err := options.Parse(optionsMap); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	handler := &templateSiteHandler{options: options}
	siteOptions := []SiteOption{
		WithFS(os.DirFS(options.Directory)),
		WithRunMode(options.Mode),
		WithWidgets(factory.Widgets...),
	}
	if options.Title != "" {
		siteOptions = append(siteOptions, WithTitle(options.Title))
	}
	if options.Language != "" {
		siteOptions = append(siteOptions, WithLanguage(options.Language))
	}
	if options.Preferences != "" {
		store, err := prefs.OpenBolt(options.Preferences)
		if err != nil {
			return nil, err
		}
		handler.preferences = store
		siteOptions = append(siteOptions, WithPreferences(store))
	}

	site, err := NewSite(options.URI, handler.enumerate, siteOptions...)
	if err != nil {
		_ = handler.Close()
		return nil, err
	}
	handler.site = site

	if err = site.Build(); err != nil {
		_ = handler.Close()
		return nil, err
	}

	if options.Mode == RunModeDevelopment {
		ctx, cancel := context.WithCancel(context.Background())
		handler.cancel = cancel
		if err = site.Watch(ctx, options.Directory); err != nil {
			_ = handler.Close()
			return nil, err
		}
	}

	pfxlog.Logger().WithField("site", options.URI).Infof("built site from [%s] in %s mode", options.Directory, options.Mode)
	return handler, nil
}

type templateSiteHandler struct {
	options     *TemplateSiteOptions
	site        *Site
	preferences *prefs.Bolt
	cancel      context.CancelFunc
}

var _ SiteHandler = &templateSiteHandler{}

// enumerate reads the location tree from the locations file.
func (handler *templateSiteHandler) enumerate() (*Location, error) {
	name := filepath.Join(handler.options.Directory, handler.options.Locations)
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open location tree")
	}
	defer func() { _ = file.Close() }()

	config, err := ParseLocationConfig(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read location tree [%s]", name)
	}
	return config.Location()
}

func (handler *templateSiteHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.site.ServeHTTP(writer, request)
}

func (handler *templateSiteHandler) Binding() string {
	return TemplateSiteBinding
}

func (handler *templateSiteHandler) Options() map[interface{}]interface{} {
	return map[interface{}]interface{}{
		"uri":       handler.options.URI,
		"directory": handler.options.Directory,
	}
}

func (handler *templateSiteHandler) Hosts() []string {
	if len(handler.options.Hosts) > 0 {
		return handler.options.Hosts
	}
	if handler.site != nil && handler.site.URI().Hostname() != "" {
		return []string{handler.site.URI().Hostname()}
	}
	return nil
}

func (handler *templateSiteHandler) IsDefault() bool {
	return handler.options.Default
}

func (handler *templateSiteHandler) Site() *Site {
	return handler.site
}

func (handler *templateSiteHandler) Close() error {
	if handler.cancel != nil {
		handler.cancel()
	}
	if handler.site != nil {
		handler.site.Close()
	}
	if handler.preferences != nil {
		return handler.preferences.Close()
	}
	return nil
}
