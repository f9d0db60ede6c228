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
	"fmt"

	"github.com/pkg/errors"
)

// ServerConfig is the configuration that will eventually be used to create a xsite.Server (which in turn houses all
// the components necessary to run multiple http.Server's).
type ServerConfig struct {
	DefaultHttpHandlerProviderImpl
	Name       string
	Sites      []*SiteConfig
	BindPoints []*BindPointConfig
	Options    Options
}

// Parse parses a configuration map to set all relevant ServerConfig values.
func (config *ServerConfig) Parse(configMap map[interface{}]interface{}) error {
	found, err := stringOption(configMap, "name", &config.Name)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("name is required")
	}

	if config.Sites, err = parseMapArray(configMap, "sites", "site", func(siteMap map[interface{}]interface{}) (*SiteConfig, error) {
		site := &SiteConfig{}
		return site, site.Parse(siteMap)
	}); err != nil {
		return err
	}

	if config.BindPoints, err = parseMapArray(configMap, "bindPoints", "bindPoint", func(bpMap map[interface{}]interface{}) (*BindPointConfig, error) {
		bindPoint := &BindPointConfig{}
		return bindPoint, bindPoint.Parse(bpMap)
	}); err != nil {
		return err
	}

	//parse options
	config.Options = Options{}
	config.Options.Default()

	if optionsInterface, ok := configMap["options"]; ok {
		if optionMap, ok := optionsInterface.(map[interface{}]interface{}); ok {
			if err := config.Options.Parse(optionMap); err != nil {
				return fmt.Errorf("error parsing options section: %v", err)
			}
		} //no else, options are optional
	}

	return nil
}

// parseMapArray parses the required array of maps under key, one element at a time.
func parseMapArray[T any](configMap map[interface{}]interface{}, key, label string, parse func(map[interface{}]interface{}) (T, error)) ([]T, error) {
	val, ok := configMap[key]
	if !ok {
		return nil, errors.Errorf("%s is required", key)
	}
	elements, ok := val.([]interface{})
	if !ok {
		return nil, errors.Errorf("%s must be an array", key)
	}
	var result []T
	for i, element := range elements {
		elementMap, ok := element.(map[interface{}]interface{})
		if !ok {
			return nil, errors.Errorf("error parsing %s configuration at index [%d]: not a map", label, i)
		}
		parsed, err := parse(elementMap)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing %s configuration at index [%d]", label, i)
		}
		result = append(result, parsed)
	}
	return result, nil
}

// Validate all ServerConfig values
func (config *ServerConfig) Validate(registry Registry) error {
	if config.Name == "" {
		return errors.New("name must not be empty")
	}

	if len(config.Sites) <= 0 {
		return errors.New("no sites specified, must specify at least one")
	}

	for i, site := range config.Sites {
		if err := site.Validate(); err != nil {
			return fmt.Errorf("invalid SiteConfig at index [%d]: %v", i, err)
		}

		//check if binding is valid
		if binding := registry.Get(site.Binding()); binding == nil {
			return fmt.Errorf("invalid SiteConfig at index [%d]: invalid binding %s, registered bindings are %v", i, site.Binding(), registry.Bindings())
		}
	}

	if len(config.BindPoints) <= 0 {
		return errors.New("no bindPoint specified, must specify at lest one")
	}

	for i, bp := range config.BindPoints {
		if bp == nil {
			return errors.New("a nil bindPoint was processed")
		}
		if err := bp.Validate(); err != nil {
			return fmt.Errorf("invalid bindPoint at index [%d]: %v", i, err)
		}
	}

	if err := config.Options.Validate(); err != nil {
		return fmt.Errorf("invalid timeout option: %v", err)
	}

	return nil
}
