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
	"errors"
	"fmt"
	"time"
)

const (
	DefaultHttpWriteTimeout = time.Second * 10
	DefaultHttpReadTimeout  = time.Second * 5
	DefaultHttpIdleTimeout  = time.Second * 5
)

// InstanceConfig is the root configuration options necessary to start numerous http.Server instances
type InstanceConfig struct {
	SourceConfig map[interface{}]interface{}

	ServerConfigs []*ServerConfig
	Section       string

	enabled bool
}

// Parse parses a configuration map, looking for a section that holds an array of ServerConfig's.
func (config *InstanceConfig) Parse(configMap map[interface{}]interface{}) error {
	config.SourceConfig = configMap

	if config.Section == "" {
		return errors.New("web section not specified for configuration")
	}

	sectionVal, ok := configMap[config.Section]
	if !ok {
		return fmt.Errorf("web section [%s] must be defined", config.Section)
	}

	//treat section like an array of maps
	sectionArrayVals, ok := sectionVal.([]interface{})
	if !ok {
		return fmt.Errorf("web section [%s] must be an array", config.Section)
	}

	for i, sectionArrayVal := range sectionArrayVals {
		if sectionMap, ok := sectionArrayVal.(map[interface{}]interface{}); ok {
			serverConfig := &ServerConfig{}
			if err := serverConfig.Parse(sectionMap); err != nil {
				return fmt.Errorf("error parsing web configuration [%s] at index [%d]: %v", config.Section, i, err)
			}

			config.ServerConfigs = append(config.ServerConfigs, serverConfig)
		} else {
			return fmt.Errorf("error parsing web configuration [%s] at index [%d]: not a map", config.Section, i)
		}
	}

	return nil
}

// Validate uses a Registry to validate that all SiteConfig bindings may be fulfilled. All other relevant
// InstanceConfig values are also validated.
func (config *InstanceConfig) Validate(registry Registry) error {
	if len(config.ServerConfigs) == 0 {
		return fmt.Errorf("web section [%s] must define at least one server", config.Section)
	}

	presentSites := map[string]SiteFactory{}
	bindPoints := map[string]string{}

	for i, serverConfig := range config.ServerConfigs {
		//validate attributes
		if err := serverConfig.Validate(registry); err != nil {
			return fmt.Errorf("could not validate server at %s[%d]: %v", config.Section, i, err)
		}

		for _, site := range serverConfig.Sites {
			presentSites[site.Binding()] = registry.Get(site.Binding())
		}

		for _, bindPoint := range serverConfig.BindPoints {
			if existing, ok := bindPoints[bindPoint.InterfaceAddress]; ok {
				return fmt.Errorf("interface [%s] is used by both servers [%s] and [%s]", bindPoint.InterfaceAddress, existing, serverConfig.Name)
			}
			bindPoints[bindPoint.InterfaceAddress] = serverConfig.Name
		}
	}

	for presentSiteBinding, presentSiteFactory := range presentSites {
		if err := presentSiteFactory.Validate(config); err != nil {
			return fmt.Errorf("error validating SiteConfig binding %s: %v", presentSiteBinding, err)
		}
	}

	//enabled only after validation passes
	config.enabled = true

	return nil
}

// Enabled returns true/false on whether this configuration should be considered "enabled". Set to true after
// Validate passes.
func (config *InstanceConfig) Enabled() bool {
	return config.enabled
}

// Options is the shared options for a ServerConfig.
type Options struct {
	TimeoutOptions
}

// Default provides defaults for all necessary values
func (options *Options) Default() {
	options.TimeoutOptions.Default()
}

// Parse parses a configuration map
func (options *Options) Parse(optionsMap map[interface{}]interface{}) error {
	if err := options.TimeoutOptions.Parse(optionsMap); err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	return nil
}

// Validate validates all options
func (options *Options) Validate() error {
	return options.TimeoutOptions.Validate()
}

// TimeoutOptions represents http timeout options
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

// Default defaults all HTTP timeout options
func (timeoutOptions *TimeoutOptions) Default() {
	timeoutOptions.WriteTimeout = DefaultHttpWriteTimeout
	timeoutOptions.ReadTimeout = DefaultHttpReadTimeout
	timeoutOptions.IdleTimeout = DefaultHttpIdleTimeout
}

// Parse parses a config map
func (timeoutOptions *TimeoutOptions) Parse(config map[interface{}]interface{}) error {
	for name, target := range map[string]*time.Duration{
		"readTimeout":  &timeoutOptions.ReadTimeout,
		"idleTimeout":  &timeoutOptions.IdleTimeout,
		"writeTimeout": &timeoutOptions.WriteTimeout,
	} {
		if err := parseDuration(config, name, target); err != nil {
			return err
		}
	}

	return nil
}

func parseDuration(config map[interface{}]interface{}, name string, target *time.Duration) error {
	interfaceVal, ok := config[name]
	if !ok {
		return nil
	}

	durationStr, ok := interfaceVal.(string)
	if !ok {
		return fmt.Errorf("could not use value for %s, not a string", name)
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return fmt.Errorf("could not parse %s %s as a duration (e.g. 1m): %v", name, durationStr, err)
	}

	*target = duration
	return nil
}

// Validate validates all settings and return nil or an error
func (timeoutOptions *TimeoutOptions) Validate() error {
	if timeoutOptions.WriteTimeout <= 0 {
		return fmt.Errorf("value [%s] for writeTimeout too low, must be positive", timeoutOptions.WriteTimeout.String())
	}

	if timeoutOptions.ReadTimeout <= 0 {
		return fmt.Errorf("value [%s] for readTimeout too low, must be positive", timeoutOptions.ReadTimeout.String())
	}

	if timeoutOptions.IdleTimeout <= 0 {
		return fmt.Errorf("value [%s] for idleTimeout too low, must be positive", timeoutOptions.IdleTimeout.String())
	}

	return nil
}
