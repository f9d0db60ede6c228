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
	"net/http"

	"github.com/pkg/errors"
)

// SiteConfig names a site by binding. Each SiteConfig is used against a Registry to locate the SiteFactory that
// builds the site. Options are interpreted by that factory alone.
type SiteConfig struct {
	binding string
	options map[interface{}]interface{}
}

// Binding returns the string that identifies the SiteFactory building this site.
func (site *SiteConfig) Binding() string {
	return site.binding
}

// Options returns the options associated with this SiteConfig binding.
func (site *SiteConfig) Options() map[interface{}]interface{} {
	return site.options
}

// Parse the configuration map for a SiteConfig.
func (site *SiteConfig) Parse(siteConfigMap map[interface{}]interface{}) error {
	found, err := stringOption(siteConfigMap, "binding", &site.binding)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("binding is required")
	}

	if optionsInterface, ok := siteConfigMap["options"]; ok {
		if optionsMap, ok := optionsInterface.(map[interface{}]interface{}); ok {
			site.options = optionsMap //leave to bindings to interpret further
		} else {
			return errors.New("options if declared must be a map")
		}
	} else {
		site.options = map[interface{}]interface{}{}
	}

	return nil
}

// Validate this configuration object.
func (site *SiteConfig) Validate() error {
	if site.Binding() == "" {
		return errors.New("binding must be specified")
	}

	return nil
}

// SiteHandler is a configured site attached to a Server.
type SiteHandler interface {
	http.Handler
	Binding() string
	Options() map[interface{}]interface{}
	// Hosts lists the host names served by the site.
	Hosts() []string
	// IsDefault marks the site that serves requests for unknown hosts.
	IsDefault() bool
	Site() *Site
	Close() error
}

// SiteFactory builds SiteHandler instances for one binding.
type SiteFactory interface {
	Binding() string
	New(serverConfig *ServerConfig, options map[interface{}]interface{}) (SiteHandler, error)
	Validate(config *InstanceConfig) error
}
