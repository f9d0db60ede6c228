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
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BindPointConfig is where a server listens (InterfaceAddress) and the host:port clients use to reach it (Address).
// Address defaults to the interface.
type BindPointConfig struct {
	InterfaceAddress string
	Address          string
}

// stringOption reads an optional string value, leaving target untouched when the key is absent.
func stringOption(config map[interface{}]interface{}, key string, target *string) (bool, error) {
	val, ok := config[key]
	if !ok {
		return false, nil
	}
	str, ok := val.(string)
	if !ok {
		return true, errors.Errorf("could not use value for %s, not a string", key)
	}
	*target = str
	return true, nil
}

// Parse the configuration map for a BindPointConfig.
func (bindPoint *BindPointConfig) Parse(config map[interface{}]interface{}) error {
	if _, err := stringOption(config, "interface", &bindPoint.InterfaceAddress); err != nil {
		return err
	}
	found, err := stringOption(config, "address", &bindPoint.Address)
	if err != nil {
		return err
	}
	if !found {
		bindPoint.Address = bindPoint.InterfaceAddress
	}
	return nil
}

// Validate this configuration object. Both addresses are required.
func (bindPoint *BindPointConfig) Validate() error {
	for _, check := range []struct{ label, value string }{
		{"interface", bindPoint.InterfaceAddress},
		{"advertise", bindPoint.Address},
	} {
		if err := validateHostPort(check.value); err != nil {
			return fmt.Errorf("invalid %s address [%s]: %v", check.label, check.value, err)
		}
	}
	return nil
}

func validateHostPort(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("must not be an empty string or unspecified")
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrap(err, "could not split host and port")
	}
	if host == "" {
		return errors.New("host must be specified")
	}

	number, err := strconv.ParseUint(port, 10, 16)
	if err != nil || number == 0 {
		return errors.Errorf("invalid port [%s], must be 1-65535", port)
	}
	return nil
}
