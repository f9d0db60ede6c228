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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xsite"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the servers and sites of a configuration file",
	Long: `serve reads the configuration file, builds every site of every server and listens on the configured
bind points until interrupted.

	web:
	  - name: public
	    bindPoints:
	      - interface: 0.0.0.0:8080
	    sites:
	      - binding: templates
	        options:
	          uri: https://example.com/
	          directory: ./site
	          mode: development`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve(settings.GetString("config"), settings.GetString("section"))
	},
}

func init() {
	serveCmd.Flags().StringP("config", "c", "xsite.yml", "configuration file")
	serveCmd.Flags().String("section", xsite.DefaultConfigSection, "configuration section holding the servers")
	rootCmd.AddCommand(serveCmd)
}

func loadConfigMap(file string) (map[interface{}]interface{}, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}
	configMap := map[interface{}]interface{}{}
	if err = yaml.Unmarshal(data, &configMap); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", file, err)
	}
	return configMap, nil
}

func serve(file, section string) error {
	log := pfxlog.Logger()

	configMap, err := loadConfigMap(file)
	if err != nil {
		return err
	}

	registry := xsite.NewRegistryMap()
	if err = registry.Add(&xsite.TemplateSiteFactory{}); err != nil {
		return err
	}

	instance := xsite.NewDefaultInstance(registry)
	instance.Config.Section = section
	if err = instance.LoadConfig(configMap); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", file, err)
	}
	if err = instance.Run(); err != nil {
		return err
	}
	log.Infof("serving configuration from %s", file)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	received := <-signals
	log.Infof("received %v, shutting down", received)

	instance.Shutdown()
	log.Info("all servers stopped")
	return nil
}
