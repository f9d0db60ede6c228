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
	"os"

	"github.com/openziti/xsite"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes <directory>",
	Short: "Print the routing table of a template directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		site, err := openSite(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = site.Close() }()
		return site.Site().Router().Print(os.Stdout)
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <directory>",
	Short: "Print the sitemap of a template directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		site, err := openSite(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = site.Close() }()
		sitemap, err := site.Site().Sitemap()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(sitemap)
		return err
	},
}

func init() {
	for _, cmd := range []*cobra.Command{routesCmd, sitemapCmd} {
		cmd.Flags().String("uri", "http://localhost/", "public uri of the site")
		cmd.Flags().String("locations", xsite.DefaultLocationsFile, "location tree file inside the directory")
		rootCmd.AddCommand(cmd)
	}
}

// openSite builds a site the same way the templates binding does, without serving it.
func openSite(dir string) (xsite.SiteHandler, error) {
	factory := &xsite.TemplateSiteFactory{}
	handler, err := factory.New(nil, map[interface{}]interface{}{
		"uri":       settings.GetString("uri"),
		"directory": dir,
		"locations": settings.GetString("locations"),
		"mode":      xsite.RunModeTests.String(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build site from [%s]", dir)
	}
	return handler, nil
}
