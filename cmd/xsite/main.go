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
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "XSITE"

var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:   "xsite",
	Short: "Serve sites described by location trees",
	Long: `xsite serves web sites built from XML and markdown templates. Every site is described by a
location tree that maps URL paths to pages, static resources and redirects.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initializeSettings(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-formatter", "pfxlog", "log formatter, one of pfxlog, json or text")
}

// initializeSettings binds flags to settings. Every flag can also be set through an XSITE_ environment variable,
// e.g. XSITE_LOG_FORMATTER for --log-formatter.
func initializeSettings(flags *pflag.FlagSet) error {
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	level := logrus.InfoLevel
	if settings.GetBool("verbose") {
		level = logrus.DebugLevel
	}
	pfxlog.GlobalInit(level, pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/"))

	switch formatter := settings.GetString("log-formatter"); formatter {
	case "pfxlog":
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	default:
		return fmt.Errorf("unknown log formatter [%s]", formatter)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
