/*
Licensed to the Apache Software Foundation (ASF) under one or more
contributor license agreements.  See the NOTICE file distributed with
this work for additional information regarding copyright ownership.
The ASF licenses this file to You under the Apache License, Version 2.0
(the "License"); you may not use this file except in compliance with
the License.  You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dbdCommandLongDescription = `dbd builds a docker-compose ready directory from a build configuration,
building the needed component images in dependency order. Images that were
already built for the same versions and dependencies are reused.
`

// RootCmdOptions --
type RootCmdOptions struct {
	Context context.Context

	Verbose bool `mapstructure:"verbose"`
}

// NewDbdCommand creates the dbd root command.
func NewDbdCommand(ctx context.Context) (*cobra.Command, error) {
	options := RootCmdOptions{
		Context: ctx,
	}

	v := viper.New()
	v.SetEnvPrefix("DBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cmd := cobra.Command{
		Use:           "dbd",
		Short:         "dbd builds dependency-aware component images",
		Long:          dbdCommandLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if err := decodeKey(&options, pathToRoot(c.Root()), v.AllSettings()); err != nil {
				return err
			}

			if options.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false, "Print debug output")

	cmd.AddCommand(cmdOnly(newCmdBuild(&options, v)))
	cmd.AddCommand(newCmdVersion())

	if err := bindPFlags(&cmd, v); err != nil {
		return nil, err
	}
	if err := bindPFlagsHierarchy(&cmd, v); err != nil {
		return nil, err
	}

	return &cmd, nil
}

func cmdOnly(cmd *cobra.Command, options interface{}) *cobra.Command {
	return cmd
}
