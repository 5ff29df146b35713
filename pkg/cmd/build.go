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
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbd-tools/dbd/pkg/client"
	"github.com/dbd-tools/dbd/pkg/fetch"
	"github.com/dbd-tools/dbd/pkg/run"
	"github.com/dbd-tools/dbd/pkg/util/defaults"
)

func newCmdBuild(rootCmdOptions *RootCmdOptions, v *viper.Viper) (*cobra.Command, *buildCmdOptions) {
	options := buildCmdOptions{
		RootCmdOptions: rootCmdOptions,
	}

	cmd := cobra.Command{
		Use:     "build config-file [output-dir]",
		Short:   "Build the component images of a build configuration",
		Long:    `Build the component images of a build configuration and generate a docker-compose ready output directory.`,
		Args:    cobra.RangeArgs(1, 2),
		PreRunE: decode(&options, v),
		RunE:    options.run,
	}

	cmd.Flags().String("repository", defaults.Repository(), "The image repository (namespace) the built images are tagged under")
	cmd.Flags().String("resource-path", "resources", "The directory holding the per-component build resources")
	cmd.Flags().StringSliceP("force", "f", nil, "Rebuild the images of the given components even if suitable images exist")
	cmd.Flags().Bool("force-all", false, "Rebuild the images of all components")

	return &cmd, &options
}

type buildCmdOptions struct {
	*RootCmdOptions
	Repository   string   `mapstructure:"repository"`
	ResourcePath string   `mapstructure:"resource-path"`
	Force        []string `mapstructure:"force"`
	ForceAll     bool     `mapstructure:"force-all"`
}

func (o *buildCmdOptions) run(cmd *cobra.Command, args []string) error {
	outputDir := "."
	if len(args) > 1 {
		outputDir = args[1]
	}

	docker := client.NewDockerClient()
	if err := docker.CheckDaemon(o.Context); err != nil {
		return err
	}

	runner := run.NewRunner(fetch.NewHTTPFetcher(), docker)

	out, err := runner.Run(o.Context, run.Options{
		ConfigFile:      args[0],
		OutputDir:       outputDir,
		Repository:      o.Repository,
		ResourcePath:    o.ResourcePath,
		Timestamp:       strconv.FormatInt(time.Now().Unix(), 10),
		ForceComponents: o.Force,
		ForceAll:        o.ForceAll,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Output generated in %s\n", out)

	return nil
}
