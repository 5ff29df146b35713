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

// Package run orchestrates a whole build run: it loads the build
// configuration, orders the components by their dependencies, builds each
// component image in turn and generates the run output.
package run

import (
	"context"
	"io/ioutil"
	"sort"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/dbd-tools/dbd/pkg/assembly"
	"github.com/dbd-tools/dbd/pkg/builder"
	"github.com/dbd-tools/dbd/pkg/client"
	"github.com/dbd-tools/dbd/pkg/graph"
	"github.com/dbd-tools/dbd/pkg/output"
)

// BuildConfig is the user-provided build configuration file.
type BuildConfig struct {
	Name       string                       `yaml:"name"`
	Components map[string]map[string]string `yaml:"components"`
}

// LoadBuildConfig reads a build configuration from a YAML file.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read the build configuration")
	}

	var config BuildConfig
	if err := yaml.UnmarshalStrict(contents, &config); err != nil {
		return nil, errors.Wrap(err, "cannot parse the build configuration")
	}

	if config.Name == "" {
		return nil, errors.New("the build configuration has no name")
	}
	if len(config.Components) == 0 {
		return nil, errors.New("the build configuration has no components")
	}

	return &config, nil
}

// Options configures a build run.
type Options struct {
	ConfigFile      string
	OutputDir       string
	Repository      string
	ResourcePath    string
	Timestamp       string
	ForceComponents []string
	ForceAll        bool
}

// Runner executes build runs against the injected capabilities.
type Runner struct {
	fetcher builder.Fetcher
	docker  client.Client
	log     *logrus.Entry
}

// NewRunner --
func NewRunner(fetcher builder.Fetcher, docker client.Client) *Runner {
	return &Runner{
		fetcher: fetcher,
		docker:  docker,
		log:     logrus.WithField("logger", "run"),
	}
}

// Run builds the images of all configured components in dependency order and
// generates the output directory. It returns the output directory path.
func (r *Runner) Run(ctx context.Context, options Options) (string, error) {
	config, err := LoadBuildConfig(options.ConfigFile)
	if err != nil {
		return "", err
	}

	components := make([]string, 0, len(config.Components))
	for component := range config.Components {
		components = append(components, component)
	}
	sort.Strings(components)

	assemblies, err := assembly.LoadAll(options.ResourcePath, components)
	if err != nil {
		return "", err
	}

	dependencies := assembly.Dependencies(assemblies)
	if err := checkDependenciesConfigured(components, dependencies); err != nil {
		return "", err
	}

	dag, err := graph.FromDependencies(dependencies)
	if err != nil {
		return "", err
	}
	sortedComponents := dag.TopologicallySortedNodes()

	r.log.Infof("building components in the following order: %v", sortedComponents)

	configuration := builder.NewConfiguration(config.Name, options.Timestamp, options.Repository, options.ResourcePath)
	stageListBuilder := builder.NewDefaultStageListBuilder()

	for _, name := range sortedComponents {
		componentConfig := config.Components[name]
		r.warnOnUnusualVersion(name, componentConfig)

		componentBuilder := builder.NewComponentImageBuilder(
			builder.ComponentOptions{
				Name:             name,
				Dependencies:     assemblies[name].Dependencies,
				FileDependencies: assemblies[name].FileDependencies,
				URLTemplate:      assemblies[name].URL,
			},
			r.fetcher,
			r.docker,
			r.docker,
			stageListBuilder,
		)

		force := options.ForceAll || contains(options.ForceComponents, name)

		built, err := componentBuilder.Build(ctx, componentConfig, configuration, force)
		if err != nil {
			return "", errors.Wrapf(err, "building component %s failed", name)
		}

		configuration.Components[name] = built
	}

	return output.Generate(sortedComponents, configuration, options.OutputDir)
}

// checkDependenciesConfigured verifies that every declared dependency has a
// component entry in the build configuration. A dependency without one could
// otherwise only be detected deep inside the per-component build.
func checkDependenciesConfigured(components []string, dependencies map[string][]string) error {
	configured := strset.New(components...)

	declared := strset.New()
	for _, deps := range dependencies {
		declared.Add(deps...)
	}

	missing := strset.Difference(declared, configured)
	if !missing.IsEmpty() {
		names := missing.List()
		sort.Strings(names)
		return errors.Errorf("components needed as dependencies but not configured: %v", names)
	}

	return nil
}

func (r *Runner) warnOnUnusualVersion(component string, componentConfig map[string]string) {
	version, ok := componentConfig["release"]
	if ok && !assembly.IsSemVer(version) {
		r.log.Warnf("the release version %s of component %s is not a semantic version", version, component)
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}

	return false
}
