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

// Package output generates the run output directory: the build report, the
// environment file naming the built images, and the merged docker-compose
// configuration assembled from the per-component fragments.
package output

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/dbd-tools/dbd/pkg/builder"
	"github.com/dbd-tools/dbd/pkg/util"
)

const (
	composePartFile       = "docker-compose_part.yaml"
	composeConfigPartFile = "compose-config_part"
)

// Generate writes the output of a build run into a new
// <name>_<timestamp> directory under outputLocation and returns its path.
// The components are expected in topologically sorted order so the generated
// files list them deterministically.
func Generate(sortedComponents []string, configuration *builder.Configuration, outputLocation string) (string, error) {
	ok, err := util.DirectoryExists(outputLocation)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Errorf("the output location %s is not a directory", outputLocation)
	}

	out := filepath.Join(outputLocation, configuration.Name+"_"+configuration.Timestamp)
	if err := os.Mkdir(out, 0o755); err != nil {
		return "", errors.Wrap(err, "cannot create the output directory")
	}

	report, err := configReport(sortedComponents, configuration)
	if err != nil {
		return "", err
	}
	if err := util.WriteToFile(filepath.Join(out, "output_configuration.yaml"), report); err != nil {
		return "", err
	}

	if err := util.WriteToFile(filepath.Join(out, ".env"), envFile(sortedComponents, configuration)); err != nil {
		return "", err
	}

	compose, err := composeFile(sortedComponents, configuration.ResourcePath)
	if err != nil {
		return "", err
	}
	if err := util.WriteToFile(filepath.Join(out, "docker-compose.yaml"), compose); err != nil {
		return "", err
	}

	composeConfig, err := composeConfigFile(sortedComponents, configuration.ResourcePath)
	if err != nil {
		return "", err
	}
	if err := util.WriteToFile(filepath.Join(out, "compose-config"), composeConfig); err != nil {
		return "", err
	}

	return out, nil
}

type componentReport struct {
	DistType  string `yaml:"dist_type"`
	Version   string `yaml:"version"`
	ImageName string `yaml:"image_name"`
}

func configReport(sortedComponents []string, configuration *builder.Configuration) (string, error) {
	components := yaml.MapSlice{}
	for _, name := range sortedComponents {
		config := configuration.Components[name]
		components = append(components, yaml.MapItem{
			Key: name,
			Value: componentReport{
				DistType:  config.DistType.String(),
				Version:   config.Version,
				ImageName: config.ImageName,
			},
		})
	}

	document := yaml.MapSlice{
		{Key: "name", Value: configuration.Name},
		{Key: "timestamp", Value: configuration.Timestamp},
		{Key: "components", Value: components},
	}

	contents, err := yaml.Marshal(document)
	if err != nil {
		return "", err
	}

	return string(contents), nil
}

func envFile(sortedComponents []string, configuration *builder.Configuration) string {
	text := bytes.Buffer{}
	for _, name := range sortedComponents {
		fmt.Fprintf(&text, "%s_IMAGE=%s\n", strings.ToUpper(name), configuration.Components[name].ImageName)
	}

	return text.String()
}

// composeFile merges the per-component docker-compose fragments into one
// document. The fragments contribute entries to shared top-level sections
// (services, volumes, ...); two fragments defining the same entry is an
// error, not a silent override.
func composeFile(sortedComponents []string, resourcePath string) (string, error) {
	sections := map[string]map[string]interface{}{}

	for _, component := range sortedComponents {
		file := filepath.Join(resourcePath, component, composePartFile)

		exists, err := util.FileExists(file)
		if err != nil {
			return "", err
		}
		if !exists {
			continue
		}

		contents, err := ioutil.ReadFile(file)
		if err != nil {
			return "", err
		}

		var part map[string]map[string]interface{}
		if err := yaml.Unmarshal(contents, &part); err != nil {
			return "", errors.Wrapf(err, "cannot parse the docker-compose fragment of component %s", component)
		}

		for key, entries := range part {
			if sections[key] == nil {
				sections[key] = map[string]interface{}{}
			}

			for entry, value := range entries {
				if _, present := sections[key][entry]; present {
					return "", errors.Errorf("multiple definitions of %s in section %s", entry, key)
				}
				sections[key][entry] = value
			}
		}
	}

	// The version key goes first; the section keys are sorted by the
	// marshaller, which keeps the document deterministic.
	document := yaml.MapSlice{{Key: "version", Value: "3"}}
	keys := make([]string, 0, len(sections))
	for key := range sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		document = append(document, yaml.MapItem{Key: key, Value: sections[key]})
	}

	contents, err := yaml.Marshal(document)
	if err != nil {
		return "", err
	}

	return string(contents), nil
}

func composeConfigFile(sortedComponents []string, resourcePath string) (string, error) {
	text := bytes.Buffer{}
	for _, component := range sortedComponents {
		file := filepath.Join(resourcePath, component, composeConfigPartFile)

		exists, err := util.FileExists(file)
		if err != nil {
			return "", err
		}
		if !exists {
			continue
		}

		contents, err := ioutil.ReadFile(file)
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&text, "# %s\n%s\n\n", component, strings.TrimRight(string(contents), "\n"))
	}

	return text.String(), nil
}
