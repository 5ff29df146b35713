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

// Package assembly loads the per-component build metadata shipped with the
// component resources.
package assembly

import (
	"io/ioutil"
	"path/filepath"

	"github.com/Masterminds/semver"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// FileName is the name of the assembly descriptor inside a component's
// resource directory.
const FileName = "assembly.yaml"

// Assembly describes how one component is built: what it depends on, where
// its release archives are published, and which static files its image build
// requires.
type Assembly struct {
	// Dependencies are the names of the components this component is built
	// on top of.
	Dependencies []string `mapstructure:"dependencies"`

	// URL is the release archive location, with a {version} placeholder.
	URL string `mapstructure:"url"`

	// FileDependencies are files that must be present in the component's
	// resource directory for the image build to work.
	FileDependencies []string `mapstructure:"file-dependencies"`
}

// Load reads and decodes the assembly descriptor of the given component from
// the resource path.
func Load(resourcePath string, component string) (Assembly, error) {
	file := filepath.Join(resourcePath, component, FileName)

	contents, err := ioutil.ReadFile(file)
	if err != nil {
		return Assembly{}, errors.Wrapf(err, "cannot read the assembly of component %s", component)
	}

	return Decode(contents, component)
}

// Decode decodes an assembly descriptor from its YAML serialization.
func Decode(contents []byte, component string) (Assembly, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(contents, &raw); err != nil {
		return Assembly{}, errors.Wrapf(err, "cannot parse the assembly of component %s", component)
	}

	var assembly Assembly
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &assembly,
	})
	if err != nil {
		return Assembly{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Assembly{}, errors.Wrapf(err, "invalid assembly of component %s", component)
	}

	return assembly, nil
}

// LoadAll loads the assemblies of all the given components.
func LoadAll(resourcePath string, components []string) (map[string]Assembly, error) {
	assemblies := make(map[string]Assembly, len(components))
	for _, component := range components {
		assembly, err := Load(resourcePath, component)
		if err != nil {
			return nil, err
		}
		assemblies[component] = assembly
	}

	return assemblies, nil
}

// Dependencies collects the dependency declarations of the given assemblies.
func Dependencies(assemblies map[string]Assembly) map[string][]string {
	dependencies := make(map[string][]string, len(assemblies))
	for component, assembly := range assemblies {
		dependencies[component] = assembly.Dependencies
	}

	return dependencies
}

// IsSemVer reports whether a release version string parses as a semantic
// version. Most supported components use semver-shaped versions, so a
// non-parsing version is worth a warning, though not an error.
func IsSemVer(version string) bool {
	_, err := semver.NewVersion(version)

	return err == nil
}
