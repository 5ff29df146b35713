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

package builder

import (
	"context"
)

// DistType selects the distribution mode a component is built from: a tagged
// release archive downloaded from the component's distribution site, or a
// snapshot built from a local directory.
type DistType int

const (
	// DistTypeRelease --
	DistTypeRelease DistType = iota
	// DistTypeSnapshot --
	DistTypeSnapshot
)

func (t DistType) String() string {
	switch t {
	case DistTypeRelease:
		return "release"
	case DistTypeSnapshot:
		return "snapshot"
	}
	return "unknown"
}

// ComponentConfig describes the resolved image of one built component.
type ComponentConfig struct {
	DistType  DistType `yaml:"dist_type"`
	Version   string   `yaml:"version"`
	ImageName string   `yaml:"image_name"`
}

// Configuration is the process-wide build context. It is extended by the
// caller after each component build and treated as read-only by the
// per-component builders. Before component X is built, Components must
// already contain an entry for every declared dependency of X.
type Configuration struct {
	Name         string
	Timestamp    string
	Repository   string
	ResourcePath string
	Components   map[string]ComponentConfig
}

// NewConfiguration returns an empty build context.
func NewConfiguration(name string, timestamp string, repository string, resourcePath string) *Configuration {
	return &Configuration{
		Name:         name,
		Timestamp:    timestamp,
		Repository:   repository,
		ResourcePath: resourcePath,
		Components:   make(map[string]ComponentConfig),
	}
}

// Fetcher retrieves a remote resource into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url string, destPath string) error
}

// ImageBuilder constructs the final image from a prepared source tree. The
// build arguments carry the dependency image names so that Dockerfiles can
// base themselves on the images built earlier in the run.
type ImageBuilder interface {
	BuildImage(ctx context.Context, sourceDir string, image string, buildArgs map[string]string) error
}

// ImageChecker reports whether an image with the given name is already
// available, which is what makes reuse of previously built images possible.
type ImageChecker interface {
	ImageExists(ctx context.Context, image string) (bool, error)
}

// ComponentImageBuilder builds the image of a single component.
type ComponentImageBuilder interface {
	// Name returns the component's name.
	Name() string

	// Dependencies returns the names of the components this component
	// depends on. They must be built before this component.
	Dependencies() []string

	// Build builds the component image, or reuses an existing equivalent
	// one, and returns the resolved component descriptor.
	Build(ctx context.Context, componentConfig map[string]string, builtConfig *Configuration, forceRebuild bool) (ComponentConfig, error)
}

// DistTypeAndArg resolves the distribution type and its argument (the release
// version or the snapshot path) from a user-provided component configuration.
// Exactly one of the "release" and "snapshot" keys must be present.
func DistTypeAndArg(componentConfig map[string]string) (DistType, string, error) {
	version, releaseSpecified := componentConfig["release"]
	path, snapshotSpecified := componentConfig["snapshot"]

	if releaseSpecified && snapshotSpecified {
		return 0, "", &ConfigurationError{Reason: "both release and snapshot mode specified"}
	}
	if !releaseSpecified && !snapshotSpecified {
		return 0, "", &ConfigurationError{Reason: "none of release and snapshot mode specified"}
	}

	if releaseSpecified {
		return DistTypeRelease, version, nil
	}

	return DistTypeSnapshot, path, nil
}
