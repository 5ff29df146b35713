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
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/dbd-tools/dbd/pkg/util"
)

// ComponentOptions describes one component to a DefaultComponentImageBuilder.
type ComponentOptions struct {
	// Name is the component's name; it becomes part of the image name.
	Name string

	// Dependencies are the names of the components this component is built
	// on top of.
	Dependencies []string

	// FileDependencies are files that must exist in the component's resource
	// directory before an image build can start, e.g. the Dockerfile.
	FileDependencies []string

	// URLTemplate is the release archive location, with a {version}
	// placeholder substituted with the requested version.
	URLTemplate string
}

// DefaultComponentImageBuilder is the default ComponentImageBuilder. It
// derives a deterministic image name from the component's version and its
// dependencies' image names, skips rebuilding when an equivalent release
// image already exists, and otherwise runs the stage plan produced by the
// injected StageListBuilder.
type DefaultComponentImageBuilder struct {
	options          ComponentOptions
	fetcher          Fetcher
	imageBuilder     ImageBuilder
	imageChecker     ImageChecker
	stageListBuilder StageListBuilder
	log              *logrus.Entry
}

// NewComponentImageBuilder --
func NewComponentImageBuilder(
	options ComponentOptions,
	fetcher Fetcher,
	imageBuilder ImageBuilder,
	imageChecker ImageChecker,
	stageListBuilder StageListBuilder) *DefaultComponentImageBuilder {
	return &DefaultComponentImageBuilder{
		options:          options,
		fetcher:          fetcher,
		imageBuilder:     imageBuilder,
		imageChecker:     imageChecker,
		stageListBuilder: stageListBuilder,
		log:              logrus.WithField("logger", "builder").WithField("component", options.Name),
	}
}

// Name --
func (b *DefaultComponentImageBuilder) Name() string {
	return b.options.Name
}

// Dependencies --
func (b *DefaultComponentImageBuilder) Dependencies() []string {
	return b.options.Dependencies
}

// Build builds or reuses the component image. A release image is reused when
// an image with the computed name already exists and forceRebuild is false.
// Snapshot images are never reused: the snapshot tag only distinguishes runs,
// not directory contents, so staleness cannot be detected.
func (b *DefaultComponentImageBuilder) Build(
	ctx context.Context,
	componentConfig map[string]string,
	builtConfig *Configuration,
	forceRebuild bool) (ComponentConfig, error) {
	distType, argument, err := DistTypeAndArg(componentConfig)
	if err != nil {
		return ComponentConfig{}, err
	}

	dependenciesTag, err := b.dependenciesTag(builtConfig.Components)
	if err != nil {
		return ComponentConfig{}, err
	}

	componentTag := b.componentTag(distType, argument, builtConfig)
	image := b.imageName(componentTag, dependenciesTag, builtConfig)

	reuse, err := b.reuseExistingImage(ctx, distType, image, forceRebuild)
	if err != nil {
		return ComponentConfig{}, err
	}

	if reuse {
		b.log.Infof("reusing existing image %s", image)
	} else {
		if err := b.rebuild(ctx, distType, argument, image, builtConfig); err != nil {
			return ComponentConfig{}, err
		}
	}

	version := argument
	if distType == DistTypeSnapshot {
		version = versionFromImageName(image, dependenciesTag)
	}

	return ComponentConfig{
		DistType:  distType,
		Version:   version,
		ImageName: image,
	}, nil
}

func (b *DefaultComponentImageBuilder) reuseExistingImage(ctx context.Context, distType DistType, image string, forceRebuild bool) (bool, error) {
	if forceRebuild || distType != DistTypeRelease {
		return false, nil
	}

	exists, err := b.imageChecker.ImageExists(ctx, image)
	if err != nil {
		return false, errors.Wrapf(err, "cannot check for existing image %s", image)
	}

	return exists, nil
}

func (b *DefaultComponentImageBuilder) rebuild(
	ctx context.Context,
	distType DistType,
	argument string,
	image string,
	builtConfig *Configuration) error {
	resourceDir := filepath.Join(builtConfig.ResourcePath, b.options.Name)

	// The scratch directory is owned exclusively by this build call. The xid
	// suffix keeps concurrent builds of unrelated components apart.
	scratchDir := filepath.Join(resourceDir, "tmp-"+xid.New().String())
	if err := util.CreateDirectory(scratchDir); err != nil {
		return errors.Wrap(err, "cannot create the scratch directory")
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			b.log.Errorf("cannot remove the scratch directory %s: %v", scratchDir, err)
		}
	}()

	stages, err := b.stageListBuilder.BuildStageList(StageListRequest{
		ComponentName:    b.options.Name,
		Image:            image,
		URLTemplate:      b.options.URLTemplate,
		Dependencies:     b.options.Dependencies,
		FileDependencies: b.options.FileDependencies,
		DistType:         distType,
		Argument:         argument,
		ScratchDir:       scratchDir,
		BuiltConfig:      builtConfig,
		Fetcher:          b.fetcher,
		ImageBuilder:     b.imageBuilder,
	})
	if err != nil {
		return err
	}

	// Preconditions are read-only, so a failed check aborts the plan with
	// nothing partially written. Each stage's precondition is evaluated right
	// before its execution because it may depend on the filesystem effects
	// the earlier stages are contracted to produce.
	for _, stage := range stages {
		if !stage.CheckPrecondition() {
			return &PreconditionError{Stage: stage.Name()}
		}
		if err := stage.Execute(ctx); err != nil {
			return errors.Wrapf(err, "stage %s of component %s failed", stage.Name(), b.options.Name)
		}
	}

	return nil
}

func (b *DefaultComponentImageBuilder) componentTag(distType DistType, version string, builtConfig *Configuration) string {
	if distType == DistTypeSnapshot {
		// Snapshots carry no version of their own: all snapshots built in
		// the same run share a tag, distinguishing runs only.
		return "snapshot_" + builtConfig.Timestamp
	}

	return version
}

// dependenciesTag derives the dependency part of the image tag. Dependency
// names are sorted so the result is independent of declaration order, which
// is what makes image reuse stable across re-declarations.
func (b *DefaultComponentImageBuilder) dependenciesTag(components map[string]ComponentConfig) (string, error) {
	dependencies := make([]string, len(b.options.Dependencies))
	copy(dependencies, b.options.Dependencies)
	sort.Strings(dependencies)

	parts := make([]string, 0, len(dependencies))
	for _, dependency := range dependencies {
		config, ok := components[dependency]
		if !ok {
			return "", &MissingDependencyError{Component: b.options.Name, Dependency: dependency}
		}

		suffix, err := dependencyTagSuffix(config.ImageName)
		if err != nil {
			return "", errors.Wrapf(err, "dependency %s of component %s", dependency, b.options.Name)
		}

		parts = append(parts, dependency+suffix)
	}

	return strings.Join(parts, "_"), nil
}

// dependencyTagSuffix extracts the tag-suffix portion of a dependency's image
// name: the last path segment with the ':' separator dropped and the trailing
// '_' of dependency-less images trimmed. The separator must be present; its
// absence means the image name was not produced by this builder.
func dependencyTagSuffix(image string) (string, error) {
	base := path.Base(image)

	i := strings.LastIndexByte(base, ':')
	if i < 0 {
		return "", &ConfigurationError{Reason: fmt.Sprintf("image name %s has no tag separator", image)}
	}

	return strings.TrimSuffix(base[:i]+base[i+1:], "_"), nil
}

func (b *DefaultComponentImageBuilder) imageName(componentTag string, dependenciesTag string, builtConfig *Configuration) string {
	return fmt.Sprintf("%s/%s:%s_%s", builtConfig.Repository, b.options.Name, componentTag, dependenciesTag)
}

// versionFromImageName recovers the component tag from an image name. It is
// the exact inverse of imageName: the dependency part and its leading '_' are
// stripped from the tag portion.
func versionFromImageName(image string, dependenciesTag string) string {
	tag := image[strings.LastIndexByte(image, ':')+1:]

	return strings.TrimSuffix(tag, "_"+dependenciesTag)
}
