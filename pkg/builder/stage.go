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
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dbd-tools/dbd/pkg/util"
	"github.com/dbd-tools/dbd/pkg/util/tar"
)

// Stage is one precondition-checked, independently executable step of a build
// plan. CheckPrecondition is a read-only predicate over external state and
// must never mutate anything; a false return is a normal "state not ready"
// answer, not a fault. Execute may assume the precondition holds.
type Stage interface {
	Name() string
	CheckPrecondition() bool
	Execute(ctx context.Context) error
}

// CreateCacheStage ensures a "cache" subdirectory exists under the parent
// directory. A pre-existing cache directory and its contents are left
// untouched, so the stage is idempotent.
type CreateCacheStage struct {
	parentDir string
}

// NewCreateCacheStage --
func NewCreateCacheStage(parentDir string) *CreateCacheStage {
	return &CreateCacheStage{parentDir: parentDir}
}

func (s *CreateCacheStage) Name() string {
	return "create-cache"
}

// CacheDir returns the path of the cache directory this stage establishes.
func (s *CreateCacheStage) CacheDir() string {
	return filepath.Join(s.parentDir, "cache")
}

func (s *CreateCacheStage) CheckPrecondition() bool {
	ok, err := util.DirectoryExists(s.parentDir)
	return err == nil && ok
}

func (s *CreateCacheStage) Execute(_ context.Context) error {
	return util.CreateDirectory(s.CacheDir())
}

// CreateTarfileStage creates a gzip-compressed tar archive of a directory.
// An already existing archive at the destination is overwritten.
type CreateTarfileStage struct {
	sourceDir string
	destPath  string
	log       *logrus.Entry
}

// NewCreateTarfileStage --
func NewCreateTarfileStage(sourceDir string, destPath string) *CreateTarfileStage {
	return &CreateTarfileStage{
		sourceDir: sourceDir,
		destPath:  destPath,
		log:       logrus.WithField("logger", "builder"),
	}
}

func (s *CreateTarfileStage) Name() string {
	return "create-tarfile"
}

func (s *CreateTarfileStage) CheckPrecondition() bool {
	sourceOk, err := util.DirectoryExists(s.sourceDir)
	if err != nil || !sourceOk {
		return false
	}
	destOk, err := util.DirectoryExists(filepath.Dir(s.destPath))
	return err == nil && destOk
}

func (s *CreateTarfileStage) Execute(_ context.Context) error {
	s.log.Infof("creating tar archive from %s", s.sourceDir)

	return tar.Create(s.sourceDir, s.destPath)
}

// DownloadFileStage downloads a file through the injected fetch capability.
// The stage performs no network I/O itself.
type DownloadFileStage struct {
	fetcher  Fetcher
	url      string
	destPath string
	log      *logrus.Entry
}

// NewDownloadFileStage --
func NewDownloadFileStage(fetcher Fetcher, url string, destPath string) *DownloadFileStage {
	return &DownloadFileStage{
		fetcher:  fetcher,
		url:      url,
		destPath: destPath,
		log:      logrus.WithField("logger", "builder"),
	}
}

func (s *DownloadFileStage) Name() string {
	return "download-file"
}

func (s *DownloadFileStage) CheckPrecondition() bool {
	ok, err := util.DirectoryExists(filepath.Dir(s.destPath))
	return err == nil && ok
}

func (s *DownloadFileStage) Execute(ctx context.Context) error {
	s.log.Infof("downloading %s", s.url)

	return s.fetcher.Fetch(ctx, s.url, s.destPath)
}

// BuildImageStage assembles the final build context in the scratch directory
// (the static resources of the component plus the generated cache content)
// and delegates image construction to the injected capability.
type BuildImageStage struct {
	imageBuilder     ImageBuilder
	image            string
	buildArgs        map[string]string
	contextDir       string
	scratchDir       string
	fileDependencies []string
	log              *logrus.Entry
}

// NewBuildImageStage --
func NewBuildImageStage(
	imageBuilder ImageBuilder,
	image string,
	buildArgs map[string]string,
	contextDir string,
	scratchDir string,
	fileDependencies []string) *BuildImageStage {
	return &BuildImageStage{
		imageBuilder:     imageBuilder,
		image:            image,
		buildArgs:        buildArgs,
		contextDir:       contextDir,
		scratchDir:       scratchDir,
		fileDependencies: fileDependencies,
		log:              logrus.WithField("logger", "builder"),
	}
}

func (s *BuildImageStage) Name() string {
	return "build-image"
}

func (s *BuildImageStage) CheckPrecondition() bool {
	contextOk, err := util.DirectoryExists(s.contextDir)
	if err != nil || !contextOk {
		return false
	}
	scratchOk, err := util.DirectoryExists(s.scratchDir)
	if err != nil || !scratchOk {
		return false
	}

	for _, dependency := range s.fileDependencies {
		ok, err := util.FileExists(filepath.Join(s.contextDir, dependency))
		if err != nil || !ok {
			return false
		}
	}

	return true
}

func (s *BuildImageStage) Execute(ctx context.Context) error {
	s.log.Infof("building image %s", s.image)

	// The scratch directory may live inside the context directory, so it is
	// excluded from the copy.
	if err := util.CopyDir(s.contextDir, s.scratchDir, s.scratchDir); err != nil {
		return errors.Wrap(err, "cannot assemble the image build context")
	}

	return s.imageBuilder.BuildImage(ctx, s.scratchDir, s.image, s.buildArgs)
}

// BuildArgsForDependencies maps each dependency name to a NAME_IMAGE build
// argument carrying the dependency's image name.
func BuildArgsForDependencies(dependencies []string, components map[string]ComponentConfig) map[string]string {
	buildArgs := make(map[string]string, len(dependencies))
	for _, dependency := range dependencies {
		buildArgs[strings.ToUpper(dependency)+"_IMAGE"] = components[dependency].ImageName
	}

	return buildArgs
}

// StageNames returns the names of the given stages in order.
func StageNames(stages []Stage) []string {
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, stage.Name())
	}

	return names
}
