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
	"path/filepath"
	"strings"
)

// VersionPlaceholder is the token in a component's URL template that is
// substituted with the requested release version.
const VersionPlaceholder = "{version}"

// StageListRequest carries everything a StageListBuilder needs to assemble a
// build plan for one component.
type StageListRequest struct {
	ComponentName    string
	Image            string
	URLTemplate      string
	Dependencies     []string
	FileDependencies []string
	DistType         DistType
	Argument         string
	ScratchDir       string
	BuiltConfig      *Configuration
	Fetcher          Fetcher
	ImageBuilder     ImageBuilder
}

// StageListBuilder assembles the ordered list of stages that build one
// component image. It is a pure function of the request: no stage in the
// returned list depends on another stage's internal state, only on the
// filesystem effects the earlier stages are contracted to produce.
type StageListBuilder interface {
	BuildStageList(req StageListRequest) ([]Stage, error)
}

// DefaultStageListBuilder is the production StageListBuilder.
type DefaultStageListBuilder struct{}

// NewDefaultStageListBuilder --
func NewDefaultStageListBuilder() *DefaultStageListBuilder {
	return &DefaultStageListBuilder{}
}

// BuildStageList returns the plan
//
//	[create-cache, <archive retrieval>, build-image]
//
// where archive retrieval is a download for release builds and local
// archiving for snapshot builds. The archive is placed in the component's
// cache directory so that a later rebuild of the same release does not fetch
// it again.
func (b *DefaultStageListBuilder) BuildStageList(req StageListRequest) ([]Stage, error) {
	resourceDir := filepath.Join(req.BuiltConfig.ResourcePath, req.ComponentName)
	cacheDir := filepath.Join(resourceDir, "cache")
	archivePath := filepath.Join(cacheDir, req.ComponentName+".tar.gz")

	retrieval, err := b.archiveRetrievalStage(req, archivePath)
	if err != nil {
		return nil, err
	}

	buildArgs := BuildArgsForDependencies(req.Dependencies, req.BuiltConfig.Components)

	return []Stage{
		NewCreateCacheStage(resourceDir),
		retrieval,
		NewBuildImageStage(req.ImageBuilder, req.Image, buildArgs, resourceDir, req.ScratchDir, req.FileDependencies),
	}, nil
}

func (b *DefaultStageListBuilder) archiveRetrievalStage(req StageListRequest, archivePath string) (Stage, error) {
	switch req.DistType {
	case DistTypeRelease:
		url := strings.ReplaceAll(req.URLTemplate, VersionPlaceholder, req.Argument)
		return NewDownloadFileStage(req.Fetcher, url, archivePath), nil
	case DistTypeSnapshot:
		return NewCreateTarfileStage(req.Argument, archivePath), nil
	}

	return nil, &ConfigurationError{Reason: "unexpected distribution type"}
}
