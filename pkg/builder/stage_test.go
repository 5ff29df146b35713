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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbd-tools/dbd/pkg/util"
)

func TestCreateCacheStage(t *testing.T) {
	parentDir := t.TempDir()
	stage := NewCreateCacheStage(parentDir)

	assert.True(t, stage.CheckPrecondition())
	require.NoError(t, stage.Execute(context.Background()))

	ok, err := util.DirectoryExists(filepath.Join(parentDir, "cache"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateCacheStagePreconditionFailsOnMissingParent(t *testing.T) {
	stage := NewCreateCacheStage(filepath.Join(t.TempDir(), "no-such-dir"))

	assert.False(t, stage.CheckPrecondition())
}

func TestCreateCacheStagePreservesExistingContents(t *testing.T) {
	parentDir := t.TempDir()
	cached := filepath.Join(parentDir, "cache", "db.tar.gz")
	require.NoError(t, util.CreateDirectory(filepath.Dir(cached)))
	require.NoError(t, util.WriteToFile(cached, "cached archive"))

	stage := NewCreateCacheStage(parentDir)
	require.NoError(t, stage.Execute(context.Background()))

	contents, err := ioutil.ReadFile(cached)
	require.NoError(t, err)
	assert.Equal(t, "cached archive", string(contents))
}

func TestCreateTarfileStage(t *testing.T) {
	sourceDir := filepath.Join(t.TempDir(), "db")
	require.NoError(t, util.CreateDirectory(sourceDir))
	require.NoError(t, util.WriteToFile(filepath.Join(sourceDir, "schema.sql"), "create table t (id int);"))

	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	stage := NewCreateTarfileStage(sourceDir, destPath)

	assert.True(t, stage.CheckPrecondition())
	require.NoError(t, stage.Execute(context.Background()))

	ok, err := util.FileExists(destPath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateTarfileStagePrecondition(t *testing.T) {
	existing := t.TempDir()
	missing := filepath.Join(t.TempDir(), "no-such-dir")

	assert.False(t, NewCreateTarfileStage(missing, filepath.Join(existing, "a.tar.gz")).CheckPrecondition())
	assert.False(t, NewCreateTarfileStage(existing, filepath.Join(missing, "a.tar.gz")).CheckPrecondition())
}

func TestDownloadFileStage(t *testing.T) {
	fetcher := fakeFetcher{}
	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	stage := NewDownloadFileStage(&fetcher, "https://dist.example.com/db-1.0.tar.gz", destPath)

	assert.True(t, stage.CheckPrecondition())
	require.NoError(t, stage.Execute(context.Background()))

	assert.Equal(t, []string{"https://dist.example.com/db-1.0.tar.gz"}, fetcher.urls)

	ok, err := util.FileExists(destPath)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDownloadFileStagePreconditionFailsOnMissingDestinationDir(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "no-such-dir", "db.tar.gz")
	stage := NewDownloadFileStage(&fakeFetcher{}, "https://dist.example.com/db-1.0.tar.gz", destPath)

	assert.False(t, stage.CheckPrecondition())
}

func TestBuildImageStageAssemblesContextAndDelegates(t *testing.T) {
	contextDir := t.TempDir()
	require.NoError(t, util.WriteToFile(filepath.Join(contextDir, "Dockerfile"), "FROM scratch"))
	require.NoError(t, util.CreateDirectory(filepath.Join(contextDir, "cache")))
	require.NoError(t, util.WriteToFile(filepath.Join(contextDir, "cache", "db.tar.gz"), "archive"))

	// The scratch directory lives inside the context directory, as it does in
	// a real build.
	scratchDir := filepath.Join(contextDir, "tmp-test")
	require.NoError(t, util.CreateDirectory(scratchDir))

	imageBuilder := fakeImageBuilder{}
	buildArgs := map[string]string{"DB_IMAGE": "acme/db:1.0_"}
	stage := NewBuildImageStage(&imageBuilder, "acme/web:3.0_dbdb1.0", buildArgs, contextDir, scratchDir, []string{"Dockerfile"})

	assert.True(t, stage.CheckPrecondition())
	require.NoError(t, stage.Execute(context.Background()))

	require.Equal(t, []string{"acme/web:3.0_dbdb1.0"}, imageBuilder.images)
	assert.Equal(t, []string{scratchDir}, imageBuilder.sourceDirs)
	assert.Equal(t, buildArgs, imageBuilder.buildArgs[0])

	// The context contents are in the scratch directory, the scratch
	// directory itself is not.
	for _, name := range []string{"Dockerfile", filepath.Join("cache", "db.tar.gz")} {
		ok, err := util.FileExists(filepath.Join(scratchDir, name))
		require.NoError(t, err)
		assert.True(t, ok, "%s missing from the build context", name)
	}

	_, err := os.Stat(filepath.Join(scratchDir, filepath.Base(scratchDir)))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildImageStagePreconditionChecksFileDependencies(t *testing.T) {
	contextDir := t.TempDir()
	scratchDir := t.TempDir()

	stage := NewBuildImageStage(&fakeImageBuilder{}, "acme/db:1.0_", nil, contextDir, scratchDir, []string{"Dockerfile"})
	assert.False(t, stage.CheckPrecondition())

	require.NoError(t, util.WriteToFile(filepath.Join(contextDir, "Dockerfile"), "FROM scratch"))
	assert.True(t, stage.CheckPrecondition())
}

func TestBuildArgsForDependencies(t *testing.T) {
	components := map[string]ComponentConfig{
		"db":    {ImageName: "acme/db:1.0_"},
		"cache": {ImageName: "acme/cache:2.0_"},
	}

	buildArgs := BuildArgsForDependencies([]string{"db", "cache"}, components)

	assert.Equal(t, map[string]string{
		"DB_IMAGE":    "acme/db:1.0_",
		"CACHE_IMAGE": "acme/cache:2.0_",
	}, buildArgs)
}

func TestStageNames(t *testing.T) {
	executed := []string{}
	stages := passingStages(&executed, "create-cache", "download-file", "build-image")

	assert.Equal(t, []string{"create-cache", "download-file", "build-image"}, StageNames(stages))
}
