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

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildImageArgs(t *testing.T) {
	args := BuildImageArgs("/work/scratch", "acme/web:3.0_dbdb1.0", map[string]string{
		"DB_IMAGE":    "acme/db:1.0_",
		"CACHE_IMAGE": "acme/cache:2.0_",
	})

	assert.Equal(t, []string{
		"build",
		"-t", "acme/web:3.0_dbdb1.0",
		"--build-arg", "CACHE_IMAGE=acme/cache:2.0_",
		"--build-arg", "DB_IMAGE=acme/db:1.0_",
		"--rm", "/work/scratch",
	}, args)
}

func TestBuildImageArgsWithoutBuildArgs(t *testing.T) {
	args := BuildImageArgs("/work/scratch", "acme/db:1.0_", nil)

	assert.Equal(t, []string{"build", "-t", "acme/db:1.0_", "--rm", "/work/scratch"}, args)
}

func TestImageInspectArgs(t *testing.T) {
	assert.Equal(t, []string{"image", "inspect", "acme/db:1.0_"}, ImageInspectArgs("acme/db:1.0_"))
}

func TestIsImageNotFoundOutput(t *testing.T) {
	assert.True(t, IsImageNotFoundOutput("Error: No such image: acme/db:1.0_"))
	assert.False(t, IsImageNotFoundOutput("Cannot connect to the Docker daemon"))
	assert.False(t, IsImageNotFoundOutput(""))
}
