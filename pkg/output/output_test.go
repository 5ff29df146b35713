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

package output

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/dbd-tools/dbd/pkg/builder"
)

func testConfiguration(resourcePath string) *builder.Configuration {
	configuration := builder.NewConfiguration("demo", "1584629260", "acme", resourcePath)
	configuration.Components["db"] = builder.ComponentConfig{
		DistType:  builder.DistTypeRelease,
		Version:   "1.0",
		ImageName: "acme/db:1.0_",
	}
	configuration.Components["web"] = builder.ComponentConfig{
		DistType:  builder.DistTypeSnapshot,
		Version:   "snapshot_1584629260",
		ImageName: "acme/web:snapshot_1584629260_dbdb1.0",
	}

	return configuration
}

func writePart(t *testing.T, resourcePath string, component string, file string, contents string) {
	t.Helper()

	dir := filepath.Join(resourcePath, component)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, file), []byte(contents), 0o644))
}

func TestGenerate(t *testing.T) {
	resourcePath := t.TempDir()
	writePart(t, resourcePath, "db", composePartFile, "services:\n  db:\n    image: ${DB_IMAGE}\n")
	writePart(t, resourcePath, "web", composePartFile, "services:\n  web:\n    image: ${WEB_IMAGE}\n")
	writePart(t, resourcePath, "web", composeConfigPartFile, "web.port=8080\n")

	outputLocation := t.TempDir()
	out, err := Generate([]string{"db", "web"}, testConfiguration(resourcePath), outputLocation)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outputLocation, "demo_1584629260"), out)

	env, err := ioutil.ReadFile(filepath.Join(out, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "DB_IMAGE=acme/db:1.0_\nWEB_IMAGE=acme/web:snapshot_1584629260_dbdb1.0\n", string(env))

	report, err := ioutil.ReadFile(filepath.Join(out, "output_configuration.yaml"))
	require.NoError(t, err)

	var decoded struct {
		Name       string `yaml:"name"`
		Timestamp  string `yaml:"timestamp"`
		Components map[string]struct {
			DistType  string `yaml:"dist_type"`
			Version   string `yaml:"version"`
			ImageName string `yaml:"image_name"`
		} `yaml:"components"`
	}
	require.NoError(t, yaml.Unmarshal(report, &decoded))
	assert.Equal(t, "demo", decoded.Name)
	assert.Equal(t, "1584629260", decoded.Timestamp)
	assert.Equal(t, "release", decoded.Components["db"].DistType)
	assert.Equal(t, "snapshot_1584629260", decoded.Components["web"].Version)
	assert.Equal(t, "acme/web:snapshot_1584629260_dbdb1.0", decoded.Components["web"].ImageName)

	compose, err := ioutil.ReadFile(filepath.Join(out, "docker-compose.yaml"))
	require.NoError(t, err)

	var composeDoc struct {
		Version  string                            `yaml:"version"`
		Services map[string]map[string]interface{} `yaml:"services"`
	}
	require.NoError(t, yaml.Unmarshal(compose, &composeDoc))
	assert.Equal(t, "3", composeDoc.Version)
	assert.Equal(t, "${DB_IMAGE}", composeDoc.Services["db"]["image"])
	assert.Equal(t, "${WEB_IMAGE}", composeDoc.Services["web"]["image"])

	composeConfig, err := ioutil.ReadFile(filepath.Join(out, "compose-config"))
	require.NoError(t, err)
	assert.Equal(t, "# web\nweb.port=8080\n\n", string(composeConfig))
}

func TestGenerateWithoutFragments(t *testing.T) {
	resourcePath := t.TempDir()

	out, err := Generate([]string{"db", "web"}, testConfiguration(resourcePath), t.TempDir())
	require.NoError(t, err)

	compose, err := ioutil.ReadFile(filepath.Join(out, "docker-compose.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "version: \"3\"\n", string(compose))
}

func TestGenerateFailsOnConflictingComposeEntries(t *testing.T) {
	resourcePath := t.TempDir()
	writePart(t, resourcePath, "db", composePartFile, "services:\n  shared:\n    image: a\n")
	writePart(t, resourcePath, "web", composePartFile, "services:\n  shared:\n    image: b\n")

	_, err := Generate([]string{"db", "web"}, testConfiguration(resourcePath), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared")
}

func TestGenerateFailsOnMissingOutputLocation(t *testing.T) {
	_, err := Generate([]string{"db"}, testConfiguration(t.TempDir()), filepath.Join(t.TempDir(), "no-such-dir"))

	require.Error(t, err)
}
