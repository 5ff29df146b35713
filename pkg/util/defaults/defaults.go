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

package defaults

import "os"

const (
	// Version -- may be overridden at build time.
	Version = "0.2.0-SNAPSHOT"

	// DefaultRepository is the image namespace used when none is configured.
	DefaultRepository = "dbd"
)

// Repository returns the configured image repository, falling back to the default.
func Repository() string {
	return envOrDefault(DefaultRepository, "DBD_REPOSITORY")
}

func envOrDefault(def string, envs ...string) string {
	for i := range envs {
		if val := os.Getenv(envs[i]); val != "" {
			return val
		}
	}
	return def
}
