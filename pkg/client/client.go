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
	"context"
)

// Client is a handle to the local container engine. It is constructed once
// per process and passed by reference into the builders; there is no
// module-level client instance.
type Client interface {
	// BuildImage builds an image from the given build context directory and
	// tags it with the given name. The build arguments are passed through to
	// the image build.
	BuildImage(ctx context.Context, sourceDir string, image string, buildArgs map[string]string) error

	// ImageExists reports whether an image with the given name is available
	// locally.
	ImageExists(ctx context.Context, image string) (bool, error)

	// CheckDaemon verifies that the container engine can be reached.
	CheckDaemon(ctx context.Context) error
}
