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
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// notFoundMarker appears on stderr when docker image inspect is given an
// image the daemon does not know.
const notFoundMarker = "No such image"

type dockerClient struct {
	binary string
	log    *logrus.Entry
}

// NewDockerClient returns a Client backed by the docker command line binary.
func NewDockerClient() Client {
	return &dockerClient{
		binary: "docker",
		log:    logrus.WithField("logger", "docker"),
	}
}

// BuildImageArgs - standard docker build arguments:
//
//	docker build -t <image-name> --build-arg K=V ... --rm <source-directory>
func BuildImageArgs(sourceDir string, image string, buildArgs map[string]string) []string {
	args := make([]string, 0, 5+2*len(buildArgs))
	args = append(args, "build")
	args = append(args, "-t", image)

	// Sorted so that the command line is deterministic.
	keys := make([]string, 0, len(buildArgs))
	for key := range buildArgs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--build-arg", key+"="+buildArgs[key])
	}

	args = append(args, "--rm", sourceDir)

	return args
}

// ImageInspectArgs - arguments checking for a local image:
//
//	docker image inspect <image-name>
func ImageInspectArgs(image string) []string {
	return []string{"image", "inspect", image}
}

func (c *dockerClient) BuildImage(ctx context.Context, sourceDir string, image string, buildArgs map[string]string) error {
	cmd := exec.CommandContext(ctx, c.binary, BuildImageArgs(sourceDir, image, buildArgs)...)

	if err := c.runAndLog(ctx, cmd); err != nil {
		return errors.Wrapf(err, "building image %s failed", image)
	}

	return nil
}

func (c *dockerClient) ImageExists(ctx context.Context, image string) (bool, error) {
	cmd := exec.CommandContext(ctx, c.binary, ImageInspectArgs(image)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if IsImageNotFoundOutput(stderr.String()) {
			return false, nil
		}
		return false, errors.Wrapf(err, "cannot inspect image %s: %s", image, strings.TrimSpace(stderr.String()))
	}

	return true, nil
}

func (c *dockerClient) CheckDaemon(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.binary, "version")
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "cannot reach the docker daemon: %s", strings.TrimSpace(string(output)))
	}

	return nil
}

// IsImageNotFoundOutput reports whether the inspect error output means the
// image does not exist, as opposed to the daemon being unreachable.
func IsImageNotFoundOutput(stderr string) bool {
	return strings.Contains(stderr, notFoundMarker)
}

// runAndLog starts the provided command, scans its standard and error outputs
// line by line into the log, and waits until the scans complete and the
// command returns. The last error output lines are attached to the returned
// error to carry the backend diagnostics.
func (c *dockerClient) runAndLog(ctx context.Context, cmd *exec.Cmd) error {
	c.log.Debugf("executing command: %s", strings.Join(cmd.Args, " "))

	stdOut, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stdErr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var errTail string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanLines(stdOut, func(line string) {
			c.log.Debug(line)
		})
		return nil
	})
	g.Go(func() error {
		errTail = scanLines(stdErr, func(line string) {
			c.log.Debug(line)
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := cmd.Wait(); err != nil {
		if errTail != "" {
			return errors.Wrap(err, errTail)
		}
		return err
	}

	return nil
}

func scanLines(reader io.ReadCloser, handle func(string)) string {
	last := ""
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		handle(line)
		if strings.TrimSpace(line) != "" {
			last = line
		}
	}

	return last
}
