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

package tar

import (
	"compress/gzip"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	tarutils "archive/tar"

	"github.com/pkg/errors"
)

// Create writes a gzip-compressed tar archive of the source directory to
// destination. The archive's top-level entry is named after the base name of
// the source directory, so extracting it reproduces the directory itself and
// not a bare dump of its children.
func Create(source string, destination string) error {
	source = filepath.Clean(source)

	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.Errorf("cannot archive non-directory: %s", source)
	}

	file, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	writer := tarutils.NewWriter(gz)
	defer writer.Close()

	root := filepath.Base(source)

	return filepath.Walk(source, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(source, name)
		if err != nil {
			return err
		}

		header, err := tarutils.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = path.Join(root, filepath.ToSlash(relative))

		if err := writer.WriteHeader(header); err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		in, err := os.Open(name)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(writer, in)

		return err
	})
}

// Extract unpacks a gzip-compressed tar archive into the destination directory.
func Extract(source string, destinationBase string) error {
	file, err := os.Open(source)
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()

	reader := tarutils.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if strings.Contains(header.Name, "..") {
			return errors.Errorf("refusing to extract entry with relative path: %s", header.Name)
		}

		targetName := filepath.Join(destinationBase, filepath.FromSlash(header.Name))
		if header.FileInfo().IsDir() {
			if err := os.MkdirAll(targetName, 0o755); err != nil {
				return err
			}
			continue
		}

		targetDir, _ := filepath.Split(targetName)
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return err
		}
		buffer, err := ioutil.ReadAll(reader)
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(targetName, buffer, os.FileMode(header.Mode)); err != nil {
			return err
		}
	}

	return nil
}
