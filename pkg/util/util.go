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

package util

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileExists reports whether name exists and is a regular file.
func FileExists(name string) (bool, error) {
	info, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

// DirectoryExists reports whether directory exists and is a directory.
func DirectoryExists(directory string) (bool, error) {
	info, err := os.Stat(directory)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return info.IsDir(), nil
}

// CreateDirectory creates the given directory along with any missing parents.
func CreateDirectory(directory string) error {
	if directory != "" {
		directoryExists, err := DirectoryExists(directory)
		if err != nil {
			return err
		}

		if !directoryExists {
			err := os.MkdirAll(directory, 0o755)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// WriteToFile writes the given contents to filePath.
func WriteToFile(filePath string, fileContents string) error {
	err := ioutil.WriteFile(filePath, []byte(fileContents), 0o644)
	if err != nil {
		return errors.Wrapf(err, "error writing file: %v", filePath)
	}

	return nil
}

// CopyFile copies a regular file from source to destination, preserving its mode.
func CopyFile(source string, destination string) error {
	stat, err := os.Stat(source)
	if err != nil {
		return err
	}

	if !stat.Mode().IsRegular() {
		return errors.Errorf("cannot copy non-regular file: %s", source)
	}

	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, stat.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)

	return err
}

// CopyDir recursively copies the contents of the source directory into the
// destination directory. Entries whose full path is listed in skip are left out.
func CopyDir(source string, destination string, skip ...string) error {
	entries, err := ioutil.ReadDir(source)
	if err != nil {
		return err
	}

	if err := CreateDirectory(destination); err != nil {
		return err
	}

	for _, entry := range entries {
		sourcePath := filepath.Join(source, entry.Name())
		destinationPath := filepath.Join(destination, entry.Name())

		if contains(skip, sourcePath) {
			continue
		}

		if entry.IsDir() {
			if err := CopyDir(sourcePath, destinationPath, skip...); err != nil {
				return err
			}
		} else {
			if err := CopyFile(sourcePath, destinationPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// StringSliceContains reports whether the slice contains all the given items.
func StringSliceContains(slice []string, items []string) bool {
	for _, item := range items {
		if !StringSliceExists(slice, item) {
			return false
		}
	}

	return true
}

// StringSliceExists reports whether the slice contains the given item.
func StringSliceExists(slice []string, item string) bool {
	for i := range slice {
		if slice[i] == item {
			return true
		}
	}

	return false
}

func contains(slice []string, item string) bool {
	return StringSliceExists(slice, item)
}
