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

package fetch

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(attempts int) *HTTPFetcher {
	return &HTTPFetcher{
		Client:     http.DefaultClient,
		Attempts:   attempts,
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}
}

func TestFetchDownloadsFile(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write([]byte("archive contents"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	err := newTestFetcher(4).Fetch(context.Background(), server.URL, destPath)
	require.NoError(t, err)

	assert.Equal(t, 1, requests)

	contents, err := ioutil.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "archive contents", string(contents))
}

func TestFetchFailsFastOnClientError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	err := newTestFetcher(4).Fetch(context.Background(), server.URL, destPath)
	require.Error(t, err)

	assert.Equal(t, 1, requests)
	assert.NoFileExists(t, destPath)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("archive contents"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	err := newTestFetcher(4).Fetch(context.Background(), server.URL, destPath)
	require.NoError(t, err)

	assert.Equal(t, 3, requests)
	assert.FileExists(t, destPath)
}

func TestFetchGivesUpAfterConfiguredAttempts(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "db.tar.gz")
	err := newTestFetcher(2).Fetch(context.Background(), server.URL, destPath)
	require.Error(t, err)

	assert.Equal(t, 2, requests)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestFetchLeavesNoPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	destPath := filepath.Join(dir, "db.tar.gz")
	err := newTestFetcher(1).Fetch(context.Background(), server.URL, destPath)
	require.Error(t, err)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
