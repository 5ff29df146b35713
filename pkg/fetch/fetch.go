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
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPFetcher downloads files over HTTP(S). Transient failures (transport
// errors and 5xx responses) are retried with exponential backoff; client
// errors such as 404 fail immediately. The callers treat a returned error as
// fatal and do not retry on their own.
type HTTPFetcher struct {
	// Client is the HTTP client used for the downloads.
	Client *http.Client

	// Attempts is the number of times a transient failure is tried in total.
	Attempts int

	// BackoffMin and BackoffMax bound the delay between attempts.
	BackoffMin time.Duration
	BackoffMax time.Duration

	log *logrus.Entry
}

// NewHTTPFetcher returns an HTTPFetcher with production defaults.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:     &http.Client{Timeout: 30 * time.Minute},
		Attempts:   4,
		BackoffMin: 500 * time.Millisecond,
		BackoffMax: 10 * time.Second,
		log:        logrus.WithField("logger", "fetch"),
	}
}

// Fetch downloads the resource at url into destPath. The file is written
// through a temporary sibling and renamed into place, so a failed download
// never leaves a partial file at the destination.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, destPath string) error {
	b := &backoff.Backoff{
		Min:    f.BackoffMin,
		Max:    f.BackoffMax,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < f.Attempts; attempt++ {
		if attempt > 0 {
			delay := b.Duration()
			f.logger().Infof("retrying download of %s in %v", url, delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		retryable, err := f.fetchOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}

	return errors.Wrapf(lastErr, "giving up downloading %s after %d attempts", url, f.Attempts)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string, destPath string) (retryable bool, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	response, err := f.Client.Do(request)
	if err != nil {
		return true, errors.Wrapf(err, "cannot download %s", url)
	}
	defer response.Body.Close()

	if response.StatusCode >= 500 {
		return true, errors.Errorf("cannot download %s: %s", url, response.Status)
	}
	if response.StatusCode >= 300 {
		return false, errors.Errorf("cannot download %s: %s", url, response.Status)
	}

	if err := writeAtomically(response.Body, destPath); err != nil {
		return false, errors.Wrapf(err, "cannot write %s", destPath)
	}

	return false, nil
}

func (f *HTTPFetcher) logger() *logrus.Entry {
	if f.log == nil {
		f.log = logrus.WithField("logger", "fetch")
	}
	return f.log
}

func writeAtomically(source io.Reader, destPath string) error {
	partPath := destPath + ".part"

	out, err := os.Create(partPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, source); err != nil {
		out.Close()
		os.Remove(partPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return err
	}

	return os.Rename(partPath, destPath)
}
