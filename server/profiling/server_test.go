/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package profiling_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/server/profiling"
	"github.com/datacanvas/collab/server/profiling/prometheus"
)

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { assert.NoError(t, resp.Body.Close()) }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	metrics.AddOpenRoom("notebook")

	t.Run("metrics test", func(t *testing.T) {
		server := profiling.NewServer(&profiling.Config{Port: 8081}, metrics)
		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		code, body := get(t, ts.URL+"/metrics")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `collab_relay_open_rooms{room_kind="notebook"} 1`)
	})

	t.Run("pprof disabled test", func(t *testing.T) {
		server := profiling.NewServer(&profiling.Config{Port: 8081}, metrics)
		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		code, _ := get(t, ts.URL+"/debug/pprof/")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("pprof enabled test", func(t *testing.T) {
		server := profiling.NewServer(&profiling.Config{Port: 8081, EnablePprof: true}, metrics)
		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		code, body := get(t, ts.URL+"/debug/pprof/")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "goroutine")

		code, _ = get(t, ts.URL+"/debug/pprof/heap")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("start and shutdown test", func(t *testing.T) {
		server := profiling.NewServer(&profiling.Config{Port: 18181}, metrics)
		assert.Nil(t, server.Addr())
		require.NoError(t, server.Start())
		defer server.Shutdown(true)

		code, _ := get(t, fmt.Sprintf("http://%s/metrics", server.Addr()))
		assert.Equal(t, http.StatusOK, code)
	})
}
